package zkconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/imamik/zookeeper-operator/api/v1alpha1"
	"github.com/imamik/zookeeper-operator/internal/zookeeper"
	"github.com/imamik/zookeeper-operator/internal/zookeeper/topology"
)

// File names of a rendered bundle.
const (
	FileZooCfg  = "zoo.cfg"
	FileMyID    = "myid"
	FileEnv     = "zookeeper-env.sh"
	FileLog4j   = "log4j.properties"
	FileLogback = "logback.xml"
)

// DataDir is where each server keeps its snapshots and transaction logs.
const DataDir = "/data"

const prometheusProvider = "org.apache.zookeeper.metrics.prometheus.PrometheusMetricsProvider"

// Input is everything a member's bundle depends on.
type Input struct {
	Version    string
	Overrides  map[string]string
	Membership topology.Membership
	Self       topology.Identity
}

// Rendered is the config bundle of one member.
type Rendered struct {
	Files    map[string]string
	Env      map[string]string
	Checksum string
}

// FileNames returns the bundle file names in sorted order.
func (r *Rendered) FileNames() []string {
	return sortedKeys(r.Files)
}

// Defaults returns the built-in overlay for a version.
func Defaults(v *semver.Version) Overlay {
	values := map[string]string{
		"tickTime":                  "2000",
		"initLimit":                 "10",
		"syncLimit":                 "5",
		"maxClientCnxns":            "60",
		"autopurge.snapRetainCount": "3",
		"autopurge.purgeInterval":   "1",
		"quorumListenOnAllIPs":      "true",
		"reconfigEnabled":           "false",
		"4lw.commands.whitelist":    "srvr,mntr,ruok,conf,stat",
		"admin.enableServer":        "true",
		"admin.serverPort":          strconv.Itoa(int(v1alpha1.AdminServerPort)),
	}
	if supportsMetrics(v) {
		values["metricsProvider.className"] = prometheusProvider
		values["metricsProvider.httpPort"] = strconv.Itoa(int(v1alpha1.MetricsPort))
		values["metricsProvider.exportJvmInfo"] = "true"
	}
	return Overlay{Name: "default", Values: values}
}

// Render produces the config bundle of one member.
func Render(in Input) (*Rendered, error) {
	v, err := ParseVersion(in.Version)
	if err != nil {
		return nil, err
	}

	self, ok := in.Membership.Lookup(in.Self.ID)
	if !ok {
		return nil, zookeeper.Errorf(zookeeper.KindInconsistentTopology,
			"member %s is not part of the quorum membership %v", in.Self, in.Membership.IDs())
	}
	if self.Host != in.Self.Hostname {
		return nil, zookeeper.Errorf(zookeeper.KindInconsistentTopology,
			"member %s renders as %s but the membership lists server %d at %s",
			in.Self, in.Self.Hostname, self.ID, self.Host)
	}

	values, err := Merge(Defaults(v), Overlay{Name: "role group " + in.Self.RoleGroup, Values: in.Overrides})
	if err != nil {
		return nil, err
	}

	env := renderEnv(in, values)

	files := map[string]string{
		FileZooCfg: renderZooCfg(values, in.Membership),
		FileMyID:   strconv.Itoa(int(in.Self.ID)) + "\n",
		FileEnv:    renderEnvScript(env),
	}
	if usesLogback(v) {
		files[FileLogback] = logbackXML
	} else {
		files[FileLog4j] = log4jProperties
	}

	return &Rendered{
		Files:    files,
		Env:      env,
		Checksum: checksum(files),
	}, nil
}

func renderZooCfg(values map[string]string, membership topology.Membership) string {
	var b strings.Builder

	fmt.Fprintf(&b, "dataDir=%s\n", DataDir)
	fmt.Fprintf(&b, "clientPort=%d\n", v1alpha1.ClientPort)
	b.WriteString("standaloneEnabled=false\n")

	for _, key := range sortedKeys(values) {
		if envOnlyKeys[key] {
			continue
		}
		fmt.Fprintf(&b, "%s=%s\n", key, values[key])
	}

	for _, s := range membership.Servers {
		fmt.Fprintf(&b, "server.%d=%s:%d:%d;%d\n", s.ID, s.Host, s.PeerPort, s.LeaderElectionPort, s.ClientPort)
	}
	return b.String()
}

func renderEnv(in Input, values map[string]string) map[string]string {
	env := map[string]string{
		"ZOO_MY_ID":       strconv.Itoa(int(in.Self.ID)),
		"ZOO_DATA_DIR":    DataDir,
		"ZOO_LOG4J_PROP":  "INFO,CONSOLE",
		"ZOO_SERVER_HOST": in.Self.Hostname,
		"ZOO_ROLE_GROUP":  in.Self.RoleGroup,
	}
	if heap, ok := values["jvm.heapMegabytes"]; ok {
		env["SERVER_JVMFLAGS"] = fmt.Sprintf("-Xmx%sm -Xms%sm", heap, heap)
	}
	return env
}

func renderEnvScript(env map[string]string) string {
	var b strings.Builder
	b.WriteString("#!/usr/bin/env sh\n")
	for _, key := range sortedKeys(env) {
		fmt.Fprintf(&b, "export %s=%s\n", key, strconv.Quote(env[key]))
	}
	return b.String()
}

func checksum(files map[string]string) string {
	h := sha256.New()
	for _, name := range sortedKeys(files) {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(files[name]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GroupChecksum folds member checksums, given in member id order, into one
// checksum for a role group.
func GroupChecksum(checksums ...string) string {
	h := sha256.New()
	for _, c := range checksums {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// MetricsPort returns the effective Prometheus port for a version and a set of
// overrides, or zero when the metrics provider is not available.
func MetricsPort(version string, overrides map[string]string) int32 {
	if p, ok := portOverride(overrides, "metricsProvider.httpPort"); ok {
		return p
	}
	v, err := semver.NewVersion(version)
	if err != nil || !supportsMetrics(v) {
		return 0
	}
	return v1alpha1.MetricsPort
}

// AdminPort returns the effective AdminServer port for a set of overrides,
// or zero when the AdminServer is disabled.
func AdminPort(overrides map[string]string) int32 {
	if enabled, ok := overrides["admin.enableServer"]; ok {
		if b, err := strconv.ParseBool(enabled); err == nil && !b {
			return 0
		}
	}
	if p, ok := portOverride(overrides, "admin.serverPort"); ok {
		return p
	}
	return v1alpha1.AdminServerPort
}

func portOverride(overrides map[string]string, key string) (int32, bool) {
	raw, ok := overrides[key]
	if !ok {
		return 0, false
	}
	return parsePort(raw)
}

