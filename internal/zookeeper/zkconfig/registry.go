package zkconfig

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/imamik/zookeeper-operator/internal/zookeeper"
)

// ValueKind is the type a config value must parse as.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindBool
	// KindPort is an integer TCP port, 1 to 65535
	KindPort
)

const maxPort = 65535

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindBool:
		return "boolean"
	case KindPort:
		return "port"
	default:
		return "string"
	}
}

// registry lists the zoo.cfg keys a role group may override.
var registry = map[string]ValueKind{
	"tickTime":                      KindInt,
	"initLimit":                     KindInt,
	"syncLimit":                     KindInt,
	"syncEnabled":                   KindBool,
	"globalOutstandingLimit":        KindInt,
	"preAllocSize":                  KindInt,
	"snapCount":                     KindInt,
	"commitLogCount":                KindInt,
	"snapSizeLimitInKb":             KindInt,
	"maxCnxns":                      KindInt,
	"maxClientCnxns":                KindInt,
	"minSessionTimeout":             KindInt,
	"maxSessionTimeout":             KindInt,
	"cnxTimeout":                    KindInt,
	"electionPortBindRetry":         KindInt,
	"autopurge.snapRetainCount":     KindInt,
	"autopurge.purgeInterval":       KindInt,
	"quorumListenOnAllIPs":          KindBool,
	"reconfigEnabled":               KindBool,
	"skipACL":                       KindString,
	"leaderServes":                  KindString,
	"4lw.commands.whitelist":        KindString,
	"admin.enableServer":            KindBool,
	"admin.serverPort":              KindPort,
	"metricsProvider.className":     KindString,
	"metricsProvider.httpPort":      KindPort,
	"metricsProvider.exportJvmInfo": KindBool,
	"jvm.heapMegabytes":             KindInt,
}

// ownedKeys are written by the operator and may not be overridden.
var ownedKeys = map[string]bool{
	"dataDir":           true,
	"dataLogDir":        true,
	"clientPort":        true,
	"dynamicConfigFile": true,
	"standaloneEnabled": true,
}

var ownedPrefixes = []string{"server.", "group.", "weight."}

// envOnlyKeys are accepted in overrides but rendered into the environment
// script instead of zoo.cfg.
var envOnlyKeys = map[string]bool{
	"jvm.heapMegabytes": true,
}

func isOwned(key string) bool {
	if ownedKeys[key] {
		return true
	}
	for _, p := range ownedPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// Validate checks a single key/value pair against the registry.
func Validate(key, value string) error {
	if isOwned(key) {
		return zookeeper.Errorf(zookeeper.KindInvalidSpec, "config key %q is managed by the operator", key)
	}
	kind, ok := registry[key]
	if !ok {
		return zookeeper.Errorf(zookeeper.KindUnknownConfigKey, "unknown config key %q", key)
	}

	switch kind {
	case KindInt:
		if _, err := strconv.ParseInt(value, 10, 32); err != nil {
			return zookeeper.Errorf(zookeeper.KindInvalidSpec, "config key %q must be an %s, got %q", key, kind, value)
		}
	case KindPort:
		if _, ok := parsePort(value); !ok {
			return zookeeper.Errorf(zookeeper.KindInvalidSpec, "config key %q must be a port between 1 and %d, got %q", key, maxPort, value)
		}
	case KindBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return zookeeper.Errorf(zookeeper.KindInvalidSpec, "config key %q must be a %s, got %q", key, kind, value)
		}
	case KindString:
		if strings.ContainsAny(value, "\n\r") {
			return zookeeper.Errorf(zookeeper.KindInvalidSpec, "config key %q must be a single line", key)
		}
	}
	return nil
}

func parsePort(value string) (int32, bool) {
	p, err := strconv.ParseInt(value, 10, 32)
	if err != nil || p < 1 || p > maxPort {
		return 0, false
	}
	return int32(p), true
}

// Overlay is one named layer of config values.
type Overlay struct {
	Name   string
	Values map[string]string
}

// Merge applies overlays left to right; later layers win. Keys are validated
// in sorted order so the reported error is stable.
func Merge(overlays ...Overlay) (map[string]string, error) {
	merged := make(map[string]string)
	for _, o := range overlays {
		for _, key := range sortedKeys(o.Values) {
			value := o.Values[key]
			if err := Validate(key, value); err != nil {
				return nil, fmt.Errorf("%s config: %w", o.Name, err)
			}
			merged[key] = value
		}
	}
	return merged, nil
}

// KnownKeys returns the overridable keys in sorted order.
func KnownKeys() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
