package zkconfig

import (
	"github.com/Masterminds/semver/v3"

	"github.com/imamik/zookeeper-operator/internal/zookeeper"
)

var (
	// minVersion is the first release with the "host:peer:election;client"
	// server line format.
	minVersion = semver.MustParse("3.5.0")

	// metricsVersion is the first release shipping the Prometheus metrics provider.
	metricsVersion = semver.MustParse("3.6.0")

	// logbackVersion is the first release logging through logback instead of log4j.
	logbackVersion = semver.MustParse("3.8.0")
)

// ParseVersion parses and checks a ZooKeeper release version.
func ParseVersion(version string) (*semver.Version, error) {
	if version == "" {
		return nil, zookeeper.Errorf(zookeeper.KindInvalidSpec, "version is required")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, zookeeper.Wrap(zookeeper.KindInvalidSpec, err, "version "+version+" is not a semantic version")
	}
	if v.LessThan(minVersion) {
		return nil, zookeeper.Errorf(zookeeper.KindInvalidSpec,
			"version %s is not supported, %s or later is required", version, minVersion)
	}
	return v, nil
}

func supportsMetrics(v *semver.Version) bool {
	return !v.LessThan(metricsVersion)
}

func usesLogback(v *semver.Version) bool {
	return !v.LessThan(logbackVersion)
}
