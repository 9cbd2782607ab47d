package config

import (
	"time"

	"github.com/imamik/zookeeper-operator/internal/util/retry"
)

// Config is the operator configuration.
type Config struct {
	Image         ImageConfig   `yaml:"image"`
	ClusterDomain string        `yaml:"clusterDomain"`
	Workers       int           `yaml:"workers"`
	Requeue       RequeueConfig `yaml:"requeue"`
	Backoff       BackoffConfig `yaml:"backoff"`
}

// ImageConfig selects the ZooKeeper container image. The tag is the
// ensemble's spec.version.
type ImageConfig struct {
	Repository string `yaml:"repository"`
	PullPolicy string `yaml:"pullPolicy"`
}

// RequeueConfig holds the fixed requeue intervals.
type RequeueConfig struct {
	// Default is used for paused ensembles
	Default time.Duration `yaml:"default"`
	// InvalidSpec is used while a spec error waits for a human
	InvalidSpec time.Duration `yaml:"invalidSpec"`
	// Rolling is the poll interval while a rolling restart is in flight
	Rolling time.Duration `yaml:"rolling"`
}

// BackoffConfig is the schedule for transient failures.
type BackoffConfig struct {
	Initial time.Duration `yaml:"initial"`
	Max     time.Duration `yaml:"max"`
	Factor  float64       `yaml:"factor"`
	Jitter  float64       `yaml:"jitter"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Image: ImageConfig{
			Repository: "zookeeper",
			PullPolicy: "IfNotPresent",
		},
		ClusterDomain: "cluster.local",
		Workers:       2,
		Requeue: RequeueConfig{
			Default:     30 * time.Second,
			InvalidSpec: 6 * time.Minute,
			Rolling:     10 * time.Second,
		},
		Backoff: BackoffConfig{
			Initial: 5 * time.Second,
			Max:     5 * time.Minute,
			Factor:  2,
			Jitter:  0.1,
		},
	}
}

// RetryBackoff converts the backoff settings into a retry schedule.
func (c *Config) RetryBackoff() retry.Backoff {
	return retry.Backoff{
		Initial: c.Backoff.Initial,
		Max:     c.Backoff.Max,
		Factor:  c.Backoff.Factor,
		Jitter:  c.Backoff.Jitter,
	}
}
