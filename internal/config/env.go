package config

import (
	"os"
	"strconv"
	"time"
)

// ApplyEnv overrides configuration values from environment variables.
// Unset or unparsable variables leave the current value untouched.
//
// Environment Variables:
//   - ZK_OPERATOR_IMAGE_REPOSITORY
//   - ZK_OPERATOR_CLUSTER_DOMAIN
//   - ZK_OPERATOR_WORKERS
//   - ZK_OPERATOR_REQUEUE_DEFAULT
//   - ZK_OPERATOR_REQUEUE_INVALID_SPEC
//   - ZK_OPERATOR_REQUEUE_ROLLING
//   - ZK_OPERATOR_BACKOFF_INITIAL
//   - ZK_OPERATOR_BACKOFF_MAX
func ApplyEnv(cfg *Config) {
	cfg.Image.Repository = parseString("ZK_OPERATOR_IMAGE_REPOSITORY", cfg.Image.Repository)
	cfg.ClusterDomain = parseString("ZK_OPERATOR_CLUSTER_DOMAIN", cfg.ClusterDomain)
	cfg.Workers = parseInt("ZK_OPERATOR_WORKERS", cfg.Workers)
	cfg.Requeue.Default = parseDuration("ZK_OPERATOR_REQUEUE_DEFAULT", cfg.Requeue.Default)
	cfg.Requeue.InvalidSpec = parseDuration("ZK_OPERATOR_REQUEUE_INVALID_SPEC", cfg.Requeue.InvalidSpec)
	cfg.Requeue.Rolling = parseDuration("ZK_OPERATOR_REQUEUE_ROLLING", cfg.Requeue.Rolling)
	cfg.Backoff.Initial = parseDuration("ZK_OPERATOR_BACKOFF_INITIAL", cfg.Backoff.Initial)
	cfg.Backoff.Max = parseDuration("ZK_OPERATOR_BACKOFF_MAX", cfg.Backoff.Max)
}

func parseString(envVar, defaultVal string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultVal
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
