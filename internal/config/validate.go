package config

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/validation"
)

// ValidPullPolicies contains the accepted image pull policies.
var ValidPullPolicies = map[string]bool{
	string(corev1.PullAlways):       true,
	string(corev1.PullIfNotPresent): true,
	string(corev1.PullNever):        true,
}

// Validate checks the configuration for common errors and returns a detailed error if validation fails.
func (c *Config) Validate() error {
	if c.Image.Repository == "" {
		return fmt.Errorf("image.repository is required")
	}
	if !ValidPullPolicies[c.Image.PullPolicy] {
		return fmt.Errorf("image.pullPolicy %q is invalid (must be Always, IfNotPresent or Never)", c.Image.PullPolicy)
	}

	if errs := validation.IsDNS1123Subdomain(c.ClusterDomain); len(errs) > 0 {
		return fmt.Errorf("clusterDomain %q is invalid: %v", c.ClusterDomain, errs)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	if err := c.validateRequeue(); err != nil {
		return fmt.Errorf("requeue validation failed: %w", err)
	}

	if err := c.validateBackoff(); err != nil {
		return fmt.Errorf("backoff validation failed: %w", err)
	}

	return nil
}

func (c *Config) validateRequeue() error {
	if c.Requeue.Default <= 0 {
		return fmt.Errorf("default must be positive, got %s", c.Requeue.Default)
	}
	if c.Requeue.InvalidSpec <= 0 {
		return fmt.Errorf("invalidSpec must be positive, got %s", c.Requeue.InvalidSpec)
	}
	if c.Requeue.Rolling <= 0 {
		return fmt.Errorf("rolling must be positive, got %s", c.Requeue.Rolling)
	}
	return nil
}

func (c *Config) validateBackoff() error {
	b := c.Backoff
	if b.Initial <= 0 {
		return fmt.Errorf("initial must be positive, got %s", b.Initial)
	}
	if b.Max < b.Initial {
		return fmt.Errorf("max (%s) must not be below initial (%s)", b.Max, b.Initial)
	}
	if b.Factor < 1 {
		return fmt.Errorf("factor must be at least 1, got %v", b.Factor)
	}
	if b.Jitter < 0 || b.Jitter > 1 {
		return fmt.Errorf("jitter must be between 0 and 1, got %v", b.Jitter)
	}
	return nil
}
