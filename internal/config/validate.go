package config

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var weightTolerance = decimal.NewFromFloat(1e-6)

// Validate checks the configuration for fatal errors per spec §7's Config
// error taxonomy: missing required buckets, nonexistent sources referenced
// by policy, and holding weights that don't sum to ~1. It does not check
// cross-package runtime invariants (e.g. SEPP window gating); those are
// enforced by the packages that own them.
func (c *Config) Validate() error {
	if len(c.Buckets) == 0 {
		return fmt.Errorf("config: no buckets defined")
	}
	for name, b := range c.Buckets {
		if len(b.Holdings) == 0 {
			return fmt.Errorf("config: bucket %q has no holdings", name)
		}
		sum := decimal.Zero
		for _, h := range b.Holdings {
			sum = sum.Add(h.Weight)
		}
		if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(weightTolerance) {
			return fmt.Errorf("config: bucket %q holding weights sum to %s, want ~1.0", name, sum.String())
		}
	}

	if err := c.validateRefillSources(); err != nil {
		return err
	}
	if err := c.validatePolicyBuckets(); err != nil {
		return err
	}
	return nil
}

func (c *Config) bucketExists(name string) bool {
	_, ok := c.Buckets[name]
	return ok
}

func (c *Config) validateRefillSources() error {
	r := c.Policies.Refill
	for target := range r.Thresholds {
		if !c.bucketExists(target) {
			return fmt.Errorf("config: refill threshold references unknown bucket %q", target)
		}
	}
	for target, sources := range r.Sources {
		if !c.bucketExists(target) {
			return fmt.Errorf("config: refill sources reference unknown target bucket %q", target)
		}
		for _, s := range sources {
			if !c.bucketExists(s) {
				return fmt.Errorf("config: refill source %q (for target %q) is not a configured bucket", s, target)
			}
		}
	}
	for _, s := range r.LiquidationSources {
		if !c.bucketExists(s) {
			return fmt.Errorf("config: liquidation source %q is not a configured bucket", s)
		}
	}
	for target := range r.LiquidationTargets {
		if !c.bucketExists(target) {
			return fmt.Errorf("config: liquidation target %q is not a configured bucket", target)
		}
	}
	return nil
}

func (c *Config) validatePolicyBuckets() error {
	for i, s := range c.Policies.Salary {
		for target := range s.Targets {
			if !c.bucketExists(target) {
				return fmt.Errorf("config: salary[%d] target %q is not a configured bucket", i, target)
			}
		}
	}
	for i, ss := range c.Policies.SocialSecurity {
		if !c.bucketExists(ss.Target) {
			return fmt.Errorf("config: social_security[%d] target %q is not a configured bucket", i, ss.Target)
		}
	}
	if rmd := c.Policies.RMD; rmd != nil {
		for _, s := range rmd.Sources {
			if !c.bucketExists(s) {
				return fmt.Errorf("config: rmd source %q is not a configured bucket", s)
			}
		}
		for t := range rmd.Targets {
			if !c.bucketExists(t) {
				return fmt.Errorf("config: rmd target %q is not a configured bucket", t)
			}
		}
	}
	if sepp := c.Policies.SEPP; sepp != nil {
		if !c.bucketExists(sepp.Source) {
			return fmt.Errorf("config: sepp source %q is not a configured bucket", sepp.Source)
		}
		if !c.bucketExists(sepp.Target) {
			return fmt.Errorf("config: sepp target %q is not a configured bucket", sepp.Target)
		}
	}
	if prop := c.Policies.Property; prop != nil {
		if !c.bucketExists(prop.CashBucket) {
			return fmt.Errorf("config: property cash_bucket %q is not a configured bucket", prop.CashBucket)
		}
	}
	for name, phase := range c.rothPhases() {
		if !c.bucketExists(phase.SourceBucket) {
			return fmt.Errorf("config: roth_conversion phase %q source_bucket %q is not a configured bucket", name, phase.SourceBucket)
		}
		if !c.bucketExists(phase.TargetBucket) {
			return fmt.Errorf("config: roth_conversion phase %q target_bucket %q is not a configured bucket", name, phase.TargetBucket)
		}
	}
	return nil
}

func (c *Config) rothPhases() map[string]RothPhaseDef {
	out := make(map[string]RothPhaseDef, len(c.Policies.RothConversion.Phases))
	for _, p := range c.Policies.RothConversion.Phases {
		out[p.Name] = p
	}
	return out
}
