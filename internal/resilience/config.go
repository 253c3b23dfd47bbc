package resilience

import "time"

// PolicyFromConfig builds a retry Policy from config values, keeping
// defaults for anything non-positive.
func PolicyFromConfig(attempts, baseDelayMs int) Policy {
	p := DefaultPolicy()
	if attempts > 0 {
		p.Attempts = attempts
	}
	if baseDelayMs > 0 {
		p.BaseDelay = time.Duration(baseDelayMs) * time.Millisecond
	}
	return p
}

// BreakerFromConfig builds a BreakerConfig from config values.
func BreakerFromConfig(threshold, cooldownSecs int) BreakerConfig {
	c := DefaultBreakerConfig()
	if threshold > 0 {
		c.Threshold = threshold
	}
	if cooldownSecs > 0 {
		c.Cooldown = time.Duration(cooldownSecs) * time.Second
	}
	return c
}
