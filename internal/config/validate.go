package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.PasswordHashCost < bcrypt.MinCost || c.Auth.PasswordHashCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.password_hash_cost must be between %d and %d (got %d)",
			bcrypt.MinCost, bcrypt.MaxCost, c.Auth.PasswordHashCost)
	}

	if c.Ewity.Token == "" {
		return fmt.Errorf("ewity.token is required")
	}
	if c.Ewity.ScanPageLimit < 1 {
		return fmt.Errorf("ewity.scan_page_limit must be >= 1 (got %d)", c.Ewity.ScanPageLimit)
	}
	if c.Ewity.SyncWorkers < 1 {
		return fmt.Errorf("ewity.sync_workers must be >= 1 (got %d)", c.Ewity.SyncWorkers)
	}
	if c.Ewity.Timeout <= 0 {
		return fmt.Errorf("ewity.timeout must be positive (got %v)", c.Ewity.Timeout)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive (got %v)", c.Cache.TTL)
	}

	return nil
}
