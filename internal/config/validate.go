package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Auth.MinPasswordLen < 6 {
		return fmt.Errorf("auth.min_password_len must be at least 6 (got %d)", c.Auth.MinPasswordLen)
	}

	if c.Analytics.DefaultWindowDays < 1 {
		return fmt.Errorf("analytics.default_window_days must be >= 1 (got %d)", c.Analytics.DefaultWindowDays)
	}

	if c.Analytics.TopWords < 1 {
		return fmt.Errorf("analytics.top_words must be >= 1 (got %d)", c.Analytics.TopWords)
	}

	return nil
}
