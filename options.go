package securestore

import (
	"fmt"
	"time"
)

type config struct {
	now func() time.Time
}

func defaultConfig() *config {
	return &config{now: time.Now}
}

// Option configures a SecureStore at Open.
type Option func(*config) error

// WithClock overrides the time source used for header timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		c.now = now
		return nil
	}
}
