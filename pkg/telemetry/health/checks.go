package health

import (
	"context"
	"fmt"
	"time"
)

// Pinger is implemented by storage backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StorageCheck verifies the storage backend answers.
func StorageCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("storage ping failed: %w", err)
		}
		return nil
	}
}

// RunningCheck fails when running reports false, for example after the
// scheduler has been stopped.
func RunningCheck(component string, running func() bool) CheckFunc {
	return func(ctx context.Context) error {
		if !running() {
			return fmt.Errorf("%s is not running", component)
		}
		return nil
	}
}

// FreshnessCheck fails when the time returned by last is older than maxAge.
// A zero time (nothing has happened yet) passes until grace has elapsed
// since the check was created.
func FreshnessCheck(component string, last func() time.Time, maxAge, grace time.Duration) CheckFunc {
	created := time.Now()
	return func(ctx context.Context) error {
		at := last()
		if at.IsZero() {
			if time.Since(created) > grace {
				return fmt.Errorf("%s has not completed a run since startup", component)
			}
			return nil
		}
		if age := time.Since(at); age > maxAge {
			return fmt.Errorf("%s last completed %s ago (limit %s)", component, age.Round(time.Second), maxAge)
		}
		return nil
	}
}
