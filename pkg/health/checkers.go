package health

import (
	"context"
	"runtime"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck reports unhealthy when the goroutine count exceeds
// threshold. Useful as a liveness check to catch goroutine leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}

// Pinger is satisfied by pgxpool.Pool and anything else that can answer a
// connectivity ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseCheck reports unhealthy when the database does not answer a ping
// within the probe timeout. Useful as a readiness check.
func DatabaseCheck(db Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			return errors.Wrap(err, "database ping")
		}
		return nil
	}
}

// UptimeGraceCheck reports unhealthy until the process has been up for at
// least grace. It keeps a crash-looping process from being marked ready
// before its dependencies settle.
func UptimeGraceCheck(grace time.Duration) CheckFunc {
	started := time.Now()
	return func(context.Context) error {
		if up := time.Since(started); up < grace {
			return errors.Errorf("up for %s, grace period is %s", up, grace)
		}
		return nil
	}
}
