// Package retry re-runs a whole transaction attempt when the store reports a
// transient lock failure. Domain outcomes are never retried.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"edusync/config"
	"edusync/domain/shared"
	"edusync/pkg/logger"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reason why an attempt failed, as far as retrying is concerned.
type Reason string

const (
	Permanent   Reason = ""
	Deadlock    Reason = "deadlock"
	LockTimeout Reason = "lock_timeout"
	Busy        Reason = "busy" // sqlite SQLITE_BUSY / database is locked
	Stale       Reason = "stale_version"
	Connection  Reason = "connection"
)

// MySQL server error numbers.
const (
	erDeadlock        = 1213
	erLockWaitTimeout = 1205
)

// Policy bounds retries of one unit of work.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
	Jitter       bool

	// Retry lists the reasons worth another attempt; Permanent never is.
	Retry map[Reason]bool
}

// Disabled runs every unit of work exactly once.
var Disabled = Policy{MaxAttempts: 1}

// Default 版本冲突不重试：由调用方区分 NotFound 与 Conflict。
var Default = Policy{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Factor:       2,
	Jitter:       true,
	Retry: map[Reason]bool{
		Deadlock:    true,
		LockTimeout: true,
		Busy:        true,
		Connection:  true,
	},
}

// FromAppConfig reads database.retry.
func FromAppConfig(cfg *config.Config) Policy {
	rc := cfg.Database.Retry
	if !rc.Enabled {
		return Disabled
	}
	return Policy{
		MaxAttempts:  rc.MaxAttempts,
		InitialDelay: rc.InitialDelay,
		MaxDelay:     rc.MaxDelay,
		Factor:       rc.BackoffFactor,
		Jitter:       rc.JitterEnabled,
		Retry: map[Reason]bool{
			Deadlock:    rc.RetryOnDeadlock,
			LockTimeout: rc.RetryOnLockTimeout,
			Busy:        rc.RetryOnLockTimeout,
			Stale:       rc.RetryOnConcurrentModification,
			Connection:  true,
		},
	}
}

// Classify maps a failed attempt to a Reason.
func Classify(err error) Reason {
	switch {
	case err == nil:
		return Permanent
	case errors.Is(err, shared.ErrConflict):
		return Stale
	case errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrForbidden),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrUnauthorized),
		errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return Permanent
	}

	var myErr *mysqlDriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case erDeadlock:
			return Deadlock
		case erLockWaitTimeout:
			return LockTimeout
		}
		return Permanent
	}
	if errors.Is(err, mysqlDriver.ErrInvalidConn) {
		return Connection
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "sqlite_busy"):
		return Busy
	case strings.Contains(msg, "deadlock"):
		return Deadlock
	case strings.Contains(msg, "lock wait timeout"):
		return LockTimeout
	case strings.Contains(msg, "connection") && strings.Contains(msg, "lost"):
		return Connection
	}
	return Permanent
}

// Retryable reports whether err is worth another attempt under p.
func (p Policy) Retryable(err error) bool {
	r := Classify(err)
	return r != Permanent && p.Retry[r]
}

// Backoff delay before attempt n+1, n starting at 1.
func (p Policy) Backoff(n int) time.Duration {
	if n <= 0 || p.InitialDelay <= 0 {
		return 0
	}
	factor := p.Factor
	if factor < 1 {
		factor = 1
	}
	d := float64(p.InitialDelay) * math.Pow(factor, float64(n-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter {
		d *= 0.8 + rand.Float64()*0.4
	}
	return time.Duration(d)
}

// Do runs fn until it succeeds, fails permanently, attempts run out or ctx
// ends. The last attempt's error is returned unchanged.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil || n == attempts || !p.Retryable(err) {
			return err
		}

		delay := p.Backoff(n)
		logger.FromContext(ctx).Named("retry").Warn("Transient storage failure, retrying transaction",
			zap.Int("attempt", n),
			zap.String("reason", string(Classify(err))),
			zap.Duration("delay", delay),
			zap.Error(err))

		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
