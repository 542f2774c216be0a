package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"edusync/config"
	"edusync/domain/shared"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func fast() Policy {
	p := Default
	p.InitialDelay = time.Millisecond
	p.MaxDelay = 2 * time.Millisecond
	return p
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{"nil", nil, Permanent},
		{"mysql deadlock", &mysqlDriver.MySQLError{Number: 1213}, Deadlock},
		{"mysql lock wait", fmt.Errorf("commit: %w", &mysqlDriver.MySQLError{Number: 1205}), LockTimeout},
		{"mysql duplicate", &mysqlDriver.MySQLError{Number: 1062}, Permanent},
		{"invalid conn", mysqlDriver.ErrInvalidConn, Connection},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), Busy},
		{"stale version", shared.NewConflictError("result", "stale"), Stale},
		{"not found", shared.NewNotFoundError("course", "c1"), Permanent},
		{"forbidden", shared.NewForbiddenError("course", "not owner", nil), Permanent},
		{"duplicate key", gorm.ErrDuplicatedKey, Permanent},
		{"canceled", context.Canceled, Permanent},
		{"other", errors.New("syntax error"), Permanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	stale := shared.NewConflictError("result", "stale")
	assert.False(t, Default.Retryable(stale))
	assert.True(t, Default.Retryable(&mysqlDriver.MySQLError{Number: 1213}))

	cfg := &config.Config{Database: config.DatabaseConfig{Retry: config.RetryConfig{
		Enabled:                       true,
		MaxAttempts:                   5,
		RetryOnConcurrentModification: true,
	}}}
	p := FromAppConfig(cfg)
	assert.Equal(t, 5, p.MaxAttempts)
	assert.True(t, p.Retryable(stale))
	assert.False(t, p.Retryable(&mysqlDriver.MySQLError{Number: 1213}))

	cfg.Database.Retry.Enabled = false
	assert.Equal(t, 1, FromAppConfig(cfg).MaxAttempts)
}

func TestBackoff(t *testing.T) {
	p := Policy{InitialDelay: 10 * time.Millisecond, MaxDelay: 25 * time.Millisecond, Factor: 2}
	assert.Zero(t, p.Backoff(0))
	assert.Equal(t, 10*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 20*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 25*time.Millisecond, p.Backoff(3))

	p.Jitter = true
	for i := 0; i < 20; i++ {
		d := p.Backoff(1)
		assert.GreaterOrEqual(t, d, 8*time.Millisecond)
		assert.LessOrEqual(t, d, 12*time.Millisecond)
	}
}

func TestDoRetriesTransient(t *testing.T) {
	calls := 0
	err := fast().Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &mysqlDriver.MySQLError{Number: 1213, Message: "Deadlock found"}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := fast().Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("database is locked")
	})
	assert.EqualError(t, err, "database is locked")
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnDomainError(t *testing.T) {
	calls := 0
	want := shared.NewNotFoundError("course", "c1")
	err := fast().Do(context.Background(), func(context.Context) error {
		calls++
		return want
	})
	assert.Same(t, want, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := fast().Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
