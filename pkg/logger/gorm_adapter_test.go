package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"edusync/infrastructure/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	original := log
	t.Cleanup(func() { log = original })

	core, logs := observer.New(zapcore.DebugLevel)
	log = zap.New(core)
	return logs
}

func TestGormLoggerAdapterLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		wantInfo  bool
		wantTrace bool
	}{
		{name: "warn", level: gormlogger.Warn},
		{name: "info", level: gormlogger.Info, wantInfo: true, wantTrace: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observe(t)
			adapter := NewGormLoggerAdapter(tt.level)
			ctx := context.Background()

			adapter.Info(ctx, "info %d", 1)
			adapter.Warn(ctx, "warn %d", 2)
			adapter.Error(ctx, "error %d", 3)
			adapter.Trace(ctx, time.Now(), func() (string, int64) {
				return "SELECT * FROM results", 1
			}, nil)

			assert.Equal(t, tt.wantInfo, logs.FilterMessage("info 1").Len() == 1)
			assert.Equal(t, 1, logs.FilterMessage("warn 2").Len())
			assert.Equal(t, 1, logs.FilterMessage("error 3").Len())

			traced := logs.FilterMessage("SQL query executed")
			assert.Equal(t, tt.wantTrace, traced.Len() == 1)
			if tt.wantTrace {
				fields := traced.All()[0].ContextMap()
				assert.Equal(t, "SELECT * FROM results", fields["sql"])
				assert.Equal(t, "SELECT", fields["statement"])
			}
		})
	}
}

func TestGormLoggerAdapterSilent(t *testing.T) {
	logs := observe(t)
	adapter := NewGormLoggerAdapter(gormlogger.Info).LogMode(gormlogger.Silent)

	adapter.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "DELETE FROM courses", 1
	}, errors.New("boom"))

	assert.Zero(t, logs.Len())
}

func TestGormLoggerAdapterSlowQueryCarriesRequestAndTx(t *testing.T) {
	logs := observe(t)
	adapter := NewGormLoggerAdapterWithConfig(gormlogger.Info, &GormLoggerConfig{
		SlowThreshold: 10 * time.Millisecond,
	})

	ctx := persistence.ContextWithRequestID(context.Background(), "req-123")
	ctx = persistence.ContextWithTx(ctx, &gorm.DB{})

	adapter.Trace(ctx, time.Now(), func() (string, int64) {
		time.Sleep(15 * time.Millisecond)
		return "DELETE FROM results WHERE assessment_id IN ('a1')", 3
	}, nil)

	slow := logs.FilterMessage("Slow SQL query")
	require.Equal(t, 1, slow.Len())
	fields := slow.All()[0].ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, true, fields["in_tx"])
	assert.Equal(t, "DELETE", fields["statement"])
	assert.Equal(t, int64(3), fields["rows"])
}

func TestGormLoggerAdapterRecordNotFound(t *testing.T) {
	trace := func(a *GormLoggerAdapter) {
		a.Trace(context.Background(), time.Now(), func() (string, int64) {
			return "SELECT * FROM courses WHERE id = 'missing'", 0
		}, gormlogger.ErrRecordNotFound)
	}

	logs := observe(t)
	trace(NewGormLoggerAdapter(gormlogger.Info))
	assert.Zero(t, logs.Len(), "ignored by default")

	trace(NewGormLoggerAdapterWithConfig(gormlogger.Info, &GormLoggerConfig{}))
	assert.Equal(t, 1, logs.FilterMessage("Database record not found").Len())
}

func TestGormLoggerAdapterErrorsAreLogged(t *testing.T) {
	logs := observe(t)
	NewGormLoggerAdapter(gormlogger.Error).Trace(context.Background(), time.Now(), func() (string, int64) {
		return "INSERT INTO results (id) VALUES ('r1')", 0
	}, errors.New("foreign key constraint fails"))

	failed := logs.FilterMessage("Database operation failed")
	require.Equal(t, 1, failed.Len())
	assert.Equal(t, zapcore.ErrorLevel, failed.All()[0].Level)
	assert.Equal(t, "INSERT", failed.All()[0].ContextMap()["statement"])
}

func TestStatementKind(t *testing.T) {
	assert.Equal(t, "UPDATE", statementKind("  update `results` SET score=1"))
	assert.Equal(t, "SELECT", statementKind("SELECT(1)"))
	assert.Equal(t, "", statementKind(""))
}
