/*
Package logger 进程级 zap 日志。

cmd 在启动时调用 Init；之后各层通过 FromContext 取带 request_id 的 logger，
或通过 Named 取组件 logger（gorm、outbox、lifecycle ...）。未初始化时所有
入口都是 no-op，单元测试可以用 Set 换成 zaptest/observer。
*/
package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"edusync/config"
	"edusync/infrastructure/persistence"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log *zap.Logger

// Init builds the process logger from cfg and tags every entry with the
// service name and environment.
func Init(cfg *config.LogConfig, app config.AppConfig) error {
	sink, err := openSink(cfg)
	if err != nil {
		return err
	}
	l, err := New(cfg, app.Env, sink)
	if err != nil {
		return err
	}
	log = l.With(zap.String("service", app.Name), zap.String("env", app.Env))
	return nil
}

// New builds a logger writing to sink. Console encoding is used when asked
// for, or by default in development; everything else gets JSON.
func New(cfg *config.LogConfig, env string, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.MillisDurationEncoder

	var encoder zapcore.Encoder
	switch {
	case cfg.Format == "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	case cfg.Format == "console" || env == "dev" || env == "development":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func openSink(cfg *config.LogConfig) (zapcore.WriteSyncer, error) {
	if cfg.Output != "file" {
		return zapcore.Lock(os.Stdout), nil
	}
	if cfg.FilePath == "" {
		return nil, errors.New("log.file_path is required when log.output is file")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    positive(cfg.MaxSize, 10),
		MaxBackups: positive(cfg.MaxBackups, 5),
		MaxAge:     positive(cfg.MaxAge, 7),
		Compress:   cfg.Compress,
	}), nil
}

func positive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Set replaces the process logger.
func Set(l *zap.Logger) { log = l }

// Get may return nil before Init.
func Get() *zap.Logger { return log }

// Sync flushes buffered entries. Syncing a terminal fails on some platforms
// and is ignored.
func Sync() error {
	if log == nil {
		return nil
	}
	err := log.Sync()
	if err == nil || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.EBADF) {
		return nil
	}
	return err
}

func current() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// Named component logger, e.g. Named("outbox").
func Named(component string) *zap.Logger { return current().Named(component) }

func WithRequestID(requestID string) *zap.Logger {
	if requestID == "" {
		return current()
	}
	return current().With(zap.String("request_id", requestID))
}

// FromContext returns the logger tagged with the request id carried by ctx.
func FromContext(ctx context.Context) *zap.Logger {
	return WithRequestID(persistence.RequestIDFromContext(ctx))
}

func Info(msg string, fields ...zap.Field)  { current().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { current().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { current().Error(msg, fields...) }
