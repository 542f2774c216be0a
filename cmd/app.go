package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"edusync/api"
	"edusync/config"
	"edusync/infrastructure/eventstream"
	"edusync/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用程序
type App struct {
	config *config.Config
	router *api.Router
	server *http.Server
	db     *gorm.DB
	events eventstream.Publisher
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// server.shutdown_timeout.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.String("addr", a.server.Addr),
			zap.String("health", "/api/v1/health"))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.Close()
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	err := a.server.Shutdown(shutdownCtx)
	a.Close()
	if err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// Close releases the event stream connection and the database pool.
func (a *App) Close() {
	if a.events != nil {
		if err := a.events.Close(context.Background()); err != nil {
			logger.Warn("Failed to close event publisher", zap.Error(err))
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("Failed to close database", zap.Error(err))
			}
		}
	}
}

// GetServer 获取 gin 引擎（用于测试）
func (a *App) GetServer() *gin.Engine {
	return a.router.GetEngine()
}
