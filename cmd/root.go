/*
Package cmd 命令行入口。

	edusync serve    启动 HTTP 服务
	edusync worker   重投递发送失败的成绩变更事件
	edusync migrate  建表/升级表结构
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"edusync/config"
	"edusync/pkg/logger"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "edusync",
	Short:         "EduSync learning-management backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default ./config.yaml)")
	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd)
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "edusync: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads config and initialises the global logger.
func bootstrap() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Log, cfg.App); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		app, err := NewBuilder(cfg).Build(ctx)
		if err != nil {
			return err
		}
		return app.Run(ctx)
	},
}
