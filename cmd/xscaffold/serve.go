package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xscaffold/internal/app"
	"github.com/omeyang/xscaffold/internal/config"
	"github.com/omeyang/xscaffold/pkg/lifecycle/xrun"
	"github.com/omeyang/xscaffold/pkg/observability/xlog"
)

// readHeaderTimeout 防止慢速请求头占用连接
const readHeaderTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "启动 HTTP 服务",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（yaml/json）",
				Sources: cli.EnvVars("XSCAFFOLD_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "监听地址，覆盖配置中的 server.addr",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd.String("config"), cmd.String("addr"))
			if err != nil {
				return err
			}
			return serve(ctx, cfg)
		},
	}
}

func loadConfig(path, addr string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(gin.ReleaseMode)

	a, err := app.New(ctx, *cfg)
	if err != nil {
		return err
	}
	logger := a.Logger()
	xlog.SetDefault(logger)
	defer xlog.ResetDefault()

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	logger.Info(ctx, "Application is running", xlog.Context("Bootstrap"),
		slog.String("addr", cfg.Server.Addr))

	runErr := xrun.RunWithOptions(ctx,
		[]xrun.Option{xrun.WithLogger(logger), xrun.WithName("xscaffold")},
		xrun.HTTPServer(server, cfg.Server.ShutdownTimeout),
	)
	if errors.Is(runErr, xrun.ErrSignal) || errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if runErr != nil {
		logger.Error(ctx, "Server stopped with error", xlog.Err(runErr))
	}

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	return errors.Join(runErr, a.Close(closeCtx))
}
