package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	pkgasynq "snapbounty-platform/pkg/asynq"
	"snapbounty-platform/pkg/assets"
	"snapbounty-platform/pkg/config"
	"snapbounty-platform/pkg/db"
	"snapbounty-platform/pkg/gen"
	"snapbounty-platform/pkg/hashistack/secretmanager"
	"snapbounty-platform/pkg/health"
	"snapbounty-platform/pkg/logger"
	"snapbounty-platform/pkg/otelcol"
	"snapbounty-platform/pkg/rbac"
	"snapbounty-platform/pkg/redis"
	"snapbounty-platform/pkg/sequence"
	"snapbounty-platform/pkg/server"
	"snapbounty-platform/services/bounty"
	"snapbounty-platform/services/earning"
	"snapbounty-platform/services/notify"
	"snapbounty-platform/services/submission"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Module,
		logger.Module,
		otelcol.Module,
		db.Module,
		redis.Module,
		pkgasynq.Client,
		sequence.Module,
		gen.Module,
		rbac.Module,
		assets.Module,
		health.Module,
		fx.Invoke(
			db.Otel,
			db.Metric,
		),
		bounty.Module,
		submission.Module,
		earning.Module,
		notify.Module,
		server.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
