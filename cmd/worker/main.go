package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	pkgasynq "snapbounty-platform/pkg/asynq"
	"snapbounty-platform/pkg/config"
	"snapbounty-platform/pkg/db"
	"snapbounty-platform/pkg/gen"
	"snapbounty-platform/pkg/logger"
	"snapbounty-platform/pkg/redis"
	"snapbounty-platform/pkg/sequence"
	"snapbounty-platform/services/earning"
	"snapbounty-platform/services/notify"
	"snapbounty-platform/services/submission"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		sequence.Module,
		gen.Module,
		pkgasynq.Server,
		pkgasynq.Scheduler,
		notify.TaskModule,
		earning.TaskModule,
		submission.TaskModule,
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
