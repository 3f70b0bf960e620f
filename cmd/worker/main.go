package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"unplan-backend/pkg/config"
	"unplan-backend/pkg/db"
	"unplan-backend/pkg/gen"
	"unplan-backend/pkg/logger"
	"unplan-backend/pkg/mailer"
	"unplan-backend/pkg/redis"
	"unplan-backend/pkg/sequence"
	"unplan-backend/pkg/task"
	"unplan-backend/services/notification"
	"unplan-backend/services/payout"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		gen.Module,
		db.Module,
		redis.Module,
		sequence.Module,
		task.Client,
		task.Server,
		mailer.Module,
		payout.WorkerModule,
		notification.WorkerModule,
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
