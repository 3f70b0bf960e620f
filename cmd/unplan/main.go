package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"unplan-backend/internal/httpapi"
	"unplan-backend/pkg/authz"
	"unplan-backend/pkg/config"
	"unplan-backend/pkg/db"
	"unplan-backend/pkg/gen"
	"unplan-backend/pkg/health"
	"unplan-backend/pkg/logger"
	"unplan-backend/pkg/minio"
	"unplan-backend/pkg/redis"
	"unplan-backend/pkg/sequence"
	"unplan-backend/pkg/server"
	"unplan-backend/pkg/task"
	"unplan-backend/services/booking"
	"unplan-backend/services/chat"
	"unplan-backend/services/payout"
	"unplan-backend/services/support"
	"unplan-backend/services/trip"
	"unplan-backend/services/user"
	"unplan-backend/services/wallet"
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
		minio.Client,
		authz.Module,
		health.Module,
		httpapi.Module,
		user.Module,
		trip.Module,
		booking.Module,
		payout.Module,
		wallet.Module,
		chat.Module,
		support.Module,
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
