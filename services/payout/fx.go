package payout

import (
	"unplan-backend/internal/httpapi"

	"go.uber.org/fx"
)

var Module = fx.Module("payout.service",
	fx.Provide(NewService),
	fx.Invoke(registerServiceRoutes),
)

func registerServiceRoutes(routes *httpapi.Routes, svc *Service) {
	svc.registerRoutes(routes.Private)
}

// WorkerModule wires the queue handlers and the daily sweep; only the worker
// binary loads it.
var WorkerModule = fx.Module("payout.worker",
	fx.Provide(NewService, NewWorker, NewScheduler),
	fx.Invoke(RegisterWorker, StartScheduler),
)
