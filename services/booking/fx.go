package booking

import (
	"unplan-backend/internal/httpapi"

	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(NewService),
	fx.Invoke(registerServiceRoutes),
)

func registerServiceRoutes(routes *httpapi.Routes, svc *Service) {
	svc.registerRoutes(routes.Private)
}
