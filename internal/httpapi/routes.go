package httpapi

import (
	"unplan-backend/pkg/authz"
	"unplan-backend/pkg/config"
	"unplan-backend/pkg/health"
	"unplan-backend/pkg/middleware"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(ProvideRoutes),
)

// Routes splits the API into the unauthenticated surface and the
// authenticated one. Everything under Private goes through JWT auth followed
// by the casbin role gate; services never check roles inline.
type Routes struct {
	Public  *gin.RouterGroup
	Private *gin.RouterGroup
}

type RoutesParams struct {
	fx.In
	Engine   *gin.Engine
	Config   *config.Config
	Enforcer *casbin.Enforcer
	Health   health.HealthService
}

func ProvideRoutes(p RoutesParams) *Routes {
	p.Engine.GET("/healthz", p.Health.Liveness)
	p.Engine.GET("/readyz", p.Health.Readiness)

	public := p.Engine.Group("/api/v1")

	private := p.Engine.Group("/api/v1")
	private.Use(middleware.AuthRequired(p.Config), authz.Enforce(p.Enforcer))

	return &Routes{Public: public, Private: private}
}
