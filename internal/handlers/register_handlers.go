package handlers

import (
	portssvc "github.com/angelstack/captable_engine/internal/core/ports/services"
	"github.com/angelstack/captable_engine/internal/middleware"
	"github.com/angelstack/captable_engine/pkg/config"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	// Identity arrives from the gateway via X-Actor-ID; reject requests without it
	v1 := r.Group("/api/v1", middleware.ActorMiddleware())

	registerStakeholderRoutes(v1, services.Stakeholder)
	registerCapTableRoutes(v1, services.CapTable)
	registerInstrumentRoutes(v1, services.Instrument)
	registerRoundRoutes(v1, services.Round)
	registerExitRoutes(v1, services.Exit)
	registerFeeRoutes(v1, services.Fee)
}
