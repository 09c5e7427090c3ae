package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"landcharges/assist/internal/api/http/middleware"
)

func NewRouter(log *slog.Logger, healthController *HealthController, registrations *RegistrationController) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger(log))

	router.GET("/health", healthController.Health)

	router.POST("/registrations", registrations.Create)
	router.DELETE("/registrations", registrations.Clear)
	router.GET("/registrations/:date/:number", registrations.Show)
	router.PUT("/registrations/:date/:number", registrations.Update)

	router.POST("/searches", registrations.Search)

	return router
}

// NewStubRouter wires a land charges stub around register. New
// registrations go to publisher when it is non-nil.
func NewStubRouter(log *slog.Logger, register Register, publisher RegistrationPublisher) *gin.Engine {
	return NewRouter(
		log,
		NewHealthController("land-charges-stub"),
		NewRegistrationController(register, publisher, log),
	)
}
