package routes

import (
	"siap/internal/core/container"

	"github.com/gin-gonic/gin"
)

func RegisterPublicRoutes(router *gin.Engine, container *container.Container) {
	container.LoginHandler.RegisterRoutes(router)
}

func RegisterProtectedRoutes(router *gin.Engine, container *container.Container) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(container.Tokens.JWTMiddleware(container.Users))

	container.UserHandler.RegisterRoutes(protectedRoutes)
	container.LocationHandler.RegisterRoutes(protectedRoutes)
	container.AssetHandler.RegisterRoutes(protectedRoutes)
	container.MovementsHandler.RegisterRoutes(protectedRoutes)
	container.ImportHandler.RegisterRoutes(protectedRoutes)
	container.RequestsHandler.RegisterRoutes(protectedRoutes)
	container.OpnameHandler.RegisterRoutes(protectedRoutes)
	container.MaintenanceHandler.RegisterRoutes(protectedRoutes)
	container.ReportsHandler.RegisterRoutes(protectedRoutes)
	container.HRISHandler.RegisterRoutes(protectedRoutes)
}

func RegisterUtilityRoutes(router *gin.Engine, container *container.Container) {
	router.GET("/health", container.HealthCheck.Handler())
}
