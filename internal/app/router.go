// internal/app/router.go
package app

import (
	authHandler "invitera-service/internal/handlers/auth"
	blogHandler "invitera-service/internal/handlers/blog"
	catalogHandler "invitera-service/internal/handlers/catalog"
	profileHandler "invitera-service/internal/handlers/profile"
	wsHandler "invitera-service/internal/handlers/websocket"
	"invitera-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler    *authHandler.AuthHandler
	ProfileHandler *profileHandler.ProfileHandler
	CatalogHandler *catalogHandler.CatalogHandler
	BlogHandler    *blogHandler.BlogHandler
	WSHandler      *wsHandler.WSHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	// Session-event stream for logged-in tabs.
	r.GET("/ws", h.AuthMiddleware.RequireAuth(), h.WSHandler.Subscribe)

	// ==================== Anonymous-only Auth Routes ====================
	// Login and signup pages reject already-authenticated visitors, but
	// only on a confirmed session; an errored check lets the page render.
	authAnon := api.Group("/auth")
	authAnon.Use(h.AuthMiddleware.AnonymousOnly())
	{
		authAnon.POST("/signup", h.AuthHandler.Signup)
		authAnon.POST("/login", h.AuthHandler.Login)
		authAnon.GET("/google", h.AuthHandler.GoogleRedirect)
		authAnon.GET("/callback", h.AuthHandler.GoogleCallback)
	}

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.GET("/verify-email", h.AuthHandler.VerifyEmail)
		authPublic.GET("/verify-email/status", h.AuthHandler.VerificationStatus)
		authPublic.POST("/resend-verification", h.AuthHandler.ResendVerification)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.RequireAuth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.POST("/logout-all", h.AuthHandler.LogoutAll)
		authProtected.GET("/complete-profile", h.ProfileHandler.Prefill)
		authProtected.POST("/complete-profile", h.ProfileHandler.Complete)
	}

	// ==================== Profile ====================
	profile := api.Group("/profile")
	profile.Use(h.AuthMiddleware.RequireAuth())
	{
		profile.GET("/me", h.ProfileHandler.Me)
		profile.PUT("/me", h.ProfileHandler.Update)
	}

	// ==================== Services (members only) ====================
	services := api.Group("/services")
	services.Use(h.AuthMiddleware.RequireAuth())
	{
		services.GET("", h.CatalogHandler.ListServices)
		services.GET("/:slug", h.CatalogHandler.GetService)
	}

	// ==================== Blog (public) ====================
	blog := api.Group("/blog")
	{
		blog.GET("", h.BlogHandler.List)
		blog.GET("/:slug", h.BlogHandler.Get)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.RequireAuth(), h.AuthMiddleware.AdminOnly())
	{
		admin.GET("/overview", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})
	}
}
