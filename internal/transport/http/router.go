package httptransport

import (
	"log/slog"

	"github.com/askaruly/shop-auth/internal/jwt"
	"github.com/askaruly/shop-auth/internal/transport/http/handler"
	"github.com/askaruly/shop-auth/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, issuer *jwt.Issuer, entryLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	auth := r.Group("/auth")
	auth.POST("/entry", entryLimiter.Handler(), authHandler.Entry)
	auth.POST("/confirm", authHandler.Confirm)

	me := auth.Group("/me", middleware.BearerAuth(issuer))
	me.GET("", authHandler.Me)
	me.PUT("", authHandler.UpdateMe)

	return r
}
