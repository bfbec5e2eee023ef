package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xxxsen/codeman/internal/middleware"
)

type RouterDeps struct {
	Templates *TemplateHandler
	Shares    *ShareHandler
	Code      *CodeHandler
	Files     *FileHandler
	OAuth     *OAuthHandler
	JWTSecret []byte
	// RequireAuthForWrites puts template mutations behind a signed identity token.
	RequireAuthForWrites bool
	// Metrics serves the prometheus registry at /metrics when set.
	Metrics bool
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", Healthz)
	if deps.Metrics {
		api.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api.GET("/templates", deps.Templates.List)
	api.GET("/templates/share", deps.Shares.Verify)
	api.POST("/templates/share", deps.Shares.Create)
	api.POST("/templates/code", deps.Code.Fetch)
	api.GET("/templates/:id", deps.Templates.Get)

	writes := api.Group("")
	if deps.RequireAuthForWrites {
		writes.Use(middleware.JWTAuth(deps.JWTSecret))
	}
	writes.POST("/templates", deps.Templates.Create)
	writes.PUT("/templates/:id", deps.Templates.Update)
	writes.DELETE("/templates/:id", deps.Templates.Delete)

	if deps.Files != nil {
		api.GET("/files/*key", deps.Files.Get)
	}
	if deps.OAuth != nil {
		api.GET("/auth/:provider/login", deps.OAuth.Login)
		api.GET("/auth/:provider/callback", deps.OAuth.Callback)
	}
}
