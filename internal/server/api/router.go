package api

import (
	"net/http"

	"github.com/dmitrijs2005/sortify/internal/logging"
	"github.com/dmitrijs2005/sortify/internal/server/config"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter builds the echo router with all routes and middleware.
func SetupRouter(handler *Handler, cfg *config.Config, log logging.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(RequestLogger(log))

	e.GET("/health", handler.HandleHealth)

	g := e.Group("/api", RequireUser([]byte(cfg.SecretKey), log))
	g.GET("/projects", handler.HandleProjects)
	g.POST("/files/:id/versions", handler.HandleRecordUpload)
	g.GET("/files/:id/versions", handler.HandleListVersions)
	g.GET("/files/:id/versions/latest", handler.HandleLatestVersion)
	g.POST("/files/:id/downloads", handler.HandleRecordDownload)

	return e
}
