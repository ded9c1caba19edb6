package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"pdf-chat/internal/config"
	"pdf-chat/internal/db"
)

// New builds the echo instance with all routes registered
func New(cfg *config.Config, store db.Store, ing Ingestor, answerer Answerer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// unified JSON error responses with structured logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		log.Error().Err(err).Int("status", code).Str("method", req.Method).Str("path", req.URL.Path).Str("ip", c.RealIP()).Msg("Request failed")
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/", serveIndex)

	h := &DocumentsHandler{Cfg: cfg, Store: store, Ingestor: ing, Answerer: answerer}
	h.Register(e.Group("/api"))

	return e
}

// Run starts the server and blocks
func Run(cfg *config.Config, store db.Store, ing Ingestor, answerer Answerer) error {
	e := New(cfg, store, ing, answerer)
	log.Info().Str("addr", cfg.Server.Addr).Msg("Listening")
	return e.Start(cfg.Server.Addr)
}
