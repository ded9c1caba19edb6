package server

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed ui/index.html
var indexHTML []byte

func serveIndex(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}
