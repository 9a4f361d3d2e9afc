package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is used by load balancers and monitoring to verify the process is
// serving. It does not touch the database.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
