package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health responds to liveness probes with a plain 200 "ok". Load
// balancers and monitoring hit this endpoint to verify the service is
// up.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Root serves a small JSON index at / so the API can be smoke-tested
// from a browser.
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Event Platform API is running",
		"status":  "active",
		"endpoints": echo.Map{
			"events":        "/api/events",
			"auth":          "/api/auth",
			"registrations": "/api/registrations",
		},
	})
}
