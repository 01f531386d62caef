// Package handler implements the HTTP layer: each handler binds the
// request, delegates to the repository layer and serializes the result
// to JSON. Errors never propagate out of a handler; every failure mode
// is converted to a JSON body here.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// serverError writes a 500 response. Error detail is attached only when
// debug is set; production callers see a bare "Server error".
func serverError(c echo.Context, debug bool, err error) error {
	body := echo.Map{"message": "Server error"}
	if debug && err != nil {
		body["error"] = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, body)
}
