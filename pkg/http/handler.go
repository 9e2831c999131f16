package http

import "github.com/labstack/echo/v4"

// Handler is anything that can mount its routes on the echo instance.
// The server wires concrete handlers in without knowing their routes.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
