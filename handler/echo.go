package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Register mounts the routes and the correlation middleware on e.
func (h *Handler) Register(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		TargetHeader: HeaderCorrelationID,
		Generator:    uuid.NewString,
	}))

	e.POST(routeFrame, h.serveFrame)
	e.GET(routeFrame, h.serveFrame)
	e.GET(routeImage, h.serveImage)
	e.GET(routeHealth, h.serveHealth)
	if h.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))
	}
}

func echoCorrelationID(c echo.Context) string {
	if id := c.Response().Header().Get(HeaderCorrelationID); id != "" {
		return id
	}
	return uuid.NewString()
}

func (h *Handler) serveFrame(c echo.Context) error {
	corrID := echoCorrelationID(c)
	ctx := c.Request().Context()
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxFrameBodyBytes+1))
	if err == nil && len(body) > maxFrameBodyBytes {
		err = fmt.Errorf("handler: body exceeds %d bytes", maxFrameBodyBytes)
	}
	if err != nil {
		return c.HTML(http.StatusOK, h.unreadableFrame(ctx, err, corrID))
	}
	return c.HTML(http.StatusOK, h.Frame(ctx, body, corrID))
}

func (h *Handler) serveImage(c echo.Context) error {
	png, err := h.Image(c.Request().Context(), c.QueryParam("text"), echoCorrelationID(c))
	if err != nil {
		return c.String(http.StatusInternalServerError, imageErrorBody)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, imageCacheControl)
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *Handler) serveHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health())
}

// Addr formats a listen address for port.
func Addr(port int) string {
	return fmt.Sprintf(":%d", port)
}
