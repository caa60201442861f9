package server

import (
	"log/slog"
	"net/http"

	"oms/internal/handler"
	"oms/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// New はechoを組み立てて返す
func New(
	log *slog.Logger,
	cartH *handler.CartHandler,
	checkoutH *handler.CheckoutHandler,
	orderH *handler.OrderHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	cartH.RegisterRoutes(e)
	checkoutH.RegisterRoutes(e)
	orderH.RegisterRoutes(e)

	return e
}

// Start はサーバーを起動する
func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}
