package api

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ngmaloney/flightmap/internal/ratelimit"
)

// Options configures NewServer.
type Options struct {
	// AdminToken guards /admin. The admin routes are not mounted when empty.
	AdminToken string
	// Limiter throttles the public routes; nil disables rate limiting.
	Limiter *ratelimit.ClientLimiter
	// Quiet drops the request logger, for tests.
	Quiet bool
}

// NewServer builds the echo instance with every route registered.
func NewServer(h *Handler, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	if !opts.Quiet {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	e.GET("/health", h.Health)

	var throttle []echo.MiddlewareFunc
	if opts.Limiter != nil {
		throttle = append(throttle, opts.Limiter.Middleware())
	}
	e.GET("/airports", h.Airports, throttle...)
	e.GET("/flights", h.Flights, throttle...)
	e.GET("/airlines", h.Airlines, throttle...)
	e.GET("/destinations/:code", h.Destinations, throttle...)

	if opts.AdminToken != "" {
		admin := e.Group("/admin", middleware.KeyAuth(func(key string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(opts.AdminToken)) == 1, nil
		}))
		admin.GET("/summary", h.Summary)
		admin.POST("/flights", h.UploadFlights)
		admin.POST("/airports", h.UploadAirports)
		admin.POST("/airlines", h.AddAirline)
	}

	return e
}
