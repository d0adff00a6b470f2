// Package api serves the flight query service over HTTP.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ngmaloney/flightmap/internal/cache"
	"github.com/ngmaloney/flightmap/internal/models"
)

// Store is the data access the handlers need.
type Store interface {
	Ping(ctx context.Context) error
	SearchAirports(ctx context.Context, search string, limit int) ([]models.Airport, error)
	SearchFlights(ctx context.Context, q models.SearchQuery, limit int) ([]models.Flight, error)
	Airlines(ctx context.Context) ([]string, error)
	Destinations(ctx context.Context, code string) ([]models.AirportRef, error)
	Summary(ctx context.Context) (models.Summary, error)
	InsertFlights(ctx context.Context, flights []models.Flight) (int, error)
	UpsertAirports(ctx context.Context, airports []models.Airport) (int, error)
	AddAirline(ctx context.Context, name string) error
}

type Handler struct {
	store Store
	cache cache.Cache
}

func NewHandler(s Store, c cache.Cache) *Handler {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Handler{
		store: s,
		cache: c,
	}
}

// Airports handles GET /airports?search=&limit=.
func (h *Handler) Airports(c echo.Context) error {
	ctx := c.Request().Context()

	limit, err := limitParam(c)
	if err != nil {
		return badRequest(c, err)
	}
	limit = models.ClampLimit(limit, models.DefaultAirportLimit, models.MaxAirportLimit)
	search := c.QueryParam("search")

	key := cache.AirportsKey(search, limit)
	var airports []models.Airport
	if h.cache.Get(ctx, key, &airports) {
		return c.JSON(http.StatusOK, airports)
	}

	airports, err = h.store.SearchAirports(ctx, search, limit)
	if err != nil {
		return serverError(c, "airports_error", "Failed to list airports", err)
	}

	h.remember(ctx, key, airports)
	return c.JSON(http.StatusOK, airports)
}

// Flights handles GET /flights. departure is required.
func (h *Handler) Flights(c echo.Context) error {
	ctx := c.Request().Context()

	q, err := models.ParseSearchQuery(c.QueryParams())
	if err != nil {
		return badRequest(c, err)
	}
	limit, err := limitParam(c)
	if err != nil {
		return badRequest(c, err)
	}
	limit = models.ClampLimit(limit, models.DefaultFlightLimit, models.MaxFlightLimit)

	key := cache.FlightsKey(q, limit)
	var flights []models.Flight
	if h.cache.Get(ctx, key, &flights) {
		return c.JSON(http.StatusOK, flights)
	}

	flights, err = h.store.SearchFlights(ctx, q, limit)
	if err != nil {
		return serverError(c, "search_error", "Failed to search flights", err)
	}

	h.remember(ctx, key, flights)
	return c.JSON(http.StatusOK, flights)
}

// Airlines handles GET /airlines.
func (h *Handler) Airlines(c echo.Context) error {
	ctx := c.Request().Context()

	var names []string
	if h.cache.Get(ctx, cache.AirlinesKey(), &names) {
		return c.JSON(http.StatusOK, names)
	}

	names, err := h.store.Airlines(ctx)
	if err != nil {
		return serverError(c, "airlines_error", "Failed to list airlines", err)
	}

	h.remember(ctx, cache.AirlinesKey(), names)
	return c.JSON(http.StatusOK, names)
}

// Destinations handles GET /destinations/:code.
func (h *Handler) Destinations(c echo.Context) error {
	ctx := c.Request().Context()

	code := models.NormalizeCode(c.Param("code"))
	if !models.IsAirportCode(code) {
		return badRequest(c, &models.ValidationError{Field: "code", Reason: "must be a 3-letter airport code"})
	}

	key := cache.DestinationsKey(code)
	var refs []models.AirportRef
	if h.cache.Get(ctx, key, &refs) {
		return c.JSON(http.StatusOK, refs)
	}

	refs, err := h.store.Destinations(ctx, code)
	if err != nil {
		return serverError(c, "destinations_error", "Failed to list destinations", err)
	}

	h.remember(ctx, key, refs)
	return c.JSON(http.StatusOK, refs)
}

// Health handles GET /health.
func (h *Handler) Health(c echo.Context) error {
	if err := h.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "flightmap",
	})
}

func (h *Handler) remember(ctx context.Context, key string, value any) {
	if err := h.cache.Set(ctx, key, value); err != nil {
		log.Printf("[api] cache set %s: %v", key, err)
	}
}

func limitParam(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.ValidationError{Field: "limit", Reason: "must be an integer"}
	}
	return n, nil
}

func badRequest(c echo.Context, err error) error {
	code := "invalid_request"
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		code = "validation_error"
	}
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	})
}

func serverError(c echo.Context, code, message string, err error) error {
	log.Printf("[api] %s: %v", code, err)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   code,
		Message: message + ": " + err.Error(),
		Code:    http.StatusInternalServerError,
	})
}
