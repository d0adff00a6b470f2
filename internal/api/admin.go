package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ngmaloney/flightmap/internal/importer"
	"github.com/ngmaloney/flightmap/internal/models"
	"github.com/ngmaloney/flightmap/internal/store"
)

type airlineRequest struct {
	Name string `json:"name"`
}

// Summary handles GET /admin/summary.
func (h *Handler) Summary(c echo.Context) error {
	sum, err := h.store.Summary(c.Request().Context())
	if err != nil {
		return serverError(c, "summary_error", "Failed to count records", err)
	}
	return c.JSON(http.StatusOK, sum)
}

// UploadFlights handles POST /admin/flights with a JSON array of flights.
func (h *Handler) UploadFlights(c echo.Context) error {
	ctx := c.Request().Context()

	flights, err := importer.DecodeFlights(c.Request().Body)
	if err != nil {
		return badRequest(c, err)
	}

	n, err := h.store.InsertFlights(ctx, flights)
	if err != nil {
		return serverError(c, "import_error", "Failed to store flights", err)
	}

	h.purge(c)
	return c.JSON(http.StatusCreated, models.ImportResponse{Imported: n})
}

// UploadAirports handles POST /admin/airports with a JSON array of airports.
func (h *Handler) UploadAirports(c echo.Context) error {
	ctx := c.Request().Context()

	airports, err := importer.DecodeAirports(c.Request().Body)
	if err != nil {
		return badRequest(c, err)
	}

	n, err := h.store.UpsertAirports(ctx, airports)
	if err != nil {
		return serverError(c, "import_error", "Failed to store airports", err)
	}

	h.purge(c)
	return c.JSON(http.StatusCreated, models.ImportResponse{Imported: n})
}

// AddAirline handles POST /admin/airlines with {"name": "..."}.
func (h *Handler) AddAirline(c echo.Context) error {
	var req airlineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	err := h.store.AddAirline(c.Request().Context(), req.Name)
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return badRequest(c, err)
	case errors.Is(err, store.ErrDuplicateAirline):
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "duplicate_airline",
			Message: err.Error(),
			Code:    http.StatusConflict,
		})
	case err != nil:
		return serverError(c, "airline_error", "Failed to add airline", err)
	}

	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) purge(c echo.Context) {
	if err := h.cache.Purge(c.Request().Context()); err != nil {
		c.Logger().Warnf("cache purge failed: %v", err)
	}
}
