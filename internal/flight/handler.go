package flight

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	importedMessage = "Flight import completed."
	noDataMessage   = "No flight data found."
)

type FlightHandler struct {
	service *Service
}

func NewFlightHandler(s *Service) *FlightHandler {
	return &FlightHandler{
		service: s,
	}
}

func (h *FlightHandler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/import-flights", h.ImportFlightsHandler)
	router.GET("/flights", h.ListFlightsHandler)
	router.GET("/healthz", h.HealthHandler)
}

// ImportFlightsHandler godoc
// @Summary      Import flights from the upstream source
// @Description  Fetches one batch of flights and stores it in a single transaction. A rolled-back batch is logged only; the response stays 200.
// @Tags         flights
// @Produce      plain
// @Success      200 {string} string "Flight import completed."
// @Success      204 "No flight data found."
// @Router       /import-flights [post]
func (h *FlightHandler) ImportFlightsHandler(c *gin.Context) {
	// The import runs to completion even if the caller goes away.
	ctx := context.WithoutCancel(c.Request.Context())

	result := h.service.ImportFlights(ctx)
	if result.Fetched == 0 {
		c.String(http.StatusNoContent, noDataMessage)
		return
	}

	c.String(http.StatusOK, importedMessage)
}

// ListFlightsHandler godoc
// @Summary      List recent flights
// @Description  Returns up to 100 stored flights with their airline, newest flight date first.
// @Tags         flights
// @Produce      json
// @Success      200 {array}  FlightSummary
// @Failure      500 {object} map[string]string
// @Router       /flights [get]
func (h *FlightHandler) ListFlightsHandler(c *gin.Context) {
	flights, err := h.service.ListFlights(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, flights)
}

// HealthHandler godoc
// @Summary      Database health
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /healthz [get]
func (h *FlightHandler) HealthHandler(c *gin.Context) {
	if err := h.service.Ping(c.Request.Context()); err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func sendError(c *gin.Context, err error) {
	var appErr *AppError

	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, gin.H{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
		return
	}

	// Default to 500 for unknown errors
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal Server Error",
		"code":  ErrorCodeInternalFailure,
	})
}
