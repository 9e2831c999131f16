package api

import (
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	models "github.com/seankirtman/buy-the-dip-tracker/internal/domain/models"
	domrepo "github.com/seankirtman/buy-the-dip-tracker/internal/domain/repository"
	"github.com/seankirtman/buy-the-dip-tracker/internal/usecase"
	xhttp "github.com/seankirtman/buy-the-dip-tracker/pkg/http"
	xlogger "github.com/seankirtman/buy-the-dip-tracker/pkg/logger"
)

// symbolPattern accepts plain US tickers plus class-share dots (BRK.B).
var symbolPattern = regexp.MustCompile(`^[A-Z.]{1,10}$`)

// EventsHandler serves the event pipeline over HTTP.
type EventsHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.Pipeline
}

func NewEventsHandler(logger *xlogger.Logger, pipeline *usecase.Pipeline) *EventsHandler {
	return &EventsHandler{logger: logger, pipeline: pipeline}
}

func (h *EventsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/events", h.Events)
	g.GET("/anomalies", h.Anomalies)
	e.GET("/healthz", h.Healthz)
}

// Events runs the full pipeline for a symbol. The pipeline never errors
// past its boundary: degraded results arrive with stale/error fields set
// inside a 200 response.
func (h *EventsHandler) Events(c echo.Context) error {
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol, ok := normalizeSymbol(req.Symbol)
	if !ok {
		return xhttp.BadRequestResponse(c, invalidSymbol(req.Symbol))
	}

	res := h.pipeline.ComputeEvents(c.Request().Context(), symbol)
	if res.Error != "" {
		h.logger.Warn("events pipeline degraded",
			xlogger.String("symbol", symbol),
			xlogger.Bool("stale", res.Stale),
			xlogger.String("error", res.Error),
		)
	}
	return xhttp.SuccessResponse(c, res)
}

// Anomalies exposes raw detector output for one timeframe, mainly for
// threshold tuning.
func (h *EventsHandler) Anomalies(c echo.Context) error {
	req := &models.AnomaliesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol, ok := normalizeSymbol(req.Symbol)
	if !ok {
		return xhttp.BadRequestResponse(c, invalidSymbol(req.Symbol))
	}
	tf := domrepo.NormalizeTimeframe(req.Timeframe)

	res, err := h.pipeline.DetectAnomalies(c.Request().Context(), symbol, tf)
	if err != nil {
		h.logger.Error("anomalies usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *EventsHandler) Healthz(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func normalizeSymbol(raw string) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if !symbolPattern.MatchString(symbol) {
		return "", false
	}
	return symbol, true
}

func invalidSymbol(raw string) []xhttp.ValidationError {
	return []xhttp.ValidationError{{
		Code:    "ERR_SYMBOL",
		Field:   "symbol",
		Message: "symbol must be 1-10 characters of A-Z or '.'",
		Params:  map[string]interface{}{"symbol": raw},
	}}
}
