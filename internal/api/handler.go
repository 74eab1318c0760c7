package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/model"
	"MoexSentinel/internal/report"
)

const (
	defaultHistoryLen = 10
	maxHistoryLen     = 100
)

// ReportSource exposes the most recent report.
type ReportSource interface {
	Latest() *report.Report
}

// SignalHistory reads back recorded event signals.
type SignalHistory interface {
	RecentEventSignals(ctx context.Context, n int) ([]model.EventSignal, error)
}

// Trigger starts a report run in the background. It returns false when one is already running.
type Trigger func() bool

// Handler serves the read API over the daemon's state.
type Handler struct {
	reports ReportSource
	history SignalHistory
	scoring *config.ScoringStore
	trigger Trigger
	log     zerolog.Logger
}

func NewHandler(reports ReportSource, history SignalHistory, scoring *config.ScoringStore, trigger Trigger, log zerolog.Logger) *Handler {
	return &Handler{reports: reports, history: history, scoring: scoring, trigger: trigger, log: log}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/report/latest", h.LatestReport)
	g.GET("/recommendations", h.Recommendations)
	g.GET("/recommendations/personalized", h.Personalized)
	g.GET("/events/history", h.EventHistory)
	g.GET("/scoring", h.Scoring)
	g.POST("/run", h.Run)
}

func noReport(c echo.Context) error {
	return errorResponse(c, http.StatusNotFound, "no report has been produced yet")
}

func (h *Handler) LatestReport(c echo.Context) error {
	rep := h.reports.Latest()
	if rep == nil {
		return noReport(c)
	}
	return successResponse(c, rep)
}

// Recommendations returns the latest ranking, optionally filtered by ?action=BUY|HOLD|SELL.
func (h *Handler) Recommendations(c echo.Context) error {
	rep := h.reports.Latest()
	if rep == nil {
		return noReport(c)
	}
	action := model.Action(strings.ToUpper(c.QueryParam("action")))
	switch action {
	case "":
		return successResponse(c, rep.Ranked)
	case model.ActionBuy, model.ActionHold, model.ActionSell:
	default:
		return errorResponse(c, http.StatusBadRequest, "action must be BUY, HOLD or SELL")
	}

	out := make([]model.Recommendation, 0, len(rep.Ranked))
	for _, r := range rep.Ranked {
		if r.Error == "" && r.Action == action {
			out = append(out, r)
		}
	}
	return successResponse(c, out)
}

func (h *Handler) Personalized(c echo.Context) error {
	rep := h.reports.Latest()
	if rep == nil {
		return noReport(c)
	}
	if rep.Personalized == nil {
		return errorResponse(c, http.StatusNotFound, "personalization is disabled")
	}
	return successResponse(c, rep.Personalized)
}

func (h *Handler) EventHistory(c echo.Context) error {
	n := defaultHistoryLen
	if v := c.QueryParam("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > maxHistoryLen {
			return errorResponse(c, http.StatusBadRequest, "n must be between 1 and 100")
		}
		n = parsed
	}
	sigs, err := h.history.RecentEventSignals(c.Request().Context(), n)
	if err != nil {
		h.log.Error().Err(err).Msg("read event history")
		return errorResponse(c, http.StatusInternalServerError, "history unavailable")
	}
	if sigs == nil {
		sigs = []model.EventSignal{}
	}
	return successResponse(c, sigs)
}

func (h *Handler) Scoring(c echo.Context) error {
	return successResponse(c, h.scoring.Get())
}

func (h *Handler) Run(c echo.Context) error {
	if !h.trigger() {
		return errorResponse(c, http.StatusConflict, "a report run is already in progress")
	}
	return dataResponse(c, http.StatusAccepted, map[string]string{"status": "started"})
}
