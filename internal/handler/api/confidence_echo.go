package api

import (
	"time"

	"github.com/labstack/echo/v4"

	models "SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	"SignalForge/internal/usecase"
	xhttp "SignalForge/pkg/http"
	xlogger "SignalForge/pkg/logger"
)

// ConfidenceEchoHandler exposes the analysis pipeline over HTTP.
type ConfidenceEchoHandler struct {
	logger    *xlogger.Logger
	svc       *usecase.AnalysisService
	decisions domrepo.DecisionStore
}

func NewConfidenceEchoHandler(logger *xlogger.Logger, svc *usecase.AnalysisService, decisions domrepo.DecisionStore) *ConfidenceEchoHandler {
	return &ConfidenceEchoHandler{logger: logger, svc: svc, decisions: decisions}
}

func (h *ConfidenceEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.GET("/confidence", h.Confidence)
	g.GET("/decisions", h.Decisions)
}

// Healthz reports storage liveness.
func (h *ConfidenceEchoHandler) Healthz(c echo.Context) error {
	if err := h.decisions.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("storage unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Analyze runs the batched pipeline over the requested tokens.
func (h *ConfidenceEchoHandler) Analyze(c echo.Context) error {
	start := time.Now()
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	run, err := h.svc.AnalyzeTokens(c.Request().Context(), req.Tokens, req.MatchThreshold, req.MatchCount)
	if err != nil {
		h.logger.Error("analyze usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.logger.Info("analyze done",
		xlogger.Int("tokens", len(req.Tokens)),
		xlogger.Int("results", len(run.Results)),
		xlogger.Int("failed", len(run.Errors)),
		xlogger.Duration("duration_ms", time.Since(start)))
	return xhttp.SuccessResponse(c, run)
}

// Confidence scores a single token.
func (h *ConfidenceEchoHandler) Confidence(c echo.Context) error {
	req := &models.ConfidenceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.svc.Confidence(c.Request().Context(), req.Token, req.MatchThreshold, req.MatchCount)
	if err != nil {
		h.logger.Error("confidence usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

// Decisions lists recorded decisions for a token.
func (h *ConfidenceEchoHandler) Decisions(c echo.Context) error {
	req := &models.DecisionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	list, err := h.decisions.List(c.Request().Context(), req.Token, models.DecisionStatus(req.Status), req.Limit)
	if err != nil {
		h.logger.Error("decisions query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	// Accepts RFC3339 or unix seconds; an unparseable value means no cutoff.
	if since := xhttp.ParseTimeDefault(req.Since, time.Time{}); !since.IsZero() {
		filtered := list[:0]
		for _, d := range list {
			if !d.CreatedAt.Before(since) {
				filtered = append(filtered, d)
			}
		}
		list = filtered
	}
	return xhttp.SuccessResponse(c, list)
}
