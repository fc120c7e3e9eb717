package api

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orgscope/orgscope/internal/aggregator"
	"github.com/orgscope/orgscope/internal/analyzer"
	"github.com/orgscope/orgscope/internal/collector"
	"github.com/orgscope/orgscope/internal/config"
	"github.com/orgscope/orgscope/internal/domain"
	apperrors "github.com/orgscope/orgscope/internal/errors"
)

// Query actions accepted by the envelope endpoint
const (
	ActionValidate  = "validate"
	ActionAnalyze   = "analyze"
	ActionRateLimit = "rate-limit"
)

// QueryRequest is the request envelope at the service boundary. The
// per-run configuration travels with the request; the server holds no
// token state.
type QueryRequest struct {
	Action string                `json:"action"`
	Config config.AnalysisConfig `json:"config"`
}

// CollectorFactory builds a collector for a request's token
type CollectorFactory func(token string) collector.Collector

// Handler handles API requests
type Handler struct {
	newCollector CollectorFactory
	logger       *log.Logger
	hub          *progressHub
}

// NewHandler creates a new API handler
func NewHandler(factory CollectorFactory, logger *log.Logger) *Handler {
	return &Handler{
		newCollector: factory,
		logger:       logger,
		hub:          newProgressHub(),
	}
}

// Query dispatches an envelope request to the matching operation
// POST /api/v1/query
func (h *Handler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError("malformed request body"))
		return
	}

	switch req.Action {
	case ActionValidate:
		h.validate(c, req.Config)
	case ActionAnalyze:
		h.analyze(c, req.Config)
	case ActionRateLimit:
		h.rateLimit(c, req.Config)
	default:
		respondError(c, apperrors.NewBadRequestError("action must be one of: validate, analyze, rate-limit"))
	}
}

func (h *Handler) validate(c *gin.Context, cfg config.AnalysisConfig) {
	if cfg.Token == "" {
		respondError(c, apperrors.NewBadRequestError("token: GitHub token is required"))
		return
	}

	coll := h.newCollector(cfg.Token)
	valid, err := coll.ValidateToken(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	// An organization name, when present, must exist and be visible to the token
	if valid && cfg.Organization != "" {
		if _, err := coll.GetOrganization(c.Request.Context(), cfg.Organization); err != nil {
			if apperrors.IsNotFound(err) || apperrors.IsUnauthorized(err) {
				valid = false
			} else {
				respondError(c, err)
				return
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"valid": valid},
	})
}

func (h *Handler) analyze(c *gin.Context, cfg config.AnalysisConfig) {
	if err := cfg.Validate(); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	coll := h.newCollector(cfg.Token)
	an := analyzer.NewRepositoryAnalyzer(coll, h.logger)
	agg := aggregator.NewAggregator(coll, an, h.logger)

	// The aggregator emits to the channel; the hub fans events out to any
	// connected event-stream subscribers.
	progress := make(chan domain.ProgressEvent, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range progress {
			h.logger.Printf("progress [%s] %d%% %s %s", ev.Stage, ev.Progress, ev.Repository, ev.Message)
			h.hub.publish(ev)
		}
	}()

	stats, err := agg.PerformFullAnalysis(c.Request.Context(), cfg.Organization, progress)
	close(progress)
	<-done

	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": stats,
	})
}

func (h *Handler) rateLimit(c *gin.Context, cfg config.AnalysisConfig) {
	if cfg.Token == "" {
		respondError(c, apperrors.NewBadRequestError("token: GitHub token is required"))
		return
	}

	coll := h.newCollector(cfg.Token)
	limit, err := coll.GetRateLimit(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": limit,
	})
}

// Events streams progress events of running analyses as server-sent events
// GET /api/v1/analyze/events
func (h *Handler) Events(c *gin.Context) {
	sub := h.hub.subscribe()
	defer h.hub.unsubscribe(sub)

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub:
			if !ok {
				return false
			}
			c.SSEvent("progress", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		case apperrors.ErrCodeRemote:
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	})
}
