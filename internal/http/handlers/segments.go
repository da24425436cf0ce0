package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/clipfinder/internal/http/response"
	"github.com/yungbote/clipfinder/internal/platform/apierr"
	"github.com/yungbote/clipfinder/internal/platform/logger"
	"github.com/yungbote/clipfinder/internal/resolve"
)

// BatchObserver counts batch items by outcome.
type BatchObserver interface {
	IncBatchItem(outcome string)
}

type SegmentHandler struct {
	log        *logger.Logger
	pipeline   *resolve.Pipeline
	batchLimit int
	maxItems   int
	observer   BatchObserver
}

type SegmentHandlerDeps struct {
	Log      *logger.Logger
	Pipeline *resolve.Pipeline
	// BatchConcurrency bounds in-flight items per batch request.
	BatchConcurrency int
	BatchMaxItems    int
	Observer         BatchObserver
}

func NewSegmentHandler(d SegmentHandlerDeps) *SegmentHandler {
	h := &SegmentHandler{
		log:        d.Log,
		pipeline:   d.Pipeline,
		batchLimit: d.BatchConcurrency,
		maxItems:   d.BatchMaxItems,
		observer:   d.Observer,
	}
	if h.log == nil {
		h.log = logger.NewNop()
	}
	h.log = h.log.With("handler", "SegmentHandler")
	if h.pipeline == nil {
		h.pipeline = resolve.New(d.Log, resolve.DefaultOptions())
	}
	if h.maxItems <= 0 {
		h.maxItems = 64
	}
	return h
}

type resolveContentRequest struct {
	Content string `json:"content"`
}

type batchRequest struct {
	Envelopes []json.RawMessage `json:"envelopes"`
}

type batchSummary struct {
	Total       int `json:"total"`
	Decoded     int `json:"decoded"`
	Recovered   int `json:"recovered"`
	Placeholder int `json:"placeholder"`
	Failed      int `json:"failed"`
}

// POST /api/v1/segments/resolve
func (h *SegmentHandler) Resolve(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.RespondAPIError(c, bodyError(err))
		return
	}
	res, err := h.pipeline.ResolveRaw(c.Request.Context(), body)
	if err != nil {
		response.RespondAPIError(c, resolveError(err, res))
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

// POST /api/v1/segments/resolve-content
func (h *SegmentHandler) ResolveContent(c *gin.Context) {
	var req resolveContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, bodyError(err))
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("content is required"))
		return
	}
	res, err := h.pipeline.ResolveContent(c.Request.Context(), req.Content)
	if err != nil {
		response.RespondAPIError(c, resolveError(err, res))
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

// POST /api/v1/segments/batch
func (h *SegmentHandler) Batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, bodyError(err))
		return
	}
	if len(req.Envelopes) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("envelopes is required"))
		return
	}
	if len(req.Envelopes) > h.maxItems {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "batch_too_large",
			fmt.Errorf("batch has %d envelopes, limit is %d", len(req.Envelopes), h.maxItems))
		return
	}

	items := h.pipeline.ResolveBatch(c.Request.Context(), req.Envelopes, h.batchLimit)
	summary := batchSummary{Total: len(items)}
	for _, it := range items {
		outcome := resolve.OutcomeFailed
		if it.Result != nil {
			outcome = it.Result.Outcome
		}
		switch outcome {
		case resolve.OutcomeDecoded:
			summary.Decoded++
		case resolve.OutcomePlaceholder:
			summary.Placeholder++
		case resolve.OutcomeRecovered:
			summary.Recovered++
		default:
			summary.Failed++
		}
		if h.observer != nil {
			h.observer.IncBatchItem(string(outcome))
		}
	}
	h.log.Info("batch resolved",
		"total", summary.Total,
		"failed", summary.Failed,
		"request_id", c.GetString("request_id"),
	)
	response.RespondOK(c, gin.H{"items": items, "summary": summary})
}

// resolveError maps pipeline failures to API errors. Terminal failures carry
// the partial result so callers can inspect rejects.
func resolveError(err error, res *resolve.Result) error {
	switch {
	case errors.Is(err, resolve.ErrEnvelope):
		return apierr.New(http.StatusUnprocessableEntity, "envelope_error", err)
	case errors.Is(err, resolve.ErrTerminalEmpty):
		ae := apierr.New(http.StatusUnprocessableEntity, "terminal_empty", err)
		if res != nil {
			ae.WithDetail(res)
		}
		return ae
	default:
		return apierr.New(http.StatusInternalServerError, "resolve_failed", err)
	}
}

func bodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return apierr.New(http.StatusRequestEntityTooLarge, "body_too_large", err)
	}
	return apierr.New(http.StatusBadRequest, "invalid_request", err)
}
