package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/clipfinder/internal/analyzer"
	"github.com/yungbote/clipfinder/internal/http/response"
	"github.com/yungbote/clipfinder/internal/platform/apierr"
	"github.com/yungbote/clipfinder/internal/prompt"
	"github.com/yungbote/clipfinder/internal/resolve"
)

// TranscriptAnalyzer is the slice of analyzer.Service the handler needs.
type TranscriptAnalyzer interface {
	Available() bool
	AnalyzeTranscript(ctx context.Context, transcript string) (*resolve.Result, error)
}

type TranscriptHandler struct {
	analyzer TranscriptAnalyzer
}

func NewTranscriptHandler(a TranscriptAnalyzer) *TranscriptHandler {
	return &TranscriptHandler{analyzer: a}
}

type analyzeRequest struct {
	Transcript string `json:"transcript"`
}

// POST /api/v1/transcripts/analyze
func (h *TranscriptHandler) Analyze(c *gin.Context) {
	if h.analyzer == nil || !h.analyzer.Available() {
		response.RespondAPIError(c, apierr.New(http.StatusServiceUnavailable, "llm_unavailable", analyzer.ErrUnavailable))
		return
	}
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, bodyError(err))
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", prompt.ErrEmptyTranscript)
		return
	}
	res, err := h.analyzer.AnalyzeTranscript(c.Request.Context(), req.Transcript)
	if err != nil {
		response.RespondAPIError(c, analyzeError(err, res))
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

func analyzeError(err error, res *resolve.Result) error {
	switch {
	case errors.Is(err, analyzer.ErrUnavailable):
		return apierr.New(http.StatusServiceUnavailable, "llm_unavailable", err)
	case errors.Is(err, analyzer.ErrTransport):
		return apierr.New(http.StatusBadGateway, "llm_transport_failed", err)
	case errors.Is(err, prompt.ErrEmptyTranscript):
		return apierr.New(http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, resolve.ErrEnvelope):
		// The model answered with something that is not a chat completion.
		return apierr.New(http.StatusBadGateway, "envelope_error", err)
	default:
		return resolveError(err, res)
	}
}
