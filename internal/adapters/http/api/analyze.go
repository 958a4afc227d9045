package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	service "github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/app"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/logger"
)

// Request body limits.
const (
	maxAnalyzeBodyBytes = 1 << 20
	maxBatchBodyBytes   = 32 << 20
)

// Analyzer runs engagement analyses.
type Analyzer interface {
	Analyze(ctx context.Context, req model.EngagementRequest) (model.EngagementResult, error)
	AnalyzeBatch(ctx context.Context, reqs []model.EngagementRequest) ([]model.EngagementResult, error)
}

type batchRequest struct {
	Requests []model.EngagementRequest `json:"requests" validate:"required,min=1,dive"`
}

type batchResponse struct {
	Results []model.EngagementResult `json:"results"`
}

// AnalyzeHandler serves the analysis endpoints.
type AnalyzeHandler struct {
	analyzer Analyzer
	logger   logger.Logger
}

// NewAnalyzeHandler creates a new analysis handler.
func NewAnalyzeHandler(analyzer Analyzer, l logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer, logger: l}
}

// HandleAnalyze handles POST /analyze-engagement requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req model.EngagementRequest
	if !h.decode(w, r, maxAnalyzeBodyBytes, &req) {
		return
	}

	h.logger.Info(r.Context(), "analyzing engagement", logger.String("user_id", req.UserData.UserID))
	res, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleBatch handles POST /analyze-engagement/batch requests. Results keep
// the order of the submitted requests.
func (h *AnalyzeHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !h.decode(w, r, maxBatchBodyBytes, &req) {
		return
	}

	results, err := h.analyzer.AnalyzeBatch(r.Context(), req.Requests)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

// decode reads and validates the body into v. It writes the error response
// and returns false when the body is unusable.
func (h *AnalyzeHandler) decode(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest, fmt.Errorf("%w: body exceeds %d bytes", ErrBadRequest, limit), nil)
			return false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Errorf("%w: %w", ErrBadRequest, err), nil)
		return false
	}

	if err := validateStruct(v); err != nil {
		var verr *RequestValidationError
		if errors.As(err, &verr) {
			h.logger.Warn(r.Context(), "validation error", logger.String("path", r.URL.Path), logger.Error(err))
			writeError(w, http.StatusUnprocessableEntity, codeValidation, err, verr.Fields)
			return false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, err, nil)
		return false
	}
	return true
}

func (h *AnalyzeHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrBatchTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, codeBatchTooLarge, err, nil)
	case errors.Is(err, service.ErrEmptyBatch):
		writeError(w, http.StatusUnprocessableEntity, codeValidation, err, nil)
	case errors.Is(err, service.ErrOverloaded):
		writeError(w, http.StatusTooManyRequests, codeOverloaded, err, nil)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, fmt.Errorf("%w: %w", ErrUnavailable, err), nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, codeTimeout, err, nil)
	default:
		h.logger.Error(r.Context(), "unhandled analysis error", logger.String("path", r.URL.Path), logger.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, errors.New("internal server error, check logs for details"), nil)
	}
}
