package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fullstackverse/form-gateway/internal/usecase"
)

const apiKeyHeader = "X-API-Key"

// SubmitHandler handles HTTP requests for form submissions. All
// application-level outcomes are reported in-body with HTTP 200; only
// transport-level problems (oversized body) use a different status.
type SubmitHandler struct {
	useCase     *usecase.SubmitUseCase
	logger      *slog.Logger
	maxBodySize int64
}

// NewSubmitHandler creates a new SubmitHandler.
func NewSubmitHandler(uc *usecase.SubmitUseCase, logger *slog.Logger, maxBodySize int64) *SubmitHandler {
	return &SubmitHandler{
		useCase:     uc,
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

// ServeHTTP processes one submission request, JSON or form-encoded.
func (h *SubmitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	raw, err := h.buildRawRequest(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Error("failed to read submit request", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	clientID := ClientIP(r, raw.Params)
	resp := h.useCase.Submit(r.Context(), raw, r.Header.Get(apiKeyHeader), clientID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// buildRawRequest collects the JSON body (when the content type says so) and
// the single-value parameters from the query string and any form body.
func (h *SubmitHandler) buildRawRequest(r *http.Request) (*usecase.RawRequest, error) {
	raw := &usecase.RawRequest{Params: map[string]string{}}

	for k, vals := range r.URL.Query() {
		if len(vals) > 0 {
			raw.Params[k] = vals[0]
		}
	}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for k, vals := range r.PostForm {
			if len(vals) > 0 {
				raw.Params[k] = vals[0]
			}
		}
	default:
		// Treated as JSON; the extractor tolerates anything else.
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		raw.Body = body
	}

	return raw, nil
}
