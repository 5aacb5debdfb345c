package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/fullstackverse/form-gateway/internal/adapter/form"
	"github.com/fullstackverse/form-gateway/internal/adapter/metrics"
	"github.com/fullstackverse/form-gateway/internal/adapter/notifier"
	"github.com/fullstackverse/form-gateway/internal/adapter/ratelimit"
	"github.com/fullstackverse/form-gateway/internal/domain"
)

// Canonical response messages. Clients only ever see these; internal error
// detail stays in the server-side logs.
const (
	msgNoRequest     = "No request context. POST JSON or form data to the submit endpoint."
	msgInvalidAPIKey = "Invalid API key"
	msgNoPayload     = "No payload found in request."
	msgRateLimited   = "Too many submissions. Try again later."
	msgInternalError = "Internal server error"
	msgSubmitted     = "Form submitted successfully"
	validationPrefix = "Validation error: "
)

// RawRequest is the opaque inbound representation handed to the use case:
// an optional JSON body and optional single-value parameters.
type RawRequest struct {
	Body   []byte
	Params map[string]string
}

// SubmitUseCase orchestrates one submission: API key check, payload
// extraction, normalization, validation, rate limiting and persistence, with
// failure isolation between the stages.
type SubmitUseCase struct {
	store   domain.SubmissionStore
	limiter *ratelimit.Limiter
	alerts  notifier.Notifier
	logger  *slog.Logger
	metrics *metrics.GatewayMetrics
	apiKey  string // empty disables the key check
	maxDesc int
	policy  form.Policy
}

// NewSubmitUseCase creates a SubmitUseCase. Alerts and metrics may be nil.
func NewSubmitUseCase(
	store domain.SubmissionStore,
	limiter *ratelimit.Limiter,
	alerts notifier.Notifier,
	logger *slog.Logger,
	m *metrics.GatewayMetrics,
	apiKey string,
	maxDescriptionLength int,
	policy form.Policy,
) *SubmitUseCase {
	return &SubmitUseCase{
		store:   store,
		limiter: limiter,
		alerts:  alerts,
		logger:  logger,
		metrics: m,
		apiKey:  apiKey,
		maxDesc: maxDescriptionLength,
		policy:  policy,
	}
}

// Submit runs the ingestion pipeline for one raw request and always produces
// an application-level response; transport errors never escape as panics or
// leaked internals. presentedKey is the key offered by the transport layer
// (header); the request parameters and JSON body are consulted as fallbacks.
func (uc *SubmitUseCase) Submit(ctx context.Context, raw *RawRequest, presentedKey, clientID string) domain.Response {
	if raw == nil {
		// Manual trigger without a request, e.g. a smoke invocation.
		return domain.Response{Success: false, Message: msgNoRequest}
	}

	if uc.apiKey != "" {
		if key := uc.resolveAPIKey(raw, presentedKey); key != uc.apiKey {
			uc.logger.Warn("rejected request due to invalid API key", "client_id", clientID)
			uc.count("rejected_auth")
			return domain.Response{Success: false, Message: msgInvalidAPIKey}
		}
	}

	payload := form.Extract(raw.Body, raw.Params)
	if len(payload) == 0 {
		uc.count("rejected_empty")
		return domain.Response{Success: false, Message: msgNoPayload}
	}

	sub := form.Normalize(payload)

	if err := form.Validate(sub, uc.policy); err != nil {
		uc.count("rejected_validation")
		return domain.Response{Success: false, Message: validationPrefix + err.Error()}
	}

	if !uc.limiter.Allow(ctx, clientID, time.Now()) {
		uc.logger.Warn("rate limit triggered", "client_id", clientID)
		uc.count("rejected_rate")
		return domain.Response{Success: false, Message: msgRateLimited}
	}

	row := domain.StoredRow{
		Timestamp:  time.Now().UTC(),
		Submission: sub,
		ClientID:   clientID,
	}
	row.ProjectDescription = form.Truncate(sub.ProjectDescription, uc.maxDesc)

	if err := uc.store.AppendRow(ctx, row); err != nil {
		// Full detail server-side only; the client gets a generic message.
		uc.logger.Error("failed to append submission", "error", err, "client_id", clientID)
		uc.count("error_store")
		if uc.metrics != nil {
			uc.metrics.StoreAppendErrors.Inc()
		}
		if uc.alerts != nil {
			if nerr := uc.alerts.Notify(ctx, "Submission persistence failed", err.Error()); nerr != nil {
				uc.logger.Warn("failed to send error alert", "error", nerr)
			}
		}
		return domain.Response{Success: false, Message: msgInternalError}
	}

	uc.count("accepted")
	return domain.Response{Success: true, Message: msgSubmitted}
}

// resolveAPIKey checks, in order, the transport-presented key, the api_key
// parameter, and an api_key field in a JSON body.
func (uc *SubmitUseCase) resolveAPIKey(raw *RawRequest, presentedKey string) string {
	if presentedKey != "" {
		return presentedKey
	}
	if key := raw.Params["api_key"]; key != "" {
		return key
	}
	if len(raw.Body) > 0 {
		if payload := form.Extract(raw.Body, nil); payload["api_key"] != "" {
			return payload["api_key"]
		}
	}
	return ""
}

func (uc *SubmitUseCase) count(status string) {
	if uc.metrics != nil {
		uc.metrics.SubmissionsTotal.WithLabelValues(status).Inc()
	}
}
