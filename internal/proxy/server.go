package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/time/rate"

	"github.com/fullstackverse/form-gateway/internal/adapter/form"
	"github.com/fullstackverse/form-gateway/internal/domain"
	"github.com/fullstackverse/form-gateway/internal/pkg/config"
)

const maxRequestBody = 50 * 1024

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Server is the public front door: it runs a stricter first-pass validation,
// applies its own local rate limit, and forwards the canonical payload to the
// gateway, relaying the upstream response.
type Server struct {
	upstreamURL string
	apiKey      string
	client      *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewServer creates a proxy Server from the shared configuration.
func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	perSecond := rate.Limit(float64(cfg.ProxyRateLimitMax) / cfg.ProxyRateLimitWindow.Seconds())
	return &Server{
		upstreamURL: cfg.UpstreamURL,
		apiKey:      cfg.APIKey,
		client:      &http.Client{Timeout: cfg.UpstreamTimeout},
		limiter:     rate.NewLimiter(perSecond, cfg.ProxyRateLimitMax),
		logger:      logger,
	}
}

// Handler returns the proxy's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	mux.HandleFunc("POST /api/submit", s.handleSubmit)
	return mux
}

// submitRequest is the proxy's inbound shape. Unlike the gateway, the proxy
// only speaks the canonical field names.
type submitRequest struct {
	FullName           string `json:"full_name"`
	Email              string `json:"email"`
	ContactNumber      string `json:"contact_number"`
	ProjectDescription string `json:"project_description"`
	Budget             string `json:"budget"`
	Type               string `json:"type"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeResponse(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
		return
	}

	if s.apiKey != "" {
		provided := r.Header.Get("x-api-key")
		if provided == "" {
			provided = r.URL.Query().Get("api_key")
		}
		if provided != s.apiKey {
			writeResponse(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeResponse(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req submitRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeResponse(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	req.ContactNumber = form.StripNonDigits(req.ContactNumber)
	req.ProjectDescription = strings.TrimSpace(req.ProjectDescription)
	req.Budget = strings.TrimSpace(req.Budget)
	req.Type = strings.TrimSpace(req.Type)

	if msg := validateSubmit(req); msg != "" {
		writeResponse(w, http.StatusBadRequest, msg)
		return
	}

	s.forward(w, r, req)
}

// validateSubmit runs the proxy's stricter checks and returns the first
// violation, or empty when the request may be forwarded.
func validateSubmit(req submitRequest) string {
	if req.FullName == "" {
		return "Full name is required"
	}
	if req.Email != "" && !emailPattern.MatchString(req.Email) {
		return "Invalid email"
	}
	if req.ContactNumber == "" {
		return "Contact number is required"
	}
	if len(req.ContactNumber) < 6 || len(req.ContactNumber) > 20 {
		return "Contact number looks invalid"
	}
	if req.ProjectDescription == "" {
		return "Project description is required"
	}
	return ""
}

func (s *Server) forward(w http.ResponseWriter, r *http.Request, req submitRequest) {
	var budget *string
	if req.Type == domain.ProposalType {
		budget = &req.Budget
	}
	payload := domain.Submission{
		FullName:           req.FullName,
		Email:              req.Email,
		ContactNumber:      req.ContactNumber,
		ProjectDescription: req.ProjectDescription,
		Budget:             budget,
		Type:               req.Type,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal upstream payload", "error", err)
		writeResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	upstreamReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, s.upstreamURL, bytes.NewReader(encoded))
	if err != nil {
		s.logger.Error("failed to build upstream request", "error", err)
		writeResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	upstreamReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		upstreamReq.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.client.Do(upstreamReq)
	if err != nil {
		// Network failure or timeout; the caller gets a gateway error, the
		// detail stays in the log.
		s.logger.Error("upstream request failed", "error", err, "upstream", s.upstreamURL)
		writeResponse(w, http.StatusBadGateway, "Upstream proxy error")
		return
	}
	defer resp.Body.Close()

	// Relay upstream status and body verbatim, success or not.
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Warn("failed to relay upstream body", "error", err)
	}
}

func writeResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, domain.Response{Success: status < 300, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
