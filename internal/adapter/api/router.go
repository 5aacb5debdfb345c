package api

import (
	"log/slog"
	"net/http"

	"github.com/fullstackverse/form-gateway/internal/adapter/api/handler"
	"github.com/fullstackverse/form-gateway/internal/pkg/config"
	"github.com/fullstackverse/form-gateway/internal/usecase"
)

// NewRouter creates and configures the main HTTP router for the gateway.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	submitUseCase *usecase.SubmitUseCase,
) http.Handler {
	mux := http.NewServeMux()

	submitHandler := handler.NewSubmitHandler(submitUseCase, logger, cfg.MaxBodySize)

	mux.Handle("POST /submit", submitHandler)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}
