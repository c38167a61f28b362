package varieties

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/durianworks/backoffice/internal/platform/httpx"
)

// Handler serves the variety endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers variety routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/create-durian-variety", h.handleUpsert)
	r.Get("/get-all-durian-variety", h.handleList)
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var inputs []CreateInput
	if err := httpx.DecodeJSON(r, &inputs); err != nil {
		httpx.RespondError(w, err)
		return
	}
	saved, err := h.service.UpsertBatch(r.Context(), inputs)
	if err != nil {
		h.logger.Error("upsert varieties", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Durian varieties saved successfully", saved)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list varieties", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Durian varieties retrieved successfully", out)
}
