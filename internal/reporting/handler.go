package reporting

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/durianworks/backoffice/internal/platform/httpx"
)

// Handler serves the profit/loss endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers reporting routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/profit-loss", h.handleDailyProfitLoss)
	r.Get("/get-dashboard-profit-loss", h.handleDashboard)
}

func (h *Handler) handleDailyProfitLoss(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.DailySummary(r.Context())
	if err != nil {
		h.logger.Error("daily profit/loss", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Daily and monthly profit/loss calculated successfully", summary)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("dashboard profit/loss", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", dash)
}
