package expenses

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/shared"
)

// Handler serves the expense endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers expense routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/create-expenses", h.handleCreate)
	r.Get("/retrieve-today-expenses", h.handleToday)
	r.Get("/retrieve-all-expenses", h.handleAll)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var inputs []CreateInput
	if err := httpx.DecodeJSON(r, &inputs); err != nil {
		httpx.RespondError(w, err)
		return
	}
	saved, err := h.service.CreateBatch(r.Context(), inputs)
	if err != nil {
		h.logger.Error("create expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Expenses recorded successfully", saved)
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Today(r.Context())
	if err != nil {
		h.logger.Error("today expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Today's expenses retrieved successfully", rows)
}

func (h *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	q := shared.ParsePageQuery(r.URL.Query())
	month := shared.QueryInt(r.URL.Query(), "month")
	week := shared.QueryInt(r.URL.Query(), "week")

	groups, meta, err := h.service.Grouped(r.Context(), q, month, week)
	if err != nil {
		h.logger.Error("grouped expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Expenses retrieved successfully", map[string]any{
		"expenses":   groups,
		"pagination": meta,
	})
}
