package suppliers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/durianworks/backoffice/internal/platform/httpx"
)

// Handler serves the supplier endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers supplier routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/create-suppliers", h.handleCreate)
	r.Get("/get-all-suppliers", h.handleList)
	r.Get("/supplier/{supplierId}", h.handleGet)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var inputs []CreateInput
	if err := httpx.DecodeJSON(r, &inputs); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.CreateBatch(r.Context(), inputs)
	if err != nil {
		h.logger.Error("create suppliers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Suppliers created successfully", created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list suppliers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Suppliers retrieved successfully", out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "supplierId"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid supplier id", "")
		return
	}
	sup, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get supplier", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Supplier retrieved successfully", sup)
}
