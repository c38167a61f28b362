package purchasing

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/shared"
)

// maxInvoiceUpload bounds a multipart invoice upload.
const maxInvoiceUpload = 20 << 20

// Handler serves the purchase order endpoints.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	superadmin func(http.Handler) http.Handler
}

// NewHandler builds a Handler instance. superadmin guards the routes only a
// SUPERADMIN may call.
func NewHandler(logger *slog.Logger, service *Service, superadmin func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, superadmin: superadmin}
}

// MountRoutes registers purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/create-purchase-order", h.handleCreate)
	r.Post("/update-purchase-info", h.handleUpdate)
	r.Post("/upload-purchase-invoice", h.handleUploadInvoice)
	r.Get("/get-all-purchases", h.handleList)
	r.With(h.superadmin).Get("/get-all-outstanding-purchases", h.handleOutstanding)
	r.With(h.superadmin).Post("/cancel-purchase-order/{purchaseId}", h.handleCancel)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in CreateOrderInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := h.service.CreateOrder(r.Context(), in)
	if err != nil {
		h.logger.Error("create purchase order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Purchase order created successfully", map[string]any{"purchaseId": id})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Update(r.Context(), in)
	if err != nil {
		h.logger.Error("update purchase order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	// The update result is its own contract: {success, results}, no envelope.
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleUploadInvoice(w http.ResponseWriter, r *http.Request) {
	orderID, images, err := parseInvoiceUpload(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.AddInvoices(r.Context(), orderID, images); err != nil {
		h.logger.Error("upload purchase invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Invoices uploaded successfully", nil)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := shared.ParsePageQuery(r.URL.Query())
	month := shared.QueryInt(r.URL.Query(), "month")
	week := shared.QueryInt(r.URL.Query(), "week")

	views, meta, err := h.service.List(r.Context(), q, month, week)
	if err != nil {
		h.logger.Error("list purchases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Purchases retrieved successfully", map[string]any{
		"purchases":  views,
		"pagination": meta,
	})
}

func (h *Handler) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	q := shared.ParsePageQuery(r.URL.Query())
	month := shared.QueryInt(r.URL.Query(), "month")
	week := shared.QueryInt(r.URL.Query(), "week")

	views, meta, err := h.service.Outstanding(r.Context(), q, month, week)
	if err != nil {
		h.logger.Error("list outstanding purchases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Outstanding purchases retrieved successfully", map[string]any{
		"purchases":  views,
		"pagination": meta,
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "purchaseId"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid purchase id", "")
		return
	}
	if err := h.service.Cancel(r.Context(), orderID); err != nil {
		h.logger.Error("cancel purchase order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Purchase order cancelled successfully", nil)
}

// parseInvoiceUpload reads the multipart upload form: the order id field
// plus one or more image files under "invoices".
func parseInvoiceUpload(r *http.Request) (int64, [][]byte, error) {
	if err := r.ParseMultipartForm(maxInvoiceUpload); err != nil {
		return 0, nil, httpx.ErrValidation
	}
	orderID, err := strconv.ParseInt(r.FormValue("purchaseId"), 10, 64)
	if err != nil {
		return 0, nil, httpx.ErrValidation
	}

	var images [][]byte
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["invoices"] {
			f, err := header.Open()
			if err != nil {
				return 0, nil, err
			}
			raw, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return 0, nil, err
			}
			images = append(images, raw)
		}
	}
	return orderID, images, nil
}
