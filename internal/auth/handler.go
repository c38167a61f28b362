package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/shared"
)

// Handler serves the account endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountPublicRoutes registers the routes reachable without a session.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/refresh-token", h.handleRefresh)
}

// MountRoutes registers the authenticated account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(RequireSuperAdmin).Post("/create-account", h.handleCreateAccount)
	r.Post("/request-advanced-salary", h.handleSalaryAdvance)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Login(r.Context(), in)
	if err != nil {
		h.logger.Warn("login rejected", slog.String("loginId", in.LoginID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Login successful", result)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in RefreshInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	pair, err := h.service.Refresh(r.Context(), in)
	if err != nil {
		h.logger.Warn("token refresh rejected", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Token refreshed successfully", pair)
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var in CreateAccountInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	admin, err := h.service.CreateAccount(r.Context(), in)
	if err != nil {
		h.logger.Error("create account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Account created successfully", admin)
}

func (h *Handler) handleSalaryAdvance(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var in SalaryAdvanceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	recorded, err := h.service.RequestSalaryAdvance(r.Context(), identity, in)
	if err != nil {
		h.logger.Error("salary advance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Salary advance recorded successfully", recorded)
}
