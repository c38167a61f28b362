package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/durianworks/backoffice/internal/auth"
	"github.com/durianworks/backoffice/internal/expenses"
	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/purchasing"
	"github.com/durianworks/backoffice/internal/reporting"
	"github.com/durianworks/backoffice/internal/sales"
	"github.com/durianworks/backoffice/internal/suppliers"
	"github.com/durianworks/backoffice/internal/varieties"
)

// RouterParams collects everything the router mounts.
type RouterParams struct {
	Config     *Config
	Tokens     *auth.TokenManager
	Auth       *auth.Handler
	Reporting  *reporting.Handler
	Expenses   *expenses.Handler
	Purchasing *purchasing.Handler
	Sales      *sales.Handler
	Suppliers  *suppliers.Handler
	Varieties  *varieties.Handler
}

// NewRouter assembles the HTTP surface. Everything except login, refresh and
// the health probe sits behind the bearer token middleware under /admin.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(p.Config) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.OK(w, http.StatusOK, "ok", nil)
	})

	r.Route("/admin", func(r chi.Router) {
		// Credential guessing gets throttled per client IP.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(10, time.Minute))
			p.Auth.MountPublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(p.Tokens))
			p.Auth.MountRoutes(r)
			p.Reporting.MountRoutes(r)
			p.Expenses.MountRoutes(r)
			p.Purchasing.MountRoutes(r)
			p.Sales.MountRoutes(r)
			p.Suppliers.MountRoutes(r)
			p.Varieties.MountRoutes(r)
		})
	})

	return r
}
