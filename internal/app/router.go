package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/wonrang2/auskorphi/internal/auth"
	"github.com/wonrang2/auskorphi/internal/batches"
	"github.com/wonrang2/auskorphi/internal/fx"
	"github.com/wonrang2/auskorphi/internal/importer"
	"github.com/wonrang2/auskorphi/internal/inventory"
	"github.com/wonrang2/auskorphi/internal/products"
	"github.com/wonrang2/auskorphi/internal/reports"
	"github.com/wonrang2/auskorphi/internal/sales"
	"github.com/wonrang2/auskorphi/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthService      *auth.Service
	AuthHandler      *auth.Handler
	ProductsHandler  *products.Handler
	BatchesHandler   *batches.Handler
	SalesHandler     *sales.Handler
	InventoryHandler *inventory.Handler
	ReportsHandler   *reports.Handler
	FXHandler        *fx.Handler
	ImporterHandler  *importer.Handler
	UsersHandler     *users.Handler
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Credential guessing is the one endpoint worth rate limiting.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(10, time.Minute))
			params.AuthHandler.MountPublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(params.AuthService))

			params.AuthHandler.MountProtectedRoutes(r)
			r.Route("/products", params.ProductsHandler.MountRoutes)
			r.Route("/batches", params.BatchesHandler.MountRoutes)
			r.Route("/sales", params.SalesHandler.MountRoutes)
			r.Route("/inventory", params.InventoryHandler.MountRoutes)
			r.Route("/reports", params.ReportsHandler.MountRoutes)
			r.Route("/exchange-rate", params.FXHandler.MountRoutes)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Route("/import", params.ImporterHandler.MountRoutes)
				r.Route("/users", params.UsersHandler.MountRoutes)
			})
		})
	})

	return r
}
