package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/globelconnect/esim-backend/api/controllers"
	ordercontrollers "github.com/globelconnect/esim-backend/api/controllers/orders"
	"github.com/globelconnect/esim-backend/api/middleware"
	"github.com/globelconnect/esim-backend/api/responses"
	"github.com/globelconnect/esim-backend/internal/orders"
	"github.com/globelconnect/esim-backend/internal/plans"
	"github.com/globelconnect/esim-backend/pkg/config"
	pkgerrors "github.com/globelconnect/esim-backend/pkg/errors"
	"github.com/globelconnect/esim-backend/pkg/logger"
)

// Dependencies are the services the HTTP surface reads from.
type Dependencies struct {
	Catalog  *plans.Store
	Orders   orders.Service
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Catalog))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/plans", controllers.ListPlans(deps.Catalog, logg))
		r.Get("/plans/{packageCode}", controllers.PlanDetail(deps.Catalog, logg))
		r.Post("/order", ordercontrollers.Create(deps.Orders, logg))
		r.Get("/orders/{orderNo}/esim", ordercontrollers.Profiles(deps.Orders, logg))
	})

	return r
}
