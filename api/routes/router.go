package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snackdash/snackdash-core/api/controllers"
	"github.com/snackdash/snackdash-core/api/middleware"
	"github.com/snackdash/snackdash-core/internal/remote"
	"github.com/snackdash/snackdash-core/pkg/config"
	"github.com/snackdash/snackdash-core/pkg/db"
	"github.com/snackdash/snackdash-core/pkg/logger"
	pkgredis "github.com/snackdash/snackdash-core/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	cartService remote.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/carts/{cartKey}", func(r chi.Router) {
			r.Get("/lines", controllers.CartLines(cartService, logg))
			r.Put("/lines", controllers.CartUpsertLine(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
		})
		r.Route("/lines/{lineId}", func(r chi.Router) {
			r.Patch("/", controllers.CartSetQuantity(cartService, logg))
			r.Delete("/", controllers.CartDeleteLine(cartService, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(cartService, logg))
			r.Post("/{orderId}/lines", controllers.OrderAddLines(cartService, logg))
		})
	})

	return r
}
