package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tabsplit/tabsplit-backend/api/controllers"
	splitcontrollers "github.com/tabsplit/tabsplit-backend/api/controllers/splits"
	"github.com/tabsplit/tabsplit-backend/api/middleware"
	"github.com/tabsplit/tabsplit-backend/internal/receipts"
	"github.com/tabsplit/tabsplit-backend/internal/splits"
	"github.com/tabsplit/tabsplit-backend/pkg/config"
	"github.com/tabsplit/tabsplit-backend/pkg/db"
	"github.com/tabsplit/tabsplit-backend/pkg/logger"
	redispkg "github.com/tabsplit/tabsplit-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redispkg.Client,
	receiptsService receipts.Service,
	splitsService splits.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/receipts", func(r chi.Router) {
		r.Post("/", controllers.ReceiptCreate(receiptsService, logg))
		r.Get("/", controllers.ReceiptList(receiptsService, logg))
		r.Route("/{receiptId}", func(r chi.Router) {
			r.Get("/", controllers.ReceiptGet(receiptsService, logg))
			r.Get("/split", splitcontrollers.SplitFetch(splitsService, logg))
			r.Put("/split", splitcontrollers.SplitSave(splitsService, logg))
		})
	})

	return r
}
