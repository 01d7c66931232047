package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpavezc/clubfees-backend/api/controllers"
	webhookcontrollers "github.com/jpavezc/clubfees-backend/api/controllers/webhooks"
	"github.com/jpavezc/clubfees-backend/api/middleware"
	mpwebhook "github.com/jpavezc/clubfees-backend/internal/webhooks/mercadopago"
	"github.com/jpavezc/clubfees-backend/pkg/config"
	"github.com/jpavezc/clubfees-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups everything the HTTP surface depends on.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DBPinger pinger
	Redis    pinger

	PaymentsService IntentService
	WebhookService  *mpwebhook.Service
	WebhookGuard    *mpwebhook.IdempotencyGuard

	MetricsGatherer prometheus.Gatherer
}

// IntentService mirrors the controller dependency so callers wire concrete
// services without importing the controllers package.
type IntentService = controllers.IntentService

// NewRouter assembles the API.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DBPinger, params.Redis))
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/intent", controllers.CreatePaymentIntent(params.PaymentsService, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		handler := webhookcontrollers.MercadoPagoWebhook(params.WebhookService, params.WebhookGuard, logg)
		// The provider delivers notifications as POSTs but the legacy IPN
		// flow probes with GETs too.
		r.Post("/mercadopago", handler)
		r.Get("/mercadopago", handler)
	})

	if params.MetricsGatherer != nil {
		r.Get("/metrics", promhttp.HandlerFor(params.MetricsGatherer, promhttp.HandlerOpts{}).ServeHTTP)
	}

	return r
}
