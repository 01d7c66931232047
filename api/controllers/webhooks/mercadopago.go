package webhooks

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jpavezc/clubfees-backend/api/responses"
	mpwebhook "github.com/jpavezc/clubfees-backend/internal/webhooks/mercadopago"
	pkgerrors "github.com/jpavezc/clubfees-backend/pkg/errors"
	"github.com/jpavezc/clubfees-backend/pkg/logger"
)

type MercadoPagoWebhookService interface {
	HandleEvent(ctx context.Context, event mpwebhook.Event) error
}

type mercadoPagoWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type webhookBody struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	ID    string `json:"id"`
	Data  struct {
		ID string `json:"id"`
	} `json:"data"`
}

// MercadoPagoWebhook ingests provider notifications. The provider retries on
// anything but a 2xx, so every handled outcome acknowledges with 200; only an
// unexpected internal failure surfaces a 500 to request redelivery.
func MercadoPagoWebhook(svc MercadoPagoWebhookService, guard mercadoPagoWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		event := parseEvent(r)

		if guard != nil && event.ResourceID != "" {
			seen, err := guard.CheckAndMark(ctx, event.ID())
			if err != nil {
				// Dedupe is best-effort; the resolver is idempotent anyway.
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "event_id", event.ID()), "idempotency check failed, processing anyway")
				}
			} else if seen {
				responses.WriteAck(w)
				return
			}
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			if guard != nil && event.ResourceID != "" {
				_ = guard.Delete(ctx, event.ID())
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteAck(w)
	}
}

// parseEvent pulls the topic and resource id out of the notification. The
// provider uses several shapes: query parameters (`topic`+`id` or
// `type`+`data.id`) and a JSON body carrying the same fields.
func parseEvent(r *http.Request) mpwebhook.Event {
	query := r.URL.Query()

	event := mpwebhook.Event{
		Topic:      firstNonEmpty(query.Get("type"), query.Get("topic")),
		ResourceID: firstNonEmpty(query.Get("data.id"), query.Get("id")),
	}
	if event.Topic != "" && event.ResourceID != "" {
		return event
	}

	if r.Body != nil {
		var body webhookBody
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			if event.Topic == "" {
				event.Topic = firstNonEmpty(body.Type, body.Topic)
			}
			if event.ResourceID == "" {
				event.ResourceID = firstNonEmpty(body.Data.ID, body.ID)
			}
		}
	}

	return event
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
