package mpwebhook

import (
	"context"
	"strings"
	"time"

	"github.com/jpavezc/clubfees-backend/internal/reconciliation"
	pkgerrors "github.com/jpavezc/clubfees-backend/pkg/errors"
	"github.com/jpavezc/clubfees-backend/pkg/logger"
	"github.com/jpavezc/clubfees-backend/pkg/mercadopago"
	"github.com/jpavezc/clubfees-backend/pkg/metrics"
)

// Notification topics this service understands. Anything else is acknowledged
// and dropped.
const (
	TopicPayment       = "payment"
	TopicMerchantOrder = "merchant_order"
)

// Event is the transport-independent form of an inbound notification: which
// topic fired and which provider resource it points at.
type Event struct {
	Topic      string
	ResourceID string
}

// ID returns the deduplication key for the event.
func (e Event) ID() string {
	return normalizeTopic(e.Topic) + ":" + e.ResourceID
}

type providerClient interface {
	GetPayment(ctx context.Context, id string) (*mercadopago.Payment, error)
	GetMerchantOrder(ctx context.Context, id string) (*mercadopago.Order, error)
}

type referenceResolver interface {
	Resolve(ctx context.Context, n reconciliation.Notification) (reconciliation.Result, error)
}

// ServiceParams groups dependencies for the webhook service.
type ServiceParams struct {
	Provider providerClient
	Resolver referenceResolver
	Logger   *logger.Logger
	Metrics  *metrics.ReconciliationMetrics

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// Service turns provider notifications into payment record transitions. Each
// event is fetched back from the provider (notifications carry no trustworthy
// payload), normalized to settlement facts and handed to the resolver.
type Service struct {
	provider providerClient
	resolver referenceResolver
	logg     *logger.Logger
	metrics  *metrics.ReconciliationMetrics
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "provider is required")
	}
	if params.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "resolver is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		provider: params.Provider,
		resolver: params.Resolver,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

// HandleEvent processes one notification. Unknown topics, missing resource
// ids and unapproved resources are dropped; provider fetch failures are
// logged and swallowed so the provider is not driven into endless redelivery.
// Only record-store failures propagate, prompting a redelivery that can
// succeed later.
func (s *Service) HandleEvent(ctx context.Context, event Event) error {
	topic := normalizeTopic(event.Topic)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"topic":       topic,
		"resource_id": event.ResourceID,
	})

	if topic != TopicPayment && topic != TopicMerchantOrder {
		s.metrics.RecordOutcome(metrics.OutcomeIgnored, topic)
		s.logg.Info(ctx, "ignoring notification with unknown topic")
		return nil
	}
	if event.ResourceID == "" {
		s.metrics.RecordOutcome(metrics.OutcomeIgnored, topic)
		s.logg.Warn(ctx, "notification carries no resource id")
		return nil
	}

	notification, ok, err := s.normalize(ctx, topic, event.ResourceID)
	if err != nil {
		s.metrics.RecordOutcome(metrics.OutcomeUpstreamFailure, topic)
		s.logg.Error(ctx, "fetching notification resource from provider", err)
		return nil
	}
	if !ok {
		s.metrics.RecordOutcome(metrics.OutcomeIgnored, topic)
		s.logg.Info(ctx, "notification resource not approved, nothing to reconcile")
		return nil
	}

	result, err := s.resolver.Resolve(ctx, notification)
	if err != nil {
		return err
	}

	s.metrics.RecordOutcome(result.Outcome, topic)
	return nil
}

// normalize fetches the provider resource and reduces it to settlement facts.
// The boolean reports whether the resource is approved and worth resolving.
func (s *Service) normalize(ctx context.Context, topic, resourceID string) (reconciliation.Notification, bool, error) {
	switch topic {
	case TopicMerchantOrder:
		order, err := s.provider.GetMerchantOrder(ctx, resourceID)
		if err != nil {
			return reconciliation.Notification{}, false, err
		}
		return s.normalizeOrder(topic, order)
	default:
		payment, err := s.provider.GetPayment(ctx, resourceID)
		if err != nil {
			return reconciliation.Notification{}, false, err
		}
		return s.normalizePayment(topic, payment)
	}
}

func (s *Service) normalizeOrder(topic string, order *mercadopago.Order) (reconciliation.Notification, bool, error) {
	approvedPayment := order.ApprovedPayment()
	if approvedPayment == nil && order.OrderStatus != mercadopago.OrderStatusPaid {
		return reconciliation.Notification{}, false, nil
	}

	amount := order.TotalAmount
	if amount.IsZero() && len(order.Payments) > 0 {
		amount = order.Payments[0].Amount
	}

	approvedAt := s.now()
	if approvedPayment != nil && approvedPayment.ApprovedAt != nil {
		approvedAt = *approvedPayment.ApprovedAt
	}

	return reconciliation.Notification{
		Topic:             topic,
		ExternalReference: order.ExternalReference,
		Amount:            amount,
		ApprovedAt:        approvedAt,
	}, true, nil
}

func (s *Service) normalizePayment(topic string, payment *mercadopago.Payment) (reconciliation.Notification, bool, error) {
	if !payment.Approved() {
		return reconciliation.Notification{}, false, nil
	}

	approvedAt := s.now()
	if payment.ApprovedAt != nil {
		approvedAt = *payment.ApprovedAt
	}

	return reconciliation.Notification{
		Topic:             topic,
		ExternalReference: payment.ExternalReference,
		Amount:            payment.Amount,
		ApprovedAt:        approvedAt,
	}, true, nil
}

func normalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}
