package mpwebhook

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jpavezc/clubfees-backend/internal/reconciliation"
	"github.com/jpavezc/clubfees-backend/pkg/logger"
	"github.com/jpavezc/clubfees-backend/pkg/mercadopago"
	"github.com/jpavezc/clubfees-backend/pkg/metrics"
)

type stubProvider struct {
	getPayment       func(ctx context.Context, id string) (*mercadopago.Payment, error)
	getMerchantOrder func(ctx context.Context, id string) (*mercadopago.Order, error)
}

func (s *stubProvider) GetPayment(ctx context.Context, id string) (*mercadopago.Payment, error) {
	return s.getPayment(ctx, id)
}

func (s *stubProvider) GetMerchantOrder(ctx context.Context, id string) (*mercadopago.Order, error) {
	return s.getMerchantOrder(ctx, id)
}

type stubResolver struct {
	resolve func(ctx context.Context, n reconciliation.Notification) (reconciliation.Result, error)
}

func (s *stubResolver) Resolve(ctx context.Context, n reconciliation.Notification) (reconciliation.Result, error) {
	return s.resolve(ctx, n)
}

var fixedNow = time.Date(2024, 5, 11, 9, 0, 0, 0, time.UTC)

func testService(t *testing.T, provider providerClient, resolver referenceResolver) *Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Provider: provider,
		Resolver: resolver,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:      func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

func unusedResolver(t *testing.T) *stubResolver {
	return &stubResolver{
		resolve: func(ctx context.Context, n reconciliation.Notification) (reconciliation.Result, error) {
			t.Fatal("resolver must not be called")
			return reconciliation.Result{}, nil
		},
	}
}

func TestHandleEventPaidMerchantOrder(t *testing.T) {
	approvedAt := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	provider := &stubProvider{
		getMerchantOrder: func(ctx context.Context, id string) (*mercadopago.Order, error) {
			if id != "order-1" {
				t.Fatalf("unexpected order id: %q", id)
			}
			return &mercadopago.Order{
				ID:                "order-1",
				OrderStatus:       mercadopago.OrderStatusPaid,
				ExternalReference: "p1|g1|c1|2024-05",
				TotalAmount:       decimal.NewFromInt(15000),
				Payments: []mercadopago.OrderPayment{
					{ID: "pay-1", Status: mercadopago.PaymentStatusApproved, Amount: decimal.NewFromInt(15000), ApprovedAt: &approvedAt},
				},
			}, nil
		},
	}

	var resolved reconciliation.Notification
	resolver := &stubResolver{
		resolve: func(ctx context.Context, n reconciliation.Notification) (reconciliation.Result, error) {
			resolved = n
			return reconciliation.Result{Outcome: metrics.OutcomeCreated}, nil
		},
	}

	err := testService(t, provider, resolver).HandleEvent(context.Background(), Event{
		Topic:      "merchant_order",
		ResourceID: "order-1",
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if resolved.ExternalReference != "p1|g1|c1|2024-05" {
		t.Fatalf("unexpected external reference: %q", resolved.ExternalReference)
	}
	if !resolved.Amount.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("unexpected amount: %s", resolved.Amount)
	}
	if !resolved.ApprovedAt.Equal(approvedAt) {
		t.Fatalf("unexpected approval time: %v", resolved.ApprovedAt)
	}
}

func TestHandleEventOrderWithoutApprovalIsDropped(t *testing.T) {
	provider := &stubProvider{
		getMerchantOrder: func(ctx context.Context, id string) (*mercadopago.Order, error) {
			return &mercadopago.Order{
				ID:                "order-1",
				OrderStatus:       "payment_required",
				ExternalReference: "p1|g1|c1|2024-05",
				TotalAmount:       decimal.NewFromInt(15000),
			}, nil
		},
	}

	err := testService(t, provider, unusedResolver(t)).HandleEvent(context.Background(), Event{
		Topic:      "merchant_order",
		ResourceID: "order-1",
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
}

func TestHandleEventOrderTimestampFallsBackToNow(t *testing.T) {
	provider := &stubProvider{
		getMerchantOrder: func(ctx context.Context, id string) (*mercadopago.Order, error) {
			// Paid order whose sub-payments are not individually approved.
			return &mercadopago.Order{
				ID:                "order-1",
				OrderStatus:       mercadopago.OrderStatusPaid,
				ExternalReference: "p1|g1|c1|2024-05",
			}, nil
		},
	}

	var resolved reconciliation.Notification
	resolver := &stubResolver{
		resolve: func(ctx context.Context, n reconciliation.Notification) (reconciliation.Result, error) {
			resolved = n
			return reconciliation.Result{Outcome: metrics.OutcomeCreated}, nil
		},
	}

	err := testService(t, provider, resolver).HandleEvent(context.Background(), Event{
		Topic:      "merchant_order",
		ResourceID: "order-1",
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if !resolved.ApprovedAt.Equal(fixedNow) {
		t.Fatalf("expected fallback to current time, got %v", resolved.ApprovedAt)
	}
}

func TestHandleEventOrderAmountFallsBackToFirstSubPayment(t *testing.T) {
	provider := &stubProvider{
		getMerchantOrder: func(ctx context.Context, id string) (*mercadopago.Order, error) {
			return &mercadopago.Order{
				ID:                "order-1",
				ExternalReference: "p1|g1|c1|2024-05",
				Payments: []mercadopago.OrderPayment{
					{ID: "pay-1", Status: mercadopago.PaymentStatusApproved, Amount: decimal.NewFromInt(9000)},
				},
			}, nil
		},
	}

	var resolved reconciliation.Notification
	resolver := &stubResolver{
		resolve: func(ctx context.Context, n reconciliation.Notification) (reconciliation.Result, error) {
			resolved = n
			return reconciliation.Result{Outcome: metrics.OutcomeCreated}, nil
		},
	}

	err := testService(t, provider, resolver).HandleEvent(context.Background(), Event{
		Topic:      "merchant_order",
		ResourceID: "order-1",
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if !resolved.Amount.Equal(decimal.NewFromInt(9000)) {
		t.Fatalf("unexpected amount: %s", resolved.Amount)
	}
}

func TestHandleEventApprovedPayment(t *testing.T) {
	approvedAt := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	provider := &stubProvider{
		getPayment: func(ctx context.Context, id string) (*mercadopago.Payment, error) {
			return &mercadopago.Payment{
				ID:                "pay-1",
				Status:            mercadopago.PaymentStatusApproved,
				ExternalReference: "507f1f77bcf86cd799439011",
				Amount:            decimal.NewFromInt(15000),
				ApprovedAt:        &approvedAt,
			}, nil
		},
	}

	var resolved reconciliation.Notification
	resolver := &stubResolver{
		resolve: func(ctx context.Context, n reconciliation.Notification) (reconciliation.Result, error) {
			resolved = n
			return reconciliation.Result{Outcome: metrics.OutcomeUpdated}, nil
		},
	}

	err := testService(t, provider, resolver).HandleEvent(context.Background(), Event{
		Topic:      "payment",
		ResourceID: "pay-1",
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if resolved.ExternalReference != "507f1f77bcf86cd799439011" {
		t.Fatalf("unexpected external reference: %q", resolved.ExternalReference)
	}
}

func TestHandleEventRejectedPaymentIsDropped(t *testing.T) {
	provider := &stubProvider{
		getPayment: func(ctx context.Context, id string) (*mercadopago.Payment, error) {
			return &mercadopago.Payment{ID: "pay-1", Status: "rejected"}, nil
		},
	}

	err := testService(t, provider, unusedResolver(t)).HandleEvent(context.Background(), Event{
		Topic:      "payment",
		ResourceID: "pay-1",
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
}

func TestHandleEventUnknownTopicIsDropped(t *testing.T) {
	err := testService(t, &stubProvider{}, unusedResolver(t)).HandleEvent(context.Background(), Event{
		Topic:      "subscription",
		ResourceID: "sub-1",
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
}

func TestHandleEventMissingResourceIDIsDropped(t *testing.T) {
	err := testService(t, &stubProvider{}, unusedResolver(t)).HandleEvent(context.Background(), Event{
		Topic: "payment",
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
}

func TestHandleEventProviderFailureIsSwallowed(t *testing.T) {
	provider := &stubProvider{
		getMerchantOrder: func(ctx context.Context, id string) (*mercadopago.Order, error) {
			return nil, errors.New("connection refused")
		},
	}

	err := testService(t, provider, unusedResolver(t)).HandleEvent(context.Background(), Event{
		Topic:      "merchant_order",
		ResourceID: "order-1",
	})
	if err != nil {
		t.Fatalf("expected provider failure to be swallowed, got %v", err)
	}
}

func TestHandleEventResolverFailurePropagates(t *testing.T) {
	provider := &stubProvider{
		getPayment: func(ctx context.Context, id string) (*mercadopago.Payment, error) {
			return &mercadopago.Payment{
				ID:                "pay-1",
				Status:            mercadopago.PaymentStatusApproved,
				ExternalReference: "507f1f77bcf86cd799439011",
				Amount:            decimal.NewFromInt(15000),
			}, nil
		},
	}
	resolver := &stubResolver{
		resolve: func(ctx context.Context, n reconciliation.Notification) (reconciliation.Result, error) {
			return reconciliation.Result{}, errors.New("record store down")
		},
	}

	err := testService(t, provider, resolver).HandleEvent(context.Background(), Event{
		Topic:      "payment",
		ResourceID: "pay-1",
	})
	if err == nil {
		t.Fatal("expected resolver failure to propagate")
	}
}

func TestEventID(t *testing.T) {
	event := Event{Topic: " Merchant_Order ", ResourceID: "order-1"}
	if got := event.ID(); got != "merchant_order:order-1" {
		t.Fatalf("unexpected event id: %q", got)
	}
}
