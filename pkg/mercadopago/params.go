package mercadopago

import (
	"strconv"
	"time"

	"github.com/mercadopago/sdk-go/pkg/merchantorder"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"

	"github.com/jpavezc/clubfees-backend/pkg/enums"
)

// Payment status reported by the provider for settled sub-payments.
const PaymentStatusApproved = "approved"

// Merchant order status meaning the order is fully paid.
const OrderStatusPaid = "paid"

// PreferenceSpec describes the checkout preference to create.
type PreferenceSpec struct {
	Title                string
	Quantity             int
	UnitPrice            decimal.Decimal
	Currency             enums.Currency
	PayerEmail           string
	SuccessURL           string
	FailureURL           string
	PendingURL           string
	NotificationURL      string
	ExternalReference    string
	AutoReturnOnApproval bool
}

// Preference is the created checkout session.
type Preference struct {
	ID               string
	InitPoint        string
	SandboxInitPoint string
}

// Payment is the provider's view of a single payment.
type Payment struct {
	ID                string
	Status            string
	ExternalReference string
	Amount            decimal.Decimal
	ApprovedAt        *time.Time
}

// Approved reports whether the payment settled.
func (p *Payment) Approved() bool {
	return p != nil && p.Status == PaymentStatusApproved
}

// Order is the provider-side aggregate grouping sub-payments of one checkout.
type Order struct {
	ID                string
	Status            string
	OrderStatus       string
	ExternalReference string
	TotalAmount       decimal.Decimal
	Payments          []OrderPayment
}

// OrderPayment is one sub-payment attached to a merchant order.
type OrderPayment struct {
	ID         string
	Status     string
	Amount     decimal.Decimal
	ApprovedAt *time.Time
}

// ApprovedPayment returns the first approved sub-payment, if any.
func (o *Order) ApprovedPayment() *OrderPayment {
	if o == nil {
		return nil
	}
	for i := range o.Payments {
		if o.Payments[i].Status == PaymentStatusApproved {
			return &o.Payments[i]
		}
	}
	return nil
}

func (s PreferenceSpec) toPreferenceRequest() preference.Request {
	req := preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:      s.Title,
				Quantity:   s.Quantity,
				CurrencyID: s.Currency.String(),
				UnitPrice:  s.UnitPrice.InexactFloat64(),
			},
		},
		BackURLs: &preference.BackURLsRequest{
			Success: s.SuccessURL,
			Failure: s.FailureURL,
			Pending: s.PendingURL,
		},
		NotificationURL:   s.NotificationURL,
		ExternalReference: s.ExternalReference,
	}
	if s.AutoReturnOnApproval {
		req.AutoReturn = "approved"
	}
	if s.PayerEmail != "" {
		req.Payer = &preference.PayerRequest{Email: s.PayerEmail}
	}
	return req
}

func newPreference(resp *preference.Response) *Preference {
	if resp == nil {
		return &Preference{}
	}
	return &Preference{
		ID:               resp.ID,
		InitPoint:        resp.InitPoint,
		SandboxInitPoint: resp.SandboxInitPoint,
	}
}

func newPayment(resp *payment.Response) *Payment {
	if resp == nil {
		return &Payment{}
	}
	return &Payment{
		ID:                strconv.Itoa(resp.ID),
		Status:            resp.Status,
		ExternalReference: resp.ExternalReference,
		Amount:            decimal.NewFromFloat(resp.TransactionAmount),
		ApprovedAt:        timePtr(resp.DateApproved),
	}
}

func newOrder(resp *merchantorder.Response) *Order {
	if resp == nil {
		return &Order{}
	}
	order := &Order{
		ID:                strconv.FormatInt(int64(resp.ID), 10),
		Status:            resp.Status,
		OrderStatus:       resp.OrderStatus,
		ExternalReference: resp.ExternalReference,
		TotalAmount:       decimal.NewFromFloat(resp.TotalAmount),
	}
	for _, p := range resp.Payments {
		order.Payments = append(order.Payments, OrderPayment{
			ID:         strconv.FormatInt(int64(p.ID), 10),
			Status:     p.Status,
			Amount:     decimal.NewFromFloat(p.TransactionAmount),
			ApprovedAt: timePtr(p.DateApproved),
		})
	}
	return order
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}
