package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jpavezc/clubfees-backend/internal/reconciliation"
	"github.com/jpavezc/clubfees-backend/pkg/config"
	"github.com/jpavezc/clubfees-backend/pkg/enums"
	pkgerrors "github.com/jpavezc/clubfees-backend/pkg/errors"
	"github.com/jpavezc/clubfees-backend/pkg/logger"
	"github.com/jpavezc/clubfees-backend/pkg/mercadopago"
	"github.com/jpavezc/clubfees-backend/pkg/metrics"
)

const (
	successPath = "/jugador/pago-exitoso.html"
	failurePath = "/jugador/pago-fallido.html"
	pendingPath = "/jugador/pago-pendiente.html"

	webhookPath = "/api/v1/webhooks/mercadopago"

	genericItemTitle = "Mensualidad Escuela de Fútbol"
)

// PreferenceCreator is the slice of the provider client the intent builder
// needs.
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, spec mercadopago.PreferenceSpec) (*mercadopago.Preference, error)
}

// IntentInput describes the checkout session to create. Either PaymentID (an
// existing record) or the composite fields identify the fee being charged.
type IntentInput struct {
	Amount        decimal.Decimal
	Description   string
	GuardianEmail string

	PaymentID string

	PlayerID   string
	GuardianID string
	CategoryID string
	Month      string
}

// Intent is the created checkout session handed back to the frontend.
type Intent struct {
	ID                 string `json:"id"`
	RedirectURL        string `json:"redirectUrl"`
	SandboxRedirectURL string `json:"sandboxRedirectUrl,omitempty"`
}

// ServiceParams groups dependencies for the payments service.
type ServiceParams struct {
	Provider PreferenceCreator
	URLs     config.URLConfig
	Currency enums.Currency
	Logger   *logger.Logger
	Metrics  *metrics.ReconciliationMetrics
}

// Service builds payment intents against the provider.
type Service struct {
	provider PreferenceCreator
	urls     config.URLConfig
	currency enums.Currency
	logg     *logger.Logger
	metrics  *metrics.ReconciliationMetrics
}

// NewService builds a payments service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "provider is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	if !params.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "currency is invalid")
	}
	return &Service{
		provider: params.Provider,
		urls:     params.URLs,
		currency: params.Currency,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// CreateIntent validates the input, encodes the external reference and creates
// a checkout preference with the provider. The provider must hand back a
// redirect URL; a preference without one is unusable by the frontend.
func (s *Service) CreateIntent(ctx context.Context, input IntentInput) (*Intent, error) {
	if input.Amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount is required")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	reference := s.externalReference(input)
	ctx = s.logg.WithExternalReference(ctx, reference)

	spec := mercadopago.PreferenceSpec{
		Title:                s.itemTitle(input),
		Quantity:             1,
		UnitPrice:            input.Amount,
		Currency:             s.currency,
		PayerEmail:           strings.TrimSpace(input.GuardianEmail),
		SuccessURL:           s.frontendURL(successPath),
		FailureURL:           s.frontendURL(failurePath),
		PendingURL:           s.frontendURL(pendingPath),
		NotificationURL:      s.backendURL(webhookPath),
		ExternalReference:    reference,
		AutoReturnOnApproval: true,
	}

	pref, err := s.provider.CreatePreference(ctx, spec)
	if err != nil {
		s.metrics.RecordIntent("failed")
		return nil, err
	}
	if pref.InitPoint == "" {
		s.metrics.RecordIntent("failed")
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "provider returned no redirect url")
	}

	s.metrics.RecordIntent("created")
	s.logg.Info(ctx, "payment intent created")

	return &Intent{
		ID:                 pref.ID,
		RedirectURL:        pref.InitPoint,
		SandboxRedirectURL: pref.SandboxInitPoint,
	}, nil
}

// externalReference prefers the direct record id; without one it falls back to
// the composite form.
func (s *Service) externalReference(input IntentInput) string {
	if id := strings.TrimSpace(input.PaymentID); id != "" {
		return reconciliation.EncodeDirect(id)
	}
	return reconciliation.EncodeComposite(input.PlayerID, input.GuardianID, input.CategoryID, input.Month)
}

func (s *Service) itemTitle(input IntentInput) string {
	if title := strings.TrimSpace(input.Description); title != "" {
		return title
	}
	if month := strings.TrimSpace(input.Month); month != "" {
		return fmt.Sprintf("Mensualidad %s", month)
	}
	return genericItemTitle
}

func (s *Service) frontendURL(path string) string {
	return strings.TrimRight(s.urls.FrontendBase, "/") + path
}

func (s *Service) backendURL(path string) string {
	return strings.TrimRight(s.urls.BackendBase, "/") + path
}
