package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sdkconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/merchantorder"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/jpavezc/clubfees-backend/pkg/config"
	pkgerrors "github.com/jpavezc/clubfees-backend/pkg/errors"
	"github.com/jpavezc/clubfees-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errAccessTokenRequired = errors.New("mercadopago access token is required")
	errInvalidMPEnv        = fmt.Errorf("mercadopago environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired      = errors.New("mercadopago logger is required")
)

// Client exposes the MercadoPago primitives the service needs, with
// centralized auth, structured logging, and error mapping.
type Client struct {
	preferences    preference.Client
	payments       payment.Client
	merchantOrders merchantorder.Client
	environment    string
	logger         *logger.Logger
}

// NewClient initializes the MercadoPago wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MercadoPagoConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	sdkCfg, err := sdkconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("configuring mercadopago sdk: %w", err)
	}

	c := &Client{
		preferences:    preference.NewClient(sdkCfg),
		payments:       payment.NewClient(sdkCfg),
		merchantOrders: merchantorder.NewClient(sdkCfg),
		environment:    env,
		logger:         logg,
	}

	logg.Info(ctx, "mercadopago client initialized")
	return c, nil
}

// Environment reports the normalized MercadoPago environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// CreatePreference creates a checkout preference and returns the redirect URLs.
func (c *Client) CreatePreference(ctx context.Context, spec PreferenceSpec) (*Preference, error) {
	c.log(ctx, "request", "create_preference", map[string]any{
		"external_reference": spec.ExternalReference,
		"amount":             spec.UnitPrice.String(),
		"currency":           spec.Currency.String(),
	})

	resp, err := c.preferences.Create(ctx, spec.toPreferenceRequest())
	if err != nil {
		c.log(ctx, "error", "create_preference", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "create preference")
	}

	pref := newPreference(resp)
	c.log(ctx, "response", "create_preference", map[string]any{
		"preference_id":  pref.ID,
		"has_init_point": pref.InitPoint != "",
	})
	return pref, nil
}

// GetPayment fetches a payment resource by its notification id.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	numericID, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment id")
	}

	c.log(ctx, "request", "get_payment", map[string]any{"payment_id": numericID})

	resp, err := c.payments.Get(ctx, numericID)
	if err != nil {
		c.log(ctx, "error", "get_payment", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "get payment")
	}

	p := newPayment(resp)
	c.log(ctx, "response", "get_payment", map[string]any{
		"payment_id": p.ID,
		"status":     p.Status,
	})
	return p, nil
}

// GetMerchantOrder fetches a merchant order resource by its notification id.
func (c *Client) GetMerchantOrder(ctx context.Context, id string) (*Order, error) {
	numericID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant order id")
	}

	c.log(ctx, "request", "get_merchant_order", map[string]any{"merchant_order_id": numericID})

	resp, err := c.merchantOrders.Get(ctx, int(numericID))
	if err != nil {
		c.log(ctx, "error", "get_merchant_order", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "get merchant order")
	}

	order := newOrder(resp)
	c.log(ctx, "response", "get_merchant_order", map[string]any{
		"merchant_order_id": order.ID,
		"order_status":      order.OrderStatus,
		"payments":          len(order.Payments),
	})
	return order, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("mercadopago %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("mercadopago %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "email", "card"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("mercadopago %s failed", op))
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidMPEnv
	}
}
