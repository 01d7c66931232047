package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/jpavezc/clubfees-backend/api/responses"
	"github.com/jpavezc/clubfees-backend/api/validators"
	"github.com/jpavezc/clubfees-backend/internal/payments"
	pkgerrors "github.com/jpavezc/clubfees-backend/pkg/errors"
	"github.com/jpavezc/clubfees-backend/pkg/logger"
)

// IntentService is the payments surface the controller depends on.
type IntentService interface {
	CreateIntent(ctx context.Context, input payments.IntentInput) (*payments.Intent, error)
}

type createIntentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	GuardianEmail string          `json:"guardianEmail" validate:"omitempty,email"`

	PaymentID string `json:"paymentId" validate:"omitempty,len=24"`

	PlayerID   string `json:"playerId"`
	GuardianID string `json:"guardianId"`
	CategoryID string `json:"categoryId"`
	Month      string `json:"month"`
}

// CreatePaymentIntent creates a provider checkout session for a monthly fee
// and returns the redirect URL the frontend sends the guardian to.
func CreatePaymentIntent(svc IntentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var req createIntentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		intent, err := svc.CreateIntent(ctx, payments.IntentInput{
			Amount:        req.Amount,
			Description:   req.Description,
			GuardianEmail: req.GuardianEmail,
			PaymentID:     req.PaymentID,
			PlayerID:      req.PlayerID,
			GuardianID:    req.GuardianID,
			CategoryID:    req.CategoryID,
			Month:         req.Month,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, intent)
	}
}
