package reconciliation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jpavezc/clubfees-backend/pkg/db/models"
	"github.com/jpavezc/clubfees-backend/pkg/enums"
	pkgerrors "github.com/jpavezc/clubfees-backend/pkg/errors"
	"github.com/jpavezc/clubfees-backend/pkg/logger"
	"github.com/jpavezc/clubfees-backend/pkg/metrics"
)

// Note written on records created from a provider confirmation.
const confirmationNote = "Pago confirmado vía Mercado Pago"

// Notification is the canonical, provider-shape-independent result of
// resolving an inbound event: which fee it refers to and the settlement facts.
type Notification struct {
	Topic             string
	ExternalReference string
	Amount            decimal.Decimal
	ApprovedAt        time.Time
}

// Repository is the slice of the payment store the resolver needs.
type Repository interface {
	FindByLegacyID(ctx context.Context, legacyID string) (*models.Payment, error)
	FindByPlayerMonth(ctx context.Context, playerID, month string) (*models.Payment, error)
	Upsert(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
}

// Result is the terminal outcome of one resolution attempt.
type Result struct {
	Outcome string
	Payment *models.Payment
}

type ResolverParams struct {
	Repository Repository
	Logger     *logger.Logger
}

// Resolver maps canonical notifications onto payment records.
type Resolver struct {
	repo Repository
	logg *logger.Logger
}

func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "repository is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	return &Resolver{repo: params.Repository, logg: params.Logger}, nil
}

// Resolve locates (or, for composite references, constructs) the payment
// record named by the notification and marks it paid. It is safe to invoke
// repeatedly with the same notification: the transition overwrites final
// state instead of appending.
//
// A reference that matches no record is not an error; it is an unresolved
// outcome the caller logs and acknowledges.
func (r *Resolver) Resolve(ctx context.Context, n Notification) (Result, error) {
	ctx = r.logg.WithExternalReference(ctx, n.ExternalReference)

	ref := Decode(n.ExternalReference)
	ctx = r.logg.WithField(ctx, "reference_kind", ref.Kind.String())

	switch ref.Kind {
	case ReferenceByID:
		record, err := r.repo.FindByLegacyID(ctx, ref.PaymentID)
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up payment by id")
		}
		if record == nil {
			r.logg.Warn(ctx, "direct reference matched no record")
			return Result{Outcome: metrics.OutcomeUnresolved}, nil
		}
		return r.markPaid(ctx, record, n, metrics.OutcomeUpdated)

	case ReferenceComposite:
		record, err := r.repo.FindByPlayerMonth(ctx, ref.PlayerID, ref.Month)
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up payment by player and month")
		}
		if record != nil {
			return r.markPaid(ctx, record, n, metrics.OutcomeUpdated)
		}
		return r.createPaid(ctx, ref, n)

	case ReferenceLegacyPlayerMonth:
		// Two-part tokens predate the composite form. They resolve only against
		// existing records; nothing is created for them.
		record, err := r.repo.FindByPlayerMonth(ctx, ref.PlayerID, ref.Month)
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up payment by player and month")
		}
		if record == nil {
			r.logg.Warn(ctx, "legacy reference matched no record")
			return Result{Outcome: metrics.OutcomeUnresolved}, nil
		}
		return r.markPaid(ctx, record, n, metrics.OutcomeUpdated)

	default:
		r.logg.Warn(ctx, "external reference not recognized")
		return Result{Outcome: metrics.OutcomeUnresolved}, nil
	}
}

func (r *Resolver) markPaid(ctx context.Context, record *models.Payment, n Notification, outcome string) (Result, error) {
	applyPaidTransition(record, n)

	if err := r.repo.Update(ctx, record); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting paid transition")
	}

	r.logg.Info(r.logg.WithPaymentID(ctx, record.ID.String()), "payment record marked paid")
	return Result{Outcome: outcome, Payment: record}, nil
}

func (r *Resolver) createPaid(ctx context.Context, ref Reference, n Notification) (Result, error) {
	record := &models.Payment{
		PlayerID:   ref.PlayerID,
		GuardianID: optional(ref.GuardianID),
		CategoryID: optional(ref.CategoryID),
		Month:      ref.Month,
		Note:       confirmationNote,
	}
	applyPaidTransition(record, n)

	// The unique index on (player_id, month) turns a concurrent duplicate
	// create into an update, so at-least-once delivery never yields two rows.
	if err := r.repo.Upsert(ctx, record); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating paid record")
	}

	r.logg.Info(ctx, "payment record created from confirmation")
	return Result{Outcome: metrics.OutcomeCreated, Payment: record}, nil
}

func applyPaidTransition(record *models.Payment, n Notification) {
	paidAt := n.ApprovedAt.UTC()

	record.Amount = n.Amount
	record.Status = enums.PaymentStatusPaid
	record.Method = enums.PaymentMethodApp
	record.Platform = enums.PaymentPlatformMercadoPago
	record.PaidAt = &paidAt
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
