package payments

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jpavezc/clubfees-backend/pkg/db/models"
)

// Repository handles payment record persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByLegacyID(ctx context.Context, legacyID string) (*models.Payment, error)
	FindByPlayerMonth(ctx context.Context, playerID, month string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	Upsert(ctx context.Context, payment *models.Payment) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByLegacyID(ctx context.Context, legacyID string) (*models.Payment, error) {
	legacyID = strings.TrimSpace(legacyID)
	if legacyID == "" {
		return nil, nil
	}
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("legacy_id = ?", legacyID).
		First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindByPlayerMonth(ctx context.Context, playerID, month string) (*models.Payment, error) {
	if playerID == "" || month == "" {
		return nil, nil
	}
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("player_id = ? AND month = ?", playerID, month).
		First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	ensureID(payment)
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

// Upsert inserts the record or, when a row for the same (player_id, month)
// already exists, overwrites its settlement fields. Concurrent duplicate
// notifications therefore converge on a single row.
func (r *repository) Upsert(ctx context.Context, payment *models.Payment) error {
	ensureID(payment)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "player_id"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"amount", "currency", "status", "method", "platform", "paid_at", "note", "updated_at",
			}),
		}).
		Create(payment).Error
}

func ensureID(payment *models.Payment) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
}
