package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jpavezc/clubfees-backend/pkg/enums"
)

// Payment is one monthly fee owed by a player. Records imported from the
// legacy system keep their 24-character identifier in LegacyID; direct
// external references resolve through it.
type Payment struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LegacyID   *string               `gorm:"column:legacy_id;type:char(24);unique"`
	PlayerID   string                `gorm:"column:player_id;not null;uniqueIndex:idx_payments_player_month"`
	GuardianID *string               `gorm:"column:guardian_id"`
	CategoryID *string               `gorm:"column:category_id"`
	Month      string                `gorm:"column:month;not null;uniqueIndex:idx_payments_player_month"`
	Amount     decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency   enums.Currency        `gorm:"column:currency;not null;default:'CLP'"`
	Status     enums.PaymentStatus   `gorm:"column:status;not null;default:'pending'"`
	Method     enums.PaymentMethod   `gorm:"column:method"`
	Platform   enums.PaymentPlatform `gorm:"column:platform"`
	PaidAt     *time.Time            `gorm:"column:paid_at"`
	Note       string                `gorm:"column:note"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table used by GORM.
func (Payment) TableName() string {
	return "payments"
}
