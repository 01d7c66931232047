package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jpavezc/clubfees-backend/pkg/db/models"
	"github.com/jpavezc/clubfees-backend/pkg/enums"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	payments := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  legacy_id TEXT UNIQUE,
  player_id TEXT NOT NULL,
  guardian_id TEXT,
  category_id TEXT,
  month TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'CLP',
  status TEXT NOT NULL DEFAULT 'pending',
  method TEXT NOT NULL DEFAULT '',
  platform TEXT NOT NULL DEFAULT '',
  paid_at DATETIME,
  note TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_player_month ON payments (player_id, month);`
	require.NoError(t, db.Exec(payments).Error)

	return db
}

func pendingFee(playerID, month string) *models.Payment {
	return &models.Payment{
		ID:       uuid.New(),
		PlayerID: playerID,
		Month:    month,
		Amount:   decimal.NewFromInt(12000),
		Currency: enums.CurrencyCLP,
		Status:   enums.PaymentStatusPending,
	}
}

func TestFindByLegacyID(t *testing.T) {
	repo := NewRepository(setupPaymentsTestDB(t))
	ctx := context.Background()

	legacyID := "507f1f77bcf86cd799439011"
	fee := pendingFee("p1", "2024-05")
	fee.LegacyID = &legacyID
	require.NoError(t, repo.Create(ctx, fee))

	found, err := repo.FindByLegacyID(ctx, legacyID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, fee.ID, found.ID)

	missing, err := repo.FindByLegacyID(ctx, "507f1f77bcf86cd799439099")
	require.NoError(t, err)
	assert.Nil(t, missing)

	blank, err := repo.FindByLegacyID(ctx, "  ")
	require.NoError(t, err)
	assert.Nil(t, blank)
}

func TestFindByPlayerMonth(t *testing.T) {
	repo := NewRepository(setupPaymentsTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, pendingFee("p1", "2024-05")))

	found, err := repo.FindByPlayerMonth(ctx, "p1", "2024-05")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "p1", found.PlayerID)

	missing, err := repo.FindByPlayerMonth(ctx, "p1", "2024-06")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertConvergesOnOneRow(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	paidAt := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	first := &models.Payment{
		PlayerID: "p1",
		Month:    "2024-05",
		Amount:   decimal.NewFromInt(15000),
		Currency: enums.CurrencyCLP,
		Status:   enums.PaymentStatusPaid,
		Method:   enums.PaymentMethodApp,
		Platform: enums.PaymentPlatformMercadoPago,
		PaidAt:   &paidAt,
	}
	require.NoError(t, repo.Upsert(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID)

	second := &models.Payment{
		PlayerID: "p1",
		Month:    "2024-05",
		Amount:   decimal.NewFromInt(18000),
		Currency: enums.CurrencyCLP,
		Status:   enums.PaymentStatusPaid,
		Method:   enums.PaymentMethodApp,
		Platform: enums.PaymentPlatformMercadoPago,
		PaidAt:   &paidAt,
	}
	require.NoError(t, repo.Upsert(ctx, second))

	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	found, err := repo.FindByPlayerMonth(ctx, "p1", "2024-05")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(18000)))
}

func TestUpdateOverwritesSettlementFields(t *testing.T) {
	repo := NewRepository(setupPaymentsTestDB(t))
	ctx := context.Background()

	fee := pendingFee("p1", "2024-05")
	require.NoError(t, repo.Create(ctx, fee))

	paidAt := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	fee.Status = enums.PaymentStatusPaid
	fee.Method = enums.PaymentMethodApp
	fee.Platform = enums.PaymentPlatformMercadoPago
	fee.Amount = decimal.NewFromInt(15000)
	fee.PaidAt = &paidAt
	require.NoError(t, repo.Update(ctx, fee))

	found, err := repo.FindByPlayerMonth(ctx, "p1", "2024-05")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, enums.PaymentStatusPaid, found.Status)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(15000)))
	require.NotNil(t, found.PaidAt)
}
