package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jpavezc/clubfees-backend/pkg/config"
	"gorm.io/gorm"
)

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, nil); err == nil {
		t.Fatal("expected error when DSN is empty")
	}
}

func TestNewOpensSQLite(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{
		Driver: "sqlite",
		DSN:    "file::memory:?cache=shared",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{
		Driver: "sqlite",
		DSN:    "file::memory:?cache=shared",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	sentinel := errors.New("abort")
	if err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return sentinel
	}); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_payments_player_month"}

	if !IsUniqueViolation(pgErr, "") {
		t.Fatal("expected unique violation without constraint filter")
	}
	if !IsUniqueViolation(pgErr, "idx_payments_player_month") {
		t.Fatal("expected unique violation for matching constraint")
	}
	if IsUniqueViolation(pgErr, "other_constraint") {
		t.Fatal("did not expect match for different constraint")
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Fatal("did not expect match for unrelated error")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: payments.player_id"), "") {
		t.Fatal("expected sqlite unique violation to match")
	}
}
