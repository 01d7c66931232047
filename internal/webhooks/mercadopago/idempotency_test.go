package mpwebhook

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubIdempotencyStore struct {
	setNX func(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	del   func(ctx context.Context, keys ...string) error
}

func (s *stubIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (s *stubIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return s.setNX(ctx, key, value, ttl)
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "clubfees:idempotency:" + scope + ":" + id
}

func (s *stubIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	return s.del(ctx, keys...)
}

func TestCheckAndMarkFirstDelivery(t *testing.T) {
	var capturedKey string
	store := &stubIdempotencyStore{
		setNX: func(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
			capturedKey = key
			return true, nil
		},
	}

	guard, err := NewIdempotencyGuard(store, time.Hour, "mp-webhook")
	if err != nil {
		t.Fatalf("building guard: %v", err)
	}

	seen, err := guard.CheckAndMark(context.Background(), "payment:123")
	if err != nil {
		t.Fatalf("check and mark: %v", err)
	}
	if seen {
		t.Fatal("first delivery must not be marked as seen")
	}
	if capturedKey != "clubfees:idempotency:mp-webhook:payment:123" {
		t.Fatalf("unexpected key: %q", capturedKey)
	}
}

func TestCheckAndMarkRedelivery(t *testing.T) {
	store := &stubIdempotencyStore{
		setNX: func(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
			return false, nil
		},
	}

	guard, err := NewIdempotencyGuard(store, time.Hour, "mp-webhook")
	if err != nil {
		t.Fatalf("building guard: %v", err)
	}

	seen, err := guard.CheckAndMark(context.Background(), "payment:123")
	if err != nil {
		t.Fatalf("check and mark: %v", err)
	}
	if !seen {
		t.Fatal("redelivery must be reported as seen")
	}
}

func TestCheckAndMarkStoreFailure(t *testing.T) {
	store := &stubIdempotencyStore{
		setNX: func(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
			return false, errors.New("redis down")
		},
	}

	guard, err := NewIdempotencyGuard(store, time.Hour, "mp-webhook")
	if err != nil {
		t.Fatalf("building guard: %v", err)
	}

	if _, err := guard.CheckAndMark(context.Background(), "payment:123"); err == nil {
		t.Fatal("expected store failure to surface")
	}
}

func TestDeleteClearsMark(t *testing.T) {
	var deleted []string
	store := &stubIdempotencyStore{
		del: func(ctx context.Context, keys ...string) error {
			deleted = keys
			return nil
		},
	}

	guard, err := NewIdempotencyGuard(store, time.Hour, "mp-webhook")
	if err != nil {
		t.Fatalf("building guard: %v", err)
	}

	if err := guard.Delete(context.Background(), "payment:123"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != "clubfees:idempotency:mp-webhook:payment:123" {
		t.Fatalf("unexpected deleted keys: %v", deleted)
	}
}
