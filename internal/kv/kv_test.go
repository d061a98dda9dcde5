package kv

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, ok, err := store.Get(ctx, KeyShifts); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, KeyShifts, `[]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := store.Get(ctx, KeyShifts)
	if err != nil || !ok || value != `[]` {
		t.Fatalf("get: value=%q ok=%v err=%v", value, ok, err)
	}
	if err := store.Remove(ctx, KeyShifts); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := store.Get(ctx, KeyShifts); ok {
		t.Fatalf("expected key removed")
	}
}

func TestMemoryStoreInjectedFailures(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	boom := errors.New("boom")

	store.GetErr = boom
	if _, _, err := store.Get(ctx, KeyUser); !errors.Is(err, boom) {
		t.Fatalf("expected injected get failure, got %v", err)
	}
	store.GetErr = nil
	store.SetErr = boom
	if err := store.Set(ctx, KeyUser, `{}`); !errors.Is(err, boom) {
		t.Fatalf("expected injected set failure, got %v", err)
	}
	if err := store.Remove(ctx, KeyUser); !errors.Is(err, boom) {
		t.Fatalf("expected injected remove failure, got %v", err)
	}
}

func TestMemoryStoreBatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, KeyShifts, `["old"]`)
	_ = store.Set(ctx, KeyUser, `{}`)

	err := store.Batch(ctx, func(b Store) error {
		if err := b.Set(ctx, KeyShifts, `["new"]`); err != nil {
			return err
		}
		if value, _, _ := b.Get(ctx, KeyShifts); value != `["new"]` {
			t.Fatalf("batch should read its own write, got %q", value)
		}
		if outside, _, _ := store.Get(ctx, KeyShifts); outside != `["old"]` {
			t.Fatalf("staged write leaked before commit: %q", outside)
		}
		return b.Remove(ctx, KeyUser)
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if value, _, _ := store.Get(ctx, KeyShifts); value != `["new"]` {
		t.Fatalf("expected committed write, got %q", value)
	}
	if _, ok, _ := store.Get(ctx, KeyUser); ok {
		t.Fatalf("expected committed removal")
	}

	boom := errors.New("boom")
	err = store.Batch(ctx, func(b Store) error {
		_ = b.Set(ctx, KeyShifts, `["discarded"]`)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected batch error, got %v", err)
	}
	if value, _, _ := store.Get(ctx, KeyShifts); value != `["new"]` {
		t.Fatalf("failed batch must not write, got %q", value)
	}
}
