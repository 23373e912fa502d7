package service

import (
	"testing"
	"time"
)

func TestMemoryRefreshTokenStore(t *testing.T) {
	store := NewMemoryRefreshTokenStore()

	if err := store.Store("jti-1", "u1", time.Minute); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, err := store.Exists("jti-1")
	if err != nil || !ok {
		t.Fatalf("expected jti present, got %v / %v", ok, err)
	}

	if err := store.Revoke("jti-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = store.Exists("jti-1")
	if err != nil || ok {
		t.Fatalf("expected jti revoked, got %v / %v", ok, err)
	}
}

func TestMemoryRefreshTokenStoreExpiry(t *testing.T) {
	store := NewMemoryRefreshTokenStore()

	if err := store.Store("jti-ttl", "u1", -time.Second); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, err := store.Exists("jti-ttl")
	if err != nil || ok {
		t.Fatalf("expected expired jti gone, got %v / %v", ok, err)
	}
}

func TestMemoryRefreshTokenStoreUnknown(t *testing.T) {
	store := NewMemoryRefreshTokenStore()
	ok, err := store.Exists("never-stored")
	if err != nil || ok {
		t.Fatalf("expected absent jti, got %v / %v", ok, err)
	}
}
