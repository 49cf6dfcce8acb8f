package services

import (
	"errors"
	"testing"
	"time"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
	"github.com/retailbots/whatsapp-retailer-backend/internal/storage"
)

func newSessionFixture(t *testing.T) (*SessionManager, *storage.MemoryStore, *fakeClock) {
	t.Helper()

	store := storage.NewMemoryStore()
	user, err := store.CreateUser(&models.User{
		Name:           "Test Retailer",
		Username:       "retailer",
		WhatsAppNumber: "+919876543210",
		PasswordHash:   "irrelevant",
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	clock := newFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	sm := NewSessionManager(store, stubVerifier{user: user, password: "secret"}, NewSecureTokenGenerator(), clock, 24*time.Hour)
	return sm, store, clock
}

func TestLogin_InvalidCredential(t *testing.T) {
	sm, _, _ := newSessionFixture(t)

	_, err := sm.Login("retailer", "wrong", "+919876543210", models.BotKindInventory)
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("expected ErrInvalidCredential, got: %v", err)
	}
}

func TestLogin_SupersedesPreviousSession(t *testing.T) {
	sm, store, _ := newSessionFixture(t)

	first, err := sm.Login("retailer", "secret", "+919876543210", models.BotKindInventory)
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	second, err := sm.Login("retailer", "secret", "+919876543210", models.BotKindInventory)
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}

	if first.Token == second.Token {
		t.Fatal("expected a fresh token on re-login")
	}

	// Exactly one active session survives and it is the newer one
	active, err := store.GetActiveSession("+919876543210", models.BotKindInventory)
	if err != nil {
		t.Fatalf("expected an active session: %v", err)
	}
	if active.Token != second.Token {
		t.Errorf("expected the second session to be active")
	}

	if _, err := sm.Authorize(first.Token); !errors.Is(err, ErrSessionInactive) {
		t.Errorf("expected ErrSessionInactive for superseded token, got: %v", err)
	}
	if _, err := sm.Authorize(second.Token); err != nil {
		t.Errorf("expected second token to authorize, got: %v", err)
	}
}

func TestLogin_SeparateSessionsPerBot(t *testing.T) {
	sm, _, _ := newSessionFixture(t)

	inv, err := sm.Login("retailer", "secret", "+919876543210", models.BotKindInventory)
	if err != nil {
		t.Fatalf("inventory login failed: %v", err)
	}
	bill, err := sm.Login("retailer", "secret", "+919876543210", models.BotKindInvoice)
	if err != nil {
		t.Fatalf("invoice login failed: %v", err)
	}

	// A login on one bot must not supersede the other bot's session
	if _, err := sm.Authorize(inv.Token); err != nil {
		t.Errorf("inventory session should still authorize: %v", err)
	}
	if _, err := sm.Authorize(bill.Token); err != nil {
		t.Errorf("invoice session should still authorize: %v", err)
	}
}

func TestAuthorize_UnknownToken(t *testing.T) {
	sm, _, _ := newSessionFixture(t)

	if _, err := sm.Authorize("no-such-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got: %v", err)
	}
}

func TestAuthorize_ExpiryBoundary(t *testing.T) {
	sm, _, clock := newSessionFixture(t)

	session, err := sm.Login("retailer", "secret", "+919876543210", models.BotKindInventory)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// One second before expiry still authorizes
	clock.Advance(24*time.Hour - time.Second)
	ctx, err := sm.Authorize(session.Token)
	if err != nil {
		t.Fatalf("expected authorize to succeed just before expiry, got: %v", err)
	}
	if ctx.BotKind != models.BotKindInventory {
		t.Errorf("expected inventory context, got %q", ctx.BotKind)
	}

	// At expiry the session fails and flips inactive
	clock.Advance(time.Second)
	if _, err := sm.Authorize(session.Token); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired at expiry instant, got: %v", err)
	}
	if _, err := sm.Authorize(session.Token); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired on repeat call, got: %v", err)
	}
}

func TestAuthorize_NoSlidingExpiry(t *testing.T) {
	sm, _, clock := newSessionFixture(t)

	session, err := sm.Login("retailer", "secret", "+919876543210", models.BotKindInventory)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Heavy activity right up to the deadline must not extend it
	for i := 0; i < 23; i++ {
		clock.Advance(time.Hour)
		if _, err := sm.Authorize(session.Token); err != nil {
			t.Fatalf("authorize at hour %d failed: %v", i+1, err)
		}
	}
	clock.Advance(time.Hour)
	if _, err := sm.Authorize(session.Token); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired despite activity, got: %v", err)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	sm, _, _ := newSessionFixture(t)

	session, err := sm.Login("retailer", "secret", "+919876543210", models.BotKindInvoice)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := sm.Logout(session.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if err := sm.Logout(session.Token); err != nil {
		t.Errorf("second logout should be a no-op, got: %v", err)
	}
	if _, err := sm.Authorize(session.Token); !errors.Is(err, ErrSessionInactive) {
		t.Errorf("expected ErrSessionInactive after logout, got: %v", err)
	}
}

func TestLogout_UnknownToken(t *testing.T) {
	sm, _, _ := newSessionFixture(t)

	if err := sm.Logout("no-such-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got: %v", err)
	}
}

func TestSessionsNearExpiry(t *testing.T) {
	sm, _, clock := newSessionFixture(t)

	session, err := sm.Login("retailer", "secret", "+919876543210", models.BotKindInventory)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// 23h30m in: expires within the hour
	clock.Advance(23*time.Hour + 30*time.Minute)

	near, err := sm.SessionsNearExpiry(time.Hour)
	if err != nil {
		t.Fatalf("SessionsNearExpiry failed: %v", err)
	}
	if len(near) != 1 || near[0].Token != session.Token {
		t.Fatalf("expected the session in the near-expiry set, got %d entries", len(near))
	}

	// A session expiring exactly at the threshold counts as near expiry
	exact, err := sm.SessionsNearExpiry(30 * time.Minute)
	if err != nil {
		t.Fatalf("SessionsNearExpiry failed: %v", err)
	}
	if len(exact) != 1 {
		t.Errorf("expected session at exact threshold included, got %d", len(exact))
	}

	far, err := sm.SessionsNearExpiry(10 * time.Minute)
	if err != nil {
		t.Fatalf("SessionsNearExpiry failed: %v", err)
	}
	if len(far) != 0 {
		t.Errorf("expected no sessions within 10m, got %d", len(far))
	}

	// The read must not mutate anything
	if _, err := sm.Authorize(session.Token); err != nil {
		t.Errorf("session should still authorize after the read: %v", err)
	}
}
