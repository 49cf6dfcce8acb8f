package services

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
	"github.com/retailbots/whatsapp-retailer-backend/internal/storage"
)

// DefaultSessionTTL is how long a login stays valid. Expiry is fixed at
// login time; activity never extends it. A retailer logs in again instead.
const DefaultSessionTTL = 24 * time.Hour

// SessionContext identifies the authenticated caller behind a valid token
type SessionContext struct {
	UserID         uint
	WhatsAppNumber string
	BotKind        string
}

// SessionManager enforces the login, expiry, and re-login rules
type SessionManager struct {
	store    storage.Store
	verifier CredentialVerifier
	tokens   TokenGenerator
	clock    Clock
	ttl      time.Duration

	// guards the supersede-then-create and expiry-flip sequences
	mu sync.Mutex
}

// NewSessionManager creates a new session manager
func NewSessionManager(store storage.Store, verifier CredentialVerifier, tokens TokenGenerator, clock Clock, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		store:    store,
		verifier: verifier,
		tokens:   tokens,
		clock:    clock,
		ttl:      ttl,
	}
}

// Login validates the credentials and opens a fresh session for the
// (user, phone, bot) tuple. Any session already active for that tuple is
// superseded first, so exactly one active session survives.
func (sm *SessionManager) Login(username, password, phone, botKind string) (*models.WhatsAppSession, error) {
	user, err := sm.verifier.Verify(username, password)
	if err != nil {
		return nil, err
	}

	token, err := sm.tokens.NewToken()
	if err != nil {
		return nil, err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if err := sm.store.DeactivateSessions(user.ID, phone, botKind); err != nil {
		return nil, err
	}

	now := sm.clock.Now()
	session := &models.WhatsAppSession{
		UserID:         user.ID,
		WhatsAppNumber: phone,
		BotKind:        botKind,
		Token:          token,
		IsActive:       true,
		LastActivity:   now,
		ExpiresAt:      now.Add(sm.ttl),
	}

	session, err = sm.store.CreateSession(session)
	if err != nil {
		return nil, err
	}

	log.Printf("Session opened for user %d on %s bot (%s)", user.ID, botKind, phone)
	return session, nil
}

// Authorize resolves a token to its session context. Expiry is detected
// lazily here: the first call at or past expires_at flips the session
// inactive. Authorize never extends the expiry.
func (sm *SessionManager) Authorize(token string) (*SessionContext, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, err := sm.store.GetSessionByToken(token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if !sm.clock.Now().Before(session.ExpiresAt) {
		if session.IsActive {
			if err := sm.store.DeactivateSession(token); err != nil {
				return nil, err
			}
		}
		return nil, ErrSessionExpired
	}

	if !session.IsActive {
		return nil, ErrSessionInactive
	}

	return &SessionContext{
		UserID:         session.UserID,
		WhatsAppNumber: session.WhatsAppNumber,
		BotKind:        session.BotKind,
	}, nil
}

// Logout marks the session inactive. Logging out an already-inactive
// session is not an error.
func (sm *SessionManager) Logout(token string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, err := sm.store.GetSessionByToken(token)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	if !session.IsActive {
		return nil
	}
	return sm.store.DeactivateSession(token)
}

// SessionsNearExpiry returns the active sessions expiring within the given
// threshold, for the surrounding layer to push expiry warnings. Pure read.
func (sm *SessionManager) SessionsNearExpiry(threshold time.Duration) ([]*models.WhatsAppSession, error) {
	cutoff := sm.clock.Now().Add(threshold)
	return sm.store.GetActiveSessionsExpiringBefore(cutoff)
}
