package services

import (
	"errors"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
	"github.com/retailbots/whatsapp-retailer-backend/internal/storage"
	"github.com/retailbots/whatsapp-retailer-backend/internal/utils"
)

// MessageSender delivers a text payload to a WhatsApp number. Send failures
// are reported to the caller; retry policy belongs to the transport side.
type MessageSender interface {
	Send(to, body string) error
}

// DocumentRenderer produces the invoice artifact for a sale and returns a
// reference to it (a path the transport layer can pick up)
type DocumentRenderer interface {
	Render(sale *models.Sale) (string, error)
}

// TokenGenerator produces unguessable session tokens
type TokenGenerator interface {
	NewToken() (string, error)
}

// CredentialVerifier checks a retailer's login credentials
type CredentialVerifier interface {
	Verify(username, password string) (*models.User, error)
}

type secureTokenGenerator struct{}

func (secureTokenGenerator) NewToken() (string, error) {
	return utils.GenerateSessionToken()
}

// NewSecureTokenGenerator returns the crypto/rand backed token generator
func NewSecureTokenGenerator() TokenGenerator {
	return secureTokenGenerator{}
}

// StoreCredentialVerifier verifies credentials against stored bcrypt hashes
type StoreCredentialVerifier struct {
	store storage.Store
}

// NewStoreCredentialVerifier creates a verifier backed by the user store
func NewStoreCredentialVerifier(store storage.Store) *StoreCredentialVerifier {
	return &StoreCredentialVerifier{store: store}
}

// Verify returns the matching user, or ErrInvalidCredential. Missing users
// and wrong passwords are indistinguishable to the caller.
func (v *StoreCredentialVerifier) Verify(username, password string) (*models.User, error) {
	user, err := v.store.GetUserByUsername(username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive || !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredential
	}
	return user, nil
}
