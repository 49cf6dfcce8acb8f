package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateSessionToken generates an unguessable session token
func GenerateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateInvoiceNo generates a unique human-readable invoice number
func GenerateInvoiceNo() string {
	return fmt.Sprintf("INV%d%s", time.Now().Unix(), uuid.NewString()[:8])
}
