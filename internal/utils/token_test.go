package utils

import (
	"strings"
	"testing"
)

func TestGenerateSessionToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateSessionToken()
		if err != nil {
			t.Fatalf("token generation failed: %v", err)
		}
		if len(token) < 32 {
			t.Fatalf("token too short: %q", token)
		}
		if seen[token] {
			t.Fatal("duplicate token generated")
		}
		seen[token] = true
	}
}

func TestGenerateInvoiceNo(t *testing.T) {
	a := GenerateInvoiceNo()
	b := GenerateInvoiceNo()

	if !strings.HasPrefix(a, "INV") {
		t.Errorf("expected INV prefix, got %q", a)
	}
	if a == b {
		t.Error("expected distinct invoice numbers")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("password stored in the clear")
	}
	if !CheckPassword("secret123", hash) {
		t.Error("expected correct password to verify")
	}
	if CheckPassword("wrong", hash) {
		t.Error("expected wrong password to fail")
	}
}
