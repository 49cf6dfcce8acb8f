package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/retailbots/whatsapp-retailer-backend/internal/services"
)

// AuthHandler issues API tokens for the dashboard/admin surface
type AuthHandler struct {
	verifier services.CredentialVerifier
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(verifier services.CredentialVerifier, secret string, tokenTTL time.Duration) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthHandler{
		verifier: verifier,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login validates credentials and returns a signed JWT
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username and password are required",
		})
	}

	user, err := h.verifier.Verify(req.Username, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"name": user.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(h.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to issue token",
		})
	}

	return c.JSON(fiber.Map{
		"token":      signed,
		"expires_at": now.Add(h.tokenTTL),
		"user": fiber.Map{
			"id":       user.ID,
			"name":     user.Name,
			"username": user.Username,
		},
	})
}
