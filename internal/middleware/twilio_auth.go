package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/gofiber/fiber/v2"
)

// ValidateTwilioSignature rejects webhook requests that were not signed by
// Twilio with our auth token
func ValidateTwilioSignature() fiber.Handler {
	return func(c *fiber.Ctx) error {
		signature := c.Get("X-Twilio-Signature")
		if signature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Twilio signature",
			})
		}

		authToken := os.Getenv("TWILIO_AUTH_TOKEN")
		if authToken == "" {
			log.Println("ERROR: TWILIO_AUTH_TOKEN not set")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		params := make(map[string]string)
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			params[string(key)] = string(value)
		})

		expected := computeTwilioSignature(authToken, fullRequestURL(c), params)
		if !hmac.Equal([]byte(signature), []byte(expected)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

func fullRequestURL(c *fiber.Ctx) string {
	return fmt.Sprintf("%s://%s%s", c.Protocol(), c.Hostname(), c.Path())
}

// computeTwilioSignature concatenates the URL with the sorted form
// parameters and signs the result with the account auth token
func computeTwilioSignature(authToken, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := url
	for _, k := range keys {
		data += k + params[k]
	}

	mac := hmac.New(sha256.New, []byte(authToken))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
