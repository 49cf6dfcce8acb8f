package handlers

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type stubBot struct {
	mu    sync.Mutex
	calls []string
	reply string
	err   error
}

func (b *stubBot) ProcessMessage(phone, text string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, phone+"|"+text)
	return b.reply, b.err
}

type captureSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *captureSender) Send(to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+"|"+body)
	return nil
}

func newWebhookApp(bot *stubBot, sender *captureSender) *fiber.App {
	h := NewWhatsAppHandler(bot, bot, sender)
	app := fiber.New()
	app.Post("/webhook/inventory", h.InventoryWebhook)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, form url.Values) int {
	t.Helper()

	req := httptest.NewRequest("POST", "/webhook/inventory", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestWebhook_DispatchesAndReplies(t *testing.T) {
	bot := &stubBot{reply: "📦 here is your stock"}
	sender := &captureSender{}
	app := newWebhookApp(bot, sender)

	form := url.Values{}
	form.Set("From", "whatsapp:+919876543210")
	form.Set("Body", "view")

	if code := postWebhook(t, app, form); code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	// The whatsapp: prefix is stripped before the bot sees the number
	if len(bot.calls) != 1 || bot.calls[0] != "+919876543210|view" {
		t.Errorf("unexpected bot call: %v", bot.calls)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "+919876543210|📦 here is your stock" {
		t.Errorf("unexpected outbound message: %v", sender.sent)
	}
}

func TestWebhook_SkipsEmptyReply(t *testing.T) {
	bot := &stubBot{reply: ""}
	sender := &captureSender{}
	app := newWebhookApp(bot, sender)

	form := url.Values{}
	form.Set("From", "whatsapp:+919876543210")
	form.Set("Body", "success")

	if code := postWebhook(t, app, form); code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(sender.sent) != 0 {
		t.Errorf("expected no outbound message for empty reply, got %v", sender.sent)
	}
}

func TestWebhook_IgnoresStatusCallbacks(t *testing.T) {
	bot := &stubBot{reply: "should not be called"}
	sender := &captureSender{}
	app := newWebhookApp(bot, sender)

	// Delivery status callbacks have no Body
	form := url.Values{}
	form.Set("From", "whatsapp:+919876543210")
	form.Set("MessageSid", "SM123")

	if code := postWebhook(t, app, form); code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(bot.calls) != 0 {
		t.Errorf("expected bot untouched, got %v", bot.calls)
	}
}

func TestWebhook_BotErrorBecomesApology(t *testing.T) {
	bot := &stubBot{err: fiber.ErrInternalServerError}
	sender := &captureSender{}
	app := newWebhookApp(bot, sender)

	form := url.Values{}
	form.Set("From", "whatsapp:+919876543210")
	form.Set("Body", "view")

	// Twilio still gets a 200 so it does not retry; the user gets an apology
	if code := postWebhook(t, app, form); code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "something went wrong") {
		t.Errorf("expected apology message, got %v", sender.sent)
	}
}
