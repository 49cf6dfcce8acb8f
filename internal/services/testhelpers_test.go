package services

import (
	"sync"
	"time"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
)

// fakeClock lets tests drive time deterministically
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSender records every message instead of delivering it
type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeSender) Send(to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, body)
	return nil
}

func (s *fakeSender) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	copy(out, s.sent)
	return out
}

// fakeRenderer returns a stable artifact reference without touching disk
type fakeRenderer struct{}

func (fakeRenderer) Render(sale *models.Sale) (string, error) {
	return "invoices/" + sale.InvoiceNo + ".txt", nil
}

// stubVerifier accepts one fixed username/password pair
type stubVerifier struct {
	user     *models.User
	password string
}

func (v stubVerifier) Verify(username, password string) (*models.User, error) {
	if v.user != nil && username == v.user.Username && password == v.password {
		return v.user, nil
	}
	return nil, ErrInvalidCredential
}
