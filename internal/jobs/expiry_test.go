package jobs

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
	"github.com/retailbots/whatsapp-retailer-backend/internal/services"
	"github.com/retailbots/whatsapp-retailer-backend/internal/storage"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) Send(to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, body)
	return nil
}

func (s *recordingSender) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	copy(out, s.sent)
	return out
}

type noopRenderer struct{}

func (noopRenderer) Render(sale *models.Sale) (string, error) {
	return "invoices/" + sale.InvoiceNo + ".txt", nil
}

type fixedVerifier struct {
	user *models.User
}

func (v fixedVerifier) Verify(username, password string) (*models.User, error) {
	return v.user, nil
}

type jobFixture struct {
	job      *ExpiryJob
	store    *storage.MemoryStore
	sessions *services.SessionManager
	workflow *services.InvoiceWorkflow
	sender   *recordingSender
	clock    *stubClock
	item     *models.Item
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()

	store := storage.NewMemoryStore()
	user, err := store.CreateUser(&models.User{
		Name:           "Ramesh",
		Username:       "ramesh",
		WhatsAppNumber: "+919876543210",
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	item, err := store.CreateItem(&models.Item{Name: "Rice Bag", Quantity: 10, Price: 250, IsActive: true})
	if err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}

	clock := &stubClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	sender := &recordingSender{}
	sessions := services.NewSessionManager(store, fixedVerifier{user: user}, services.NewSecureTokenGenerator(), clock, 24*time.Hour)
	ledger := services.NewStockLedger(store)
	workflow := services.NewInvoiceWorkflow(store, ledger, noopRenderer{}, sender, clock, 24*time.Hour)

	return &jobFixture{
		job:      NewExpiryJob(workflow, sessions, sender, clock),
		store:    store,
		sessions: sessions,
		workflow: workflow,
		sender:   sender,
		clock:    clock,
		item:     item,
	}
}

func TestSweepOverdueOrders(t *testing.T) {
	f := newJobFixture(t)

	sale, err := f.workflow.SubmitOrder(1, "+919876543210", "Suresh", map[string]int{"Rice Bag": 3})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// Inside the window the sweep leaves the sale alone
	f.clock.Advance(time.Hour)
	f.job.SweepOverdueOrders()
	got, _ := f.store.GetSale(sale.ID)
	if got.Status != models.SaleStatusPending {
		t.Fatalf("expected sale still pending, got %q", got.Status)
	}

	// Past the deadline the sweep expires it and stock stays put
	f.clock.Advance(24 * time.Hour)
	f.job.SweepOverdueOrders()
	got, _ = f.store.GetSale(sale.ID)
	if got.Status != models.SaleStatusExpired {
		t.Fatalf("expected sale expired, got %q", got.Status)
	}
	item, _ := f.store.GetItem(f.item.ID)
	if item.Quantity != 10 {
		t.Errorf("expected quantity unchanged at 10, got %d", item.Quantity)
	}

	// The retailer heard about it
	msgs := f.sender.messages()
	if len(msgs) == 0 || !strings.Contains(msgs[len(msgs)-1], "INVOICE EXPIRED") {
		t.Errorf("expected expiry notification, got %v", msgs)
	}
}

func TestStop_HaltsRunningSweeps(t *testing.T) {
	f := newJobFixture(t)
	f.job.sweepInterval = 5 * time.Millisecond
	f.job.warnInterval = time.Hour

	sale, err := f.workflow.SubmitOrder(1, "+919876543210", "Suresh", map[string]int{"Rice Bag": 3})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	f.clock.Advance(25 * time.Hour)

	f.job.Start()

	// The running loop picks the overdue sale up within a few ticks
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := f.store.GetSale(sale.ID)
		if err != nil {
			t.Fatalf("get sale failed: %v", err)
		}
		if got.Status == models.SaleStatusExpired {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sweep loop never expired the overdue sale")
		}
		time.Sleep(5 * time.Millisecond)
	}

	f.job.Stop()
	f.job.Stop() // second call is a no-op, not a panic

	// Give any tick already in flight time to drain
	time.Sleep(100 * time.Millisecond)

	overdue, err := f.workflow.SubmitOrder(1, "+919876543210", "Suresh", map[string]int{"Rice Bag": 3})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	f.clock.Advance(25 * time.Hour)
	time.Sleep(100 * time.Millisecond)

	got, err := f.store.GetSale(overdue.ID)
	if err != nil {
		t.Fatalf("get sale failed: %v", err)
	}
	if got.Status != models.SaleStatusPending {
		t.Errorf("expected no sweeps after Stop, sale status %q", got.Status)
	}
}

func TestWarnExpiringSessions_WarnsOnce(t *testing.T) {
	f := newJobFixture(t)

	if _, err := f.sessions.Login("ramesh", "secret", "+919876543210", models.BotKindInventory); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Far from expiry: no warning
	f.job.WarnExpiringSessions()
	if got := len(f.sender.messages()); got != 0 {
		t.Fatalf("expected no warnings yet, got %d", got)
	}

	// Within the warning threshold: exactly one warning, repeated runs stay quiet
	f.clock.Advance(23*time.Hour + 30*time.Minute)
	f.job.WarnExpiringSessions()
	f.job.WarnExpiringSessions()

	msgs := f.sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one warning, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0], "expires in about") {
		t.Errorf("unexpected warning text: %q", msgs[0])
	}

	// A fresh login gets its own warning later
	if _, err := f.sessions.Login("ramesh", "secret", "+919876543210", models.BotKindInventory); err != nil {
		t.Fatalf("re-login failed: %v", err)
	}
	f.clock.Advance(23*time.Hour + 30*time.Minute)
	f.job.WarnExpiringSessions()
	if got := len(f.sender.messages()); got != 2 {
		t.Errorf("expected a warning for the new session, got %d total", got)
	}
}
