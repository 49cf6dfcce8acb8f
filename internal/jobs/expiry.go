package jobs

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/retailbots/whatsapp-retailer-backend/internal/services"
)

// ExpiryJob runs the periodic sweeps: overdue pending invoices are expired
// through the workflow, and retailers whose sessions are about to lapse get
// a warning so they can re-login.
type ExpiryJob struct {
	workflow *services.InvoiceWorkflow
	sessions *services.SessionManager
	sender   services.MessageSender
	clock    services.Clock

	sweepInterval time.Duration
	warnInterval  time.Duration
	warnThreshold time.Duration

	mu      sync.Mutex
	warned  map[string]struct{} // session tokens already warned
	running bool
	stopCh  chan struct{}
}

// NewExpiryJob creates a new expiry job
func NewExpiryJob(workflow *services.InvoiceWorkflow, sessions *services.SessionManager, sender services.MessageSender, clock services.Clock) *ExpiryJob {
	return &ExpiryJob{
		workflow:      workflow,
		sessions:      sessions,
		sender:        sender,
		clock:         clock,
		sweepInterval: time.Minute,
		warnInterval:  10 * time.Minute,
		warnThreshold: time.Hour,
		warned:        make(map[string]struct{}),
	}
}

// Start begins the scheduled sweeps. The stop channel is handed to the
// goroutines here so Stop never races their reads.
func (j *ExpiryJob) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		log.Println("Expiry job already running")
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	log.Println("Starting expiry sweeps...")

	go j.runOrderSweep(j.stopCh)
	go j.runSessionWarnings(j.stopCh)
}

// Stop halts the scheduled sweeps. Idempotent.
func (j *ExpiryJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.running {
		return
	}
	j.running = false
	close(j.stopCh)
	log.Println("Expiry sweeps stopped")
}

func (j *ExpiryJob) runOrderSweep(stop <-chan struct{}) {
	ticker := time.NewTicker(j.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			j.SweepOverdueOrders()
		}
	}
}

// SweepOverdueOrders expires pending invoices past their deadline
func (j *ExpiryJob) SweepOverdueOrders() {
	expired, err := j.workflow.ExpireOverdue(j.clock.Now())
	if err != nil {
		log.Printf("❌ Order expiry sweep failed: %v", err)
		return
	}
	if len(expired) > 0 {
		log.Printf("⏰ Expired %d overdue invoice(s)", len(expired))
	}
}

func (j *ExpiryJob) runSessionWarnings(stop <-chan struct{}) {
	ticker := time.NewTicker(j.warnInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			j.WarnExpiringSessions()
		}
	}
}

// WarnExpiringSessions notifies retailers whose sessions lapse soon. Each
// session is warned at most once.
func (j *ExpiryJob) WarnExpiringSessions() {
	sessions, err := j.sessions.SessionsNearExpiry(j.warnThreshold)
	if err != nil {
		log.Printf("❌ Session warning sweep failed: %v", err)
		return
	}

	now := j.clock.Now()
	for _, session := range sessions {
		remaining := session.ExpiresAt.Sub(now)
		if remaining <= 0 {
			continue
		}

		j.mu.Lock()
		_, already := j.warned[session.Token]
		if !already {
			j.warned[session.Token] = struct{}{}
		}
		j.mu.Unlock()
		if already {
			continue
		}

		body := fmt.Sprintf("⏰ Your %s bot session expires in about %d minutes. Login again with: login user_id password",
			session.BotKind, int(remaining.Minutes()))
		if err := j.sender.Send(session.WhatsAppNumber, body); err != nil {
			log.Printf("❌ Failed to send expiry warning to %s: %v", session.WhatsAppNumber, err)
		}
	}
}
