package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"moneygrowth/internal/core"
	"moneygrowth/internal/ports"
)

// AlertProcessorConfig holds configuration for the alert processor.
type AlertProcessorConfig struct {
	// PollInterval is how often to run the scan (default: 1h)
	PollInterval time.Duration

	// RenewalWindow is how far ahead to warn about insurance renewals
	// (default: 14 days)
	RenewalWindow time.Duration

	// DeadlineWindow is how far ahead to warn about goal deadlines
	// (default: 30 days)
	DeadlineWindow time.Duration
}

// DefaultAlertProcessorConfig returns sensible defaults.
func DefaultAlertProcessorConfig() AlertProcessorConfig {
	return AlertProcessorConfig{
		PollInterval:   1 * time.Hour,
		RenewalWindow:  14 * 24 * time.Hour,
		DeadlineWindow: 30 * 24 * time.Hour,
	}
}

// AlertProcessor periodically scans every user's records and raises
// alerts for upcoming insurance renewals and goal deadlines. It also
// drives the recurring receipt processor so one ticker covers all
// scheduled work.
type AlertProcessor struct {
	store     ports.Backend
	recurring *RecurringProcessor
	config    AlertProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewAlertProcessor(store ports.Backend, recurring *RecurringProcessor, config AlertProcessorConfig) *AlertProcessor {
	return &AlertProcessor{
		store:     store,
		recurring: recurring,
		config:    config,
	}
}

// Start begins the scan loop. Returns an error if already running.
func (p *AlertProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("alert processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Alert processor started",
		"poll_interval", p.config.PollInterval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *AlertProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Alert processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Alert processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running.
func (p *AlertProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *AlertProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Scan immediately on startup.
	p.Scan(ctx, time.Now().UTC())

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Scan(ctx, time.Now().UTC())
		}
	}
}

// Scan runs one pass: due receipts first, then renewal and deadline
// warnings for every user.
func (p *AlertProcessor) Scan(ctx context.Context, now time.Time) {
	if p.recurring != nil {
		if _, err := p.recurring.ProcessDueReceipts(ctx, now); err != nil {
			slog.ErrorContext(ctx, "Failed to process due receipts", "error", err)
		}
	}

	users, err := p.store.ListUsers(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list users for alert scan", "error", err)
		return
	}

	for _, u := range users {
		if err := p.scanUser(ctx, u.ID, now); err != nil {
			slog.ErrorContext(ctx, "Alert scan failed",
				"user_id", u.ID,
				"error", err)
		}
	}
}

func (p *AlertProcessor) scanUser(ctx context.Context, userID string, now time.Time) error {
	existing, err := p.store.ListAlerts(ctx, userID)
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, a := range existing {
		seen[a.Message] = true
	}

	raise := func(level, message string) {
		if seen[message] {
			return
		}
		alert := core.Alert{
			Level:   level,
			Message: message,
			Created: core.NewDate(now.Year(), int(now.Month()), now.Day()),
		}
		if _, err := p.store.AddAlert(ctx, userID, alert); err != nil {
			slog.ErrorContext(ctx, "Failed to create alert",
				"user_id", userID, "error", err)
			return
		}
		seen[message] = true
	}

	policies, err := p.store.ListPolicies(ctx, userID)
	if err != nil {
		return fmt.Errorf("list policies: %w", err)
	}
	for _, policy := range policies {
		if policy.RenewalDate.IsZero() {
			continue
		}
		until := policy.RenewalDate.Sub(now)
		if until >= 0 && until <= p.config.RenewalWindow {
			raise("info", fmt.Sprintf("Insurance %q renews on %s",
				policy.Name, policy.RenewalDate.Format("2006-01-02")))
		}
	}

	goals, err := p.store.ListGoals(ctx, userID)
	if err != nil {
		return fmt.Errorf("list goals: %w", err)
	}
	for _, goal := range goals {
		if goal.Deadline.IsZero() || goal.Contributed.Cents >= goal.Target.Cents {
			continue
		}
		until := goal.Deadline.Sub(now)
		if until >= 0 && until <= p.config.DeadlineWindow {
			raise("warning", fmt.Sprintf("Goal %q is %s short with deadline %s",
				goal.Name,
				core.FormatCents(goal.Target.Cents-goal.Contributed.Cents),
				goal.Deadline.Format("2006-01-02")))
		}
	}

	return nil
}
