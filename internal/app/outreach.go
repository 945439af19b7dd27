// internal/app/outreach.go
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"renewal_reminder_bot/internal/domain/audit"
	"renewal_reminder_bot/internal/domain/center"
	"renewal_reminder_bot/internal/domain/clock"
	"renewal_reminder_bot/internal/domain/customer"
	"renewal_reminder_bot/internal/domain/messaging"
	"renewal_reminder_bot/internal/domain/renewal"

	"github.com/sirupsen/logrus"
)

// RunSummary collects per-outcome counts for one driver run. It is always
// produced, even when every case failed.
type RunSummary struct {
	Candidates int
	Sent       int
	Failed     int
	Skipped    int
	Conflicts  int
}

func (s *RunSummary) add(outcome audit.Outcome) {
	switch outcome {
	case audit.OutcomeSent:
		s.Sent++
	case audit.OutcomeFailed:
		s.Failed++
	case audit.OutcomeSkipped:
		s.Skipped++
	case audit.OutcomeSkippedConflict:
		s.Conflicts++
	}
}

func (s *RunSummary) String() string {
	return fmt.Sprintf("candidates=%d sent=%d failed=%d skipped=%d conflicts=%d",
		s.Candidates, s.Sent, s.Failed, s.Skipped, s.Conflicts)
}

// Outreach is the shared "execute outreach action" routine used identically
// by the daily and backfill drivers: resolve the customer's center and
// template configuration, send through the gateway, then compare-and-swap
// the case and append an audit record. It also owns the inter-send throttle
// that keeps a run inside the provider's rate limit.
type Outreach struct {
	cases     renewal.Repository
	customers customer.Repository
	centers   center.Repository
	gateway   messaging.Gateway
	auditor   audit.Sink
	notifier  audit.Notifier
	clk       clock.Clock
	logger    *logrus.Logger
	sendDelay time.Duration

	sleep func(time.Duration) // swapped out in tests

	mu       sync.Mutex // Overlapping driver runs share the throttle
	lastSend time.Time
}

func NewOutreach(
	cases renewal.Repository,
	customers customer.Repository,
	centers center.Repository,
	gateway messaging.Gateway,
	auditor audit.Sink,
	notifier audit.Notifier,
	clk clock.Clock,
	logger *logrus.Logger,
	sendDelay time.Duration,
) *Outreach {
	return &Outreach{
		cases:     cases,
		customers: customers,
		centers:   centers,
		gateway:   gateway,
		auditor:   auditor,
		notifier:  notifier,
		clk:       clk,
		logger:    logger,
		sendDelay: sendDelay,
		sleep:     time.Sleep,
	}
}

// templateKeyForTarget maps a resolver target to the template key every
// center namespace provides.
func templateKeyForTarget(target renewal.Status) (string, error) {
	switch target {
	case renewal.StatusReminder1Sent:
		return messaging.TemplateKeyReminder1, nil
	case renewal.StatusReminder2Sent:
		return messaging.TemplateKeyReminder2, nil
	case renewal.StatusReminder3Sent:
		return messaging.TemplateKeyReminder3, nil
	default:
		return "", fmt.Errorf("no template for target status %s", target)
	}
}

// throttle enforces the fixed minimum delay between consecutive gateway
// calls. Each run is strictly sequential; the mutex only covers runs of
// different drivers overlapping on the shared throttle state.
func (o *Outreach) throttle() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sendDelay <= 0 || o.lastSend.IsZero() {
		o.lastSend = o.clk.Now()
		return
	}
	if wait := o.sendDelay - o.clk.Now().Sub(o.lastSend); wait > 0 {
		o.sleep(wait)
	}
	o.lastSend = o.clk.Now()
}

// Execute applies one resolver decision to one case. It returns the
// outcome for the run summary; failures are audited and logged, never
// propagated, so a bad case cannot abort the remaining batch.
func (o *Outreach) Execute(ctx context.Context, c *renewal.Case, decision renewal.Decision, catchUp bool) audit.Outcome {
	kind := renewal.ActionKindForTarget(decision.Target, catchUp)
	now := o.clk.Now()

	switch decision.Action {
	case renewal.ActionMarkForCall:
		// No external side effect precedes the write, so the swap is
		// attempted directly.
		ok, err := o.cases.CompareAndSwapStatus(ctx, c.ID, c.Status, decision.Target, renewal.ActionMeta{Kind: kind, At: now})
		if err != nil {
			o.logger.Errorf("Failed to mark case %d for call: %v", c.ID, err)
			o.audit(ctx, c.ID, kind, audit.OutcomeFailed, err.Error())
			return audit.OutcomeFailed
		}
		if !ok {
			o.logger.Infof("Case %d already advanced past %s by a concurrent run.", c.ID, c.Status)
			o.audit(ctx, c.ID, kind, audit.OutcomeSkippedConflict, "status changed concurrently")
			return audit.OutcomeSkippedConflict
		}
		o.audit(ctx, c.ID, kind, audit.OutcomeSent, "moved to call list")
		o.notifyCallList(ctx, c)
		return audit.OutcomeSent

	case renewal.ActionSendTemplate:
		return o.executeSend(ctx, c, decision.Target, kind, now)

	default:
		return audit.OutcomeSkipped
	}
}

func (o *Outreach) executeSend(ctx context.Context, c *renewal.Case, target renewal.Status, kind renewal.ActionKind, now time.Time) audit.Outcome {
	cust, err := o.customers.GetByID(ctx, c.CustomerID)
	if err != nil {
		o.logger.Errorf("Failed to load customer %d for case %d: %v", c.CustomerID, c.ID, err)
		o.audit(ctx, c.ID, kind, audit.OutcomeFailed, fmt.Sprintf("load customer: %v", err))
		return audit.OutcomeFailed
	}
	if !cust.HasChannel() {
		o.logger.Warnf("Case %d skipped: customer %d has no usable contact channel.", c.ID, cust.ID)
		o.audit(ctx, c.ID, kind, audit.OutcomeSkipped, "no usable contact channel")
		return audit.OutcomeSkipped
	}

	ctr, err := o.centers.GetByID(ctx, cust.CenterID)
	if err != nil {
		o.logger.Errorf("Failed to load center %d for case %d: %v", cust.CenterID, c.ID, err)
		o.audit(ctx, c.ID, kind, audit.OutcomeFailed, fmt.Sprintf("load center: %v", err))
		return audit.OutcomeFailed
	}

	key, err := templateKeyForTarget(target)
	if err != nil {
		o.audit(ctx, c.ID, kind, audit.OutcomeFailed, err.Error())
		return audit.OutcomeFailed
	}

	o.throttle()
	dest := messaging.Destination{ChatID: cust.ChatID, Phone: cust.Phone}
	vars := templateVars(cust, ctr, c)
	ref, err := o.gateway.SendTemplate(ctx, dest, ctr.TemplateID(key), vars)
	if err != nil {
		// Status stays put; the next scheduled run retries naturally.
		o.logger.Errorf("Failed to send %s for case %d to customer %d: %v", key, c.ID, cust.ID, err)
		o.audit(ctx, c.ID, kind, audit.OutcomeFailed, fmt.Sprintf("gateway send: %v", err))
		return audit.OutcomeFailed
	}

	ok, err := o.cases.CompareAndSwapStatus(ctx, c.ID, c.Status, target, renewal.ActionMeta{Kind: kind, At: now})
	if err != nil {
		o.logger.Errorf("Send succeeded but status swap errored for case %d (ref %s): %v", c.ID, ref, err)
		o.audit(ctx, c.ID, kind, audit.OutcomeFailed, fmt.Sprintf("status swap after send (ref %s): %v", ref, err))
		return audit.OutcomeFailed
	}
	if !ok {
		o.logger.Infof("Case %d swapped concurrently after send (ref %s); recorded as conflict.", c.ID, ref)
		o.audit(ctx, c.ID, kind, audit.OutcomeSkippedConflict, fmt.Sprintf("status changed concurrently (ref %s)", ref))
		return audit.OutcomeSkippedConflict
	}

	o.logger.Infof("Case %d advanced %s -> %s (ref %s).", c.ID, c.Status, target, ref)
	o.audit(ctx, c.ID, kind, audit.OutcomeSent, fmt.Sprintf("template %s (ref %s)", ctr.TemplateID(key), ref))
	return audit.OutcomeSent
}

func (o *Outreach) audit(ctx context.Context, caseID int64, kind renewal.ActionKind, outcome audit.Outcome, detail string) {
	if err := o.auditor.Append(ctx, caseID, kind, outcome, detail, o.clk.Now()); err != nil {
		o.logger.Errorf("Failed to append audit record for case %d: %v", caseID, err)
	}
}

func (o *Outreach) notifyCallList(ctx context.Context, c *renewal.Case) {
	title := "Renewal case needs a call"
	body := fmt.Sprintf("Case %d is due %s and was moved to the call list.", c.ID, c.DueDate.Format("2006-01-02"))
	if err := o.notifier.Notify(ctx, title, body, audit.SeverityWarning, fmt.Sprintf("case:%d", c.ID)); err != nil {
		o.logger.Errorf("Failed to notify admins about case %d: %v", c.ID, err)
	}
}

func templateVars(cust *customer.Customer, ctr *center.Center, c *renewal.Case) map[string]string {
	return map[string]string{
		"name":         cust.FullName(),
		"first_name":   cust.FirstName,
		"due_date":     c.DueDate.Format("02.01.2006"),
		"center":       ctr.Name,
		"center_phone": ctr.Phone,
	}
}
