// internal/app/followup_driver.go
package app

import (
	"context"
	"fmt"
	"time"

	"renewal_reminder_bot/internal/domain/audit"
	"renewal_reminder_bot/internal/domain/center"
	"renewal_reminder_bot/internal/domain/clock"
	"renewal_reminder_bot/internal/domain/customer"
	"renewal_reminder_bot/internal/domain/messaging"
	"renewal_reminder_bot/internal/domain/renewal"

	"github.com/sirupsen/logrus"
)

// BusinessHours is the local window inside which the follow-up driver is
// allowed to work. Start is inclusive, End exclusive, both whole hours.
type BusinessHours struct {
	Start int
	End   int
}

// Contains reports whether t falls inside the window.
func (w BusinessHours) Contains(t time.Time) bool {
	return t.Hour() >= w.Start && t.Hour() < w.End
}

// FollowUpDriver sends a single secondary prompt to cases whose first
// reminder was read and left unanswered for at least the dwell time. It
// never changes status; the follow-up flag is its only write, and that
// flag is write-once.
type FollowUpDriver struct {
	cases     renewal.Repository
	customers customer.Repository
	centers   center.Repository
	gateway   messaging.Gateway
	auditor   audit.Sink
	outreach  *Outreach
	clk       clock.Clock
	logger    *logrus.Logger
	hours     BusinessHours
	dwell     time.Duration
}

func NewFollowUpDriver(
	cases renewal.Repository,
	customers customer.Repository,
	centers center.Repository,
	gateway messaging.Gateway,
	auditor audit.Sink,
	outreach *Outreach,
	clk clock.Clock,
	logger *logrus.Logger,
	hours BusinessHours,
	dwell time.Duration,
) *FollowUpDriver {
	return &FollowUpDriver{
		cases:     cases,
		customers: customers,
		centers:   centers,
		gateway:   gateway,
		auditor:   auditor,
		outreach:  outreach,
		clk:       clk,
		logger:    logger,
		hours:     hours,
		dwell:     dwell,
	}
}

// Run performs one follow-up sweep. Outside business hours it does no work
// at all and returns an empty summary.
func (d *FollowUpDriver) Run(ctx context.Context) (*RunSummary, error) {
	now := d.clk.Now()
	summary := &RunSummary{}
	if !d.hours.Contains(now) {
		d.logger.Infof("Follow-up run at %s is outside business hours (%02d:00-%02d:00); nothing to do.",
			now.Format("15:04"), d.hours.Start, d.hours.End)
		return summary, nil
	}

	candidates, err := d.cases.ListByStatuses(ctx, []renewal.Status{renewal.StatusReminder1Sent})
	if err != nil {
		return summary, fmt.Errorf("failed to list follow-up candidates: %w", err)
	}

	for _, c := range candidates {
		if c.FollowUpSent {
			continue
		}
		outcome, eligible := d.processCase(ctx, c, now)
		if !eligible {
			continue
		}
		summary.Candidates++
		summary.add(outcome)
	}

	d.logger.Infof("Follow-up run finished: %s", summary)
	return summary, nil
}

// processCase evaluates one candidate. eligible=false means the case is
// simply not ready (unread, inside dwell, or replied already) and should
// not count against the run at all.
func (d *FollowUpDriver) processCase(ctx context.Context, c *renewal.Case, now time.Time) (audit.Outcome, bool) {
	cust, err := d.customers.GetByID(ctx, c.CustomerID)
	if err != nil {
		d.logger.Errorf("Failed to load customer %d for follow-up on case %d: %v", c.CustomerID, c.ID, err)
		d.append(ctx, c.ID, audit.OutcomeFailed, fmt.Sprintf("load customer: %v", err))
		return audit.OutcomeFailed, true
	}
	if !cust.HasChannel() {
		d.append(ctx, c.ID, audit.OutcomeSkipped, "no usable contact channel")
		return audit.OutcomeSkipped, true
	}

	dest := messaging.Destination{ChatID: cust.ChatID, Phone: cust.Phone}
	ref, sentAt, ok, err := d.gateway.LastOutboundRef(ctx, dest)
	if err != nil {
		d.logger.Errorf("Failed to look up last outbound message for case %d: %v", c.ID, err)
		d.append(ctx, c.ID, audit.OutcomeFailed, fmt.Sprintf("last outbound lookup: %v", err))
		return audit.OutcomeFailed, true
	}
	if !ok {
		return "", false
	}

	read, readAt, err := d.gateway.GetReadReceipt(ctx, ref)
	if err != nil {
		d.logger.Errorf("Read-receipt query failed for case %d (ref %s): %v", c.ID, ref, err)
		d.append(ctx, c.ID, audit.OutcomeFailed, fmt.Sprintf("read receipt: %v", err))
		return audit.OutcomeFailed, true
	}
	if !read || now.Sub(readAt) < d.dwell {
		return "", false
	}

	replied, err := d.gateway.HasInboundSince(ctx, dest, sentAt)
	if err != nil {
		d.logger.Errorf("Inbound query failed for case %d: %v", c.ID, err)
		d.append(ctx, c.ID, audit.OutcomeFailed, fmt.Sprintf("inbound query: %v", err))
		return audit.OutcomeFailed, true
	}
	if replied {
		// The inbound handler owns this case now.
		return "", false
	}

	return d.sendFollowUp(ctx, c, cust, dest), true
}

func (d *FollowUpDriver) sendFollowUp(ctx context.Context, c *renewal.Case, cust *customer.Customer, dest messaging.Destination) audit.Outcome {
	ctr, err := d.centers.GetByID(ctx, cust.CenterID)
	if err != nil {
		d.logger.Errorf("Failed to load center %d for follow-up on case %d: %v", cust.CenterID, c.ID, err)
		d.append(ctx, c.ID, audit.OutcomeFailed, fmt.Sprintf("load center: %v", err))
		return audit.OutcomeFailed
	}

	d.outreach.throttle()
	ref, err := d.gateway.SendTemplate(ctx, dest, ctr.TemplateID(messaging.TemplateKeyFollowUp), templateVars(cust, ctr, c))
	if err != nil {
		d.logger.Errorf("Failed to send follow-up for case %d: %v", c.ID, err)
		d.append(ctx, c.ID, audit.OutcomeFailed, fmt.Sprintf("gateway send: %v", err))
		return audit.OutcomeFailed
	}

	ok, err := d.cases.SetFollowUpSent(ctx, c.ID, d.clk.Now())
	if err != nil {
		d.logger.Errorf("Follow-up sent but flag update errored for case %d (ref %s): %v", c.ID, ref, err)
		d.append(ctx, c.ID, audit.OutcomeFailed, fmt.Sprintf("flag update after send (ref %s): %v", ref, err))
		return audit.OutcomeFailed
	}
	if !ok {
		d.append(ctx, c.ID, audit.OutcomeSkippedConflict, fmt.Sprintf("follow-up flag already set (ref %s)", ref))
		return audit.OutcomeSkippedConflict
	}

	d.logger.Infof("Follow-up sent for case %d (ref %s).", c.ID, ref)
	d.append(ctx, c.ID, audit.OutcomeSent, fmt.Sprintf("follow-up prompt (ref %s)", ref))
	return audit.OutcomeSent
}

func (d *FollowUpDriver) append(ctx context.Context, caseID int64, outcome audit.Outcome, detail string) {
	if err := d.auditor.Append(ctx, caseID, renewal.ActionKindFollowUp, outcome, detail, d.clk.Now()); err != nil {
		d.logger.Errorf("Failed to append audit record for case %d: %v", caseID, err)
	}
}
