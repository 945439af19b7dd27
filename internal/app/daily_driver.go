// internal/app/daily_driver.go
package app

import (
	"context"
	"fmt"
	"time"

	"renewal_reminder_bot/internal/domain/audit"
	"renewal_reminder_bot/internal/domain/clock"
	"renewal_reminder_bot/internal/domain/renewal"

	"github.com/sirupsen/logrus"
)

// progressionStep is one threshold of the daily run. Source sets are exact:
// each later step's sources exclude every earlier step's possible targets,
// so a case advanced once in a run is never consumed twice in that run.
type progressionStep struct {
	Threshold int
	Sources   []renewal.Status
}

// dailySteps in increasing urgency order. The resolver, not the step,
// picks the target, so a long-dormant case selected by the 30-day step
// whose due date is already inside a tighter window advances straight to
// where it belongs instead of receiving a stale reminder.
var dailySteps = []progressionStep{
	{Threshold: 30, Sources: []renewal.Status{renewal.StatusNew, renewal.StatusPending}},
	{Threshold: 15, Sources: []renewal.Status{renewal.StatusReminder1Sent}},
	{Threshold: 7, Sources: []renewal.Status{renewal.StatusReminder2Sent}},
	{Threshold: 3, Sources: []renewal.Status{renewal.StatusReminder3Sent}},
}

// DailyDriver is the primary progression driver. Each invocation is one
// sequential run over the four steps; overlapping invocations are safe
// because every mutation is a compare-and-swap.
type DailyDriver struct {
	cases       renewal.Repository
	outreach    *Outreach
	notifier    audit.Notifier
	clk         clock.Clock
	logger      *logrus.Logger
	graceWindow time.Duration
}

func NewDailyDriver(
	cases renewal.Repository,
	outreach *Outreach,
	notifier audit.Notifier,
	clk clock.Clock,
	logger *logrus.Logger,
	graceWindow time.Duration,
) *DailyDriver {
	return &DailyDriver{
		cases:       cases,
		outreach:    outreach,
		notifier:    notifier,
		clk:         clk,
		logger:      logger,
		graceWindow: graceWindow,
	}
}

// Run executes one full daily progression pass and always returns a
// summary, even when every case failed. The returned error covers only
// step-level query failures; per-case failures are counted and audited,
// never propagated.
func (d *DailyDriver) Run(ctx context.Context) (*RunSummary, error) {
	today := d.clk.Today()
	createdBefore := d.clk.Now().Add(-d.graceWindow)
	summary := &RunSummary{}

	d.logger.Infof("Daily progression run starting (today=%s, grace cutoff=%s).",
		today.Format("2006-01-02"), createdBefore.Format(time.RFC3339))

	var stepErrs int
	for _, step := range dailySteps {
		dueBefore := today.AddDate(0, 0, step.Threshold)
		candidates, err := d.cases.ListByStatusAndDue(ctx, step.Sources, dueBefore, createdBefore)
		if err != nil {
			// A broken step query skips that step only; later steps still run.
			d.logger.Errorf("Failed to list candidates for %d-day step: %v", step.Threshold, err)
			stepErrs++
			continue
		}

		for _, c := range candidates {
			// Recomputed per case at read time, never cached from the query.
			days := renewal.DaysUntilDue(today, c.DueDate)
			if days > step.Threshold {
				continue
			}
			decision := renewal.Resolve(days, c.Status)
			if decision.Action == renewal.ActionNone || !renewal.NeedsAdvance(c.Status, decision.Target) {
				continue
			}
			summary.Candidates++
			summary.add(d.outreach.Execute(ctx, c, decision, false))
		}
	}

	d.logger.Infof("Daily progression run finished: %s", summary)
	d.notifySummary(ctx, summary)

	if stepErrs > 0 {
		return summary, fmt.Errorf("daily run completed with %d failed step queries", stepErrs)
	}
	return summary, nil
}

func (d *DailyDriver) notifySummary(ctx context.Context, summary *RunSummary) {
	sev := audit.SeverityInfo
	if summary.Failed > 0 {
		sev = audit.SeverityWarning
	}
	if err := d.notifier.Notify(ctx, "Daily renewal run", summary.String(), sev, ""); err != nil {
		d.logger.Errorf("Failed to send daily run summary notification: %v", err)
	}
}
