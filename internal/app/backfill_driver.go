// internal/app/backfill_driver.go
package app

import (
	"context"
	"fmt"

	"renewal_reminder_bot/internal/domain/audit"
	"renewal_reminder_bot/internal/domain/clock"
	"renewal_reminder_bot/internal/domain/renewal"

	"github.com/sirupsen/logrus"
)

// BackfillDriver is the one-shot catch-up pass run after a defect that
// silently blocked sends. It re-derives the correct status for every case
// still below the terminal progression rank using today's date and
// advances the ones left behind. A second run over an already-reconciled
// population is a no-op, but the pass is not meant to stay scheduled.
type BackfillDriver struct {
	cases    renewal.Repository
	outreach *Outreach
	notifier audit.Notifier
	clk      clock.Clock
	logger   *logrus.Logger
}

func NewBackfillDriver(
	cases renewal.Repository,
	outreach *Outreach,
	notifier audit.Notifier,
	clk clock.Clock,
	logger *logrus.Logger,
) *BackfillDriver {
	return &BackfillDriver{
		cases:    cases,
		outreach: outreach,
		notifier: notifier,
		clk:      clk,
		logger:   logger,
	}
}

// Run reconciles every stuck case once. Cases whose recomputed target is
// TO_BE_CALLED advance without any gateway call: sending an "upcoming due
// date" message after the window has closed must not happen. All other
// advances send exactly one catch-up message, tagged so later audits can
// tell bulk-recovered sends from routine ones.
func (d *BackfillDriver) Run(ctx context.Context) (*RunSummary, error) {
	today := d.clk.Today()
	summary := &RunSummary{}

	cases, err := d.cases.ListByStatuses(ctx, renewal.ProgressionSources())
	if err != nil {
		return summary, fmt.Errorf("failed to list cases for backfill: %w", err)
	}
	d.logger.Infof("Backfill run starting over %d cases below the terminal rank.", len(cases))

	for _, c := range cases {
		days := renewal.DaysUntilDue(today, c.DueDate)
		decision := renewal.Resolve(days, c.Status)
		if decision.Action == renewal.ActionNone || !renewal.NeedsAdvance(c.Status, decision.Target) {
			// Already where it should be.
			continue
		}
		summary.Candidates++
		summary.add(d.outreach.Execute(ctx, c, decision, true))
	}

	d.logger.Infof("Backfill run finished: %s", summary)
	d.notifySummary(ctx, summary)
	return summary, nil
}

func (d *BackfillDriver) notifySummary(ctx context.Context, summary *RunSummary) {
	sev := audit.SeverityInfo
	if summary.Failed > 0 {
		sev = audit.SeverityWarning
	}
	if err := d.notifier.Notify(ctx, "Renewal backfill run", summary.String(), sev, ""); err != nil {
		d.logger.Errorf("Failed to send backfill summary notification: %v", err)
	}
}
