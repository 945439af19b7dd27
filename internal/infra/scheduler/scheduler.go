package scheduler

import (
	"context"
	"time"

	"renewal_reminder_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Driver is any workflow entry point the scheduler can trigger. Runs carry
// at-least-once semantics: an invocation may overlap a still-running prior
// one, and correctness under that overlap lives in the per-case
// compare-and-swap, not here.
type Driver interface {
	Run(ctx context.Context) (*app.RunSummary, error)
}

type RenewalScheduler struct {
	cronEngine       *cron.Cron
	daily            Driver
	followUp         Driver
	logger           *logrus.Logger
	cronSpecDaily    string
	cronSpecFollowUp string
}

func NewRenewalScheduler(
	daily Driver,
	followUp Driver,
	logger *logrus.Logger,
	location *time.Location,
	cronSpecDaily string, // e.g. "0 9 * * *"
	cronSpecFollowUp string, // e.g. "0 * * * *"
) *RenewalScheduler {
	return &RenewalScheduler{
		cronEngine:       cron.New(cron.WithLocation(location)),
		daily:            daily,
		followUp:         followUp,
		logger:           logger,
		cronSpecDaily:    cronSpecDaily,
		cronSpecFollowUp: cronSpecFollowUp,
	}
}

func (s *RenewalScheduler) Start() {
	s.logger.Info("Starting renewal scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecDaily, func() {
		s.logger.Info("Cron job triggered: daily progression run.")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := s.daily.Run(ctx); err != nil {
			s.logger.Errorf("Daily progression run reported errors: %v", err)
		}
	})
	if err != nil {
		s.logger.Fatalf("Could not add daily progression cron job: %v", err)
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecFollowUp, func() {
		s.logger.Info("Cron job triggered: follow-up sweep.")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()
		if _, err := s.followUp.Run(ctx); err != nil {
			s.logger.Errorf("Follow-up sweep reported errors: %v", err)
		}
	})
	if err != nil {
		s.logger.Fatalf("Could not add follow-up cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Renewal scheduler started with jobs.")
}

func (s *RenewalScheduler) Stop() {
	s.logger.Info("Stopping renewal scheduler...")
	ctx := s.cronEngine.Stop() // Waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Renewal scheduler gracefully stopped.")
}
