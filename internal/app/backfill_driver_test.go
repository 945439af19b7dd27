package app

import (
	"context"
	"testing"
	"time"

	"renewal_reminder_bot/internal/domain/center"
	"renewal_reminder_bot/internal/domain/customer"
	"renewal_reminder_bot/internal/domain/renewal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backfillFixture struct {
	repo     *fakeCaseRepo
	gateway  *fakeGateway
	auditor  *fakeAuditSink
	notifier *fakeNotifier
	clk      *fakeClock
	driver   *BackfillDriver
}

func newBackfillFixture(t *testing.T, cases ...*renewal.Case) *backfillFixture {
	t.Helper()
	clk := &fakeClock{now: time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)}

	customers := newFakeCustomerRepo(
		&customer.Customer{ID: 1, FirstName: "Marta", Phone: "+34600000001", ChatID: 100, CenterID: 1},
		&customer.Customer{ID: 2, FirstName: "Luis", Phone: "+34600000002", ChatID: 200, CenterID: 1},
	)
	centers := newFakeCenterRepo(&center.Center{ID: 1, Name: "ITV Norte", TemplateNamespace: "norte", Phone: "+34910000000"})

	repo := newFakeCaseRepo(cases...)
	gateway := newFakeGateway()
	auditor := &fakeAuditSink{}
	notifier := &fakeNotifier{}
	logger := newTestLogger()

	outreach := NewOutreach(repo, customers, centers, gateway, auditor, notifier, clk, logger, 0)
	driver := NewBackfillDriver(repo, outreach, notifier, clk, logger)
	return &backfillFixture{repo: repo, gateway: gateway, auditor: auditor, notifier: notifier, clk: clk, driver: driver}
}

func caseAt(clk *fakeClock, id, customerID int64, daysUntilDue int, status renewal.Status) *renewal.Case {
	return &renewal.Case{
		ID:         id,
		CustomerID: customerID,
		DueDate:    clk.Today().AddDate(0, 0, daysUntilDue),
		Status:     status,
		CreatedAt:  clk.Now().Add(-30 * 24 * time.Hour),
	}
}

func TestBackfillMovesOverdueCaseWithoutSending(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)}
	f := newBackfillFixture(t, caseAt(clk, 1, 1, -5, renewal.StatusPending))

	summary, err := f.driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Sent)
	assert.Empty(t, f.gateway.sent, "stale reminder after the window closed must never go out")
	stored := f.repo.cases[1]
	assert.Equal(t, renewal.StatusToBeCalled, stored.Status)
	assert.Equal(t, "MARK_FOR_CALL", stored.LastActionKind.String)
}

func TestBackfillSendsOneCatchUpMessage(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)}
	f := newBackfillFixture(t, caseAt(clk, 1, 1, 10, renewal.StatusPending))

	summary, err := f.driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Sent)
	require.Len(t, f.gateway.sent, 1)
	assert.Equal(t, "norte.renewal_reminder_2", f.gateway.sent[0].TemplateID)

	stored := f.repo.cases[1]
	assert.Equal(t, renewal.StatusReminder2Sent, stored.Status)
	assert.Equal(t, "CATCHUP_SEND_REMINDER_2", stored.LastActionKind.String, "bulk-recovered sends carry the catch-up tag")
}

func TestBackfillSkipsCasesAlreadyCorrect(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)}
	f := newBackfillFixture(t,
		caseAt(clk, 1, 1, 10, renewal.StatusReminder2Sent), // already where it should be
		caseAt(clk, 2, 2, 10, renewal.StatusNew),           // stuck
	)

	summary, err := f.driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Candidates)
	require.Len(t, f.gateway.sent, 1)
	assert.Equal(t, int64(200), f.gateway.sent[0].ChatID)
	assert.Equal(t, renewal.StatusReminder2Sent, f.repo.cases[1].Status)
	assert.False(t, f.repo.cases[1].LastActionAt.Valid, "correct case untouched")
}

func TestBackfillSecondRunIsANoOp(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)}
	f := newBackfillFixture(t, caseAt(clk, 1, 1, 10, renewal.StatusPending))
	ctx := context.Background()

	_, err := f.driver.Run(ctx)
	require.NoError(t, err)
	second, err := f.driver.Run(ctx)
	require.NoError(t, err)

	assert.Len(t, f.gateway.sent, 1)
	assert.Equal(t, 0, second.Candidates)
}
