package app

import (
	"context"
	"testing"
	"time"

	"renewal_reminder_bot/internal/domain/audit"
	"renewal_reminder_bot/internal/domain/center"
	"renewal_reminder_bot/internal/domain/customer"
	"renewal_reminder_bot/internal/domain/renewal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type followUpFixture struct {
	repo    *fakeCaseRepo
	gateway *fakeGateway
	auditor *fakeAuditSink
	clk     *fakeClock
	driver  *FollowUpDriver
}

// newFollowUpFixture seeds one eligible candidate: REMINDER_1_SENT, first
// message read three hours ago, no reply, invoked at 14:00 local.
func newFollowUpFixture(t *testing.T) *followUpFixture {
	t.Helper()
	clk := &fakeClock{now: time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)}

	customers := newFakeCustomerRepo(&customer.Customer{ID: 1, FirstName: "Marta", Phone: "+34600000001", ChatID: 100, CenterID: 1})
	centers := newFakeCenterRepo(&center.Center{ID: 1, Name: "ITV Norte", TemplateNamespace: "norte", Phone: "+34910000000"})
	repo := newFakeCaseRepo(&renewal.Case{
		ID:         1,
		CustomerID: 1,
		DueDate:    clk.Today().AddDate(0, 0, 25),
		Status:     renewal.StatusReminder1Sent,
		CreatedAt:  clk.Now().Add(-96 * time.Hour),
	})

	gateway := newFakeGateway()
	gateway.lastOut[100] = outboundState{Ref: "out-1", SentAt: clk.Now().Add(-5 * time.Hour)}
	gateway.reads["out-1"] = clk.Now().Add(-3 * time.Hour)

	auditor := &fakeAuditSink{}
	logger := newTestLogger()
	outreach := NewOutreach(repo, customers, centers, gateway, auditor, &fakeNotifier{}, clk, logger, 0)
	driver := NewFollowUpDriver(
		repo, customers, centers, gateway, auditor, outreach, clk, logger,
		BusinessHours{Start: 10, End: 19}, 2*time.Hour,
	)
	return &followUpFixture{repo: repo, gateway: gateway, auditor: auditor, clk: clk, driver: driver}
}

func TestFollowUpDriverSendsSecondaryPrompt(t *testing.T) {
	f := newFollowUpFixture(t)

	summary, err := f.driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Sent)
	require.Len(t, f.gateway.sent, 1)
	assert.Equal(t, "norte.renewal_follow_up", f.gateway.sent[0].TemplateID)

	stored := f.repo.cases[1]
	assert.True(t, stored.FollowUpSent)
	assert.True(t, stored.FollowUpSentAt.Valid)
	assert.Equal(t, renewal.StatusReminder1Sent, stored.Status, "follow-up never changes status")
	assert.Equal(t, []audit.Outcome{audit.OutcomeSent}, f.auditor.outcomesFor(1))
}

func TestFollowUpDriverDoesNothingOutsideBusinessHours(t *testing.T) {
	f := newFollowUpFixture(t)
	f.clk.now = time.Date(2025, 6, 10, 20, 0, 0, 0, time.UTC)

	summary, err := f.driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &RunSummary{}, summary)
	assert.Empty(t, f.gateway.sent, "no sends outside the window, candidates or not")
	assert.False(t, f.repo.cases[1].FollowUpSent)
}

func TestFollowUpDriverWaitsForDwell(t *testing.T) {
	f := newFollowUpFixture(t)
	f.gateway.reads["out-1"] = f.clk.Now().Add(-30 * time.Minute)

	summary, err := f.driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Candidates)
	assert.Empty(t, f.gateway.sent)
}

func TestFollowUpDriverRequiresReadReceipt(t *testing.T) {
	f := newFollowUpFixture(t)
	delete(f.gateway.reads, "out-1")

	summary, err := f.driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Candidates)
	assert.Empty(t, f.gateway.sent)
}

func TestFollowUpDriverBacksOffAfterInboundReply(t *testing.T) {
	f := newFollowUpFixture(t)
	f.gateway.inboundAt[100] = f.clk.Now().Add(-1 * time.Hour)

	summary, err := f.driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Candidates)
	assert.Empty(t, f.gateway.sent)
	assert.False(t, f.repo.cases[1].FollowUpSent)
}

func TestFollowUpDriverSendsOnlyOnce(t *testing.T) {
	f := newFollowUpFixture(t)
	ctx := context.Background()

	_, err := f.driver.Run(ctx)
	require.NoError(t, err)
	second, err := f.driver.Run(ctx)
	require.NoError(t, err)

	assert.Len(t, f.gateway.sent, 1)
	assert.Equal(t, 0, second.Candidates, "flagged case is no longer a candidate")
}
