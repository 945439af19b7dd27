package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"renewal_reminder_bot/internal/domain/audit"
	"renewal_reminder_bot/internal/domain/center"
	"renewal_reminder_bot/internal/domain/customer"
	"renewal_reminder_bot/internal/domain/messaging"
	"renewal_reminder_bot/internal/domain/renewal"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time   { return f.now }
func (f *fakeClock) Today() time.Time { return renewal.Midnight(f.now) }

// fakeCaseRepo keeps cases in memory and honors the same compare-and-swap
// contract as the Postgres repository. Reads hand out copies so a driver's
// observed status can go stale exactly like a real overlapping run.
type fakeCaseRepo struct {
	cases map[int64]*renewal.Case
}

func newFakeCaseRepo(cases ...*renewal.Case) *fakeCaseRepo {
	m := make(map[int64]*renewal.Case, len(cases))
	for _, c := range cases {
		m[c.ID] = c
	}
	return &fakeCaseRepo{cases: m}
}

func (r *fakeCaseRepo) snapshot(c *renewal.Case) *renewal.Case {
	cp := *c
	return &cp
}

func (r *fakeCaseRepo) GetByID(_ context.Context, id int64) (*renewal.Case, error) {
	c, ok := r.cases[id]
	if !ok {
		return nil, fmt.Errorf("case %d not found", id)
	}
	return r.snapshot(c), nil
}

func (r *fakeCaseRepo) ListByStatusAndDue(_ context.Context, statuses []renewal.Status, dueBefore, createdBefore time.Time) ([]*renewal.Case, error) {
	out := make([]*renewal.Case, 0)
	for _, c := range r.cases {
		if !statusIn(c.Status, statuses) {
			continue
		}
		if c.DueDate.After(dueBefore) || !c.CreatedAt.Before(createdBefore) {
			continue
		}
		out = append(out, r.snapshot(c))
	}
	sortByDue(out)
	return out, nil
}

func (r *fakeCaseRepo) ListByStatuses(_ context.Context, statuses []renewal.Status) ([]*renewal.Case, error) {
	out := make([]*renewal.Case, 0)
	for _, c := range r.cases {
		if statusIn(c.Status, statuses) {
			out = append(out, r.snapshot(c))
		}
	}
	sortByDue(out)
	return out, nil
}

func (r *fakeCaseRepo) GetOpenByCustomerID(_ context.Context, customerID int64) (*renewal.Case, error) {
	reminders := []renewal.Status{renewal.StatusReminder1Sent, renewal.StatusReminder2Sent, renewal.StatusReminder3Sent}
	for _, c := range r.cases {
		if c.CustomerID == customerID && statusIn(c.Status, reminders) {
			return r.snapshot(c), nil
		}
	}
	return nil, fmt.Errorf("no open case for customer %d", customerID)
}

func (r *fakeCaseRepo) CompareAndSwapStatus(_ context.Context, id int64, expected, next renewal.Status, meta renewal.ActionMeta) (bool, error) {
	c, ok := r.cases[id]
	if !ok || c.Status != expected {
		return false, nil
	}
	c.Status = next
	c.LastActionKind.String = string(meta.Kind)
	c.LastActionKind.Valid = true
	c.LastActionAt.Time = meta.At
	c.LastActionAt.Valid = true
	return true, nil
}

func (r *fakeCaseRepo) SetFollowUpSent(_ context.Context, id int64, sentAt time.Time) (bool, error) {
	c, ok := r.cases[id]
	if !ok || c.FollowUpSent {
		return false, nil
	}
	c.FollowUpSent = true
	c.FollowUpSentAt.Time = sentAt
	c.FollowUpSentAt.Valid = true
	return true, nil
}

func (r *fakeCaseRepo) MarkResponded(_ context.Context, id int64, expected renewal.Status, receivedAt time.Time) (bool, error) {
	c, ok := r.cases[id]
	if !ok || c.Status != expected {
		return false, nil
	}
	c.Status = renewal.StatusOnhold
	c.ResponseReceivedAt.Time = receivedAt
	c.ResponseReceivedAt.Valid = true
	return true, nil
}

func statusIn(s renewal.Status, set []renewal.Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func sortByDue(cases []*renewal.Case) {
	sort.Slice(cases, func(i, j int) bool {
		if cases[i].DueDate.Equal(cases[j].DueDate) {
			return cases[i].ID < cases[j].ID
		}
		return cases[i].DueDate.Before(cases[j].DueDate)
	})
}

type fakeCustomerRepo struct {
	customers map[int64]*customer.Customer
}

func newFakeCustomerRepo(customers ...*customer.Customer) *fakeCustomerRepo {
	m := make(map[int64]*customer.Customer, len(customers))
	for _, c := range customers {
		m[c.ID] = c
	}
	return &fakeCustomerRepo{customers: m}
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d not found", id)
	}
	return c, nil
}

func (r *fakeCustomerRepo) GetByChatID(_ context.Context, chatID int64) (*customer.Customer, error) {
	for _, c := range r.customers {
		if c.ChatID == chatID {
			return c, nil
		}
	}
	return nil, fmt.Errorf("customer with chat %d not found", chatID)
}

type fakeCenterRepo struct {
	centers map[int64]*center.Center
}

func newFakeCenterRepo(centers ...*center.Center) *fakeCenterRepo {
	m := make(map[int64]*center.Center, len(centers))
	for _, c := range centers {
		m[c.ID] = c
	}
	return &fakeCenterRepo{centers: m}
}

func (r *fakeCenterRepo) GetByID(_ context.Context, id int64) (*center.Center, error) {
	c, ok := r.centers[id]
	if !ok {
		return nil, fmt.Errorf("center %d not found", id)
	}
	return c, nil
}

type sentMessage struct {
	ChatID     int64
	TemplateID string
	Vars       map[string]string
	Ref        string
}

type outboundState struct {
	Ref    string
	SentAt time.Time
}

// fakeGateway records sends and serves scripted read-receipt and inbound
// state.
type fakeGateway struct {
	sent      []sentMessage
	failChats map[int64]error
	lastOut   map[int64]outboundState
	reads     map[string]time.Time
	inboundAt map[int64]time.Time
	seq       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		failChats: make(map[int64]error),
		lastOut:   make(map[int64]outboundState),
		reads:     make(map[string]time.Time),
		inboundAt: make(map[int64]time.Time),
	}
}

func (g *fakeGateway) SendTemplate(_ context.Context, dest messaging.Destination, templateID string, vars map[string]string) (string, error) {
	if err, ok := g.failChats[dest.ChatID]; ok {
		return "", err
	}
	g.seq++
	ref := fmt.Sprintf("msg-%d", g.seq)
	g.sent = append(g.sent, sentMessage{ChatID: dest.ChatID, TemplateID: templateID, Vars: vars, Ref: ref})
	return ref, nil
}

func (g *fakeGateway) GetReadReceipt(_ context.Context, messageRef string) (bool, time.Time, error) {
	at, ok := g.reads[messageRef]
	return ok, at, nil
}

func (g *fakeGateway) HasInboundSince(_ context.Context, dest messaging.Destination, since time.Time) (bool, error) {
	at, ok := g.inboundAt[dest.ChatID]
	return ok && at.After(since), nil
}

func (g *fakeGateway) LastOutboundRef(_ context.Context, dest messaging.Destination) (string, time.Time, bool, error) {
	state, ok := g.lastOut[dest.ChatID]
	if !ok {
		return "", time.Time{}, false, nil
	}
	return state.Ref, state.SentAt, true, nil
}

type auditEntry struct {
	CaseID  int64
	Kind    renewal.ActionKind
	Outcome audit.Outcome
	Detail  string
}

type fakeAuditSink struct {
	entries []auditEntry
}

func (s *fakeAuditSink) Append(_ context.Context, caseID int64, kind renewal.ActionKind, outcome audit.Outcome, detail string, _ time.Time) error {
	s.entries = append(s.entries, auditEntry{CaseID: caseID, Kind: kind, Outcome: outcome, Detail: detail})
	return nil
}

func (s *fakeAuditSink) outcomesFor(caseID int64) []audit.Outcome {
	out := make([]audit.Outcome, 0)
	for _, e := range s.entries {
		if e.CaseID == caseID {
			out = append(out, e.Outcome)
		}
	}
	return out
}

type fakeNotifier struct {
	notes []string
}

func (n *fakeNotifier) Notify(_ context.Context, title, body string, _ audit.Severity, _ string) error {
	n.notes = append(n.notes, title+": "+body)
	return nil
}
