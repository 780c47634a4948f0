package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-assistant/internal/collaborators/brain"
	"crm-assistant/internal/collaborators/extract"
	"crm-assistant/internal/common/logger"
	"crm-assistant/internal/common/notify"
	"crm-assistant/internal/models"
	"crm-assistant/internal/session"
)

type fakeLeads struct {
	leads   []*models.Lead
	findErr error
}

func (f *fakeLeads) FindByName(_ context.Context, tenantID, name string) (*models.Lead, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, lead := range f.leads {
		if lead.TenantID != tenantID {
			continue
		}
		if strings.HasPrefix(strings.ToLower(lead.FirstName), strings.ToLower(name)) {
			return lead, nil
		}
	}
	return nil, nil
}

func (f *fakeLeads) GetByID(_ context.Context, tenantID, id string) (*models.Lead, error) {
	for _, lead := range f.leads {
		if lead.TenantID == tenantID && lead.ID == id {
			return lead, nil
		}
	}
	return nil, nil
}

type fakeExtractor struct {
	result *extract.Extraction
	err    error
}

func (f *fakeExtractor) ExtractDateTimeAndLead(context.Context, string) (*extract.Extraction, error) {
	return f.result, f.err
}

type fakeCalendar struct {
	conflict    bool
	conflictErr error
	createErr   error

	createCalls int
	lastLeadID  string
	lastStart   time.Time
}

func (f *fakeCalendar) CheckConflict(context.Context, string, time.Time) (bool, error) {
	return f.conflict, f.conflictErr
}

func (f *fakeCalendar) CreateEvent(_ context.Context, _ string, lead *models.Lead, start time.Time) (string, error) {
	f.createCalls++
	f.lastLeadID = lead.ID
	f.lastStart = start
	if f.createErr != nil {
		return "", f.createErr
	}
	return "evt-7", nil
}

type fakePlanner struct {
	answer string
	err    error
	calls  int
}

func (f *fakePlanner) Generate(context.Context, brain.Request) (string, error) {
	f.calls++
	return f.answer, f.err
}

type fakeNotifier struct {
	calls int
	last  notify.Escalation
}

func (f *fakeNotifier) EscalateSupport(_ context.Context, esc notify.Escalation) error {
	f.calls++
	f.last = esc
	return nil
}

type fixture struct {
	orch      *Orchestrator
	leads     *fakeLeads
	extractor *fakeExtractor
	calendar  *fakeCalendar
	planner   *fakePlanner
	notifier  *fakeNotifier
	store     *session.MemoryStore
}

func monday3pm() time.Time {
	return time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
}

func jennifer() *models.Lead {
	return &models.Lead{
		ID:        "lead-42",
		TenantID:  "t1",
		FirstName: "Jennifer",
		LastName:  "Martinez",
		Email:     "jennifer@acme.test",
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		leads:     &fakeLeads{leads: []*models.Lead{jennifer()}},
		extractor: &fakeExtractor{result: &extract.Extraction{LeadName: "Jennifer", Datetime: monday3pm()}},
		calendar:  &fakeCalendar{},
		planner:   &fakePlanner{answer: "Here you go."},
		notifier:  &fakeNotifier{},
		store:     session.NewMemoryStore(10 * time.Minute),
	}
	f.orch = New(Dependencies{
		Leads:     f.leads,
		Extractor: f.extractor,
		Calendar:  f.calendar,
		Planner:   f.planner,
		Notifier:  f.notifier,
		Store:     f.store,
		Logger:    logger.NewTestLogger(t),
	})
	return f
}

func turn(f *fixture, text string) *models.ChatResponse {
	return f.orch.ProcessChatCommand(context.Background(), Input{
		TenantID:       "t1",
		ConversationID: "c1",
		UserText:       text,
		Origin:         models.OriginText,
	})
}

func TestScheduleThenConfirm(t *testing.T) {
	f := newFixture(t)

	resp := turn(f, "Schedule a call with Jennifer Monday at 3pm")
	assert.Equal(t, models.ResponseChat, resp.Type)
	assert.Contains(t, resp.Response, "Jennifer Martinez")
	assert.Contains(t, resp.Response, "Should I proceed")
	assert.Equal(t, 0, f.calendar.createCalls)

	resp = turn(f, "yes")
	assert.Equal(t, models.ResponseBrain, resp.Type)
	assert.Equal(t, 1, f.calendar.createCalls)
	assert.Equal(t, "lead-42", f.calendar.lastLeadID)
	assert.True(t, f.calendar.lastStart.Equal(monday3pm()))

	// The slot was consumed; a second "yes" cannot book twice.
	resp = turn(f, "yes")
	assert.Equal(t, 1, f.calendar.createCalls)

	pending, err := f.store.Pending(context.Background(), "t1", "c1")
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestScheduleWithConflict(t *testing.T) {
	f := newFixture(t)
	f.calendar.conflict = true

	resp := turn(f, "Schedule a call with Jennifer Monday at 3pm")
	assert.Equal(t, models.ResponseChat, resp.Type)
	assert.Contains(t, strings.ToLower(resp.Response), "conflict")
	assert.Equal(t, 0, f.calendar.createCalls)

	// Nothing was staged, so a later "yes" executes nothing.
	turn(f, "yes")
	assert.Equal(t, 0, f.calendar.createCalls)

	pending, err := f.store.Pending(context.Background(), "t1", "c1")
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestCancelClearsPending(t *testing.T) {
	f := newFixture(t)

	turn(f, "schedule a call with jennifer monday at 3pm")
	resp := turn(f, "no")
	assert.Equal(t, models.ResponseChat, resp.Type)
	assert.Contains(t, resp.Response, "won't schedule")

	turn(f, "yes")
	assert.Equal(t, 0, f.calendar.createCalls)
}

func TestUnrecognizedInputReasksConfirmation(t *testing.T) {
	f := newFixture(t)

	turn(f, "schedule a call with jennifer monday at 3pm")
	resp := turn(f, "what's the weather like")
	assert.Equal(t, models.ResponseChat, resp.Type)
	assert.Contains(t, resp.Response, "Should I proceed")

	// The pending action survived the noise.
	resp = turn(f, "yes")
	assert.Equal(t, models.ResponseBrain, resp.Type)
	assert.Equal(t, 1, f.calendar.createCalls)
}

func TestFreshScheduleSupersedesPending(t *testing.T) {
	f := newFixture(t)
	marcus := &models.Lead{ID: "lead-99", TenantID: "t1", FirstName: "Marcus", LastName: "Webb"}
	f.leads.leads = append(f.leads.leads, marcus)

	turn(f, "schedule a call with jennifer monday at 3pm")

	f.extractor.result = &extract.Extraction{LeadName: "Marcus", Datetime: monday3pm().Add(24 * time.Hour)}
	resp := turn(f, "actually, schedule a call with marcus tuesday at 3pm")
	assert.Contains(t, resp.Response, "Marcus Webb")

	turn(f, "yes")
	assert.Equal(t, 1, f.calendar.createCalls)
	assert.Equal(t, "lead-99", f.calendar.lastLeadID)
}

func TestUnknownLeadAsksForClarification(t *testing.T) {
	f := newFixture(t)
	f.extractor.result = &extract.Extraction{LeadName: "Zelda", Datetime: monday3pm()}

	resp := turn(f, "schedule a call with zelda monday at 3pm")
	assert.Equal(t, models.ResponseChat, resp.Type)
	assert.Contains(t, resp.Response, "Zelda")
	assert.Contains(t, resp.Response, "full name")

	pending, err := f.store.Pending(context.Background(), "t1", "c1")
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestFailedConflictCheckPreservesPending(t *testing.T) {
	f := newFixture(t)

	turn(f, "schedule a call with jennifer monday at 3pm")

	f.calendar.conflictErr = assert.AnError
	resp := turn(f, "schedule a call with jennifer monday at 3pm")
	assert.Equal(t, models.ResponseChat, resp.Type)
	assert.Equal(t, 0, f.calendar.createCalls)

	// The earlier staged action is still confirmable.
	f.calendar.conflictErr = nil
	resp = turn(f, "yes")
	assert.Equal(t, models.ResponseBrain, resp.Type)
	assert.Equal(t, 1, f.calendar.createCalls)
}

func TestFailedCreateClearsPending(t *testing.T) {
	f := newFixture(t)
	f.calendar.createErr = assert.AnError

	turn(f, "schedule a call with jennifer monday at 3pm")
	resp := turn(f, "yes")
	assert.Equal(t, models.ResponseChat, resp.Type)
	assert.Equal(t, 1, f.calendar.createCalls)

	// No stuck state: another "yes" does not retry the create.
	turn(f, "yes")
	assert.Equal(t, 1, f.calendar.createCalls)
}

func TestActionableCommandGoesToPlanner(t *testing.T) {
	f := newFixture(t)
	f.planner.answer = "You have 4 new leads this week."

	resp := turn(f, "show me my leads from this week")
	assert.Equal(t, models.ResponseBrain, resp.Type)
	assert.Equal(t, "You have 4 new leads this week.", resp.Response)
	assert.Equal(t, 1, f.planner.calls)
}

func TestPlannerFailureBecomesPlainReply(t *testing.T) {
	f := newFixture(t)
	f.planner.err = assert.AnError

	resp := turn(f, "show me my leads from this week")
	assert.Equal(t, models.ResponseChat, resp.Type)
	assert.NotEmpty(t, resp.Response)
}

func TestAmbiguousTurnsEscalateToSupport(t *testing.T) {
	f := newFixture(t)

	turn(f, "hmm")
	turn(f, "idk")
	resp := turn(f, "stuff")

	assert.Equal(t, models.ResponseChat, resp.Type)
	assert.Contains(t, resp.Response, "contact support")

	found := false
	for _, action := range resp.Actions {
		if action.Type == models.ActionEscalateSupport {
			found = true
		}
	}
	assert.True(t, found, "expected an escalate_support action")
	assert.Equal(t, 1, f.notifier.calls)
	assert.Equal(t, "c1", f.notifier.last.ConversationID)
	assert.Equal(t, 3, f.notifier.last.FailureCount)
}

func TestSuccessfulTurnResetsFailureCounter(t *testing.T) {
	f := newFixture(t)

	turn(f, "hmm")
	turn(f, "idk")
	turn(f, "show me my leads from this week")

	// The counter was reset, so one more ambiguous turn starts over.
	resp := turn(f, "hmm")
	assert.NotContains(t, resp.Response, "contact support")
	assert.Equal(t, 0, f.notifier.calls)
}

func TestVoiceGarbleOffersTextFallback(t *testing.T) {
	f := newFixture(t)

	resp := f.orch.ProcessChatCommand(context.Background(), Input{
		TenantID:       "t1",
		ConversationID: "c1",
		UserText:       "aaaa",
		Origin:         models.OriginVoice,
	})
	assert.Equal(t, models.ResponseChat, resp.Type)
	assert.Contains(t, strings.ToLower(resp.Response), "type")
}

func TestEmptyInputAsksForCommand(t *testing.T) {
	f := newFixture(t)

	resp := turn(f, "   ")
	assert.Equal(t, models.ResponseChat, resp.Type)
	assert.NotEmpty(t, resp.Response)
	assert.Equal(t, 0, f.planner.calls)
	assert.Equal(t, 0, f.calendar.createCalls)
}
