package poller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylinknet/pppmon/config"
	"github.com/skylinknet/pppmon/internal/models"
	"github.com/skylinknet/pppmon/internal/routeros"
)

// fakeStore is an in-memory Store. ReplaceActiveSessions mirrors the
// real table semantics: observed sessions are upserted keyed by
// username, rows not in the observed set survive with IsActive=false.
type fakeStore struct {
	mu        sync.Mutex
	routers   []models.Router
	resellers []models.Reseller
	mappings  []models.UserMapping

	sessions map[uuid.UUID][]models.Session
	statuses map[uuid.UUID]bool

	listRoutersErr error
	replaceErr     error
	replaceFails   int
	statusErr      error
}

func newFakeStore(routers ...models.Router) *fakeStore {
	return &fakeStore{
		routers:  routers,
		sessions: make(map[uuid.UUID][]models.Session),
		statuses: make(map[uuid.UUID]bool),
	}
}

func (f *fakeStore) ListRouters(ctx context.Context) ([]models.Router, error) {
	if f.listRoutersErr != nil {
		return nil, f.listRoutersErr
	}
	return f.routers, nil
}

func (f *fakeStore) GetRouter(ctx context.Context, id uuid.UUID) (*models.Router, error) {
	for i := range f.routers {
		if f.routers[i].ID == id {
			r := f.routers[i]
			return &r, nil
		}
	}
	return nil, models.ErrRouterNotFound
}

func (f *fakeStore) UpdateRouterStatus(ctx context.Context, id uuid.UUID, isOnline bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statuses[id] = isOnline
	return nil
}

func (f *fakeStore) GetSessionResellerIDs(ctx context.Context, routerID uuid.UUID) (map[string]*uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*uuid.UUID)
	for _, sess := range f.sessions[routerID] {
		if sess.ResellerID != nil {
			id := *sess.ResellerID
			out[sess.Username] = &id
		}
	}
	return out, nil
}

func (f *fakeStore) ReplaceActiveSessions(ctx context.Context, routerID uuid.UUID, sessions []models.Session) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return 0, f.replaceErr
	}

	observed := make(map[string]bool, len(sessions))
	for _, sess := range sessions {
		observed[sess.Username] = true
	}

	// Rows absent from the observed set are deactivated, never deleted,
	// and upserting an existing username keeps the original row id.
	priorID := make(map[string]uuid.UUID)
	merged := make([]models.Session, 0, len(f.sessions[routerID])+len(sessions))
	for _, old := range f.sessions[routerID] {
		if observed[old.Username] {
			priorID[old.Username] = old.ID
			continue
		}
		old.IsActive = false
		merged = append(merged, old)
	}
	for _, sess := range sessions {
		if id, ok := priorID[sess.Username]; ok {
			sess.ID = id
		}
		merged = append(merged, sess)
	}
	f.sessions[routerID] = merged
	return f.replaceFails, nil
}

func (f *fakeStore) ListResellers(ctx context.Context) ([]models.Reseller, error) {
	return f.resellers, nil
}

func (f *fakeStore) ListUserMappings(ctx context.Context) ([]models.UserMapping, error) {
	return f.mappings, nil
}

func (f *fakeStore) storedSessions(routerID uuid.UUID) []models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[routerID]
}

func (f *fakeStore) findSession(routerID uuid.UUID, username string) *models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions[routerID] {
		if f.sessions[routerID][i].Username == username {
			return &f.sessions[routerID][i]
		}
	}
	return nil
}

// fakeClient returns a canned PollResult per router and records which
// routers were contacted.
type fakeClient struct {
	mu      sync.Mutex
	results map[uuid.UUID]*routeros.PollResult
	polled  []uuid.UUID
}

func (f *fakeClient) FetchActiveSessions(ctx context.Context, router *models.Router) *routeros.PollResult {
	f.mu.Lock()
	f.polled = append(f.polled, router.ID)
	f.mu.Unlock()
	if result, ok := f.results[router.ID]; ok {
		return result
	}
	return &routeros.PollResult{
		Outcome:  routeros.OutcomeUnreachable,
		Err:      models.ErrRouterUnreachable,
		IsOnline: false,
	}
}

func newEngine(store Store, client Client) *Engine {
	return New(store, client, &config.Poller{Concurrency: 2})
}

func testRouter(name string) models.Router {
	return models.Router{
		ID:              uuid.New(),
		Name:            name,
		Host:            name + ".example.net",
		RouterOSVersion: models.DialectV7,
	}
}

func okResult(sessions ...routeros.RawSession) *routeros.PollResult {
	return &routeros.PollResult{
		Outcome:  routeros.OutcomeOK,
		Sessions: sessions,
		IsOnline: true,
	}
}

func resultFor(report *models.RunReport, id uuid.UUID) *models.RouterPollResult {
	for i := range report.Results {
		if report.Results[i].RouterID == id {
			return &report.Results[i]
		}
	}
	return nil
}

func TestRunPollsAllRouters(t *testing.T) {
	r1 := testRouter("edge-1")
	r2 := testRouter("edge-2")
	store := newFakeStore(r1, r2)
	client := &fakeClient{results: map[uuid.UUID]*routeros.PollResult{
		r1.ID: okResult(
			routeros.RawSession{Name: "alice", Address: "10.0.0.2", Uptime: "2h", TxRate: "10Mbps"},
			routeros.RawSession{Name: "bob", Address: "10.0.0.3"},
		),
		r2.ID: okResult(),
	}}

	report := newEngine(store, client).Run(context.Background(), nil)

	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Polled)
	require.Len(t, report.Results, 2)

	res1 := resultFor(report, r1.ID)
	require.NotNil(t, res1)
	assert.Equal(t, "edge-1", res1.RouterName)
	assert.Equal(t, 2, res1.SessionCount)
	assert.True(t, res1.IsOnline)
	assert.Empty(t, res1.Error)

	res2 := resultFor(report, r2.ID)
	require.NotNil(t, res2)
	assert.Equal(t, 0, res2.SessionCount)

	sessions := store.storedSessions(r1.ID)
	require.Len(t, sessions, 2)
	assert.Equal(t, "alice", sessions[0].Username)
	assert.Equal(t, int64(7200), sessions[0].UptimeSeconds)
	assert.Equal(t, int64(10000000), sessions[0].TxRateBps)
	assert.True(t, sessions[0].IsActive)
	assert.True(t, store.statuses[r1.ID])
}

func TestRunDeviceFailureDoesNotAbortRun(t *testing.T) {
	healthy := testRouter("edge-1")
	dead := testRouter("edge-2")
	store := newFakeStore(healthy, dead)
	client := &fakeClient{results: map[uuid.UUID]*routeros.PollResult{
		healthy.ID: okResult(routeros.RawSession{Name: "alice"}),
	}}

	report := newEngine(store, client).Run(context.Background(), nil)

	// Run-level success: one router being down is a per-router result,
	// not a run failure.
	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Polled)

	deadRes := resultFor(report, dead.ID)
	require.NotNil(t, deadRes)
	assert.False(t, deadRes.IsOnline)
	assert.NotEmpty(t, deadRes.Error)
	assert.Equal(t, 0, deadRes.SessionCount)
	assert.False(t, store.statuses[dead.ID])

	healthyRes := resultFor(report, healthy.ID)
	require.NotNil(t, healthyRes)
	assert.Equal(t, 1, healthyRes.SessionCount)
}

func TestRunAuthFailureMarksRouterOnline(t *testing.T) {
	router := testRouter("edge-1")
	store := newFakeStore(router)
	client := &fakeClient{results: map[uuid.UUID]*routeros.PollResult{
		router.ID: {
			Outcome:  routeros.OutcomeAuthFailure,
			IsOnline: true,
			Err:      models.ErrAuthFailed,
		},
	}}

	report := newEngine(store, client).Run(context.Background(), nil)

	res := resultFor(report, router.ID)
	require.NotNil(t, res)
	assert.True(t, res.IsOnline)
	assert.NotEmpty(t, res.Error)
	assert.True(t, store.statuses[router.ID])
	// No session data arrived, so the stored set must be untouched.
	assert.Empty(t, store.storedSessions(router.ID))
}

func TestRunStaleSessionsDeactivated(t *testing.T) {
	router := testRouter("edge-1")
	store := newFakeStore(router)
	client := &fakeClient{results: map[uuid.UUID]*routeros.PollResult{
		router.ID: okResult(
			routeros.RawSession{Name: "alice", Uptime: "1h"},
			routeros.RawSession{Name: "bob", Uptime: "2h", Address: "10.0.0.3"},
		),
	}}
	engine := newEngine(store, client)

	engine.Run(context.Background(), nil)
	require.Len(t, store.storedSessions(router.ID), 2)

	// Bob disconnects before the next run.
	client.results[router.ID] = okResult(routeros.RawSession{Name: "alice", Uptime: "1h30m"})
	report := engine.Run(context.Background(), nil)

	assert.True(t, report.Success)
	res := resultFor(report, router.ID)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.SessionCount)

	// Bob's row survives deactivated with its last observed state; only
	// alice is active.
	require.Len(t, store.storedSessions(router.ID), 2)

	bob := store.findSession(router.ID, "bob")
	require.NotNil(t, bob)
	assert.False(t, bob.IsActive)
	assert.Equal(t, int64(7200), bob.UptimeSeconds)
	assert.Equal(t, "10.0.0.3", bob.AssignedIP)

	alice := store.findSession(router.ID, "alice")
	require.NotNil(t, alice)
	assert.True(t, alice.IsActive)
	assert.Equal(t, int64(5400), alice.UptimeSeconds)
}

func TestRunAttributionSurvivesRuns(t *testing.T) {
	router := testRouter("edge-1")
	resellerID := uuid.New()
	store := newFakeStore(router)
	store.resellers = []models.Reseller{{
		ID:   resellerID,
		Name: "alpha",
		DetectionRules: []models.DetectionRule{
			{Type: models.RulePrefix, Value: "alpha_"},
		},
	}}
	client := &fakeClient{results: map[uuid.UUID]*routeros.PollResult{
		router.ID: okResult(routeros.RawSession{Name: "alpha_bob"}),
	}}
	engine := newEngine(store, client)

	engine.Run(context.Background(), nil)
	sessions := store.storedSessions(router.ID)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].ResellerID)
	assert.Equal(t, resellerID, *sessions[0].ResellerID)

	// Drop the rule; the persisted attribution must carry over.
	store.resellers = nil
	engine.Run(context.Background(), nil)
	sessions = store.storedSessions(router.ID)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].ResellerID)
	assert.Equal(t, resellerID, *sessions[0].ResellerID)
}

func TestRunProfileFallsBackToService(t *testing.T) {
	router := testRouter("edge-1")
	store := newFakeStore(router)
	client := &fakeClient{results: map[uuid.UUID]*routeros.PollResult{
		router.ID: okResult(routeros.RawSession{Name: "alice", Service: "pppoe", Profile: ""}),
	}}

	newEngine(store, client).Run(context.Background(), nil)

	sessions := store.storedSessions(router.ID)
	require.Len(t, sessions, 1)
	assert.Equal(t, "pppoe", sessions[0].Profile)
}

func TestRunSkipsSessionsWithoutUsername(t *testing.T) {
	router := testRouter("edge-1")
	store := newFakeStore(router)
	client := &fakeClient{results: map[uuid.UUID]*routeros.PollResult{
		router.ID: okResult(
			routeros.RawSession{Name: ""},
			routeros.RawSession{Name: "alice"},
		),
	}}

	report := newEngine(store, client).Run(context.Background(), nil)

	res := resultFor(report, router.ID)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.SessionCount)
	require.Len(t, store.storedSessions(router.ID), 1)
}

func TestRunSingleRouterScope(t *testing.T) {
	r1 := testRouter("edge-1")
	r2 := testRouter("edge-2")
	store := newFakeStore(r1, r2)
	client := &fakeClient{results: map[uuid.UUID]*routeros.PollResult{
		r1.ID: okResult(),
		r2.ID: okResult(),
	}}

	report := newEngine(store, client).Run(context.Background(), &r1.ID)

	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Polled)
	require.Len(t, client.polled, 1)
	assert.Equal(t, r1.ID, client.polled[0])
}

func TestRunUnknownRouterFilter(t *testing.T) {
	store := newFakeStore(testRouter("edge-1"))
	client := &fakeClient{}
	unknown := uuid.New()

	report := newEngine(store, client).Run(context.Background(), &unknown)

	// A stale filter id means an empty run, not a failed one.
	assert.True(t, report.Success)
	assert.Equal(t, 0, report.Polled)
	assert.Empty(t, report.Results)
	assert.Empty(t, client.polled)
}

func TestRunSetupFailure(t *testing.T) {
	store := newFakeStore()
	store.listRoutersErr = errors.New("connection refused")
	client := &fakeClient{}

	report := newEngine(store, client).Run(context.Background(), nil)

	assert.False(t, report.Success)
	assert.Contains(t, report.Error, "connection refused")
	assert.Empty(t, client.polled)
}

func TestRunPersistFailureReported(t *testing.T) {
	router := testRouter("edge-1")
	store := newFakeStore(router)
	store.replaceErr = errors.New("deadlock detected")
	client := &fakeClient{results: map[uuid.UUID]*routeros.PollResult{
		router.ID: okResult(routeros.RawSession{Name: "alice"}),
	}}

	report := newEngine(store, client).Run(context.Background(), nil)

	assert.True(t, report.Success)
	res := resultFor(report, router.ID)
	require.NotNil(t, res)
	assert.Contains(t, res.Error, "deadlock detected")
	assert.Equal(t, 0, res.SessionCount)
}

func TestRunStatusPersistFailureDoesNotStopReconciliation(t *testing.T) {
	router := testRouter("edge-1")
	store := newFakeStore(router)
	store.statusErr = errors.New("write timeout")
	client := &fakeClient{results: map[uuid.UUID]*routeros.PollResult{
		router.ID: okResult(routeros.RawSession{Name: "alice"}),
	}}

	report := newEngine(store, client).Run(context.Background(), nil)

	res := resultFor(report, router.ID)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.PersistFailures)
	assert.Equal(t, 1, res.SessionCount)
	require.Len(t, store.storedSessions(router.ID), 1)
}

func TestRunCountsPartialPersistFailures(t *testing.T) {
	router := testRouter("edge-1")
	store := newFakeStore(router)
	store.replaceFails = 2
	client := &fakeClient{results: map[uuid.UUID]*routeros.PollResult{
		router.ID: okResult(
			routeros.RawSession{Name: "alice"},
			routeros.RawSession{Name: "bob"},
			routeros.RawSession{Name: "carol"},
		),
	}}

	report := newEngine(store, client).Run(context.Background(), nil)

	res := resultFor(report, router.ID)
	require.NotNil(t, res)
	assert.Empty(t, res.Error)
	assert.Equal(t, 2, res.PersistFailures)
	assert.Equal(t, 3, res.SessionCount)
}
