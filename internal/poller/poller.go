package poller

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/skylinknet/pppmon/config"
	"github.com/skylinknet/pppmon/internal/attribution"
	"github.com/skylinknet/pppmon/internal/logger"
	"github.com/skylinknet/pppmon/internal/models"
	"github.com/skylinknet/pppmon/internal/routeros"
)

// Store is the persistence surface the engine needs. *store.Store
// satisfies it; tests substitute a fake.
type Store interface {
	ListRouters(ctx context.Context) ([]models.Router, error)
	GetRouter(ctx context.Context, id uuid.UUID) (*models.Router, error)
	UpdateRouterStatus(ctx context.Context, id uuid.UUID, isOnline bool) error
	GetSessionResellerIDs(ctx context.Context, routerID uuid.UUID) (map[string]*uuid.UUID, error)
	ReplaceActiveSessions(ctx context.Context, routerID uuid.UUID, sessions []models.Session) (int, error)
	ListResellers(ctx context.Context) ([]models.Reseller, error)
	ListUserMappings(ctx context.Context) ([]models.UserMapping, error)
}

// Client fetches the active session list from one router.
type Client interface {
	FetchActiveSessions(ctx context.Context, router *models.Router) *routeros.PollResult
}

// Engine drives reconciliation runs: it loads the router registry and
// the attribution snapshot, polls every router, and merges the results
// into storage.
type Engine struct {
	store       Store
	client      Client
	concurrency int
}

// New creates an Engine.
func New(store Store, client Client, cfg *config.Poller) *Engine {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{
		store:       store,
		client:      client,
		concurrency: concurrency,
	}
}

// Run executes one reconciliation run, optionally scoped to a single
// router. Routers are polled independently: one router failing never
// aborts the others, and the report's Success flag covers only
// run-level setup. The reseller/mapping snapshot is loaded once so
// attribution stays consistent across the whole run.
func (e *Engine) Run(ctx context.Context, routerID *uuid.UUID) *models.RunReport {
	report := &models.RunReport{StartedAt: time.Now().UTC()}

	routers, err := e.loadRegistry(ctx, routerID)
	if err != nil {
		logger.PollerLog.Errorf("Run setup failed: %v", err)
		report.Error = err.Error()
		return report
	}
	if len(routers) == 0 {
		logger.PollerLog.Info("No routers to poll")
		report.Success = true
		report.Results = []models.RouterPollResult{}
		return report
	}

	snapshot, err := e.loadSnapshot(ctx)
	if err != nil {
		logger.PollerLog.Errorf("Run setup failed: %v", err)
		report.Error = err.Error()
		return report
	}

	results := make([]models.RouterPollResult, len(routers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range routers {
		i := i
		g.Go(func() error {
			results[i] = e.pollRouter(gctx, &routers[i], snapshot)
			return nil
		})
	}
	// Workers record into results and never return an error, so Wait is
	// only the join point.
	_ = g.Wait()

	report.Success = true
	report.Polled = len(results)
	report.Results = results
	return report
}

// loadRegistry returns the routers in scope for this run.
func (e *Engine) loadRegistry(ctx context.Context, routerID *uuid.UUID) ([]models.Router, error) {
	if routerID == nil {
		return e.store.ListRouters(ctx)
	}

	router, err := e.store.GetRouter(ctx, *routerID)
	if err != nil {
		if errors.Is(err, models.ErrRouterNotFound) {
			// A stale filter id is not a setup failure; the run just
			// has nothing to do.
			return nil, nil
		}
		return nil, err
	}
	return []models.Router{*router}, nil
}

// loadSnapshot loads the read-only attribution state for the run.
func (e *Engine) loadSnapshot(ctx context.Context) (*attribution.Snapshot, error) {
	resellers, err := e.store.ListResellers(ctx)
	if err != nil {
		return nil, err
	}
	mappings, err := e.store.ListUserMappings(ctx)
	if err != nil {
		return nil, err
	}
	return attribution.NewSnapshot(resellers, mappings), nil
}

// pollRouter reconciles one router: fetch, classify, persist
// reachability, then swap the router's active session set for what the
// device just reported.
func (e *Engine) pollRouter(ctx context.Context, router *models.Router, snapshot *attribution.Snapshot) models.RouterPollResult {
	logger.PollerLog.Infof("Polling router: %s (%s)", router.Name, router.Host)

	result := models.RouterPollResult{
		RouterID:   router.ID,
		RouterName: router.Name,
	}

	pollResult := e.client.FetchActiveSessions(ctx, router)
	result.IsOnline = pollResult.IsOnline

	if err := e.store.UpdateRouterStatus(ctx, router.ID, pollResult.IsOnline); err != nil {
		// Reachability bookkeeping failing must not stop reconciliation.
		logger.PollerLog.Errorf("Failed to update status for %s: %v", router.Name, err)
		result.PersistFailures++
	}

	if pollResult.Outcome != routeros.OutcomeOK {
		logger.PollerLog.Warnf("Error polling %s: %v", router.Name, pollResult.Err)
		result.Error = pollResult.Err.Error()
		return result
	}

	sessions := e.normalizeSessions(ctx, router, pollResult.Sessions, snapshot)

	failures, err := e.store.ReplaceActiveSessions(ctx, router.ID, sessions)
	result.PersistFailures += failures
	if err != nil {
		logger.PollerLog.Errorf("Failed to persist sessions for %s: %v", router.Name, err)
		result.Error = err.Error()
		return result
	}

	result.SessionCount = len(sessions)
	logger.PollerLog.Infof("Successfully polled %s: %d active sessions", router.Name, len(sessions))
	return result
}

// normalizeSessions converts the router's raw records into session rows
// with parsed metrics and resolved attribution.
func (e *Engine) normalizeSessions(ctx context.Context, router *models.Router, raw []routeros.RawSession, snapshot *attribution.Snapshot) []models.Session {
	existing, err := e.store.GetSessionResellerIDs(ctx, router.ID)
	if err != nil {
		// Without the persisted attributions the pre-assigned step of
		// the resolver cannot fire this run; mappings and rules still do.
		logger.PollerLog.Warnf("Failed to load existing attributions for %s: %v", router.Name, err)
		existing = map[string]*uuid.UUID{}
	}

	now := time.Now().UTC()
	sessions := make([]models.Session, 0, len(raw))
	for _, rs := range raw {
		if rs.Name == "" {
			logger.PollerLog.Warnf("Skipping session without username on %s", router.Name)
			continue
		}

		profile := rs.Profile
		if profile == "" {
			profile = rs.Service
		}

		resellerID := snapshot.Resolve(attribution.SessionFacts{
			Username:           rs.Name,
			Profile:            profile,
			Comment:            rs.Comment,
			ExistingResellerID: existing[rs.Name],
		})

		sessions = append(sessions, models.Session{
			ID:            uuid.New(),
			RouterID:      router.ID,
			ResellerID:    resellerID,
			Username:      rs.Name,
			AssignedIP:    rs.Address,
			Interface:     rs.CallerID,
			Comment:       rs.Comment,
			Profile:       profile,
			UptimeSeconds: routeros.ParseUptime(rs.Uptime),
			TxBytes:       routeros.ParseBytes(rs.TxByte),
			RxBytes:       routeros.ParseBytes(rs.RxByte),
			TxRateBps:     routeros.ParseRate(rs.TxRate),
			RxRateBps:     routeros.ParseRate(rs.RxRate),
			IsActive:      true,
			LastUpdatedAt: now,
		})
	}
	return sessions
}
