package producer

import (
	"context"
	"sync"

	"github.com/skylinknet/pppmon/internal/models"
	"github.com/skylinknet/pppmon/internal/poller"
)

// StatsStore is the read-side surface the API handlers need.
type StatsStore interface {
	Ping(ctx context.Context) error
	GetOverviewStats(ctx context.Context) (*models.OverviewStats, error)
	GetResellerStats(ctx context.Context) ([]models.ResellerStats, error)
	GetRouterStats(ctx context.Context) ([]models.RouterStats, error)
}

// Service wires the handlers to the engine and the store. It also
// tracks whether a run started by this process is still in flight;
// overlapping runs across processes are an operational concern left to
// the external scheduler.
type Service struct {
	Engine *poller.Engine
	Store  StatsStore

	mu         sync.Mutex
	running    bool
	lastReport *models.RunReport
}

// NewService creates the handler service.
func NewService(engine *poller.Engine, store StatsStore) *Service {
	return &Service{
		Engine: engine,
		Store:  store,
	}
}

// tryBegin marks a run as started; it fails if one is already running.
func (s *Service) tryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// end marks the current run finished and records its report.
func (s *Service) end(report *models.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.lastReport = report
}

// LastReport returns the most recent run report, or nil if no run has
// completed since startup.
func (s *Service) LastReport() *models.RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}
