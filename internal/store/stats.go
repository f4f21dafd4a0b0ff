package store

import (
	"context"
	"fmt"

	"github.com/skylinknet/pppmon/internal/models"
)

// The stats queries are read-side projections over the reconciled
// session table. The poller's write path carries no aggregation state;
// everything here is re-derived on demand.

// GetOverviewStats returns fleet-wide totals.
func (s *Store) GetOverviewStats(ctx context.Context) (*models.OverviewStats, error) {
	var stats models.OverviewStats

	err := s.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*)                                   AS total_routers,
			COUNT(*) FILTER (WHERE is_online)          AS online_routers,
			0                                          AS active_sessions,
			0                                          AS total_bandwidth_bps,
			0                                          AS total_bytes
		FROM routers`)
	if err != nil {
		return nil, fmt.Errorf("failed to load router totals: %w", err)
	}

	err = s.db.QueryRowxContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(tx_rate_bps + rx_rate_bps), 0),
			COALESCE(SUM(tx_bytes + rx_bytes), 0)
		FROM pppoe_sessions
		WHERE is_active`).Scan(&stats.ActiveSessions, &stats.TotalBandwidthBps, &stats.TotalBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to load session totals: %w", err)
	}

	return &stats, nil
}

// GetResellerStats returns the per-reseller rollup over active
// sessions, heaviest bandwidth first. Unattributed sessions count only
// in the overview totals, never under a reseller.
func (s *Store) GetResellerStats(ctx context.Context) ([]models.ResellerStats, error) {
	var stats []models.ResellerStats
	err := s.db.SelectContext(ctx, &stats, `
		SELECT
			r.id,
			r.name,
			r.bandwidth_cap_mbps,
			COUNT(s.id)                                       AS session_count,
			COALESCE(SUM(s.tx_rate_bps + s.rx_rate_bps), 0)   AS bandwidth_bps,
			COALESCE(SUM(s.tx_bytes + s.rx_bytes), 0)         AS total_bytes
		FROM resellers r
		LEFT JOIN pppoe_sessions s ON s.reseller_id = r.id AND s.is_active
		GROUP BY r.id, r.name, r.bandwidth_cap_mbps
		ORDER BY bandwidth_bps DESC, r.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to load reseller stats: %w", err)
	}
	return stats, nil
}

// GetRouterStats returns the per-router rollup with active session
// counts.
func (s *Store) GetRouterStats(ctx context.Context) ([]models.RouterStats, error) {
	var stats []models.RouterStats
	err := s.db.SelectContext(ctx, &stats, `
		SELECT
			r.id,
			r.name,
			r.is_online,
			r.last_seen_at,
			COUNT(s.id) AS session_count
		FROM routers r
		LEFT JOIN pppoe_sessions s ON s.router_id = r.id AND s.is_active
		GROUP BY r.id, r.name, r.is_online, r.last_seen_at
		ORDER BY r.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to load router stats: %w", err)
	}
	return stats, nil
}
