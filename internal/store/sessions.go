package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/skylinknet/pppmon/internal/logger"
	"github.com/skylinknet/pppmon/internal/models"
)

const upsertSessionQuery = `
INSERT INTO pppoe_sessions (
	id, router_id, reseller_id, username, assigned_ip, interface, comment, profile,
	uptime_seconds, tx_bytes, rx_bytes, tx_rate_bps, rx_rate_bps, is_active, last_updated_at
) VALUES (
	:id, :router_id, :reseller_id, :username, :assigned_ip, :interface, :comment, :profile,
	:uptime_seconds, :tx_bytes, :rx_bytes, :tx_rate_bps, :rx_rate_bps, :is_active, :last_updated_at
)
ON CONFLICT (router_id, username) DO UPDATE SET
	reseller_id     = EXCLUDED.reseller_id,
	assigned_ip     = EXCLUDED.assigned_ip,
	interface       = EXCLUDED.interface,
	comment         = EXCLUDED.comment,
	profile         = EXCLUDED.profile,
	uptime_seconds  = EXCLUDED.uptime_seconds,
	tx_bytes        = EXCLUDED.tx_bytes,
	rx_bytes        = EXCLUDED.rx_bytes,
	tx_rate_bps     = EXCLUDED.tx_rate_bps,
	rx_rate_bps     = EXCLUDED.rx_rate_bps,
	is_active       = EXCLUDED.is_active,
	last_updated_at = EXCLUDED.last_updated_at`

// GetSessionResellerIDs returns the persisted reseller attribution for
// every known session of a router, keyed by username. The resolver
// consults this so a manual override written by the admin surface
// survives re-polls.
func (s *Store) GetSessionResellerIDs(ctx context.Context, routerID uuid.UUID) (map[string]*uuid.UUID, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT username, reseller_id FROM pppoe_sessions WHERE router_id = $1`, routerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session attributions: %w", err)
	}
	defer rows.Close()

	assigned := make(map[string]*uuid.UUID)
	for rows.Next() {
		var username string
		var resellerID *uuid.UUID
		if err := rows.Scan(&username, &resellerID); err != nil {
			return nil, fmt.Errorf("failed to scan session attribution: %w", err)
		}
		assigned[username] = resellerID
	}
	return assigned, rows.Err()
}

// ReplaceActiveSessions reconciles a router's persisted sessions with
// the set just observed: every existing row for the router is marked
// inactive, then each observed session is upserted with is_active=true.
// Both steps run in one transaction so a concurrent reader never sees
// the router with all sessions inactive mid-refresh.
//
// A failed upsert is rolled back to a savepoint and counted instead of
// aborting the batch; the device response is authoritative for the rows
// that did persist.
func (s *Store) ReplaceActiveSessions(ctx context.Context, routerID uuid.UUID, sessions []models.Session) (failures int, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin session transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE pppoe_sessions SET is_active = false WHERE router_id = $1 AND is_active`, routerID); err != nil {
		return 0, fmt.Errorf("failed to deactivate sessions: %w", err)
	}

	for i := range sessions {
		sess := &sessions[i]
		if _, err := tx.ExecContext(ctx, `SAVEPOINT upsert_session`); err != nil {
			return failures, fmt.Errorf("failed to create savepoint: %w", err)
		}
		if _, err := tx.NamedExecContext(ctx, upsertSessionQuery, sess); err != nil {
			logger.StoreLog.Errorf("Failed to upsert session %s on router %s: %v", sess.Username, routerID, err)
			failures++
			if _, err := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT upsert_session`); err != nil {
				return failures, fmt.Errorf("failed to roll back savepoint: %w", err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT upsert_session`); err != nil {
			return failures, fmt.Errorf("failed to release savepoint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return failures, fmt.Errorf("failed to commit session transaction: %w", err)
	}
	return failures, nil
}
