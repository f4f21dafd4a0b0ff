package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skylinknet/pppmon/internal/models"
)

const routerColumns = `id, name, host, port, username, password, routeros_version, use_https, is_online, last_seen_at`

// ListRouters returns every registered router.
func (s *Store) ListRouters(ctx context.Context) ([]models.Router, error) {
	var routers []models.Router
	query := fmt.Sprintf(`SELECT %s FROM routers ORDER BY name`, routerColumns)
	if err := s.db.SelectContext(ctx, &routers, query); err != nil {
		return nil, fmt.Errorf("failed to list routers: %w", err)
	}
	return routers, nil
}

// GetRouter returns a single router by id.
func (s *Store) GetRouter(ctx context.Context, id uuid.UUID) (*models.Router, error) {
	var router models.Router
	query := fmt.Sprintf(`SELECT %s FROM routers WHERE id = $1`, routerColumns)
	if err := s.db.GetContext(ctx, &router, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrRouterNotFound
		}
		return nil, fmt.Errorf("failed to get router: %w", err)
	}
	return &router, nil
}

// UpdateRouterStatus persists reachability after a poll. last_seen_at
// only moves forward on a successful contact; an offline poll keeps the
// previous value so operators can see when the router was last up.
func (s *Store) UpdateRouterStatus(ctx context.Context, id uuid.UUID, isOnline bool) error {
	var seenAt *time.Time
	if isOnline {
		now := time.Now().UTC()
		seenAt = &now
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE routers SET is_online = $1, last_seen_at = COALESCE($2, last_seen_at) WHERE id = $3`,
		isOnline, seenAt, id)
	if err != nil {
		return fmt.Errorf("failed to update router status: %w", err)
	}
	return nil
}
