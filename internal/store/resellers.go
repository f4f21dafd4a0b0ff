package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/skylinknet/pppmon/internal/logger"
	"github.com/skylinknet/pppmon/internal/models"
)

// resellerRow carries the raw jsonb rule column before decoding.
type resellerRow struct {
	ID               uuid.UUID `db:"id"`
	Name             string    `db:"name"`
	BandwidthCapMbps *int      `db:"bandwidth_cap_mbps"`
	DetectionRules   []byte    `db:"detection_rules"`
}

// ListResellers returns all resellers with their detection rules
// decoded. Row order and in-array rule order are both preserved; they
// decide precedence during rule-based attribution.
func (s *Store) ListResellers(ctx context.Context) ([]models.Reseller, error) {
	var rows []resellerRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, bandwidth_cap_mbps, detection_rules FROM resellers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list resellers: %w", err)
	}

	resellers := make([]models.Reseller, 0, len(rows))
	for _, row := range rows {
		reseller := models.Reseller{
			ID:               row.ID,
			Name:             row.Name,
			BandwidthCapMbps: row.BandwidthCapMbps,
		}
		if len(row.DetectionRules) > 0 {
			if err := json.Unmarshal(row.DetectionRules, &reseller.DetectionRules); err != nil {
				// A malformed rule list disables detection for this
				// reseller but must not take down the whole run.
				logger.StoreLog.Errorf("Failed to decode detection rules for reseller %s: %v", row.ID, err)
				reseller.DetectionRules = nil
			}
		}
		resellers = append(resellers, reseller)
	}
	return resellers, nil
}

// ListUserMappings returns every manual username pin.
func (s *Store) ListUserMappings(ctx context.Context) ([]models.UserMapping, error) {
	var mappings []models.UserMapping
	err := s.db.SelectContext(ctx, &mappings,
		`SELECT id, reseller_id, pppoe_username FROM reseller_user_mappings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user mappings: %w", err)
	}
	return mappings, nil
}
