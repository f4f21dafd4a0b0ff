package models

import (
	"time"

	"github.com/google/uuid"
)

// RouterOS API dialects. Only V7 exposes the REST endpoint the poller
// speaks; V6 routers are registered but reported as unsupported.
const (
	DialectV6 = "v6"
	DialectV7 = "v7"
)

// Router represents one access concentrator registered for polling.
// Identity and credentials are owned by the administrative surface; the
// poller only writes IsOnline and LastSeenAt.
type Router struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Host     string    `json:"host" db:"host"`
	Port     int       `json:"port" db:"port"`
	Username string    `json:"-" db:"username"`
	Password string    `json:"-" db:"password"`

	RouterOSVersion string `json:"routerosVersion" db:"routeros_version"`
	UseHTTPS        bool   `json:"useHttps" db:"use_https"`

	IsOnline   bool       `json:"isOnline" db:"is_online"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty" db:"last_seen_at"`
}

// Session is one subscriber connection observed on a router, keyed by
// (RouterID, Username). Rows are never deleted; sessions that disappear
// from a poll are kept with IsActive=false.
type Session struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	RouterID   uuid.UUID  `json:"routerId" db:"router_id"`
	ResellerID *uuid.UUID `json:"resellerId,omitempty" db:"reseller_id"`
	Username   string     `json:"username" db:"username"`

	AssignedIP string `json:"assignedIp" db:"assigned_ip"`
	Interface  string `json:"interface" db:"interface"`
	Comment    string `json:"comment" db:"comment"`
	Profile    string `json:"profile" db:"profile"`

	UptimeSeconds int64 `json:"uptimeSeconds" db:"uptime_seconds"`
	TxBytes       int64 `json:"txBytes" db:"tx_bytes"`
	RxBytes       int64 `json:"rxBytes" db:"rx_bytes"`
	TxRateBps     int64 `json:"txRateBps" db:"tx_rate_bps"`
	RxRateBps     int64 `json:"rxRateBps" db:"rx_rate_bps"`

	IsActive      bool      `json:"isActive" db:"is_active"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt" db:"last_updated_at"`
}

// RuleType discriminates the detection rule variants.
type RuleType string

const (
	RulePrefix  RuleType = "prefix"
	RuleProfile RuleType = "profile"
	RuleComment RuleType = "comment"
)

// DetectionRule is one pattern used to infer reseller ownership of a
// session that has no explicit mapping. Rules are evaluated in stored
// order; the first match wins.
type DetectionRule struct {
	Type  RuleType `json:"type"`
	Value string   `json:"value"`
}

// Reseller is a commercial entity sessions are attributed to.
type Reseller struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	BandwidthCapMbps *int      `json:"bandwidthCapMbps,omitempty" db:"bandwidth_cap_mbps"`

	// DetectionRules is stored as an ordered JSON array; the store
	// decodes it so order is preserved.
	DetectionRules []DetectionRule `json:"detectionRules" db:"-"`
}

// UserMapping pins a PPPoE username to a reseller. It is the strongest
// attribution signal and is globally unique per username.
type UserMapping struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ResellerID    uuid.UUID `json:"resellerId" db:"reseller_id"`
	PPPoEUsername string    `json:"pppoeUsername" db:"pppoe_username"`
}

// RouterPollResult is the outcome of polling a single router.
type RouterPollResult struct {
	RouterID        uuid.UUID `json:"routerId"`
	RouterName      string    `json:"routerName"`
	SessionCount    int       `json:"sessionCount"`
	IsOnline        bool      `json:"isOnline"`
	Error           string    `json:"error,omitempty"`
	PersistFailures int       `json:"persistFailures,omitempty"`
}

// RunReport aggregates a full reconciliation run. Success is false only
// when run-level setup failed; individual router failures are reported
// in Results without failing the run.
type RunReport struct {
	Success   bool               `json:"success"`
	Polled    int                `json:"polled"`
	Results   []RouterPollResult `json:"results"`
	Error     string             `json:"error,omitempty"`
	StartedAt time.Time          `json:"startedAt"`
}

// OverviewStats is the read-side projection backing the stats overview.
type OverviewStats struct {
	TotalRouters      int   `json:"totalRouters" db:"total_routers"`
	OnlineRouters     int   `json:"onlineRouters" db:"online_routers"`
	ActiveSessions    int   `json:"activeSessions" db:"active_sessions"`
	TotalBandwidthBps int64 `json:"totalBandwidthBps" db:"total_bandwidth_bps"`
	TotalBytes        int64 `json:"totalBytes" db:"total_bytes"`
}

// ResellerStats is one row of the per-reseller rollup.
type ResellerStats struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	SessionCount     int       `json:"sessionCount" db:"session_count"`
	BandwidthBps     int64     `json:"bandwidthBps" db:"bandwidth_bps"`
	TotalBytes       int64     `json:"totalBytes" db:"total_bytes"`
	BandwidthCapMbps *int      `json:"bandwidthCapMbps,omitempty" db:"bandwidth_cap_mbps"`
}

// RouterStats is one row of the per-router rollup.
type RouterStats struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	IsOnline     bool       `json:"isOnline" db:"is_online"`
	SessionCount int        `json:"sessionCount" db:"session_count"`
	LastSeenAt   *time.Time `json:"lastSeenAt,omitempty" db:"last_seen_at"`
}
