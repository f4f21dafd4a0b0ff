package routeros

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/skylinknet/pppmon/config"
	"github.com/skylinknet/pppmon/internal/logger"
	"github.com/skylinknet/pppmon/internal/models"
)

// activeSessionsPath is the RouterOS v7 REST endpoint listing the
// currently connected PPP sessions.
const activeSessionsPath = "/rest/ppp/active"

// RawSession is one session record as the router reports it. Every
// field may be absent; RouterOS returns all values as strings.
type RawSession struct {
	Name      string `json:"name"`
	Service   string `json:"service"`
	CallerID  string `json:"caller-id"`
	Address   string `json:"address"`
	Uptime    string `json:"uptime"`
	SessionID string `json:"session-id"`
	Comment   string `json:"comment"`
	Profile   string `json:"profile"`
	TxByte    string `json:"tx-byte"`
	RxByte    string `json:"rx-byte"`
	TxRate    string `json:"tx-rate"`
	RxRate    string `json:"rx-rate"`
}

// Outcome classifies the result of polling one router.
type Outcome int

const (
	// OutcomeOK means the router answered with a parseable session list.
	OutcomeOK Outcome = iota
	// OutcomeAuthFailure means the router is reachable but rejected the
	// credentials.
	OutcomeAuthFailure
	// OutcomeUnreachable covers connection-level failures and
	// unexpected HTTP statuses.
	OutcomeUnreachable
	// OutcomeUnsupported means the router's configured dialect cannot
	// be polled at all; no network call is made.
	OutcomeUnsupported
)

// PollResult is the classified outcome of one poll attempt.
type PollResult struct {
	Outcome  Outcome
	Sessions []RawSession
	// IsOnline reflects device reachability, not poll success: an auth
	// failure still means the router is up.
	IsOnline bool
	Err      error
}

// Client performs authenticated session-listing requests against
// RouterOS v7 routers.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a RouterOS REST client. The timeout is enforced at
// the client level so a hung router cannot stall a whole run.
func NewClient(cfg *config.Poller) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// FetchActiveSessions performs one poll against the router and
// classifies the outcome. It never returns a Go error directly; the
// classification is the contract.
func (c *Client) FetchActiveSessions(ctx context.Context, router *models.Router) *PollResult {
	if router.RouterOSVersion != models.DialectV7 {
		logger.ClientLog.Debugf("Skipping %s: RouterOS %s has no REST API", router.Name, router.RouterOSVersion)
		return &PollResult{
			Outcome:  OutcomeUnsupported,
			IsOnline: false,
			Err:      models.ErrUnsupportedDialect,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL(router)+activeSessionsPath, nil)
	if err != nil {
		return &PollResult{
			Outcome:  OutcomeUnreachable,
			IsOnline: false,
			Err:      fmt.Errorf("invalid router address: %w", err),
		}
	}

	req.SetBasicAuth(router.Username, router.Password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &PollResult{
			Outcome:  OutcomeUnreachable,
			IsOnline: false,
			Err:      fmt.Errorf("%w: %v", models.ErrRouterUnreachable, err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &PollResult{
			Outcome:  OutcomeAuthFailure,
			IsOnline: true,
			Err:      models.ErrAuthFailed,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &PollResult{
			Outcome:  OutcomeUnreachable,
			IsOnline: false,
			Err:      fmt.Errorf("%w: HTTP %d", models.ErrRouterUnreachable, resp.StatusCode),
		}
	}

	var sessions []RawSession
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return &PollResult{
			Outcome:  OutcomeUnreachable,
			IsOnline: false,
			Err:      fmt.Errorf("%w: failed to decode response: %v", models.ErrRouterUnreachable, err),
		}
	}

	return &PollResult{
		Outcome:  OutcomeOK,
		Sessions: sessions,
		IsOnline: true,
	}
}

// baseURL builds the router's base URL. HTTPS is the default; plain
// HTTP is an explicit per-router opt-out.
func (c *Client) baseURL(router *models.Router) string {
	scheme := "https"
	if !router.UseHTTPS {
		scheme = "http"
	}
	if router.Port != 0 {
		return fmt.Sprintf("%s://%s:%d", scheme, router.Host, router.Port)
	}
	return fmt.Sprintf("%s://%s", scheme, router.Host)
}
