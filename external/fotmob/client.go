package fotmob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/loanwatch/loanwatch/internal/domain/match"
	"github.com/loanwatch/loanwatch/internal/platform/logging"
	"github.com/loanwatch/loanwatch/internal/platform/resilience"
	"github.com/loanwatch/loanwatch/internal/usecase"
)

const (
	defaultBaseURL     = "https://www.fotmob.com/api"
	maxResponseBytes   = 6 << 20
	defaultHTTPTimeout = 20 * time.Second
)

var errFotmobTransient = crerr.New("fotmob transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads team fixtures and live match detail from the FotMob API.
// It satisfies usecase.DataSource.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultHTTPTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// NextFixture returns the team's upcoming fixture from the fixtures tab.
// The boolean is false when the team has no scheduled match.
func (c *Client) NextFixture(ctx context.Context, teamID int64) (usecase.FixtureInfo, bool, error) {
	if teamID <= 0 {
		return usecase.FixtureInfo{}, false, fmt.Errorf("team id must be greater than zero")
	}

	query := map[string]string{
		"id":  strconv.FormatInt(teamID, 10),
		"tab": "fixtures",
	}

	var envelope teamEnvelope
	if err := c.doJSON(ctx, "/teams", query, &envelope); err != nil {
		return usecase.FixtureInfo{}, false, fmt.Errorf("fetch team fixtures team_id=%d: %w", teamID, err)
	}

	next := envelope.Fixtures.AllFixtures.NextMatch
	if next == nil || next.ID <= 0 {
		return usecase.FixtureInfo{}, false, nil
	}

	kickoff, err := parseProviderTime(next.Status.UTCTime)
	if err != nil {
		return usecase.FixtureInfo{}, false, fmt.Errorf("parse kickoff time for fixture %d: %w", next.ID, err)
	}

	return usecase.FixtureInfo{ID: next.ID, KickoffAt: kickoff}, true, nil
}

// MatchState fetches the match detail payload and projects the given
// player out of it.
func (c *Client) MatchState(ctx context.Context, fixtureID, playerID, teamID int64) (match.Snapshot, error) {
	if fixtureID <= 0 {
		return match.Snapshot{}, fmt.Errorf("fixture id must be greater than zero")
	}

	query := map[string]string{
		"matchId": strconv.FormatInt(fixtureID, 10),
	}

	var envelope matchEnvelope
	if err := c.doJSON(ctx, "/matchDetails", query, &envelope); err != nil {
		return match.Snapshot{}, fmt.Errorf("fetch match detail fixture_id=%d: %w", fixtureID, err)
	}

	return mapSnapshot(fixtureID, playerID, teamID, envelope), nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fotmob circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: match data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	// Several tracked players can share one fixture; singleflight makes
	// them share the fetch too.
	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errFotmobTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errFotmobTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errFotmobTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: provider has no such resource", usecase.ErrNotFound)
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errFotmobTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "fotmob request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func mapSnapshot(fixtureID, playerID, teamID int64, envelope matchEnvelope) match.Snapshot {
	snap := match.Snapshot{
		FixtureID:  fixtureID,
		Status:     mapStatus(envelope),
		Minute:     parseLiveMinute(envelope.Header.Status.LiveTime),
		LeagueName: firstNonEmpty(envelope.General.ParentLeagueName, envelope.General.LeagueName),
	}

	if len(envelope.Header.Teams) >= 2 {
		snap.HomeTeam = strings.TrimSpace(envelope.Header.Teams[0].Name)
		snap.AwayTeam = strings.TrimSpace(envelope.Header.Teams[1].Name)
		snap.HomeScore = envelope.Header.Teams[0].Score
		snap.AwayScore = envelope.Header.Teams[1].Score
	}

	side, ok := envelope.Content.lineup().side(teamID)
	if !ok {
		return snap
	}

	entry, starting, found := findLineupPlayer(side, playerID)
	if !found {
		return snap
	}

	snap.Player = mapPlayerState(entry, starting, snap.Status)
	return snap
}

func findLineupPlayer(side lineupSide, playerID int64) (lineupPlayer, bool, bool) {
	for _, item := range side.Starters {
		if item.ID == playerID {
			return item, true, true
		}
	}
	for _, item := range side.Subs {
		if item.ID == playerID {
			return item, false, true
		}
	}
	return lineupPlayer{}, false, false
}

func mapPlayerState(entry lineupPlayer, starting bool, status string) match.PlayerState {
	state := match.PlayerState{
		InLineup:      true,
		Starting:      starting,
		MinutesPlayed: entry.Performance.MinutesPlayed,
		Rating:        entry.Performance.Rating,
	}

	subbedIn := false
	subbedOut := false
	for _, event := range append(entry.Performance.Events, entry.Performance.SubstitutionEvents...) {
		switch event.Type {
		case "goal":
			state.Goals++
		case "assist":
			state.Assists++
		case "yellowCard":
			state.YellowCards++
		case "redCard":
			state.RedCards++
		case "subIn":
			subbedIn = true
		case "subOut":
			subbedOut = true
		}
	}

	if match.IsInProgressStatus(status) {
		onSinceStart := starting && !subbedOut
		onAsSub := !starting && subbedIn && !subbedOut
		state.OnPitch = (onSinceStart || onAsSub) && state.RedCards == 0
	}
	return state
}

func mapStatus(envelope matchEnvelope) string {
	status := envelope.Header.Status
	switch {
	case status.Cancelled:
		return "CANCELLED"
	case status.Finished || envelope.General.Finished:
		if short := strings.TrimSpace(status.Reason.Short); short != "" {
			return short
		}
		return "FT"
	case status.Started || envelope.General.Started:
		if short := strings.TrimSpace(status.Reason.Short); short != "" {
			return short
		}
		return "LIVE"
	default:
		return "NS"
	}
}

func parseLiveMinute(label *statusLabel) int {
	if label == nil {
		return 0
	}
	digits := strings.TrimFunc(label.Short, func(r rune) bool {
		return r < '0' || r > '9'
	})
	// Stoppage time shows as "45+2"; the base minute is enough here.
	if idx := strings.IndexByte(digits, '+'); idx >= 0 {
		digits = digits[:idx]
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return value
}

func parseProviderTime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02T15:04:05Z"} {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
