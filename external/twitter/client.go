package twitter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/loanwatch/loanwatch/internal/platform/logging"
	"github.com/loanwatch/loanwatch/internal/platform/resilience"
	"github.com/loanwatch/loanwatch/internal/usecase"
)

const (
	defaultBaseURL     = "https://api.twitter.com"
	tweetPath          = "/2/tweets"
	defaultHTTPTimeout = 15 * time.Second
	maxResponseBytes   = 1 << 20
)

var errTwitterTransient = crerr.New("twitter transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client posts tweets through the v2 API with OAuth 1.0a user context.
// It satisfies usecase.Publisher. Failed posts are not retried here; the
// notifier logs and drops them.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	signer         *oauth1Signer
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
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
		signer:         newOAuth1Signer(cfg.ConsumerKey, cfg.ConsumerSecret, cfg.AccessToken, cfg.AccessSecret),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Publish posts text as a tweet. 429 and 5xx responses count as
// transient and feed the circuit breaker; other non-2xx responses are
// permanent failures.
func (c *Client) Publish(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: tweet text is empty", usecase.ErrInvalidInput)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "twitter circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: tweet publisher is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	err := c.postTweet(ctx, text)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errTwitterTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return err
}

func (c *Client) postTweet(ctx context.Context, text string) error {
	body, err := sonic.Marshal(tweetRequest{Text: text})
	if err != nil {
		return fmt.Errorf("encode tweet: %w", err)
	}

	fullURL := c.baseURL + tweetPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	authHeader, err := c.signer.authorizationHeader(http.MethodPost, fullURL)
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send request: %v", errTwitterTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response body: %v", errTwitterTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusCreated || (resp.StatusCode >= 200 && resp.StatusCode < 300):
		var decoded tweetResponse
		if err := sonic.Unmarshal(raw, &decoded); err == nil && decoded.Data.ID != "" {
			c.logger.DebugContext(ctx, "tweet published", "tweet_id", decoded.Data.ID)
		}
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: publisher status=%d body=%s", errTwitterTransient, resp.StatusCode, abbreviateBody(raw))
	default:
		return fmt.Errorf("publisher status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	}
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
