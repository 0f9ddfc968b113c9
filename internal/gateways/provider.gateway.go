package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rosadoagency/appointment-api/internal/model"
	"github.com/rosadoagency/appointment-api/pkg/logger"
	"github.com/rosadoagency/appointment-api/pkg/prom"
	"github.com/valyala/fasthttp"
)

var (
	ErrNoAvailableProviders = errors.New("no available providers")
	ErrDeliveryRejected     = errors.New("provider rejected the message")
)

const (
	emailSendPath = "/api/v1/email/send"
	smsSendPath   = "/api/v1/sms/send"
	healthPath    = "/health"
)

type Config struct {
	Providers               []ProviderConfig
	Timeout                 time.Duration
	MaxConns                int
	HealthCheckInterval     time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

type ProviderConfig struct {
	Name   string
	URL    string
	Weight int // 1-100
}

// DefaultConfig builds a primary provider and an optional fallback.
func DefaultConfig(primaryURL, fallbackURL string, timeout time.Duration) *Config {
	cfg := &Config{
		Providers: []ProviderConfig{
			{Name: "primary", URL: primaryURL, Weight: 100},
		},
		Timeout:                 timeout,
		MaxConns:                64,
		HealthCheckInterval:     30 * time.Second,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
	}
	if fallbackURL != "" {
		cfg.Providers = append(cfg.Providers, ProviderConfig{Name: "fallback", URL: fallbackURL, Weight: 50})
	}
	return cfg
}

type emailRequest struct {
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	HTML      string `json:"html"`
}

type smsRequest struct {
	MessageID   string `json:"message_id"`
	PhoneNumber string `json:"phone_number"`
	Content     string `json:"content"`
}

// Client delivers reminders through an HTTP notification provider. Each send
// tries the available providers best score first until one accepts.
type Client struct {
	config    *Config
	providers []*Provider
	mu        sync.RWMutex
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if len(config.Providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}

	client := &Client{
		config:    config,
		providers: make([]*Provider, 0, len(config.Providers)),
		stopCh:    make(chan struct{}),
	}

	for _, pc := range config.Providers {
		if pc.URL == "" {
			return nil, fmt.Errorf("provider %s has no url", pc.Name)
		}
		httpClient := &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		}
		client.providers = append(client.providers, NewProvider(pc.Name, pc.URL, pc.Weight, httpClient))
		logger.Info("notification provider initialized", "name", pc.Name, "url", pc.URL, "weight", pc.Weight)
	}

	if config.HealthCheckInterval > 0 {
		client.wg.Add(1)
		go client.healthChecker()
	}

	return client, nil
}

func (c *Client) SendEmail(ctx context.Context, msg model.EmailMessage) (*SendResponse, error) {
	return c.send(ctx, model.ChannelEmail, emailSendPath, emailRequest{
		MessageID: uuid.NewString(),
		From:      msg.From,
		To:        msg.To,
		Subject:   msg.Subject,
		HTML:      msg.HTML,
	})
}

func (c *Client) SendSMS(ctx context.Context, msg model.SMSMessage) (*SendResponse, error) {
	return c.send(ctx, model.ChannelSMS, smsSendPath, smsRequest{
		MessageID:   uuid.NewString(),
		PhoneNumber: msg.To,
		Content:     msg.Body,
	})
}

// rankedProviders returns the available providers, best score first.
func (c *Client) rankedProviders() []*Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()

	type scored struct {
		p     *Provider
		score float64
	}
	candidates := make([]scored, 0, len(c.providers))
	for _, p := range c.providers {
		if score := p.CalculateScore(); score > 0 {
			candidates = append(candidates, scored{p: p, score: score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	out := make([]*Provider, len(candidates))
	for i, s := range candidates {
		out[i] = s.p
	}
	return out
}

func (c *Client) send(ctx context.Context, channel, path string, payload interface{}) (*SendResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", channel, err)
	}

	providers := c.rankedProviders()
	if len(providers) == 0 {
		return nil, ErrNoAvailableProviders
	}

	var lastErr error
	for _, provider := range providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		raw, err := c.doRequest(ctx, provider, fasthttp.MethodPost, path, body)
		elapsed := time.Since(start)
		latency := elapsed.Milliseconds()
		prom.ObserveProviderRequest(provider.name, channel, err == nil, elapsed.Seconds())
		if err != nil {
			provider.metrics.RecordFailure()
			c.checkCircuitBreaker(provider)
			logger.Warn("provider request failed", "channel", channel, "provider", provider.name, "error", err)
			lastErr = err
			continue
		}
		provider.metrics.RecordSuccess(latency)

		var resp SendResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s response: %w", channel, err)
		}
		if resp.Status == StatusFailed {
			return &resp, fmt.Errorf("%w: %s %s", ErrDeliveryRejected, resp.ErrorCode, resp.ErrorMsg)
		}

		logger.Info("reminder handed to provider",
			"channel", channel,
			"message_id", resp.MessageID,
			"status", string(resp.Status),
			"provider", provider.name,
			"latency_ms", latency)
		return &resp, nil
	}

	return nil, fmt.Errorf("%s delivery failed on %d provider(s): %w", channel, len(providers), lastErr)
}

func (c *Client) doRequest(ctx context.Context, provider *Provider, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(provider.url + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := provider.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return result, nil
}

func (c *Client) checkCircuitBreaker(provider *Provider) {
	if c.config.CircuitBreakerThreshold <= 0 {
		return
	}
	fails := provider.metrics.ConsecutiveFails.Load()
	if fails >= int32(c.config.CircuitBreakerThreshold) {
		provider.SetState(StateCircuitOpen)
		provider.circuitOpenUntil.Store(time.Now().Add(c.config.CircuitBreakerTimeout).Unix())
		logger.Warn("circuit breaker opened", "provider", provider.name, "consecutive_fails", fails, "timeout", c.config.CircuitBreakerTimeout)
	}
}

func (c *Client) healthChecker() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.performHealthChecks()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Client) performHealthChecks() {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	c.mu.RLock()
	providers := make([]*Provider, len(c.providers))
	copy(providers, c.providers)
	c.mu.RUnlock()

	for _, provider := range providers {
		oldState := provider.GetState()
		if oldState == StateCircuitOpen {
			continue
		}
		newState := StateUnhealthy
		if c.checkProviderHealth(ctx, provider) {
			newState = StateHealthy
		}
		if newState != oldState {
			provider.SetState(newState)
			logger.Info("provider state changed", "provider", provider.name, "old_state", oldState.String(), "new_state", newState.String())
		}
	}
}

func (c *Client) checkProviderHealth(ctx context.Context, provider *Provider) bool {
	raw, err := c.doRequest(ctx, provider, fasthttp.MethodGet, healthPath, nil)
	if err != nil {
		return false
	}
	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &health); err != nil {
		return false
	}
	return health.Status == "healthy"
}

// GetProviderStats returns per-provider statistics, best score first.
func (c *Client) GetProviderStats() []ProviderStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make([]ProviderStats, 0, len(c.providers))
	for _, p := range c.providers {
		stats = append(stats, p.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Score > stats[j].Score })
	return stats
}

func (c *Client) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
	for _, st := range c.GetProviderStats() {
		logger.Info("notification provider stats", "provider", st.Name, "state", st.State,
			"total_requests", st.TotalRequests, "failed_requests", st.FailedReqs,
			"success_rate", st.SuccessRate, "p95_latency_ms", st.P95LatencyMs)
	}
	logger.Info("notification provider client closed")
	return nil
}
