// Package platform implements ports.PlatformClient: a simulated client for
// development and tests, and an HTTP client for the scheduler service.
package platform

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/socialdesk/core/internal/infrastructure/config"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/ports"
)

// SimulatedClient answers like a remote platform after a delay, failing a
// configurable share of calls with retryable errors.
type SimulatedClient struct {
	latency     time.Duration
	successRate float64
	limiter     *rate.Limiter
	logger      *logger.Logger

	mu   sync.Mutex
	rand *rand.Rand
}

// NewSimulatedClient creates a simulated client
func NewSimulatedClient(cfg config.PlatformConfig, log *logger.Logger) *SimulatedClient {
	return &SimulatedClient{
		latency:     cfg.Latency,
		successRate: cfg.SuccessRate,
		limiter:     newLimiter(cfg),
		logger:      log.WithComponent("platform"),
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithSeed makes the failure pattern reproducible.
func (c *SimulatedClient) WithSeed(seed int64) *SimulatedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rand = rand.New(rand.NewSource(seed))
	return c
}

func newLimiter(cfg config.PlatformConfig) *rate.Limiter {
	if cfg.RateLimit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
}

func (c *SimulatedClient) SchedulePost(ctx context.Context, req ports.PublishRequest) (string, error) {
	return c.call(ctx, req.Channel, opSchedulePost)
}

func (c *SimulatedClient) ScheduleReel(ctx context.Context, req ports.ReelRequest) (string, error) {
	return c.call(ctx, req.Channel, opScheduleReel)
}

func (c *SimulatedClient) FetchInsights(ctx context.Context, creds ports.ChannelCredentials) (*ports.Insights, error) {
	if _, err := c.call(ctx, creds, opInsights); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return &ports.Insights{
		Followers:  1000 + c.rand.Intn(50000),
		Engagement: float64(c.rand.Intn(1000)) / 100,
	}, nil
}

func (c *SimulatedClient) DeletePost(ctx context.Context, creds ports.ChannelCredentials, remoteID string) error {
	_, err := c.call(ctx, creds, opDeletePost)
	return err
}

func (c *SimulatedClient) call(ctx context.Context, creds ports.ChannelCredentials, op string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	if c.latency > 0 {
		timer := time.NewTimer(c.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	c.mu.Lock()
	roll := c.rand.Float64()
	c.mu.Unlock()

	if roll >= c.successRate {
		c.logger.Debugw("Simulated platform failure", "op", op, "channel_id", creds.ChannelID)
		return "", &ports.PlatformError{
			Platform:  creds.Platform,
			Op:        op,
			Message:   "temporarily unavailable",
			Retryable: true,
		}
	}
	return uuid.New().String(), nil
}
