package ratelimit

import (
	"context"
	"testing"
	"time"

	"seatwise/internal/shared/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg *config.RateLimitConfig) *RateLimiter {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiter(client, cfg)
}

func testRateLimitConfig() *config.RateLimitConfig {
	return &config.RateLimitConfig{
		Enabled:         true,
		WindowDuration:  time.Minute,
		DefaultRequests: 100,
		PublicRequests:  50,
		AuthRequests:    5,
		BookingRequests: 3,
		AdminRequests:   20,
	}
}

func TestIsAllowedEnforcesLimit(t *testing.T) {
	limiter := newTestLimiter(t, testRateLimitConfig())

	allowed := 0
	rejected := 0
	for i := 0; i < 10; i++ {
		result, err := limiter.IsAllowed(context.Background(), "198.51.100.7", RateLimitTypeBooking)
		require.NoError(t, err)
		if result.Allowed {
			allowed++
		} else {
			rejected++
			assert.Equal(t, 0, result.Remaining)
		}
	}

	t.Logf("10 requests against a limit of 3. Allowed: %d, Rejected: %d", allowed, rejected)
	assert.Equal(t, 3, allowed, "only the configured number of requests may pass")
	assert.Equal(t, 7, rejected, "everything over the limit must be rejected")
}

func TestIsAllowedRemainingCountsDown(t *testing.T) {
	limiter := newTestLimiter(t, testRateLimitConfig())

	for want := 2; want >= 0; want-- {
		result, err := limiter.IsAllowed(context.Background(), "198.51.100.8", RateLimitTypeBooking)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 3, result.Limit)
		assert.Equal(t, want, result.Remaining)
	}
}

func TestIsAllowedWindowSlides(t *testing.T) {
	cfg := testRateLimitConfig()
	cfg.WindowDuration = time.Second
	limiter := newTestLimiter(t, cfg)

	for i := 0; i < 3; i++ {
		result, err := limiter.IsAllowed(context.Background(), "198.51.100.9", RateLimitTypeBooking)
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}
	result, err := limiter.IsAllowed(context.Background(), "198.51.100.9", RateLimitTypeBooking)
	require.NoError(t, err)
	require.False(t, result.Allowed, "the window must be full")

	time.Sleep(1100 * time.Millisecond)

	result, err = limiter.IsAllowed(context.Background(), "198.51.100.9", RateLimitTypeBooking)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "old entries must fall out of the window")
}

func TestIsAllowedIsolatesClientsAndTypes(t *testing.T) {
	limiter := newTestLimiter(t, testRateLimitConfig())

	for i := 0; i < 3; i++ {
		result, err := limiter.IsAllowed(context.Background(), "198.51.100.10", RateLimitTypeBooking)
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}

	// The exhausted booking budget must not bleed into other route
	// classes or other clients.
	result, err := limiter.IsAllowed(context.Background(), "198.51.100.10", RateLimitTypePublic)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = limiter.IsAllowed(context.Background(), "198.51.100.11", RateLimitTypeBooking)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestIsAllowedWhitelistBypasses(t *testing.T) {
	cfg := testRateLimitConfig()
	cfg.WhitelistedIPs = []string{"203.0.113.1"}
	limiter := newTestLimiter(t, cfg)

	for i := 0; i < 20; i++ {
		result, err := limiter.IsAllowed(context.Background(), "203.0.113.1", RateLimitTypeBooking)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}

func TestIsAllowedDisabled(t *testing.T) {
	cfg := testRateLimitConfig()
	cfg.Enabled = false
	limiter := newTestLimiter(t, cfg)

	for i := 0; i < 20; i++ {
		result, err := limiter.IsAllowed(context.Background(), "198.51.100.12", RateLimitTypeBooking)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}
