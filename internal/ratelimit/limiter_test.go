package ratelimit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/shareit-backend/internal/config"
)

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func TestRedisLimiter(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()
	require.NoError(t, Ping(context.Background(), client))

	limiter := NewRedisLimiter(client, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "user:a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "user:b")
	require.NoError(t, err)
	assert.True(t, ok, "keys are counted separately")

	assert.Equal(t, time.Minute, s.TTL(keyPrefix+"user:a"))

	s.FastForward(time.Minute + time.Second)
	ok, err = limiter.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.True(t, ok, "window expired")
}

func TestRedisLimiterError(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()
	s.Close()

	_, err = NewRedisLimiter(client, 1, time.Minute).Allow(context.Background(), "user:a")
	assert.Error(t, err)

	_, err = NewRedisLimiter(nil, 1, time.Minute).Allow(context.Background(), "user:a")
	assert.Error(t, err)
}

func TestMemoryLimiter(t *testing.T) {
	limiter := NewMemoryLimiter(3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := limiter.Allow(ctx, "ip:1.2.3.4")
	assert.False(t, ok)

	ok, _ = limiter.Allow(ctx, "ip:5.6.7.8")
	assert.True(t, ok)
}

func TestFailoverLimiter(t *testing.T) {
	primary := new(mockLimiter)
	fallback := new(mockLimiter)
	logger := zerolog.New(io.Discard)
	limiter := NewFailoverLimiter(primary, fallback, &logger)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Allow", ctx, "k1").Return(true, nil).Once()

		ok, err := limiter.Allow(ctx, "k1")
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, limiter.Degraded())
	})

	t.Run("PrimaryFailFallback", func(t *testing.T) {
		primary.On("Allow", ctx, "k2").Return(false, errors.New("connection refused")).Once()
		fallback.On("Allow", ctx, "k2").Return(true, nil).Once()

		ok, err := limiter.Allow(ctx, "k2")
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, limiter.Degraded())
	})

	t.Run("StaysOnFallback", func(t *testing.T) {
		fallback.On("Allow", ctx, "k3").Return(false, nil).Once()

		ok, err := limiter.Allow(ctx, "k3")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Recovery", func(t *testing.T) {
		now = now.Add(RetryAfter + time.Second)
		primary.On("Allow", ctx, "k4").Return(true, nil).Once()

		ok, err := limiter.Allow(ctx, "k4")
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, limiter.Degraded())
	})

	primary.AssertExpectations(t)
	fallback.AssertExpectations(t)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(l Limiter) *gin.Engine {
		r := gin.New()
		r.Use(Middleware(l, func(c *gin.Context) string { return c.GetHeader("X-Key") }))
		r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	call := func(r *gin.Engine, key string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Key", key)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("Budget", func(t *testing.T) {
		r := newRouter(NewMemoryLimiter(1, time.Hour))
		assert.Equal(t, http.StatusOK, call(r, "a"))
		assert.Equal(t, http.StatusTooManyRequests, call(r, "a"))
		assert.Equal(t, http.StatusOK, call(r, "b"))
	})

	t.Run("LimiterErrorFailsOpen", func(t *testing.T) {
		broken := new(mockLimiter)
		broken.On("Allow", mock.Anything, "a").Return(false, errors.New("down"))
		assert.Equal(t, http.StatusOK, call(newRouter(broken), "a"))
	})
}
