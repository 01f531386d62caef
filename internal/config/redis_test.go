package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisAddr(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("REDIS_ADDR", "")
	assert.Equal(t, "localhost:6379", redisAddr())

	t.Setenv("REDIS_ADDR", "cache.internal:6380")
	assert.Equal(t, "cache.internal:6380", redisAddr())

	// Host/port pair wins over the shorthand.
	t.Setenv("REDIS_HOST", "redis-a")
	t.Setenv("REDIS_PORT", "7000")
	assert.Equal(t, "redis-a:7000", redisAddr())
}
