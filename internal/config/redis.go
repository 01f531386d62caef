package config

// Redis backs two optional extras on the public event listing surface:
// the shared token-bucket rate limiter and the whole-response cache.
// Neither is required for correctness, so when the server cannot reach
// Redis at startup both are simply disabled.

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisAddr resolves the server address. REDIS_HOST/REDIS_PORT win over
// the REDIS_ADDR shorthand; with nothing set a local instance is
// assumed.
func redisAddr() string {
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		return host + ":" + port
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// NewRedisClient builds a client from REDIS_* environment variables
// (REDIS_PASSWORD, REDIS_DB, REDIS_TLS) and pings it with a short
// timeout. It returns nil when the ping fails; callers treat nil as
// "run without the listing cache and rate limiter".
func NewRedisClient() *redis.Client {
	dbNum := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			dbNum = n
		}
	}
	var tlsConf *tls.Config
	if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}

	client := redis.NewClient(&redis.Options{
		Addr:      redisAddr(),
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        dbNum,
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
