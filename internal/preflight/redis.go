package preflight

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAddr joins REDIS_HOST and REDIS_PORT, defaulting the port to 6379.
func RedisAddr(host, port string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("invalid redis config: REDIS_HOST is required")
	}
	if port == "" {
		port = "6379"
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("invalid redis config: bad port %q", port)
	}
	return net.JoinHostPort(host, port), nil
}

// CheckRedis sends PING to the Redis server at addr.
func CheckRedis(ctx context.Context, addr string) error {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 3 * time.Second,
		MaxRetries:  -1,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return nil
}
