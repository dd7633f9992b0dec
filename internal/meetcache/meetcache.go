// Package meetcache caches completed meeting/heatmap searches in Redis, so
// an identical repeated query (same participant origins, start time, and
// mode) skips the search entirely.
package meetcache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/passbi/meetpoint/internal/meeting"
	"github.com/passbi/meetpoint/internal/models"
)

var (
	client     *redis.Client
	clientOnce sync.Once
	clientErr  error
)

// Config holds Redis configuration for the result cache.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
	MutexTTL time.Duration
}

// LoadConfigFromEnv loads Redis configuration from environment variables.
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("MEETCACHE_REDIS_PORT", "6379"))
	db, _ := strconv.Atoi(getEnv("MEETCACHE_REDIS_DB", "0"))
	ttl, _ := time.ParseDuration(getEnv("MEETCACHE_TTL", "10m"))
	mutexTTL, _ := time.ParseDuration(getEnv("MEETCACHE_MUTEX_TTL", "5s"))

	return &Config{
		Host:     getEnv("MEETCACHE_REDIS_HOST", "localhost"),
		Port:     port,
		Password: getEnv("MEETCACHE_REDIS_PASSWORD", ""),
		DB:       db,
		TTL:      ttl,
		MutexTTL: mutexTTL,
	}
}

// GetClient returns the global Redis client (singleton pattern).
func GetClient() (*redis.Client, error) {
	clientOnce.Do(func() {
		cfg := LoadConfigFromEnv()

		opts := &redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		}
		if getEnv("MEETCACHE_REDIS_TLS_ENABLED", "false") == "true" {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}

		client = redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			clientErr = fmt.Errorf("failed to connect to Redis: %w", err)
			return
		}
	})
	return client, clientErr
}

// Close closes the global Redis client.
func Close() {
	if client != nil {
		client.Close()
	}
}

// Query identifies a meeting/heatmap search for cache-key purposes: the
// sorted set of participant origins, the start time, and the mode.
type Query struct {
	Mode    string // "meet" or "heatmap"
	T0      int
	Origins []meeting.Origin
}

// Key generates a deterministic cache key for a Query.
func Key(q Query) string {
	origins := make([]string, len(q.Origins))
	for i, o := range q.Origins {
		if o.IsAddress {
			origins[i] = fmt.Sprintf("a:%.6f,%.6f", o.Lat, o.Lon)
		} else {
			origins[i] = fmt.Sprintf("s:%s", o.Query)
		}
	}
	sort.Strings(origins)

	data := fmt.Sprintf("%s|%d|%v", q.Mode, q.T0, origins)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("meet:%x", hash[:12])
}

// LockKey generates the distributed-lock key for a cache key.
func LockKey(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

// GetMeeting retrieves a cached meeting response, or nil on a cache miss.
func GetMeeting(ctx context.Context, key string) (*models.MeetResponse, error) {
	c, err := GetClient()
	if err != nil {
		return nil, err
	}
	data, err := c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result models.MeetResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached meeting result: %w", err)
	}
	return &result, nil
}

// SetMeeting caches a meeting response.
func SetMeeting(ctx context.Context, key string, result *models.MeetResponse, ttl time.Duration) error {
	c, err := GetClient()
	if err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal meeting result: %w", err)
	}
	return c.Set(ctx, key, data, ttl).Err()
}

// WaitForMeeting waits for a query's lock to be released and then retrieves
// the result the lock holder computed, so a concurrent duplicate query
// reuses that result instead of running its own search.
func WaitForMeeting(ctx context.Context, key string, maxWait time.Duration) (*models.MeetResponse, error) {
	c, err := GetClient()
	if err != nil {
		return nil, err
	}
	lockKey := LockKey(key)
	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		exists, err := c.Exists(ctx, lockKey).Result()
		if err != nil {
			return nil, err
		}
		if exists == 0 {
			return GetMeeting(ctx, key)
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil, fmt.Errorf("timeout waiting for lock")
}

// GetHeatmap retrieves a cached heatmap, or nil on a cache miss.
func GetHeatmap(ctx context.Context, key string) (map[string]models.HeatmapEntry, error) {
	c, err := GetClient()
	if err != nil {
		return nil, err
	}
	data, err := c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result map[string]models.HeatmapEntry
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached heatmap: %w", err)
	}
	return result, nil
}

// SetHeatmap caches a heatmap result.
func SetHeatmap(ctx context.Context, key string, result map[string]models.HeatmapEntry, ttl time.Duration) error {
	c, err := GetClient()
	if err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal heatmap: %w", err)
	}
	return c.Set(ctx, key, data, ttl).Err()
}

// WaitForHeatmap waits for a query's lock to be released and then retrieves
// the heatmap the lock holder computed.
func WaitForHeatmap(ctx context.Context, key string, maxWait time.Duration) (map[string]models.HeatmapEntry, error) {
	c, err := GetClient()
	if err != nil {
		return nil, err
	}
	lockKey := LockKey(key)
	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		exists, err := c.Exists(ctx, lockKey).Result()
		if err != nil {
			return nil, err
		}
		if exists == 0 {
			return GetHeatmap(ctx, key)
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil, fmt.Errorf("timeout waiting for lock")
}

// AcquireLock attempts to acquire a distributed lock, so concurrent
// identical queries don't all run the search at once.
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c, err := GetClient()
	if err != nil {
		return false, err
	}
	return c.SetNX(ctx, key, "1", ttl).Result()
}

// ReleaseLock releases a distributed lock.
func ReleaseLock(ctx context.Context, key string) error {
	c, err := GetClient()
	if err != nil {
		return err
	}
	return c.Del(ctx, key).Err()
}

// HealthCheck performs a health check on the Redis connection.
func HealthCheck(ctx context.Context) error {
	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("Redis client not initialized: %w", err)
	}
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
