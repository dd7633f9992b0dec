// Package ingestlog persists an audit trail of schedule-index builds to
// Postgres: one row per run of cmd/ingest, recording how many stops, trips,
// and walk edges the build produced and how it ended. It is the engine's
// own build lifecycle, not a GTFS-to-SQL import — the schedule index itself
// stays in memory.
package ingestlog

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/passbi/meetpoint/internal/schedule"
)

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error
)

// Config holds database configuration for the ingestion audit log.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MinConns int32
	MaxConns int32
}

// LoadConfigFromEnv loads database configuration from environment variables.
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("INGESTLOG_DB_PORT", "5432"))
	minConns, _ := strconv.Atoi(getEnv("INGESTLOG_DB_MIN_CONNS", "2"))
	maxConns, _ := strconv.Atoi(getEnv("INGESTLOG_DB_MAX_CONNS", "5"))

	return &Config{
		Host:     getEnv("INGESTLOG_DB_HOST", "localhost"),
		Port:     port,
		Database: getEnv("INGESTLOG_DB_NAME", "meetpoint"),
		User:     getEnv("INGESTLOG_DB_USER", "postgres"),
		Password: getEnv("INGESTLOG_DB_PASSWORD", ""),
		SSLMode:  getEnv("INGESTLOG_DB_SSLMODE", "disable"),
		MinConns: int32(minConns),
		MaxConns: int32(maxConns),
	}
}

// GetPool returns the global connection pool (singleton pattern).
func GetPool() (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		pool, poolErr = initPool(LoadConfigFromEnv())
	})
	return pool, poolErr
}

func initPool(cfg *Config) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return p, nil
}

// Close closes the global connection pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// Run is one audit row: a single cmd/ingest invocation building a schedule
// index from a GTFS source directory.
type Run struct {
	ID          uuid.UUID
	SourcePath  string
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      string // "running", "success", "failed"
	Stats       schedule.Stats
	ErrorMsg    string
}

// Start inserts a "running" audit row and returns its id.
func Start(ctx context.Context, pool *pgxpool.Pool, sourcePath string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO ingest_run (id, source_path, status, started_at)
		VALUES ($1, $2, 'running', NOW())
	`, id, sourcePath)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create ingest run: %w", err)
	}
	return id, nil
}

// Finish records the outcome of an ingest run.
func Finish(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, stats schedule.Stats, runErr error) error {
	status := "success"
	message := successMessage(stats)
	if runErr != nil {
		status = "failed"
		message = runErr.Error()
	}

	_, err := pool.Exec(ctx, `
		UPDATE ingest_run
		SET completed_at = NOW(),
		    status = $2,
		    message = $3,
		    stops_count = $4,
		    stations_count = $5,
		    trips_count = $6,
		    routes_count = $7,
		    walk_edges_count = $8
		WHERE id = $1
	`, id, status, message, stats.Stops, stats.Stations, stats.Trips, stats.Routes, stats.WalkEdges)
	if err != nil {
		return fmt.Errorf("failed to update ingest run: %w", err)
	}
	return nil
}

func successMessage(stats schedule.Stats) string {
	return fmt.Sprintf("indexed %d stops, %d stations, %d trips, %d routes, %d walk edges",
		stats.Stops, stats.Stations, stats.Trips, stats.Routes, stats.WalkEdges)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
