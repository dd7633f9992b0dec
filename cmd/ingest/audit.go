package main

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/passbi/meetpoint/internal/ingestlog"
	"github.com/passbi/meetpoint/internal/schedule"
)

// auditPool connects to the ingestion audit log's database. A connection
// failure here is not fatal: the schedule index is the point of this
// command, and the audit trail is best-effort.
func auditPool(skip bool) *pgxpool.Pool {
	if skip {
		return nil
	}
	pool, err := ingestlog.GetPool()
	if err != nil {
		log.Printf("audit log unavailable, continuing without it: %v", err)
		return nil
	}
	return pool
}

func auditStart(ctx context.Context, pool *pgxpool.Pool, gtfsDir string) uuid.UUID {
	if pool == nil {
		return uuid.Nil
	}
	id, err := ingestlog.Start(ctx, pool, gtfsDir)
	if err != nil {
		log.Printf("failed to record ingest run start: %v", err)
		return uuid.Nil
	}
	return id
}

func auditFinish(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, stats schedule.Stats, runErr error) {
	if pool == nil || id == uuid.Nil {
		return
	}
	if err := ingestlog.Finish(ctx, pool, id, stats, runErr); err != nil {
		log.Printf("failed to record ingest run outcome: %v", err)
	}
}
