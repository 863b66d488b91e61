package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Lutefd/exchange-symbols/internal/model"
	_ "github.com/lib/pq"
)

const createLogsTable = `
	CREATE TABLE IF NOT EXISTS logs (
		id UUID NOT NULL,
		level VARCHAR(10) NOT NULL,
		message TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		source VARCHAR(64) NOT NULL,
		PRIMARY KEY (id, timestamp)
	) PARTITION BY RANGE (timestamp)
`

var openDB = sql.Open

type PostgresLogRepository struct {
	db *sql.DB
}

// NewPostgresLogRepository opens connURL unless db is supplied, then makes
// sure the partitioned logs table exists. A supplied db stays owned by the
// caller on failure.
func NewPostgresLogRepository(ctx context.Context, connURL string, db *sql.DB) (*PostgresLogRepository, error) {
	opened := db == nil
	if opened {
		var err error
		db, err = openDB("postgres", connURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, createLogsTable); err != nil {
		if opened {
			db.Close()
		}
		return nil, fmt.Errorf("failed to create logs table: %w", err)
	}

	return &PostgresLogRepository{db: db}, nil
}

func (r *PostgresLogRepository) SaveLog(ctx context.Context, log model.Log) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO logs (id, level, message, timestamp, source)
		VALUES ($1, $2, $3, $4, $5)
	`, log.ID, log.Level, log.Message, log.Timestamp, log.Source)
	if err != nil {
		return fmt.Errorf("failed to save log: %w", err)
	}
	return nil
}

func PartitionName(month time.Time) string {
	return fmt.Sprintf("logs_y%04dm%02d", month.Year(), month.Month())
}

func (r *PostgresLogRepository) CreatePartition(ctx context.Context, month time.Time) error {
	partitionName := PartitionName(month)
	startDate := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, 0)

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s PARTITION OF logs
		FOR VALUES FROM ('%s') TO ('%s')
	`, partitionName, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	_, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create partition %s: %w", partitionName, err)
	}

	return nil
}

func (r *PostgresLogRepository) Close() error {
	return r.db.Close()
}
