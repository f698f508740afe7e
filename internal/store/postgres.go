package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/livepolls/polling-service/internal/models"
)

// ErrNotFound is returned when a referenced poll or option does not exist.
var ErrNotFound = errors.New("not found")

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the durable system of record for polls and vote counters.
// All counter mutation goes through IncrementVote; there is no decrement.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// CreatePoll inserts a poll and its options in one transaction and returns
// the generated poll id.
func (p *PostgresStore) CreatePoll(ctx context.Context, title string, options []string) (string, error) {
	if title == "" || len(options) == 0 {
		return "", errors.New("title and options required")
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	pollID := uuid.New().String()
	if _, err := tx.Exec(ctx, `
		INSERT INTO polls(id, title) VALUES ($1, $2)
	`, pollID, title); err != nil {
		return "", err
	}

	for _, text := range options {
		if _, err := tx.Exec(ctx, `
			INSERT INTO poll_options(id, poll_id, option_text) VALUES ($1, $2, $3)
		`, uuid.New().String(), pollID, text); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return pollID, nil
}

// IncrementVote applies the counter update as a single atomic statement so
// concurrent aggregator partitions can never lose an update. Returns the new
// count, or ErrNotFound when the option does not exist.
func (p *PostgresStore) IncrementVote(ctx context.Context, optionID string) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx, `
		UPDATE poll_options
		SET vote_count = vote_count + 1
		WHERE id = $1
		RETURNING vote_count
	`, optionID).Scan(&count)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("option %s: %w", optionID, ErrNotFound)
	}
	return count, err
}

// PollSnapshot returns the current options of a poll ordered by vote count
// descending, id as a deterministic tie-break. Always a fresh read; snapshots
// are never cached.
func (p *PostgresStore) PollSnapshot(ctx context.Context, pollID string) ([]models.OptionResult, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, option_text, vote_count
		FROM poll_options
		WHERE poll_id = $1
		ORDER BY vote_count DESC, id
	`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.OptionResult
	for rows.Next() {
		var r models.OptionResult
		if err := rows.Scan(&r.ID, &r.OptionText, &r.VoteCount); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Leaderboard returns the top options across all polls, vote count descending.
func (p *PostgresStore) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT p.title, po.option_text, po.vote_count
		FROM poll_options po
		JOIN polls p ON po.poll_id = p.id
		ORDER BY po.vote_count DESC, po.id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Title, &e.OptionText, &e.VoteCount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
