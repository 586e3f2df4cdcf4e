package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS navigation_journal (
	id          UUID PRIMARY KEY,
	session_id  UUID NOT NULL,
	kind        TEXT NOT NULL,
	destination TEXT NOT NULL DEFAULT '',
	step_index  INTEGER NOT NULL DEFAULT 0,
	detail      TEXT NOT NULL DEFAULT '',
	at          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS navigation_journal_at_idx ON navigation_journal (at DESC);
`

// Postgres stores the journal in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to url and creates the journal table if needed.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("journal: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	return NewPostgres(pool), nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Record inserts e.
func (p *Postgres) Record(ctx context.Context, e Entry) error {
	e = Stamp(e)
	query := `
		INSERT INTO navigation_journal (id, session_id, kind, destination, step_index, detail, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := p.pool.Exec(ctx, query,
		e.ID, e.SessionID, string(e.Kind), e.Destination, e.StepIndex, e.Detail, e.At)
	if err != nil {
		return fmt.Errorf("journal: insert entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (p *Postgres) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, session_id, kind, destination, step_index, detail, at
		FROM navigation_journal
		ORDER BY at DESC
		LIMIT $1
	`
	rows, err := p.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &e.Destination, &e.StepIndex, &e.Detail, &e.At); err != nil {
			return nil, fmt.Errorf("journal: scan entry: %w", err)
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: read entries: %w", err)
	}
	return out, nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

var _ Journal = (*Postgres)(nil)
