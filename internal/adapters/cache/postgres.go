package cache

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of a pgx pool (or repository.Connection) the
// PostgreSQL backend needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// PostgresBackend stores records in a table shaped as
// (cache_key TEXT PRIMARY KEY, payload JSONB, updated_at, expires_at).
type PostgresBackend struct {
	db        Querier
	loadSQL   string
	upsertSQL string
}

// NewPostgresBackend creates a backend over table.
func NewPostgresBackend(db Querier, table string) (*PostgresBackend, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	ident := pgx.Identifier{table}.Sanitize()

	return &PostgresBackend{
		db: db,
		loadSQL: fmt.Sprintf(`
			SELECT payload, updated_at, expires_at
			FROM %s
			WHERE cache_key = $1 AND expires_at > $2
		`, ident),
		upsertSQL: fmt.Sprintf(`
			INSERT INTO %s (cache_key, payload, updated_at, expires_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (cache_key) DO UPDATE SET
				payload = EXCLUDED.payload,
				updated_at = EXCLUDED.updated_at,
				expires_at = EXCLUDED.expires_at
		`, ident),
	}, nil
}

// Load implements Backend. Expired rows are filtered by the query itself.
func (p *PostgresBackend) Load(ctx context.Context, key string, now time.Time) (Record, bool, error) {
	var rec Record
	err := p.db.QueryRow(ctx, p.loadSQL, key, now).Scan(&rec.Payload, &rec.UpdatedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	return rec, true, nil
}

// Store implements Backend. Concurrent writers for one key are last-write-wins.
func (p *PostgresBackend) Store(ctx context.Context, key string, rec Record) error {
	_, err := p.db.Exec(ctx, p.upsertSQL, key, rec.Payload, rec.UpdatedAt, rec.ExpiresAt)
	return err
}
