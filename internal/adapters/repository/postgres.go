package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/okian/racketrank/internal/domain/ranking"
	"github.com/okian/racketrank/pkg/metrics"
)

const defaultProfilesTable = "profiles"

// querier is what PostgresStore needs from a Connection.
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// PostgresStore reads profiles from PostgreSQL.
type PostgresStore struct {
	db    querier
	table string
}

// NewPostgresStore creates a store over conn.
func NewPostgresStore(conn *Connection, opts ...Option) *PostgresStore {
	return newPostgresStore(conn, opts...)
}

func newPostgresStore(db querier, opts ...Option) *PostgresStore {
	s := &PostgresStore{db: db, table: defaultProfilesTable}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// column maps a filter field onto a column name. Only the enumerated
// fields are accepted so that the name can be placed in SQL text.
func column(f ranking.Field) (string, error) {
	switch f {
	case ranking.FieldRegion, ranking.FieldCity, ranking.FieldCountry:
		return string(f), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidField, f)
}

// likePattern turns a substring into an ILIKE pattern, escaping the
// pattern metacharacters it may contain.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func (s *PostgresStore) topRatedSQL(col string) string {
	return fmt.Sprintf(`
		SELECT id::text,
		       COALESCE(first_name, ''),
		       COALESCE(last_name, ''),
		       rating::float8,
		       COALESCE(region, ''),
		       COALESCE(city, ''),
		       COALESCE(country, ''),
		       COALESCE(avatar_url, '')
		FROM %s
		WHERE rating IS NOT NULL AND %s ILIKE ANY($1)
		ORDER BY rating DESC
		LIMIT $2
	`, pgx.Identifier{s.table}.Sanitize(), pgx.Identifier{col}.Sanitize())
}

// TopRated implements Store.
func (s *PostgresStore) TopRated(ctx context.Context, f ranking.Filter) (players []ranking.Player, err error) {
	if f.Limit <= 0 {
		return nil, ErrInvalidLimit
	}
	col, err := column(f.Field)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { recordQuery(f.Field, start, len(players), err) }()

	patterns := make([]string, len(f.Patterns))
	for i, p := range f.Patterns {
		patterns[i] = likePattern(p)
	}

	rows, err := s.db.Query(ctx, s.topRatedSQL(col), patterns, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("query top rated by %s: %w", col, err)
	}
	defer rows.Close()

	players = make([]ranking.Player, 0, f.Limit)
	for rows.Next() {
		var p ranking.Player
		var rating float64
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &rating, &p.Region, &p.City, &p.Country, &p.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		p.Rating = &rating
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read profile rows: %w", err)
	}
	return players, nil
}

// SampleLocations implements Store.
func (s *PostgresStore) SampleLocations(ctx context.Context, n int) ([]LocationSample, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT COALESCE(region, ''), COALESCE(city, ''), COALESCE(country, '')
		FROM %s
		WHERE rating IS NOT NULL
		LIMIT $1
	`, pgx.Identifier{s.table}.Sanitize()), n)
	if err != nil {
		return nil, fmt.Errorf("query location sample: %w", err)
	}
	defer rows.Close()

	var out []LocationSample
	for rows.Next() {
		var ls LocationSample
		if err := rows.Scan(&ls.Region, &ls.City, &ls.Country); err != nil {
			return nil, fmt.Errorf("scan location sample: %w", err)
		}
		out = append(out, ls)
	}
	return out, rows.Err()
}

func recordQuery(field ranking.Field, start time.Time, n int, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case n == 0:
		outcome = metrics.OutcomeEmpty
	}
	metrics.RecordStoreQuery(string(field), outcome, time.Since(start).Seconds())
}
