package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const migrationsTable = "schema_migrations"

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

const migration001Profiles = `
CREATE TABLE IF NOT EXISTS profiles (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    first_name TEXT,
    last_name TEXT,
    rating DOUBLE PRECISION,
    region TEXT,
    city TEXT,
    country TEXT,
    avatar_url TEXT,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Leaderboards only ever read rated rows, best first.
CREATE INDEX IF NOT EXISTS idx_profiles_rating ON profiles(rating DESC) WHERE rating IS NOT NULL;
`

const cacheTableTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
    cache_key TEXT PRIMARY KEY,
    payload JSONB NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
    expires_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_expires_at ON %[1]s(expires_at);
`

// Cache table names created by the migrations.
const (
	GeocodeCacheTable      = "geocode_cache"
	RankingsCacheTable     = "country_rankings_cache"
	CountryHintsCacheTable = "country_hint_cache"
)

// Migrations returns the embedded schema, oldest first.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_profiles", UpSQL: migration001Profiles},
		{Version: 2, Name: "create_geocode_cache", UpSQL: fmt.Sprintf(cacheTableTemplate, GeocodeCacheTable)},
		{Version: 3, Name: "create_country_rankings_cache", UpSQL: fmt.Sprintf(cacheTableTemplate, RankingsCacheTable)},
		{Version: 4, Name: "create_country_hint_cache", UpSQL: fmt.Sprintf(cacheTableTemplate, CountryHintsCacheTable)},
	}
}

// Migrator applies pending migrations and records them in schema_migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a migrator with the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, migrations: Migrations()}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]bool, error) {
	rows, err := m.conn.Query(ctx, "SELECT version FROM "+migrationsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		done[version] = true
	}
	return done, rows.Err()
}

// Migrate applies every pending migration in its own transaction and
// returns how many were applied.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}

	done, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range m.migrations {
		if done[mig.Version] {
			continue
		}
		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO "+migrationsTable+" (version, name) VALUES ($1, $2)", mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("%w: version %d (%s): %v", ErrMigrationFailed, mig.Version, mig.Name, err)
		}
		count++
	}
	return count, nil
}
