package repository

import "regexp"

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Option applies a configuration option to the PostgresStore.
type Option func(*PostgresStore)

// WithProfilesTable reads profiles from another table. Names that are not
// plain lower-case identifiers are ignored.
func WithProfilesTable(table string) Option {
	return func(s *PostgresStore) {
		if identPattern.MatchString(table) {
			s.table = table
		}
	}
}
