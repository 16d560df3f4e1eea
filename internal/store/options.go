package store

import "strings"

// Opts holds configuration options for store backends.
type Opts struct {
	// DSN is the data source name: a file path for SQLite, a connection
	// URL for PostgreSQL.
	DSN string
}

// Option configures store options.
type Option func(*Opts)

// WithDSN sets the data source name for the store backend.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL DSNs
// use URL or key=value form; anything else is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
