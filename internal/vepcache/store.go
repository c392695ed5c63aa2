// Package vepcache persists fetched VEP annotation rows in DuckDB so
// repeated runs over the same variants skip the network.
package vepcache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/andypohl/varona/internal/ensembl"
)

// Store manages a DuckDB connection holding cached VEP rows.
type Store struct {
	db   *sql.DB
	path string
}

var _ ensembl.RowStore = (*Store)(nil)

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates the vep_rows table if it doesn't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS vep_rows (
		assembly VARCHAR,
		chrom VARCHAR,
		pos BIGINT,
		ref VARCHAR,
		alt VARCHAR,
		gene_name VARCHAR,
		gene_id VARCHAR,
		variant_class VARCHAR,
		effect VARCHAR,
		transcript_id VARCHAR,
		PRIMARY KEY (assembly, chrom, pos, ref, alt, transcript_id)
	)`)
	return err
}
