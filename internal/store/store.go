// Package store provides the hierarchical result store shared by all
// pipeline stages. Leaves are addressed by deterministic group paths
// (matrix combination, sample, chromosome, gene) and hold compressed
// numeric arrays plus scalar attributes, backed by DuckDB.
package store

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding pipeline results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens an existing store for reading, creating the schema if the
// file is fresh. Use an empty string for an in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Create opens a fresh store for writing. An existing file at path is
// truncated; each pipeline stage owns its output file exclusively.
func Create(path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
		if _, err := os.Stat(path); err == nil {
			if err := os.Remove(path); err != nil {
				return nil, fmt.Errorf("remove existing store: %w", err)
			}
		}
	}
	return Open(path)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// IsStoreFile reports whether path looks like a DuckDB store. Used to
// decide whether the target argument is a store or a flat region file.
// The DuckDB main header carries the magic bytes "DUCK" after the 8-byte
// block checksum.
func IsStoreFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := f.Read(header); err != nil {
		return false
	}
	return bytes.Equal(header[8:12], []byte("DUCK"))
}

// ensureSchema creates tables if they don't exist. A single schema covers
// every stage; each output file only ever populates its own tables.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
			sample VARCHAR,
			chromosome VARCHAR,
			gene VARCHAR,
			sum_of_interactions DOUBLE,
			record_keys BLOB,
			start_list BLOB,
			end_list BLOB,
			interaction_list BLOB,
			relative_distance_list BLOB,
			raw_target_list BLOB,
			PRIMARY KEY (sample, chromosome, gene)
		)`,
		`CREATE TABLE IF NOT EXISTS interaction_genes (
			sample VARCHAR,
			gene VARCHAR,
			chromosome VARCHAR,
			PRIMARY KEY (sample, gene)
		)`,
		`CREATE TABLE IF NOT EXISTS targets (
			matrix1 VARCHAR,
			matrix2 VARCHAR,
			gene VARCHAR,
			chromosome VARCHAR,
			start_list BLOB,
			end_list BLOB,
			PRIMARY KEY (matrix1, matrix2, gene)
		)`,
		`CREATE TABLE IF NOT EXISTS aggregated (
			combination VARCHAR,
			sample VARCHAR,
			chromosome VARCHAR,
			gene VARCHAR,
			sum_of_interactions DOUBLE,
			record_keys BLOB,
			start_list BLOB,
			end_list BLOB,
			relative_distance_list BLOB,
			raw_target_list BLOB,
			PRIMARY KEY (combination, sample, chromosome, gene)
		)`,
		`CREATE TABLE IF NOT EXISTS aggregated_genes (
			combination VARCHAR,
			sample VARCHAR,
			gene VARCHAR,
			chromosome VARCHAR,
			PRIMARY KEY (combination, sample, gene)
		)`,
		`CREATE TABLE IF NOT EXISTS differential (
			matrix1 VARCHAR,
			matrix2 VARCHAR,
			chromosome VARCHAR,
			gene VARCHAR,
			bucket VARCHAR,
			sum_of_interactions_1 DOUBLE,
			sum_of_interactions_2 DOUBLE,
			start_list BLOB,
			end_list BLOB,
			relative_distance_list BLOB,
			raw_target_list_1 BLOB,
			raw_target_list_2 BLOB,
			pvalue_list BLOB,
			PRIMARY KEY (matrix1, matrix2, chromosome, gene, bucket)
		)`,
		`CREATE TABLE IF NOT EXISTS attrs (
			name VARCHAR PRIMARY KEY,
			value DOUBLE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SetAttr writes a file-level scalar attribute such as alpha.
func (s *Store) SetAttr(name string, value float64) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO attrs (name, value) VALUES (?, ?)`, name, value)
	if err != nil {
		return fmt.Errorf("set attribute %s: %w", name, err)
	}
	return nil
}

// Attr reads a file-level scalar attribute.
func (s *Store) Attr(name string) (float64, error) {
	var v float64
	err := s.db.QueryRow(`SELECT value FROM attrs WHERE name=?`, name).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("attribute %s not set", name)
	}
	if err != nil {
		return 0, fmt.Errorf("read attribute %s: %w", name, err)
	}
	return v, nil
}

// GroupPath joins hierarchy keys into the deterministic group path used in
// error messages and exported file names.
func GroupPath(keys ...string) string {
	return strings.Join(keys, "/")
}

// stringColumn collects a single string column from a query.
func (s *Store) stringColumn(query string, args ...any) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
