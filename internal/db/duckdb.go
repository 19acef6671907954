package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// Version du schéma DuckDB
const duckDBSchemaVersion = 1

// Schéma DuckDB (équivalent SQLite v2)
const duckDBSchema = `
CREATE TABLE IF NOT EXISTS metadata (
    key VARCHAR PRIMARY KEY,
    value VARCHAR,
    updated_at TIMESTAMP DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
    name VARCHAR PRIMARY KEY,
    content VARCHAR NOT NULL,
    size BIGINT DEFAULT 0,
    updated_at TIMESTAMP DEFAULT now()
);
`

// DuckDB wraps a DuckDB connection pool.
type DuckDB struct {
	*sql.DB
	path string
}

// OpenDuckDB opens or creates a DuckDB database
func OpenDuckDB(path string) (*DuckDB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("création du répertoire impossible: %w", err)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("ouverture DuckDB impossible: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connexion DuckDB impossible: %w", err)
	}

	d := &DuckDB{DB: db, path: path}

	if err := d.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialisation du schéma impossible: %w", err)
	}

	return d, nil
}

// Init initializes the DuckDB schema
func (d *DuckDB) Init() error {
	if _, err := d.Exec(duckDBSchema); err != nil {
		return fmt.Errorf("application du schéma impossible: %w", err)
	}

	_, err := d.Exec(`
		INSERT INTO metadata (key, value, updated_at)
		VALUES ('schema_version', ?, now())
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = now()
	`, fmt.Sprint(duckDBSchemaVersion))
	if err != nil {
		return fmt.Errorf("enregistrement de la version impossible: %w", err)
	}

	return nil
}

// Path returns the database file path
func (d *DuckDB) Path() string {
	return d.path
}

// GetVersion returns current schema version
func (d *DuckDB) GetVersion() (int, error) {
	var version int
	err := d.QueryRow(`SELECT CAST(value AS INTEGER) FROM metadata WHERE key = 'schema_version'`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// GetDuckDBPath returns the DuckDB path for a given base path
func GetDuckDBPath(basePath string) string {
	return strings.TrimSuffix(basePath, ".db") + ".duckdb"
}
