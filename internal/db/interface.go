package db

import (
	"context"
	"database/sql"
	"os"
)

// Database is the common interface for SQLite and DuckDB
type Database interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Close() error
	Path() string
	GetVersion() (int, error)
	GetDB() *sql.DB

	ReadDocument(ctx context.Context, name string) ([]byte, error)
	WriteDocument(ctx context.Context, name string, content []byte) error
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)
}

// Ensure both types implement Database interface
var _ Database = (*DB)(nil)
var _ Database = (*DuckDB)(nil)

// GetDB returns the underlying sql.DB for DB (SQLite)
func (d *DB) GetDB() *sql.DB {
	return d.DB
}

// GetDB returns the underlying sql.DB for DuckDB
func (d *DuckDB) GetDB() *sql.DB {
	return d.DB
}

// DBType represents the database type
type DBType string

const (
	TypeSQLite DBType = "sqlite"
	TypeDuckDB DBType = "duckdb"
)

// EnvDBType selects the local database engine.
const EnvDBType = "FILIERE_DB_TYPE"

// OpenAuto opens the appropriate database based on environment or settings
func OpenAuto(basePath string) (Database, DBType, error) {
	return OpenType(basePath, DBType(os.Getenv(EnvDBType)))
}

// OpenType opens basePath with the requested engine. An empty type picks
// DuckDB only when a DuckDB file exists and no SQLite file does.
func OpenType(basePath string, dbType DBType) (Database, DBType, error) {
	// DuckDB demandé; en cas d'échec on se replie sur SQLite
	if dbType == TypeDuckDB {
		duckdbPath := GetDuckDBPath(basePath)
		db, err := OpenDuckDB(duckdbPath)
		if err != nil {
			sqliteDB, sqliteErr := Open(basePath)
			if sqliteErr != nil {
				return nil, "", err
			}
			return sqliteDB, TypeSQLite, nil
		}
		return db, TypeDuckDB, nil
	}

	if dbType == "" {
		duckdbPath := GetDuckDBPath(basePath)
		if _, err := os.Stat(duckdbPath); err == nil {
			if _, err := os.Stat(basePath); os.IsNotExist(err) {
				db, err := OpenDuckDB(duckdbPath)
				if err == nil {
					return db, TypeDuckDB, nil
				}
			}
		}
	}

	// Par défaut: SQLite
	db, err := Open(basePath)
	if err != nil {
		return nil, "", err
	}
	return db, TypeSQLite, nil
}
