package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = 2

// Tables de base (v1)
const schemaBase = `
-- Documents JSON complets, un par nom
CREATE TABLE IF NOT EXISTS documents (
    name TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Métadonnées
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// DB wraps sql.DB with helper methods
type DB struct {
	*sql.DB
	path string
}

// Open opens or creates the database
func Open(path string) (*DB, error) {
	// Création du répertoire
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("création du répertoire impossible: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("ouverture de la base impossible: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connexion à la base impossible: %w", err)
	}

	d := &DB{DB: db, path: path}

	if err := d.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialisation du schéma impossible: %w", err)
	}

	return d, nil
}

// Init initializes the database schema
func (d *DB) Init() error {
	if _, err := d.Exec(schemaBase); err != nil {
		return fmt.Errorf("application du schéma de base impossible: %w", err)
	}

	if err := d.migrate(); err != nil {
		return fmt.Errorf("migration impossible: %w", err)
	}

	_, err := d.Exec(`INSERT OR REPLACE INTO metadata (key, value, updated_at) VALUES ('schema_version', ?, CURRENT_TIMESTAMP)`, schemaVersion)
	if err != nil {
		return fmt.Errorf("enregistrement de la version impossible: %w", err)
	}

	return nil
}

// migrate runs database migrations
func (d *DB) migrate() error {
	currentVersion, _ := d.GetVersion()

	// v1 -> v2: taille du contenu, pour l'inventaire
	if currentVersion < 2 {
		// Erreur ignorée si la colonne existe déjà
		d.Exec(`ALTER TABLE documents ADD COLUMN size INTEGER DEFAULT 0`)
	}

	return nil
}

// GetVersion returns current schema version
func (d *DB) GetVersion() (int, error) {
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

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}
