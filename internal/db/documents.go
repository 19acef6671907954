package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoDocument is returned when no document is stored under a name.
var ErrNoDocument = errors.New("db: document not found")

// DocumentInfo describes one stored document.
type DocumentInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Both engines accept the same statements for the documents table.
const (
	selectDocumentSQL = `SELECT content FROM documents WHERE name = ?`
	upsertDocumentSQL = `
		INSERT INTO documents (name, content, size, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE SET
			content = excluded.content,
			size = excluded.size,
			updated_at = excluded.updated_at`
	listDocumentsSQL = `SELECT name, size, updated_at FROM documents ORDER BY name`
)

func readDocument(ctx context.Context, db *sql.DB, name string) ([]byte, error) {
	var content string
	err := db.QueryRowContext(ctx, selectDocumentSQL, name).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNoDocument, name)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture du document %s impossible: %w", name, err)
	}
	return []byte(content), nil
}

func writeDocument(ctx context.Context, db *sql.DB, name string, content []byte) error {
	if _, err := db.ExecContext(ctx, upsertDocumentSQL, name, string(content), len(content)); err != nil {
		return fmt.Errorf("écriture du document %s impossible: %w", name, err)
	}
	return nil
}

func listDocuments(ctx context.Context, db *sql.DB) ([]DocumentInfo, error) {
	rows, err := db.QueryContext(ctx, listDocumentsSQL)
	if err != nil {
		return nil, fmt.Errorf("liste des documents impossible: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var info DocumentInfo
		var size sql.NullInt64
		if err := rows.Scan(&info.Name, &size, &info.UpdatedAt); err != nil {
			return nil, err
		}
		info.Size = size.Int64
		docs = append(docs, info)
	}
	return docs, rows.Err()
}

// ReadDocument returns the content stored under name.
func (d *DB) ReadDocument(ctx context.Context, name string) ([]byte, error) {
	return readDocument(ctx, d.DB, name)
}

// WriteDocument replaces the content stored under name.
func (d *DB) WriteDocument(ctx context.Context, name string, content []byte) error {
	return writeDocument(ctx, d.DB, name, content)
}

// ListDocuments returns every stored document, ordered by name.
func (d *DB) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	return listDocuments(ctx, d.DB)
}

// ReadDocument returns the content stored under name.
func (d *DuckDB) ReadDocument(ctx context.Context, name string) ([]byte, error) {
	return readDocument(ctx, d.DB, name)
}

// WriteDocument replaces the content stored under name.
func (d *DuckDB) WriteDocument(ctx context.Context, name string, content []byte) error {
	return writeDocument(ctx, d.DB, name, content)
}

// ListDocuments returns every stored document, ordered by name.
func (d *DuckDB) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	return listDocuments(ctx, d.DB)
}
