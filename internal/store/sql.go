package store

import (
	"context"
	"errors"

	"github.com/n0roo/filiere-kit/internal/db"
)

// DefaultDocumentName is the row name used when none is configured. It
// matches the gist file name of the remote store.
const DefaultDocumentName = "filieres_data.json"

// SQLBlob stores the document as one row of a local SQLite or DuckDB
// documents table.
type SQLBlob struct {
	database db.Database
	name     string
}

// NewSQLBlob returns a blob over the row called name.
func NewSQLBlob(database db.Database, name string) *SQLBlob {
	if name == "" {
		name = DefaultDocumentName
	}
	return &SQLBlob{database: database, name: name}
}

func (s *SQLBlob) Name() string { return "sql" }

func (s *SQLBlob) Read(ctx context.Context) ([]byte, error) {
	data, err := s.database.ReadDocument(ctx, s.name)
	if errors.Is(err, db.ErrNoDocument) {
		return nil, &StatusError{Op: "read", Backend: s.Name(), StatusCode: 404, Body: s.name, Err: err}
	}
	return data, err
}

func (s *SQLBlob) Write(ctx context.Context, data []byte) error {
	return s.database.WriteDocument(ctx, s.name, data)
}
