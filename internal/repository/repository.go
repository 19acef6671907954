// Package repository is the only entry point presentation code uses to read
// and write the dashboard document.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/n0roo/filiere-kit/internal/document"
	"github.com/n0roo/filiere-kit/internal/schema"
	"github.com/n0roo/filiere-kit/internal/store"
)

// LoadError reports a failed Load. No partial document accompanies it.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("chargement du document impossible: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Status returns the backend HTTP status behind the failure, or 0.
func (e *LoadError) Status() int { return statusOf(e.Err) }

// SaveError reports a failed Save. The stored document is unchanged as far
// as the caller can tell.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("enregistrement du document impossible: %v", e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Status returns the backend HTTP status behind the failure, or 0.
func (e *SaveError) Status() int { return statusOf(e.Err) }

func statusOf(err error) int {
	var se *store.StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Store is the part of store.Client the repository needs.
type Store interface {
	FetchDocument(ctx context.Context) (*document.Raw, error)
	SaveDocument(ctx context.Context, doc *document.Document) error
}

// Repository loads migrated documents and saves them back whole.
type Repository struct {
	store  Store
	logger *zap.Logger
}

// New creates a repository over s. A nil logger is replaced by a no-op one.
func New(s Store, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{store: s, logger: logger}
}

// Load fetches the document and brings every filière up to the current
// schema. Migration happens in memory only; nothing is written back.
func (r *Repository) Load(ctx context.Context) (*document.Document, error) {
	raw, err := r.store.FetchDocument(ctx)
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	schema.MigrateAll(raw.Filieres)

	doc, err := document.FromRaw(raw)
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	r.logger.Debug("document loaded", zap.Int("filieres", len(doc.Filieres)))
	return doc, nil
}

// Save writes doc verbatim. It does not migrate or validate.
func (r *Repository) Save(ctx context.Context, doc *document.Document) error {
	if doc == nil {
		return &SaveError{Err: errors.New("document vide")}
	}
	if err := r.store.SaveDocument(ctx, doc); err != nil {
		return &SaveError{Err: err}
	}
	return nil
}

// Update runs the whole load, mutate and save cycle. fn mutates the loaded
// document in place; returning an error aborts without saving.
func (r *Repository) Update(ctx context.Context, fn func(*document.Document) error) (*document.Document, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := r.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
