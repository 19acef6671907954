package filiere

import (
	"errors"
	"fmt"
	"sort"

	"github.com/n0roo/filiere-kit/internal/document"
)

// ErrUnknownFiliere is returned for a key absent from the document.
var ErrUnknownFiliere = errors.New("filière inconnue")

// Entry pairs a filière with its key.
type Entry struct {
	Key     string            `json:"key"`
	Filiere *document.Filiere `json:"filiere"`
}

// Lookup returns the filière stored under key.
func Lookup(doc *document.Document, key string) (*document.Filiere, error) {
	f, ok := doc.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFiliere, key)
	}
	return f, nil
}

// Filter selects filières. Empty fields match everything.
type Filter struct {
	Etat     string
	Referent string
}

func (f Filter) match(rec *document.Filiere) bool {
	if f.Etat != "" && rec.EtatAvancement != f.Etat {
		return false
	}
	if f.Referent != "" && rec.ReferentMetier != f.Referent {
		return false
	}
	return true
}

// Select returns the matching filières sorted by key.
func Select(doc *document.Document, filter Filter) []Entry {
	var out []Entry
	for _, key := range doc.Keys() {
		rec := doc.Filieres[key]
		if rec == nil || !filter.match(rec) {
			continue
		}
		out = append(out, Entry{Key: key, Filiere: rec})
	}
	return out
}

// Referents returns the distinct non-empty référents, sorted.
func Referents(doc *document.Document) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range doc.Filieres {
		if f == nil || f.ReferentMetier == "" || seen[f.ReferentMetier] {
			continue
		}
		seen[f.ReferentMetier] = true
		out = append(out, f.ReferentMetier)
	}
	sort.Strings(out)
	return out
}
