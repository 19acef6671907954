package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Raw is a document as stored, before migration. Filière records are plain
// JSON objects so that missing fields can be told apart from zero values.
type Raw struct {
	Filieres        map[string]map[string]any
	EtatsAvancement map[string]json.RawMessage
}

// DecodeRaw parses a stored document. Either top-level key may be absent.
// Numbers are kept as json.Number so that values outside the schema are
// written back with their original literal.
func DecodeRaw(data []byte) (*Raw, error) {
	var payload struct {
		Filieres        map[string]map[string]any  `json:"filieres"`
		EtatsAvancement map[string]json.RawMessage `json:"etats_avancement"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("document: decode: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("document: decode: unexpected data after the document")
	}

	raw := &Raw{
		Filieres:        payload.Filieres,
		EtatsAvancement: payload.EtatsAvancement,
	}
	if raw.Filieres == nil {
		raw.Filieres = make(map[string]map[string]any)
	}
	if raw.EtatsAvancement == nil {
		raw.EtatsAvancement = make(map[string]json.RawMessage)
	}
	return raw, nil
}

// FromRaw converts a (normally migrated) raw document into its typed form.
// A record whose values do not fit the typed fields, such as a string
// fopp_count, is an error.
func FromRaw(raw *Raw) (*Document, error) {
	doc := New()

	for key, rec := range raw.Filieres {
		data, err := marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("document: filière %q: %w", key, err)
		}
		var f Filiere
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("document: filière %q: %w", key, err)
		}
		doc.Filieres[key] = &f
	}

	for key, data := range raw.EtatsAvancement {
		var s StateConfig
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("document: état %q: %w", key, err)
		}
		doc.EtatsAvancement[key] = s
	}

	return doc, nil
}
