// Package document defines the persisted dashboard document: the filière
// records, their events and the progress-state configuration.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/n0roo/filiere-kit/internal/schema"
)

// Top-level document keys.
const (
	KeyFilieres        = "filieres"
	KeyEtatsAvancement = "etats_avancement"
)

// Document is the root persisted object. It is always loaded and saved as a
// whole.
type Document struct {
	Filieres        map[string]*Filiere    `json:"filieres"`
	EtatsAvancement map[string]StateConfig `json:"etats_avancement"`
}

// Filiere is the tracked record of one support domain.
type Filiere struct {
	Nom                              string   `json:"nom"`
	Icon                             string   `json:"icon"`
	ReferentMetier                   string   `json:"referent_metier"`
	NombreReferentsDelegues          int      `json:"nombre_referents_delegues"`
	NombreCollaborateursSensibilises int      `json:"nombre_collaborateurs_sensibilises"`
	NombreCollaborateursTotal        int      `json:"nombre_collaborateurs_total"`
	FoppCount                        int      `json:"fopp_count"`
	EtatAvancement                   string   `json:"etat_avancement"`
	NiveauAutonomie                  string   `json:"niveau_autonomie"`
	Description                      string   `json:"description"`
	PointAttention                   string   `json:"point_attention"`
	UsagesPhares                     []string `json:"usages_phares"`
	Acces                            Acces    `json:"acces"`
	EvenementsRecents                []Event  `json:"evenements_recents"`
	ResponsablePoleData              []string `json:"responsable_pole_data"`

	// Extra holds keys outside the canonical schema, e.g. legacy
	// nombre_testeurs. They are written back untouched.
	Extra map[string]json.RawMessage `json:"-"`
}

// Acces counts the tool accesses granted to a filière.
type Acces struct {
	LaposteGPT      int `json:"laposte_gpt"`
	CopilotLicences int `json:"copilot_licences"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Event is one entry of the recent-events list.
type Event struct {
	Date        string `json:"date"`
	Titre       string `json:"titre"`
	Description string `json:"description"`
}

// StateConfig describes one progress state. Only Label is used outside of
// rendering.
type StateConfig struct {
	Label          string `json:"label"`
	Couleur        string `json:"couleur,omitempty"`
	CouleurBordure string `json:"couleur_bordure,omitempty"`
	Description    string `json:"description,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// New returns an empty document.
func New() *Document {
	return &Document{
		Filieres:        make(map[string]*Filiere),
		EtatsAvancement: make(map[string]StateConfig),
	}
}

// Keys returns the filière keys in lexical order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.Filieres))
	for k := range d.Filieres {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the filière stored under key.
func (d *Document) Get(key string) (*Filiere, bool) {
	f, ok := d.Filieres[key]
	return f, ok && f != nil
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{
		Filieres:        make(map[string]*Filiere, len(d.Filieres)),
		EtatsAvancement: make(map[string]StateConfig, len(d.EtatsAvancement)),
	}
	for k, f := range d.Filieres {
		if f == nil {
			out.Filieres[k] = nil
			continue
		}
		out.Filieres[k] = f.Clone()
	}
	for k, s := range d.EtatsAvancement {
		s.Extra = cloneExtra(s.Extra)
		out.EtatsAvancement[k] = s
	}
	return out
}

// Clone returns a deep copy of f.
func (f *Filiere) Clone() *Filiere {
	c := *f
	c.UsagesPhares = append([]string{}, f.UsagesPhares...)
	c.EvenementsRecents = append([]Event{}, f.EvenementsRecents...)
	c.ResponsablePoleData = append([]string{}, f.ResponsablePoleData...)
	c.Acces.Extra = cloneExtra(f.Acces.Extra)
	c.Extra = cloneExtra(f.Extra)
	return &c
}

// MarshalJSON always emits both top-level objects.
func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	p := plain(d)
	if p.Filieres == nil {
		p.Filieres = map[string]*Filiere{}
	}
	if p.EtatsAvancement == nil {
		p.EtatsAvancement = map[string]StateConfig{}
	}
	return marshal(p)
}

// UnmarshalJSON decodes a filière and keeps unknown keys in Extra.
func (f *Filiere) UnmarshalJSON(data []byte) error {
	type plain Filiere
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, schema.IsCanonical)
	if err != nil {
		return err
	}
	*f = Filiere(p)
	f.Extra = extra
	return nil
}

// MarshalJSON encodes a filière with its Extra keys. Nil lists are written
// as empty arrays.
func (f Filiere) MarshalJSON() ([]byte, error) {
	type plain Filiere
	p := plain(f)
	if p.UsagesPhares == nil {
		p.UsagesPhares = []string{}
	}
	if p.EvenementsRecents == nil {
		p.EvenementsRecents = []Event{}
	}
	if p.ResponsablePoleData == nil {
		p.ResponsablePoleData = []string{}
	}
	return withExtra(p, f.Extra)
}

var accesKnown = keySet(schema.KeyLaposteGPT, schema.KeyCopilotLicences)

// UnmarshalJSON decodes acces and keeps unknown sub-keys in Extra.
func (a *Acces) UnmarshalJSON(data []byte) error {
	type plain Acces
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, accesKnown)
	if err != nil {
		return err
	}
	*a = Acces(p)
	a.Extra = extra
	return nil
}

// MarshalJSON encodes acces with its Extra sub-keys.
func (a Acces) MarshalJSON() ([]byte, error) {
	type plain Acces
	return withExtra(plain(a), a.Extra)
}

var stateKnown = keySet("label", "couleur", "couleur_bordure", "description")

// UnmarshalJSON decodes a state and keeps unknown keys in Extra.
func (s *StateConfig) UnmarshalJSON(data []byte) error {
	type plain StateConfig
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, stateKnown)
	if err != nil {
		return err
	}
	*s = StateConfig(p)
	s.Extra = extra
	return nil
}

// MarshalJSON encodes a state with its Extra keys.
func (s StateConfig) MarshalJSON() ([]byte, error) {
	type plain StateConfig
	return withExtra(plain(s), s.Extra)
}

// Encode serialises d as indented JSON. Non-ASCII text and <, > and & are
// written as is.
func Encode(d *Document) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("document: encode nil document")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("document: encode: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses data as a Document. It does not migrate records; callers
// that read stored documents go through DecodeRaw, schema.MigrateAll and
// FromRaw instead.
func Decode(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("document: decode: %w", err)
	}
	if d.Filieres == nil {
		d.Filieres = make(map[string]*Filiere)
	}
	if d.EtatsAvancement == nil {
		d.EtatsAvancement = make(map[string]StateConfig)
	}
	return &d, nil
}
