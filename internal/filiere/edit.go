package filiere

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/n0roo/filiere-kit/internal/document"
	"github.com/n0roo/filiere-kit/internal/schema"
)

// DateLayout is the event date format.
const DateLayout = "2006-01-02"

// ValidationError rejects an edit before it reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewEvent builds an event from form input. An empty date means today.
// Title and description are required.
func NewEvent(now time.Time, date, titre, description string) (document.Event, error) {
	date = strings.TrimSpace(date)
	titre = strings.TrimSpace(titre)
	description = strings.TrimSpace(description)

	if date == "" {
		date = now.Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		return document.Event{}, &ValidationError{Field: "date", Reason: "format attendu AAAA-MM-JJ"}
	}
	if titre == "" {
		return document.Event{}, &ValidationError{Field: "titre", Reason: "obligatoire"}
	}
	if description == "" {
		return document.Event{}, &ValidationError{Field: "description", Reason: "obligatoire"}
	}
	return document.Event{Date: date, Titre: titre, Description: description}, nil
}

// AddEvent puts ev at the front of the recent events, keeping the list
// newest first.
func AddEvent(f *document.Filiere, ev document.Event) {
	events := make([]document.Event, 0, len(f.EvenementsRecents)+1)
	events = append(events, ev)
	f.EvenementsRecents = append(events, f.EvenementsRecents...)
}

// AccesPatch changes the access counters.
type AccesPatch struct {
	LaposteGPT      *int `json:"laposte_gpt,omitempty"`
	CopilotLicences *int `json:"copilot_licences,omitempty"`
}

// Patch is a partial edit of one filière. Nil fields are left unchanged;
// list fields replace the whole list.
type Patch struct {
	Nom                              *string           `json:"nom,omitempty"`
	Icon                             *string           `json:"icon,omitempty"`
	ReferentMetier                   *string           `json:"referent_metier,omitempty"`
	NombreReferentsDelegues          *int              `json:"nombre_referents_delegues,omitempty"`
	NombreCollaborateursSensibilises *int              `json:"nombre_collaborateurs_sensibilises,omitempty"`
	NombreCollaborateursTotal        *int              `json:"nombre_collaborateurs_total,omitempty"`
	FoppCount                        *int              `json:"fopp_count,omitempty"`
	EtatAvancement                   *string           `json:"etat_avancement,omitempty"`
	NiveauAutonomie                  *string           `json:"niveau_autonomie,omitempty"`
	Description                      *string           `json:"description,omitempty"`
	PointAttention                   *string           `json:"point_attention,omitempty"`
	UsagesPhares                     *[]string         `json:"usages_phares,omitempty"`
	Acces                            *AccesPatch       `json:"acces,omitempty"`
	EvenementsRecents                *[]document.Event `json:"evenements_recents,omitempty"`
	ResponsablePoleData              *[]string         `json:"responsable_pole_data,omitempty"`
}

// Apply writes the set fields of p into f.
func (p Patch) Apply(f *document.Filiere) {
	setString(&f.Nom, p.Nom)
	setString(&f.Icon, p.Icon)
	setString(&f.ReferentMetier, p.ReferentMetier)
	setInt(&f.NombreReferentsDelegues, p.NombreReferentsDelegues)
	setInt(&f.NombreCollaborateursSensibilises, p.NombreCollaborateursSensibilises)
	setInt(&f.NombreCollaborateursTotal, p.NombreCollaborateursTotal)
	setInt(&f.FoppCount, p.FoppCount)
	setString(&f.EtatAvancement, p.EtatAvancement)
	setString(&f.NiveauAutonomie, p.NiveauAutonomie)
	setString(&f.Description, p.Description)
	setString(&f.PointAttention, p.PointAttention)

	if p.UsagesPhares != nil {
		f.UsagesPhares = append([]string{}, (*p.UsagesPhares)...)
	}
	if p.Acces != nil {
		setInt(&f.Acces.LaposteGPT, p.Acces.LaposteGPT)
		setInt(&f.Acces.CopilotLicences, p.Acces.CopilotLicences)
	}
	if p.EvenementsRecents != nil {
		f.EvenementsRecents = append([]document.Event{}, (*p.EvenementsRecents)...)
	}
	if p.ResponsablePoleData != nil {
		f.ResponsablePoleData = dedupe(*p.ResponsablePoleData)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Rules are the checks an edit must pass before saving.
type Rules struct {
	// PoleData lists the accepted responsable_pole_data names. Empty
	// accepts any name.
	PoleData []string
}

// ValidateState checks a change of état from previous to next. Keeping the
// current value is always allowed, as are the default and legacy keys, so
// records migrated before their état was configured stay editable. Only a
// move to a key the document does not configure is rejected.
func ValidateState(doc *document.Document, previous, next string) error {
	if next == previous || next == schema.DefaultState || schema.IsLegacyState(next) {
		return nil
	}
	if len(doc.EtatsAvancement) == 0 {
		return nil
	}
	if _, ok := doc.EtatsAvancement[next]; !ok {
		return &ValidationError{Field: schema.KeyEtatAvancement, Reason: fmt.Sprintf("état non configuré %q", next)}
	}
	return nil
}

// ValidateEdit runs Validate on the edited record and ValidateState on the
// change of état from before.
func ValidateEdit(doc *document.Document, before, after *document.Filiere, r Rules) error {
	if err := ValidateState(doc, before.EtatAvancement, after.EtatAvancement); err != nil {
		return err
	}
	return Validate(doc, after, r)
}

// Validate checks the counters, name, autonomy level, pôle data and event
// dates of f. The état is not checked: unknown keys display as an unknown
// state.
func Validate(doc *document.Document, f *document.Filiere, r Rules) error {
	counts := []struct {
		field string
		v     int
	}{
		{schema.KeyNombreReferentsDelegues, f.NombreReferentsDelegues},
		{schema.KeyNombreCollaborateursSensibilises, f.NombreCollaborateursSensibilises},
		{schema.KeyNombreCollaborateursTotal, f.NombreCollaborateursTotal},
		{schema.KeyFoppCount, f.FoppCount},
		{schema.KeyAcces + "." + schema.KeyLaposteGPT, f.Acces.LaposteGPT},
		{schema.KeyAcces + "." + schema.KeyCopilotLicences, f.Acces.CopilotLicences},
	}
	for _, c := range counts {
		if c.v < 0 {
			return &ValidationError{Field: c.field, Reason: "doit être positif ou nul"}
		}
	}

	if strings.TrimSpace(f.Nom) == "" {
		return &ValidationError{Field: schema.KeyNom, Reason: "obligatoire"}
	}
	if !schema.IsAutonomyLevel(f.NiveauAutonomie) {
		return &ValidationError{Field: schema.KeyNiveauAutonomie, Reason: fmt.Sprintf("niveau inconnu %q", f.NiveauAutonomie)}
	}
	if len(r.PoleData) > 0 {
		allowed := make(map[string]bool, len(r.PoleData))
		for _, name := range r.PoleData {
			allowed[name] = true
		}
		for _, name := range f.ResponsablePoleData {
			if !allowed[name] {
				return &ValidationError{Field: schema.KeyResponsablePoleData, Reason: fmt.Sprintf("responsable inconnu %q", name)}
			}
		}
	}

	for i, ev := range f.EvenementsRecents {
		if _, err := time.Parse(DateLayout, ev.Date); err != nil {
			return &ValidationError{Field: fmt.Sprintf("%s[%d].date", schema.KeyEvenementsRecents, i), Reason: "format attendu AAAA-MM-JJ"}
		}
	}
	return nil
}

// ParseAssignment turns "key=value" into a Patch. It covers the scalar
// fields and the acces counters (acces.laposte_gpt, acces.copilot_licences).
func ParseAssignment(s string) (Patch, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return Patch{}, fmt.Errorf("affectation invalide %q, attendu champ=valeur", s)
	}
	key = strings.TrimSpace(key)

	var p Patch
	str := func() *string { v := value; return &v }
	num := func() (*int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, &ValidationError{Field: key, Reason: "entier attendu"}
		}
		return &n, nil
	}

	var err error
	switch key {
	case schema.KeyNom:
		p.Nom = str()
	case schema.KeyIcon:
		p.Icon = str()
	case schema.KeyReferentMetier:
		p.ReferentMetier = str()
	case schema.KeyEtatAvancement:
		p.EtatAvancement = str()
	case schema.KeyNiveauAutonomie:
		p.NiveauAutonomie = str()
	case schema.KeyDescription:
		p.Description = str()
	case schema.KeyPointAttention:
		p.PointAttention = str()
	case schema.KeyNombreReferentsDelegues:
		p.NombreReferentsDelegues, err = num()
	case schema.KeyNombreCollaborateursSensibilises:
		p.NombreCollaborateursSensibilises, err = num()
	case schema.KeyNombreCollaborateursTotal:
		p.NombreCollaborateursTotal, err = num()
	case schema.KeyFoppCount:
		p.FoppCount, err = num()
	case schema.KeyAcces + "." + schema.KeyLaposteGPT:
		p.Acces = &AccesPatch{}
		p.Acces.LaposteGPT, err = num()
	case schema.KeyAcces + "." + schema.KeyCopilotLicences:
		p.Acces = &AccesPatch{}
		p.Acces.CopilotLicences, err = num()
	default:
		return Patch{}, &ValidationError{Field: key, Reason: "champ non modifiable par affectation"}
	}
	if err != nil {
		return Patch{}, err
	}
	return p, nil
}

// Merge overlays the set fields of other onto p.
func (p Patch) Merge(other Patch) Patch {
	out := p
	if other.Nom != nil {
		out.Nom = other.Nom
	}
	if other.Icon != nil {
		out.Icon = other.Icon
	}
	if other.ReferentMetier != nil {
		out.ReferentMetier = other.ReferentMetier
	}
	if other.NombreReferentsDelegues != nil {
		out.NombreReferentsDelegues = other.NombreReferentsDelegues
	}
	if other.NombreCollaborateursSensibilises != nil {
		out.NombreCollaborateursSensibilises = other.NombreCollaborateursSensibilises
	}
	if other.NombreCollaborateursTotal != nil {
		out.NombreCollaborateursTotal = other.NombreCollaborateursTotal
	}
	if other.FoppCount != nil {
		out.FoppCount = other.FoppCount
	}
	if other.EtatAvancement != nil {
		out.EtatAvancement = other.EtatAvancement
	}
	if other.NiveauAutonomie != nil {
		out.NiveauAutonomie = other.NiveauAutonomie
	}
	if other.Description != nil {
		out.Description = other.Description
	}
	if other.PointAttention != nil {
		out.PointAttention = other.PointAttention
	}
	if other.UsagesPhares != nil {
		out.UsagesPhares = other.UsagesPhares
	}
	if other.Acces != nil {
		acces := AccesPatch{}
		if out.Acces != nil {
			acces = *out.Acces
		}
		if other.Acces.LaposteGPT != nil {
			acces.LaposteGPT = other.Acces.LaposteGPT
		}
		if other.Acces.CopilotLicences != nil {
			acces.CopilotLicences = other.Acces.CopilotLicences
		}
		out.Acces = &acces
	}
	if other.EvenementsRecents != nil {
		out.EvenementsRecents = other.EvenementsRecents
	}
	if other.ResponsablePoleData != nil {
		out.ResponsablePoleData = other.ResponsablePoleData
	}
	return out
}
