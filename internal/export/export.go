// Package export writes the dashboard table as CSV and full snapshots as
// YAML or JSON.
package export

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/n0roo/filiere-kit/internal/document"
	"github.com/n0roo/filiere-kit/internal/filiere"
)

// Format names an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatYAML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("format d'export inconnu %q (csv, yaml, json)", s)
	}
}

// NotDefined replaces an empty référent in the table.
const NotDefined = "Non défini"

// CSVHeader is the table header row.
var CSVHeader = []string{
	"Clé",
	"Filière",
	"État",
	"Référent",
	"Référents délégués",
	"Collaborateurs sensibilisés",
	"Collaborateurs total",
	"FOPP",
	"LaPoste GPT",
	"Copilot",
	"Autonomie",
	"Responsables pôle data",
}

// Row returns the table row of one filière.
func Row(doc *document.Document, e filiere.Entry) []string {
	f := e.Filiere
	referent := f.ReferentMetier
	if referent == "" {
		referent = NotDefined
	}
	return []string{
		e.Key,
		strings.TrimSpace(f.Icon + " " + f.Nom),
		filiere.StateLabel(doc, f.EtatAvancement),
		referent,
		strconv.Itoa(f.NombreReferentsDelegues),
		strconv.Itoa(f.NombreCollaborateursSensibilises),
		strconv.Itoa(f.NombreCollaborateursTotal),
		strconv.Itoa(f.FoppCount),
		strconv.Itoa(f.Acces.LaposteGPT),
		strconv.Itoa(f.Acces.CopilotLicences),
		f.NiveauAutonomie,
		strings.Join(f.ResponsablePoleData, ", "),
	}
}

// WriteCSV writes the header and one row per entry.
func WriteCSV(w io.Writer, doc *document.Document, entries []filiere.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(Row(doc, e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// NewSnapshot builds a snapshot of the given entries.
func NewSnapshot(doc *document.Document, entries []filiere.Entry, backend string, now time.Time) (*Snapshot, error) {
	hostname, _ := os.Hostname()
	snap := &Snapshot{
		Manifest: Manifest{
			Version:    1,
			ExportedAt: now,
			ExportedBy: hostname,
			Backend:    backend,
		},
		Etats:    []StateData{},
		Filieres: []FiliereData{},
	}

	encoded, err := document.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("snapshot impossible: %w", err)
	}
	sum := sha256.Sum256(encoded)
	snap.Manifest.Checksum = hex.EncodeToString(sum[:])

	for _, key := range filiere.StateOrder(doc) {
		state, ok := doc.EtatsAvancement[key]
		if !ok {
			continue
		}
		snap.Etats = append(snap.Etats, StateData{
			Key:     key,
			Label:   state.Label,
			Display: filiere.StateLabel(doc, key),
		})
	}

	for _, e := range entries {
		fd := toFiliereData(doc, e)
		snap.Manifest.Stats.EventsCount += len(fd.Evenements)
		snap.Filieres = append(snap.Filieres, fd)
	}
	snap.Manifest.Stats.FilieresCount = len(snap.Filieres)

	return snap, nil
}

func toFiliereData(doc *document.Document, e filiere.Entry) FiliereData {
	f := e.Filiere
	fd := FiliereData{
		Key:                              e.Key,
		Nom:                              f.Nom,
		Icon:                             f.Icon,
		ReferentMetier:                   f.ReferentMetier,
		NombreReferentsDelegues:          f.NombreReferentsDelegues,
		NombreCollaborateursSensibilises: f.NombreCollaborateursSensibilises,
		NombreCollaborateursTotal:        f.NombreCollaborateursTotal,
		FoppCount:                        f.FoppCount,
		EtatAvancement:                   f.EtatAvancement,
		EtatLabel:                        filiere.StateLabel(doc, f.EtatAvancement),
		NiveauAutonomie:                  f.NiveauAutonomie,
		Description:                      f.Description,
		PointAttention:                   f.PointAttention,
		UsagesPhares:                     append([]string{}, f.UsagesPhares...),
		LaposteGPT:                       f.Acces.LaposteGPT,
		CopilotLicences:                  f.Acces.CopilotLicences,
		Evenements:                       []EventData{},
		ResponsablePoleData:              append([]string{}, f.ResponsablePoleData...),
	}
	for _, ev := range f.EvenementsRecents {
		fd.Evenements = append(fd.Evenements, EventData{Date: ev.Date, Titre: ev.Titre, Description: ev.Description})
	}
	return fd
}

// WriteYAML writes snap as YAML.
func WriteYAML(w io.Writer, snap *Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return err
	}
	return enc.Close()
}

// WriteJSON writes snap as indented JSON.
func WriteJSON(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(snap)
}

// Write dispatches on format.
func Write(w io.Writer, format Format, doc *document.Document, entries []filiere.Entry, backend string, now time.Time) error {
	if format == FormatCSV {
		return WriteCSV(w, doc, entries)
	}

	snap, err := NewSnapshot(doc, entries, backend, now)
	if err != nil {
		return err
	}
	if format == FormatYAML {
		return WriteYAML(w, snap)
	}
	return WriteJSON(w, snap)
}
