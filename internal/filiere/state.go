// Package filiere holds the caller-side operations on a loaded document:
// edits, events, filters, state labels and aggregate statistics. Nothing
// here talks to the store.
package filiere

import (
	"sort"
	"strings"

	"github.com/n0roo/filiere-kit/internal/document"
)

// UnknownStateLabel is shown for a state with no configuration.
const UnknownStateLabel = "État inconnu"

// ProgressOrder lists the progress states from most to least advanced.
var ProgressOrder = []string{
	"prompts_deployes",
	"tests_realises",
	"ateliers_planifies",
	"initialisation",
}

// Fixed labels of the progress states. They take precedence over the
// document's own labels.
var progressLabels = map[string]string{
	"prompts_deployes":   "AVANCÉ",
	"tests_realises":     "INTERMÉDIAIRE",
	"ateliers_planifies": "NAISSANT",
	"initialisation":     "À ENGAGER",
}

var progressDescriptions = map[string]string{
	"prompts_deployes":   "Les COSUI sont réguliers et les expérimentations en cours",
	"tests_realises":     "Échanges en cours avec les référents métiers - premiers COSUI et/ou quelques expérimentations en démarrage",
	"ateliers_planifies": "Des opportunités IAGen ont été identifiées - pas de COSUI ni d'expérimentation en cours",
	"initialisation":     "Filière à engager (pas ou peu de FOPP, contact à initier avec un référent métier)",
}

// StateLabel resolves the display label of a state key.
func StateLabel(doc *document.Document, key string) string {
	if l, ok := progressLabels[key]; ok {
		return l
	}
	if s, ok := doc.EtatsAvancement[key]; ok && s.Label != "" {
		return s.Label
	}
	return UnknownStateLabel
}

// ShortLabel keeps the part of a label before " - ".
func ShortLabel(label string) string {
	if i := strings.Index(label, " - "); i >= 0 {
		return label[:i]
	}
	return label
}

// StateDescription returns the long description of a state, or "".
func StateDescription(doc *document.Document, key string) string {
	if d, ok := progressDescriptions[key]; ok {
		return d
	}
	return doc.EtatsAvancement[key].Description
}

// StateOrder returns every state key known to doc: progress states first,
// then the other configured states, then states only found on records.
func StateOrder(doc *document.Document) []string {
	seen := make(map[string]bool)
	var order []string

	for _, k := range ProgressOrder {
		if _, ok := doc.EtatsAvancement[k]; ok {
			order = append(order, k)
			seen[k] = true
		}
	}

	var configured []string
	for k := range doc.EtatsAvancement {
		if !seen[k] {
			configured = append(configured, k)
			seen[k] = true
		}
	}
	sort.Strings(configured)
	order = append(order, configured...)

	var used []string
	for _, f := range doc.Filieres {
		if f != nil && !seen[f.EtatAvancement] {
			used = append(used, f.EtatAvancement)
			seen[f.EtatAvancement] = true
		}
	}
	sort.Strings(used)
	return append(order, used...)
}

// Group is the set of filières sharing one state.
type Group struct {
	State   string
	Label   string
	Entries []Entry
}

// GroupByState groups entries by state. Progress states come first in
// ProgressOrder, the rest follow sorted by key. Empty groups are omitted.
func GroupByState(doc *document.Document, entries []Entry) []Group {
	byState := make(map[string][]Entry)
	for _, e := range entries {
		byState[e.Filiere.EtatAvancement] = append(byState[e.Filiere.EtatAvancement], e)
	}

	var rest []string
	for k := range byState {
		if _, ok := progressLabels[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)

	var groups []Group
	for _, k := range append(append([]string{}, ProgressOrder...), rest...) {
		if len(byState[k]) == 0 {
			continue
		}
		groups = append(groups, Group{State: k, Label: StateLabel(doc, k), Entries: byState[k]})
	}
	return groups
}
