package filiere

import "github.com/n0roo/filiere-kit/internal/document"

// StateCount is the number of filières in one state.
type StateCount struct {
	State string `json:"state"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Stats aggregates the dashboard headline figures.
type Stats struct {
	Total                      int          `json:"total"`
	ReferentsDelegues          int          `json:"referents_delegues"`
	CollaborateursSensibilises int          `json:"collaborateurs_sensibilises"`
	CollaborateursTotal        int          `json:"collaborateurs_total"`
	Fopp                       int          `json:"fopp"`
	LaposteGPT                 int          `json:"laposte_gpt"`
	CopilotLicences            int          `json:"copilot_licences"`
	ParEtat                    []StateCount `json:"par_etat"`
}

// TauxSensibilisation returns the share of sensitised collaborators in
// [0, 1], or 0 when no total is known.
func (s Stats) TauxSensibilisation() float64 {
	if s.CollaborateursTotal == 0 {
		return 0
	}
	return float64(s.CollaborateursSensibilises) / float64(s.CollaborateursTotal)
}

// Compute aggregates entries. Every state of StateOrder(doc) is reported,
// including empty ones.
func Compute(doc *document.Document, entries []Entry) Stats {
	var s Stats
	counts := make(map[string]int)

	for _, e := range entries {
		f := e.Filiere
		s.Total++
		s.ReferentsDelegues += f.NombreReferentsDelegues
		s.CollaborateursSensibilises += f.NombreCollaborateursSensibilises
		s.CollaborateursTotal += f.NombreCollaborateursTotal
		s.Fopp += f.FoppCount
		s.LaposteGPT += f.Acces.LaposteGPT
		s.CopilotLicences += f.Acces.CopilotLicences
		counts[f.EtatAvancement]++
	}

	for _, k := range StateOrder(doc) {
		s.ParEtat = append(s.ParEtat, StateCount{State: k, Label: StateLabel(doc, k), Count: counts[k]})
	}
	return s
}
