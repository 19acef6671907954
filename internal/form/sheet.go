package form

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/n0roo/filiere-kit/internal/document"
	"github.com/n0roo/filiere-kit/internal/filiere"
)

// Sheet is the editable view of one filière, written to a YAML file for
// an editor. List fields use the text encodings of this package.
type Sheet struct {
	Nom                              string   `yaml:"nom"`
	Icon                             string   `yaml:"icon"`
	ReferentMetier                   string   `yaml:"referent_metier"`
	NombreReferentsDelegues          int      `yaml:"nombre_referents_delegues"`
	NombreCollaborateursSensibilises int      `yaml:"nombre_collaborateurs_sensibilises"`
	NombreCollaborateursTotal        int      `yaml:"nombre_collaborateurs_total"`
	FoppCount                        int      `yaml:"fopp_count"`
	EtatAvancement                   string   `yaml:"etat_avancement"`
	NiveauAutonomie                  string   `yaml:"niveau_autonomie"`
	LaposteGPT                       int      `yaml:"acces_laposte_gpt"`
	CopilotLicences                  int      `yaml:"acces_copilot_licences"`
	Description                      string   `yaml:"description"`
	PointAttention                   string   `yaml:"point_attention"`
	UsagesPhares                     string   `yaml:"usages_phares"`
	EvenementsRecents                string   `yaml:"evenements_recents"`
	ResponsablePoleData              []string `yaml:"responsable_pole_data"`
}

// NewSheet fills a sheet from f.
func NewSheet(f *document.Filiere) Sheet {
	return Sheet{
		Nom:                              f.Nom,
		Icon:                             f.Icon,
		ReferentMetier:                   f.ReferentMetier,
		NombreReferentsDelegues:          f.NombreReferentsDelegues,
		NombreCollaborateursSensibilises: f.NombreCollaborateursSensibilises,
		NombreCollaborateursTotal:        f.NombreCollaborateursTotal,
		FoppCount:                        f.FoppCount,
		EtatAvancement:                   f.EtatAvancement,
		NiveauAutonomie:                  f.NiveauAutonomie,
		LaposteGPT:                       f.Acces.LaposteGPT,
		CopilotLicences:                  f.Acces.CopilotLicences,
		Description:                      f.Description,
		PointAttention:                   f.PointAttention,
		UsagesPhares:                     FormatUsages(f.UsagesPhares),
		EvenementsRecents:                FormatEvents(f.EvenementsRecents),
		ResponsablePoleData:              append([]string{}, f.ResponsablePoleData...),
	}
}

// Patch converts the sheet into a full-replacement patch.
func (s Sheet) Patch() filiere.Patch {
	usages := ParseUsages(s.UsagesPhares)
	events := ParseEvents(s.EvenementsRecents)
	pole := append([]string{}, s.ResponsablePoleData...)

	return filiere.Patch{
		Nom:                              &s.Nom,
		Icon:                             &s.Icon,
		ReferentMetier:                   &s.ReferentMetier,
		NombreReferentsDelegues:          &s.NombreReferentsDelegues,
		NombreCollaborateursSensibilises: &s.NombreCollaborateursSensibilises,
		NombreCollaborateursTotal:        &s.NombreCollaborateursTotal,
		FoppCount:                        &s.FoppCount,
		EtatAvancement:                   &s.EtatAvancement,
		NiveauAutonomie:                  &s.NiveauAutonomie,
		Description:                      &s.Description,
		PointAttention:                   &s.PointAttention,
		UsagesPhares:                     &usages,
		Acces:                            &filiere.AccesPatch{LaposteGPT: &s.LaposteGPT, CopilotLicences: &s.CopilotLicences},
		EvenementsRecents:                &events,
		ResponsablePoleData:              &pole,
	}
}

// MarshalSheet encodes s as YAML with literal blocks for the text lists.
func MarshalSheet(s Sheet) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(s); err != nil {
		return nil, fmt.Errorf("formulaire: %w", err)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "usages_phares", "evenements_recents", "description", "point_attention":
			if node.Content[i+1].Value != "" {
				node.Content[i+1].Style = yaml.LiteralStyle
			}
		}
	}
	return yaml.Marshal(&node)
}

// UnmarshalSheet decodes a sheet written by MarshalSheet.
func UnmarshalSheet(data []byte) (Sheet, error) {
	var s Sheet
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Sheet{}, fmt.Errorf("formulaire: %w", err)
	}
	return s, nil
}
