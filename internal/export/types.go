package export

import (
	"time"
)

// Manifest describes a snapshot
type Manifest struct {
	Version    int       `yaml:"version" json:"version"`
	ExportedAt time.Time `yaml:"exported_at" json:"exported_at"`
	ExportedBy string    `yaml:"exported_by" json:"exported_by"` // hostname
	Backend    string    `yaml:"backend" json:"backend"`
	Checksum   string    `yaml:"checksum,omitempty" json:"checksum,omitempty"` // sha256 of the stored document
	Stats      Stats     `yaml:"stats" json:"stats"`
}

// Stats contains export statistics
type Stats struct {
	FilieresCount int `yaml:"filieres" json:"filieres"`
	EventsCount   int `yaml:"events" json:"events"`
}

// Snapshot is the complete export payload
type Snapshot struct {
	Manifest Manifest      `yaml:"manifest" json:"manifest"`
	Etats    []StateData   `yaml:"etats_avancement" json:"etats_avancement"`
	Filieres []FiliereData `yaml:"filieres" json:"filieres"`
}

// StateData is one configured progress state
type StateData struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
	// Resolved display label
	Display string `yaml:"display" json:"display"`
}

// FiliereData is one filière in a snapshot
type FiliereData struct {
	Key                              string      `yaml:"key" json:"key"`
	Nom                              string      `yaml:"nom" json:"nom"`
	Icon                             string      `yaml:"icon" json:"icon"`
	ReferentMetier                   string      `yaml:"referent_metier,omitempty" json:"referent_metier,omitempty"`
	NombreReferentsDelegues          int         `yaml:"nombre_referents_delegues" json:"nombre_referents_delegues"`
	NombreCollaborateursSensibilises int         `yaml:"nombre_collaborateurs_sensibilises" json:"nombre_collaborateurs_sensibilises"`
	NombreCollaborateursTotal        int         `yaml:"nombre_collaborateurs_total" json:"nombre_collaborateurs_total"`
	FoppCount                        int         `yaml:"fopp_count" json:"fopp_count"`
	EtatAvancement                   string      `yaml:"etat_avancement" json:"etat_avancement"`
	EtatLabel                        string      `yaml:"etat_label" json:"etat_label"`
	NiveauAutonomie                  string      `yaml:"niveau_autonomie,omitempty" json:"niveau_autonomie,omitempty"`
	Description                      string      `yaml:"description,omitempty" json:"description,omitempty"`
	PointAttention                   string      `yaml:"point_attention,omitempty" json:"point_attention,omitempty"`
	UsagesPhares                     []string    `yaml:"usages_phares" json:"usages_phares"`
	LaposteGPT                       int         `yaml:"laposte_gpt" json:"laposte_gpt"`
	CopilotLicences                  int         `yaml:"copilot_licences" json:"copilot_licences"`
	Evenements                       []EventData `yaml:"evenements_recents" json:"evenements_recents"`
	ResponsablePoleData              []string    `yaml:"responsable_pole_data" json:"responsable_pole_data"`
}

// EventData is one recent event
type EventData struct {
	Date        string `yaml:"date" json:"date"`
	Titre       string `yaml:"titre" json:"titre"`
	Description string `yaml:"description" json:"description"`
}
