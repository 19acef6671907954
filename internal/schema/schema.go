// Package schema holds the canonical field set of a filière record and the
// structural migration that backfills fields missing from records written by
// older versions of the document.
package schema

// Version is the current canonical schema version.
//
//	v1  nom, icon, referent_metier, etat_avancement, description,
//	    point_attention, usages_phares, acces, evenements_recents
//	v2  niveau_autonomie, fopp_count
//	v3  nombre_referents_delegues, nombre_collaborateurs_sensibilises,
//	    nombre_collaborateurs_total, responsable_pole_data;
//	    nombre_testeurs retired, default état becomes en_emergence
const Version = 3

// Field keys of a filière record.
const (
	KeyNom                              = "nom"
	KeyIcon                             = "icon"
	KeyReferentMetier                   = "referent_metier"
	KeyNombreReferentsDelegues          = "nombre_referents_delegues"
	KeyNombreCollaborateursSensibilises = "nombre_collaborateurs_sensibilises"
	KeyNombreCollaborateursTotal        = "nombre_collaborateurs_total"
	KeyFoppCount                        = "fopp_count"
	KeyEtatAvancement                   = "etat_avancement"
	KeyNiveauAutonomie                  = "niveau_autonomie"
	KeyDescription                      = "description"
	KeyPointAttention                   = "point_attention"
	KeyUsagesPhares                     = "usages_phares"
	KeyAcces                            = "acces"
	KeyEvenementsRecents                = "evenements_recents"
	KeyResponsablePoleData              = "responsable_pole_data"

	KeyLaposteGPT      = "laposte_gpt"
	KeyCopilotLicences = "copilot_licences"
)

// Default scalar values.
const (
	DefaultNom   = "Filière"
	DefaultIcon  = "📁"
	DefaultState = "en_emergence"

	// LegacyDefaultState was the default état before v3.
	LegacyDefaultState = "initialisation"
)

// Field describes one canonical top-level key.
type Field struct {
	Key   string
	Since int // schema version that introduced the key
	// Default builds the default value. Containers are built fresh on
	// every call.
	Default func() any
}

var fields = []Field{
	{Key: KeyNom, Since: 1, Default: constant(DefaultNom)},
	{Key: KeyIcon, Since: 1, Default: constant(DefaultIcon)},
	{Key: KeyReferentMetier, Since: 1, Default: constant("")},
	{Key: KeyEtatAvancement, Since: 1, Default: constant(DefaultState)},
	{Key: KeyDescription, Since: 1, Default: constant("")},
	{Key: KeyPointAttention, Since: 1, Default: constant("")},
	{Key: KeyUsagesPhares, Since: 1, Default: emptyList},
	{Key: KeyAcces, Since: 1, Default: newAcces},
	{Key: KeyEvenementsRecents, Since: 1, Default: emptyList},
	{Key: KeyNiveauAutonomie, Since: 2, Default: constant("")},
	{Key: KeyFoppCount, Since: 2, Default: constant(0)},
	{Key: KeyNombreReferentsDelegues, Since: 3, Default: constant(0)},
	{Key: KeyNombreCollaborateursSensibilises, Since: 3, Default: constant(0)},
	{Key: KeyNombreCollaborateursTotal, Since: 3, Default: constant(0)},
	{Key: KeyResponsablePoleData, Since: 3, Default: emptyList},
}

// accesFields are the sub-keys of acces, all integer counts.
var accesFields = []string{KeyLaposteGPT, KeyCopilotLicences}

// LegacyFields are keys written by older versions and kept as passthrough.
var LegacyFields = []string{"nombre_testeurs"}

// LegacyStates are état keys used by earlier versions of the document.
var LegacyStates = []string{
	"initialisation",
	"ateliers_planifies",
	"tests_realises",
	"prompts_deployes",
}

// AutonomyLevels are the accepted values of niveau_autonomie besides "".
var AutonomyLevels = []string{
	"Besoin d'accompagnement faible",
	"Besoin d'accompagnement modéré",
	"Besoin d'accompagnement fort",
	"Besoin d'accompagnement très fort",
}

func constant(v any) func() any {
	return func() any { return v }
}

func emptyList() any {
	return []any{}
}

func newAcces() any {
	m := make(map[string]any, len(accesFields))
	for _, k := range accesFields {
		m[k] = 0
	}
	return m
}

// Fields returns the canonical fields in declaration order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Keys returns the canonical top-level keys.
func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

// IsCanonical reports whether key belongs to the current schema.
func IsCanonical(key string) bool {
	for _, f := range fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// IsLegacyState reports whether key is an état key from an earlier version.
func IsLegacyState(key string) bool {
	for _, s := range LegacyStates {
		if s == key {
			return true
		}
	}
	return false
}

// IsAutonomyLevel reports whether v is an accepted niveau_autonomie value.
func IsAutonomyLevel(v string) bool {
	if v == "" {
		return true
	}
	for _, l := range AutonomyLevels {
		if l == v {
			return true
		}
	}
	return false
}

// Defaults returns a new record holding every canonical field at its default.
func Defaults() map[string]any {
	return Migrate(nil)
}
