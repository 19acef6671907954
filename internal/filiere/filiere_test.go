package filiere

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n0roo/filiere-kit/internal/document"
)

func testDocument() *document.Document {
	doc := document.New()
	doc.EtatsAvancement = map[string]document.StateConfig{
		"initialisation":   {Label: "Initialisation"},
		"tests_realises":   {Label: "Tests réalisés"},
		"en_emergence":     {Label: "En émergence - premiers contacts", Description: "Contacts initiés"},
		"prompts_deployes": {Label: "Prompts déployés"},
	}
	doc.Filieres = map[string]*document.Filiere{
		"it": {
			Nom: "IT", EtatAvancement: "prompts_deployes", ReferentMetier: "Alice",
			FoppCount: 2, NombreCollaborateursSensibilises: 30, NombreCollaborateursTotal: 60,
			Acces: document.Acces{LaposteGPT: 10, CopilotLicences: 2},
		},
		"rh": {
			Nom: "RH", EtatAvancement: "en_emergence", ReferentMetier: "Bruno",
			FoppCount: 1, NombreReferentsDelegues: 3, NombreCollaborateursTotal: 40,
			Acces: document.Acces{LaposteGPT: 5},
		},
		"achats": {
			Nom: "Achats", EtatAvancement: "prompts_deployes", ReferentMetier: "Alice",
		},
		"juridique": {
			Nom: "Juridique", EtatAvancement: "a_initier",
		},
	}
	return doc
}

func keys(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

func TestAddEvent_NewestFirst(t *testing.T) {
	f := &document.Filiere{EvenementsRecents: []document.Event{}}

	AddEvent(f, document.Event{Date: "2025-01-10", Titre: "Atelier"})
	AddEvent(f, document.Event{Date: "2025-02-03", Titre: "COSUI"})
	AddEvent(f, document.Event{Date: "2025-03-01", Titre: "Déploiement"})

	var titles []string
	for _, ev := range f.EvenementsRecents {
		titles = append(titles, ev.Titre)
	}
	assert.Equal(t, []string{"Déploiement", "COSUI", "Atelier"}, titles)
}

func TestAddEvent_DoesNotAliasPreviousList(t *testing.T) {
	original := []document.Event{{Date: "2025-01-10", Titre: "Atelier"}}
	f := &document.Filiere{EvenementsRecents: original}

	AddEvent(f, document.Event{Date: "2025-02-03", Titre: "COSUI"})

	assert.Equal(t, "Atelier", original[0].Titre)
	assert.Len(t, f.EvenementsRecents, 2)
}

func TestNewEvent(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	ev, err := NewEvent(now, "", " COSUI ", "Premier comité")
	require.NoError(t, err)
	assert.Equal(t, document.Event{Date: "2025-03-14", Titre: "COSUI", Description: "Premier comité"}, ev)

	tests := []struct {
		name, date, titre, desc, field string
	}{
		{"missing title", "", "", "x", "titre"},
		{"missing description", "", "x", "  ", "description"},
		{"bad date", "14/03/2025", "x", "y", "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvent(now, tt.date, tt.titre, tt.desc)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestPatchApply(t *testing.T) {
	f := &document.Filiere{Nom: "IT", FoppCount: 2, Acces: document.Acces{LaposteGPT: 4, CopilotLicences: 1}}
	fopp := 5
	gpt := 9
	usages := []string{"Synthèse", "FAQ"}
	pole := []string{"Alice", "Alice", "Bruno"}

	Patch{
		FoppCount:           &fopp,
		UsagesPhares:        &usages,
		Acces:               &AccesPatch{LaposteGPT: &gpt},
		ResponsablePoleData: &pole,
	}.Apply(f)

	assert.Equal(t, "IT", f.Nom)
	assert.Equal(t, 5, f.FoppCount)
	assert.Equal(t, document.Acces{LaposteGPT: 9, CopilotLicences: 1}, f.Acces)
	assert.Equal(t, []string{"Synthèse", "FAQ"}, f.UsagesPhares)
	assert.Equal(t, []string{"Alice", "Bruno"}, f.ResponsablePoleData)

	usages[0] = "modifié"
	assert.Equal(t, "Synthèse", f.UsagesPhares[0], "patch lists must be copied")
}

func TestParseAssignment(t *testing.T) {
	p, err := ParseAssignment("fopp_count=5")
	require.NoError(t, err)
	require.NotNil(t, p.FoppCount)
	assert.Equal(t, 5, *p.FoppCount)

	p, err = ParseAssignment("description=a=b")
	require.NoError(t, err)
	assert.Equal(t, "a=b", *p.Description)

	p, err = ParseAssignment("acces.copilot_licences=3")
	require.NoError(t, err)
	assert.Equal(t, 3, *p.Acces.CopilotLicences)
	assert.Nil(t, p.Acces.LaposteGPT)

	_, err = ParseAssignment("fopp_count=beaucoup")
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = ParseAssignment("usages_phares=x")
	assert.Error(t, err)

	_, err = ParseAssignment("nom")
	assert.Error(t, err)
}

func TestPatchMerge(t *testing.T) {
	a, _ := ParseAssignment("acces.laposte_gpt=3")
	b, _ := ParseAssignment("acces.copilot_licences=4")
	c, _ := ParseAssignment("nom=Informatique")

	p := a.Merge(b).Merge(c)

	f := &document.Filiere{}
	p.Apply(f)
	assert.Equal(t, document.Acces{LaposteGPT: 3, CopilotLicences: 4}, f.Acces)
	assert.Equal(t, "Informatique", f.Nom)
}

func TestValidate(t *testing.T) {
	doc := testDocument()
	rules := Rules{PoleData: []string{"Alice", "Bruno"}}

	valid := func() *document.Filiere {
		return &document.Filiere{
			Nom:                 "IT",
			EtatAvancement:      "tests_realises",
			NiveauAutonomie:     "Besoin d'accompagnement fort",
			ResponsablePoleData: []string{"Alice"},
			EvenementsRecents:   []document.Event{{Date: "2025-03-01", Titre: "t", Description: "d"}},
		}
	}
	require.NoError(t, Validate(doc, valid(), rules))

	tests := []struct {
		name  string
		edit  func(*document.Filiere)
		field string
	}{
		{"negative fopp", func(f *document.Filiere) { f.FoppCount = -1 }, "fopp_count"},
		{"negative copilot", func(f *document.Filiere) { f.Acces.CopilotLicences = -2 }, "acces.copilot_licences"},
		{"empty name", func(f *document.Filiere) { f.Nom = " " }, "nom"},
		{"unknown autonomy", func(f *document.Filiere) { f.NiveauAutonomie = "élevé" }, "niveau_autonomie"},
		{"unknown pole data", func(f *document.Filiere) { f.ResponsablePoleData = []string{"Zoé"} }, "responsable_pole_data"},
		{"bad event date", func(f *document.Filiere) { f.EvenementsRecents[0].Date = "mars" }, "evenements_recents[0].date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.edit(f)
			var ve *ValidationError
			require.True(t, errors.As(Validate(doc, f, rules), &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	t.Run("unconfigured state accepted", func(t *testing.T) {
		f := valid()
		f.EtatAvancement = "termine"
		assert.NoError(t, Validate(doc, f, rules))
	})
	t.Run("any pole data without rules", func(t *testing.T) {
		f := valid()
		f.ResponsablePoleData = []string{"Zoé"}
		assert.NoError(t, Validate(doc, f, Rules{}))
	})
}

func TestValidateState(t *testing.T) {
	doc := document.New()
	doc.EtatsAvancement = map[string]document.StateConfig{
		"a_initier": {Label: "À initier"},
	}

	tests := []struct {
		name     string
		previous string
		next     string
		wantErr  bool
	}{
		{"unchanged unconfigured", "termine", "termine", false},
		{"default state", "a_initier", "en_emergence", false},
		{"legacy state", "a_initier", "ateliers_planifies", false},
		{"configured state", "en_emergence", "a_initier", false},
		{"move to unconfigured", "en_emergence", "termine", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateState(doc, tt.previous, tt.next)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, "etat_avancement", ve.Field)
		})
	}

	assert.NoError(t, ValidateState(document.New(), "", "termine"), "no configured states")
}

func TestValidateEdit_MigratedDefaultState(t *testing.T) {
	doc := document.New()
	doc.EtatsAvancement = map[string]document.StateConfig{"a_initier": {Label: "À initier"}}
	before := &document.Filiere{Nom: "IT", EtatAvancement: "en_emergence", FoppCount: 2}
	doc.Filieres["it"] = before

	after := before.Clone()
	after.FoppCount = 5
	assert.NoError(t, ValidateEdit(doc, before, after, Rules{}))

	after.EtatAvancement = "termine"
	assert.Error(t, ValidateEdit(doc, before, after, Rules{}))

	after.EtatAvancement = "a_initier"
	after.FoppCount = -1
	assert.Error(t, ValidateEdit(doc, before, after, Rules{}))
}

func TestSelect(t *testing.T) {
	doc := testDocument()

	assert.Equal(t, []string{"achats", "it", "juridique", "rh"}, keys(Select(doc, Filter{})))
	assert.Equal(t, []string{"achats", "it"}, keys(Select(doc, Filter{Etat: "prompts_deployes"})))
	assert.Equal(t, []string{"rh"}, keys(Select(doc, Filter{Referent: "Bruno"})))
	assert.Empty(t, Select(doc, Filter{Etat: "en_emergence", Referent: "Alice"}))
}

func TestLookup(t *testing.T) {
	doc := testDocument()

	f, err := Lookup(doc, "it")
	require.NoError(t, err)
	assert.Equal(t, "IT", f.Nom)

	_, err = Lookup(doc, "inconnue")
	assert.ErrorIs(t, err, ErrUnknownFiliere)
}

func TestReferents(t *testing.T) {
	assert.Equal(t, []string{"Alice", "Bruno"}, Referents(testDocument()))
}

func TestStateLabel(t *testing.T) {
	doc := testDocument()

	assert.Equal(t, "AVANCÉ", StateLabel(doc, "prompts_deployes"))
	assert.Equal(t, "À ENGAGER", StateLabel(doc, "initialisation"))
	assert.Equal(t, "En émergence - premiers contacts", StateLabel(doc, "en_emergence"))
	assert.Equal(t, UnknownStateLabel, StateLabel(doc, "a_initier"))
	assert.Equal(t, "En émergence", ShortLabel(StateLabel(doc, "en_emergence")))
	assert.Equal(t, "Contacts initiés", StateDescription(doc, "en_emergence"))
}

func TestStateOrder(t *testing.T) {
	doc := testDocument()

	want := []string{"prompts_deployes", "tests_realises", "initialisation", "en_emergence", "a_initier"}
	if diff := cmp.Diff(want, StateOrder(doc)); diff != "" {
		t.Errorf("StateOrder (-want +got):\n%s", diff)
	}
}

func TestGroupByState(t *testing.T) {
	doc := testDocument()

	groups := GroupByState(doc, Select(doc, Filter{}))

	var states []string
	for _, g := range groups {
		states = append(states, g.State)
	}
	assert.Equal(t, []string{"prompts_deployes", "a_initier", "en_emergence"}, states)
	assert.Equal(t, []string{"achats", "it"}, keys(groups[0].Entries))
	assert.Equal(t, "AVANCÉ", groups[0].Label)
}

func TestCompute(t *testing.T) {
	doc := testDocument()

	s := Compute(doc, Select(doc, Filter{}))

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Fopp)
	assert.Equal(t, 3, s.ReferentsDelegues)
	assert.Equal(t, 30, s.CollaborateursSensibilises)
	assert.Equal(t, 100, s.CollaborateursTotal)
	assert.Equal(t, 15, s.LaposteGPT)
	assert.Equal(t, 2, s.CopilotLicences)
	assert.InDelta(t, 0.3, s.TauxSensibilisation(), 1e-9)

	counts := map[string]int{}
	for _, c := range s.ParEtat {
		counts[c.State] = c.Count
	}
	assert.Equal(t, map[string]int{
		"prompts_deployes": 2,
		"tests_realises":   0,
		"initialisation":   0,
		"en_emergence":     1,
		"a_initier":        1,
	}, counts)
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(document.New(), nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.TauxSensibilisation())
}
