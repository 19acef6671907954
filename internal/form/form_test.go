package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n0roo/filiere-kit/internal/document"
)

func TestUsagesRoundTrip(t *testing.T) {
	usages := []string{"Synthèse d'entretiens", "FAQ paie", "Rédaction de courriers"}

	got := ParseUsages(FormatUsages(usages))

	assert.Equal(t, usages, got)
}

func TestParseUsages_TrimsAndDropsBlankLines(t *testing.T) {
	got := ParseUsages("  Synthèse  \r\n\n   \nFAQ\n")

	assert.Equal(t, []string{"Synthèse", "FAQ"}, got)
}

func TestParseUsages_EmptyIsEmptyList(t *testing.T) {
	got := ParseUsages("")

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEventsRoundTrip(t *testing.T) {
	events := []document.Event{
		{Date: "2025-03-01", Titre: "COSUI", Description: "Comité de suivi"},
		{Date: "2025-02-10", Titre: "Atelier", Description: "Idéation; priorisation"},
	}

	got := ParseEvents(FormatEvents(events))

	if diff := cmp.Diff(events, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestParseEvents(t *testing.T) {
	text := "2025-03-01 ; COSUI ; Comité\n" +
		"ligne incomplète;sans description\n" +
		"\n" +
		"2025-01-05;Lancement;Kick-off\n"

	got := ParseEvents(text)

	want := []document.Event{
		{Date: "2025-03-01", Titre: "COSUI", Description: "Comité"},
		{Date: "2025-01-05", Titre: "Lancement", Description: "Kick-off"},
	}
	assert.Equal(t, want, got)
}

func TestFormatEvents_Empty(t *testing.T) {
	assert.Equal(t, "", FormatEvents(nil))
	assert.Equal(t, "", FormatUsages(nil))
}

func TestSheetRoundTrip(t *testing.T) {
	f := &document.Filiere{
		Nom:                     "Ressources humaines",
		Icon:                    "👥",
		ReferentMetier:          "Hélène",
		NombreReferentsDelegues: 2,
		FoppCount:               3,
		EtatAvancement:          "tests_realises",
		NiveauAutonomie:         "Besoin d'accompagnement modéré",
		Description:             "Siège\net régions",
		UsagesPhares:            []string{"FAQ paie"},
		Acces:                   document.Acces{LaposteGPT: 15, CopilotLicences: 4},
		EvenementsRecents: []document.Event{
			{Date: "2025-03-02", Titre: "COSUI", Description: "Premier comité"},
		},
		ResponsablePoleData: []string{"Alice"},
	}

	data, err := MarshalSheet(NewSheet(f))
	require.NoError(t, err)
	assert.Contains(t, string(data), "evenements_recents: |")

	sheet, err := UnmarshalSheet(data)
	require.NoError(t, err)

	edited := &document.Filiere{Acces: document.Acces{Extra: f.Acces.Extra}}
	sheet.Patch().Apply(edited)

	if diff := cmp.Diff(f, edited); diff != "" {
		t.Errorf("sheet round trip (-want +got):\n%s", diff)
	}
}

func TestSheet_EditedText(t *testing.T) {
	data := []byte(`nom: IT
etat_avancement: prompts_deployes
fopp_count: 5
usages_phares: |
  Assistant code
  Revue de tickets
evenements_recents: |
  2025-03-01;Déploiement;Prompts partagés
  incomplète
`)

	sheet, err := UnmarshalSheet(data)
	require.NoError(t, err)

	f := &document.Filiere{}
	sheet.Patch().Apply(f)

	assert.Equal(t, 5, f.FoppCount)
	assert.Equal(t, []string{"Assistant code", "Revue de tickets"}, f.UsagesPhares)
	require.Len(t, f.EvenementsRecents, 1)
	assert.Equal(t, "Déploiement", f.EvenementsRecents[0].Titre)
	assert.NotNil(t, f.ResponsablePoleData)
}
