package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/n0roo/filiere-kit/internal/document"
	"github.com/n0roo/filiere-kit/internal/export"
	"github.com/n0roo/filiere-kit/internal/filiere"
)

var (
	accentColor = lipgloss.Color("#003DA5")
	mutedColor  = lipgloss.Color("#6B7280")

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	labelStyle   = lipgloss.NewStyle().Foreground(mutedColor).Width(30)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// renderList renders entries as a table
func renderList(doc *document.Document, entries []filiere.Entry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("Clé", "Filière", "État", "Référent", "FOPP", "Sensibilisés")

	for _, e := range entries {
		row := export.Row(doc, e)
		f := e.Filiere
		t.Row(
			row[0],
			row[1],
			filiere.ShortLabel(row[2]),
			row[3],
			strconv.Itoa(f.FoppCount),
			fmt.Sprintf("%d/%d", f.NombreCollaborateursSensibilises, f.NombreCollaborateursTotal),
		)
	}
	return t.String()
}

// renderFiliere renders one filière as a card
func renderFiliere(doc *document.Document, key string, f *document.Filiere) string {
	line := func(label, value string) string {
		return labelStyle.Render(label) + value
	}
	referent := f.ReferentMetier
	if referent == "" {
		referent = export.NotDefined
	}
	autonomie := f.NiveauAutonomie
	if autonomie == "" {
		autonomie = "-"
	}

	lines := []string{
		headingStyle.Render(strings.TrimSpace(f.Icon+" "+f.Nom)) + mutedStyle.Render("  ("+key+")"),
		"",
		line("État", filiere.StateLabel(doc, f.EtatAvancement)),
		line("Référent métier", referent),
		line("Niveau d'autonomie", autonomie),
		line("Référents délégués", strconv.Itoa(f.NombreReferentsDelegues)),
		line("Collaborateurs sensibilisés", fmt.Sprintf("%d / %d", f.NombreCollaborateursSensibilises, f.NombreCollaborateursTotal)),
		line("FOPP", strconv.Itoa(f.FoppCount)),
		line("Accès LaPoste GPT", strconv.Itoa(f.Acces.LaposteGPT)),
		line("Licences Copilot", strconv.Itoa(f.Acces.CopilotLicences)),
	}
	if len(f.ResponsablePoleData) > 0 {
		lines = append(lines, line("Responsables pôle data", strings.Join(f.ResponsablePoleData, ", ")))
	}
	if f.Description != "" {
		lines = append(lines, "", f.Description)
	}
	if f.PointAttention != "" {
		lines = append(lines, "", warnStyle.Render("⚠ "+f.PointAttention))
	}
	if len(f.UsagesPhares) > 0 {
		lines = append(lines, "", headingStyle.Render("Usages phares"))
		for _, u := range f.UsagesPhares {
			lines = append(lines, "  • "+u)
		}
	}
	if len(f.EvenementsRecents) > 0 {
		lines = append(lines, "", headingStyle.Render("Événements récents"))
		for _, ev := range f.EvenementsRecents {
			lines = append(lines, fmt.Sprintf("  %s  %s", mutedStyle.Render(ev.Date), ev.Titre))
			if ev.Description != "" {
				lines = append(lines, "              "+mutedStyle.Render(ev.Description))
			}
		}
	}

	return cardStyle.Render(strings.Join(lines, "\n"))
}

// renderStats renders the headline figures
func renderStats(stats filiere.Stats) string {
	metric := func(label string, v int) string {
		return labelStyle.Render(label) + strconv.Itoa(v)
	}

	lines := []string{
		headingStyle.Render("📊 Statistiques"),
		"",
		metric("Filières", stats.Total),
		metric("Référents délégués", stats.ReferentsDelegues),
		metric("Collaborateurs sensibilisés", stats.CollaborateursSensibilises),
		metric("Collaborateurs total", stats.CollaborateursTotal),
		labelStyle.Render("Taux de sensibilisation") + fmt.Sprintf("%.1f %%", stats.TauxSensibilisation()*100),
		metric("FOPP", stats.Fopp),
		metric("Accès LaPoste GPT", stats.LaposteGPT),
		metric("Licences Copilot", stats.CopilotLicences),
		"",
		headingStyle.Render("Par état"),
	}
	for _, sc := range stats.ParEtat {
		lines = append(lines, metric("  "+filiere.ShortLabel(sc.Label), sc.Count))
	}
	return strings.Join(lines, "\n")
}
