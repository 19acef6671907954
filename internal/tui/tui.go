// Package tui is the terminal dashboard: filière cards grouped by state, the
// table view and the headline statistics.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/n0roo/filiere-kit/internal/document"
	"github.com/n0roo/filiere-kit/internal/export"
	"github.com/n0roo/filiere-kit/internal/filiere"
	"github.com/n0roo/filiere-kit/internal/repository"
)

// Tab represents a dashboard tab
type Tab int

const (
	TabCards Tab = iota
	TabTable
	TabStats
)

const tabCount = 3

func (t Tab) String() string {
	return []string{"Cartes", "Tableau", "Statistiques"}[t]
}

// DefaultRefresh is the periodic reload interval.
const DefaultRefresh = 30 * time.Second

const loadTimeout = 30 * time.Second

// Loader loads the current document
type Loader interface {
	Load(ctx context.Context) (*document.Document, error)
}

// Model is the main TUI model
type Model struct {
	// Config
	loader  Loader
	refresh time.Duration
	title   string

	// State
	currentTab  Tab
	width       int
	height      int
	ready       bool
	loading     bool
	lastRefresh time.Time
	err         error

	// Filters, cycled with e and p. Empty means all.
	etat     string
	referent string

	// Data
	doc     *document.Document
	entries []filiere.Entry

	// Components
	spinner spinner.Model
	table   table.Model
}

// tickMsg is sent periodically to refresh data
type tickMsg time.Time

// dataMsg carries refreshed data
type dataMsg struct {
	doc *document.Document
	err error
	at  time.Time
}

// NewModel creates a new TUI model. refresh <= 0 disables periodic reloads.
func NewModel(loader Loader, title string, refresh time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	t := table.New(
		table.WithColumns(tableColumns()),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(mutedColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(primaryColor)
	t.SetStyles(styles)

	if title == "" {
		title = "Filières IA"
	}

	return Model{
		loader:     loader,
		refresh:    refresh,
		title:      title,
		currentTab: TabCards,
		loading:    true,
		spinner:    s,
		table:      t,
	}
}

func tableColumns() []table.Column {
	widths := []int{12, 28, 16, 16, 10, 12, 12, 6, 8, 8, 22, 20}
	cols := make([]table.Column, len(export.CSVHeader))
	for i, title := range export.CSVHeader {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	return cols
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.refreshData}
	if m.refresh > 0 {
		cmds = append(cmds, tickEvery(m.refresh))
	}
	return tea.Batch(cmds...)
}

// tickEvery returns a command that ticks every duration
func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshData loads the document
func (m Model) refreshData() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	doc, err := m.loader.Load(ctx)
	return dataMsg{doc: doc, err: err, at: time.Now()}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1":
			m.currentTab = TabCards
		case "2":
			m.currentTab = TabTable
		case "3":
			m.currentTab = TabStats
		case "r":
			m.loading = true
			return m, m.refreshData
		case "e":
			m.etat = m.nextEtat()
			m.applyFilter()
		case "p":
			m.referent = m.nextReferent()
			m.applyFilter()
		case "tab":
			m.currentTab = Tab((int(m.currentTab) + 1) % tabCount)
		case "shift+tab":
			m.currentTab = Tab((int(m.currentTab) + tabCount - 1) % tabCount)
		default:
			if m.currentTab == TabTable {
				var cmd tea.Cmd
				m.table, cmd = m.table.Update(msg)
				return m, cmd
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		if h := msg.Height - 10; h > 3 {
			m.table.SetHeight(h)
		}

	case tickMsg:
		return m, tea.Batch(
			m.refreshData,
			tickEvery(m.refresh),
		)

	case dataMsg:
		m.loading = false
		m.lastRefresh = msg.at
		m.err = msg.err
		if msg.err == nil {
			m.doc = msg.doc
			m.applyFilter()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// applyFilter recomputes the visible entries and table rows
func (m *Model) applyFilter() {
	if m.doc == nil {
		return
	}
	m.entries = filiere.Select(m.doc, filiere.Filter{Etat: m.etat, Referent: m.referent})

	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		rows = append(rows, table.Row(export.Row(m.doc, e)))
	}
	m.table.SetRows(rows)
}

func (m Model) nextEtat() string {
	if m.doc == nil {
		return ""
	}
	return cycle(append([]string{""}, filiere.StateOrder(m.doc)...), m.etat)
}

func (m Model) nextReferent() string {
	if m.doc == nil {
		return ""
	}
	return cycle(append([]string{""}, filiere.Referents(m.doc)...), m.referent)
}

// cycle returns the value after current in values, wrapping around
func cycle(values []string, current string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "\n  Chargement..."
	}

	var b strings.Builder

	// Header
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Tabs
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderFilters())
	b.WriteString("\n\n")

	// Content
	switch {
	case m.err != nil:
		b.WriteString(m.renderError())
	case m.doc == nil:
		b.WriteString(fmt.Sprintf("  %s Chargement du document...", m.spinner.View()))
	default:
		switch m.currentTab {
		case TabCards:
			b.WriteString(m.renderCardsTab())
		case TabTable:
			b.WriteString(m.table.View())
		case TabStats:
			b.WriteString(m.renderStatsTab())
		}
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderHeader() string {
	title := "📊 " + m.title
	refresh := "Actualisé à " + m.lastRefresh.Format("15:04:05")
	if m.loading {
		refresh = m.spinner.View() + " Actualisation"
	}

	headerWidth := m.width
	if headerWidth < 60 {
		headerWidth = 60
	}

	left := lipgloss.NewStyle().Bold(true).Render(title)
	right := lipgloss.NewStyle().Foreground(mutedColor).Render(refresh)

	gap := headerWidth - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 0 {
		gap = 0
	}

	return lipgloss.NewStyle().
		Background(primaryColor).
		Foreground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1).
		Width(headerWidth).
		Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderTabs() string {
	var tabs []string
	for i := 0; i < tabCount; i++ {
		tab := Tab(i)
		style := tabStyle
		if tab == m.currentTab {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("[%d]%s", i+1, tab.String())))
	}
	return strings.Join(tabs, " ")
}

func (m Model) renderFilters() string {
	etat := "Tous"
	if m.etat != "" && m.doc != nil {
		etat = filiere.StateLabel(m.doc, m.etat)
	}
	referent := "Tous"
	if m.referent != "" {
		referent = m.referent
	}
	return subtitleStyle.Render(fmt.Sprintf("  État: %s · Référent: %s · %d filière(s)", etat, referent, len(m.entries)))
}

func (m Model) renderFooter() string {
	help := "  [1-3] Onglets  [Tab] Suivant  [e] État  [p] Référent  [r] Actualiser  [q] Quitter"
	return helpStyle.Render(help)
}

func (m Model) renderError() string {
	msg := m.err.Error()
	var le *repository.LoadError
	if errors.As(m.err, &le) && le.Status() != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, le.Status())
	}
	return statusErrorStyle.Render("  ✗ "+msg) + "\n" +
		subtitleStyle.Render("  [r] pour réessayer")
}

func (m Model) renderCardsTab() string {
	if len(m.entries) == 0 {
		return statusMutedStyle.Render("  Aucune filière")
	}

	perRow := 1
	if w := lipgloss.Width(cardStyle.Render("")); w > 0 && m.width > w {
		perRow = m.width / (w + 1)
	}

	var b strings.Builder
	for _, g := range filiere.GroupByState(m.doc, m.entries) {
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", filiere.ShortLabel(g.Label), len(g.Entries))))
		b.WriteString("\n")
		if desc := filiere.StateDescription(m.doc, g.State); desc != "" {
			b.WriteString(subtitleStyle.Render(desc))
			b.WriteString("\n")
		}

		var row []string
		for _, e := range g.Entries {
			row = append(row, m.renderCard(e))
			if len(row) == perRow {
				b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
				b.WriteString("\n")
				row = nil
			}
		}
		if len(row) > 0 {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderCard(e filiere.Entry) string {
	f := e.Filiere
	referent := f.ReferentMetier
	if referent == "" {
		referent = export.NotDefined
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(strings.TrimSpace(f.Icon + " " + f.Nom)),
		statusMutedStyle.Render("Référent: ") + referent,
		fmt.Sprintf("FOPP %d · GPT %d · Copilot %d", f.FoppCount, f.Acces.LaposteGPT, f.Acces.CopilotLicences),
		fmt.Sprintf("Sensibilisés %d/%d", f.NombreCollaborateursSensibilises, f.NombreCollaborateursTotal),
	}
	if f.PointAttention != "" {
		lines = append(lines, statusPendingStyle.Render("⚠ "+f.PointAttention))
	}
	if len(f.EvenementsRecents) > 0 {
		ev := f.EvenementsRecents[0]
		lines = append(lines, statusMutedStyle.Render(ev.Date+" "+ev.Titre))
	}

	return cardStyle.BorderForeground(stateColor(m.doc, f.EtatAvancement)).Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatsTab() string {
	stats := filiere.Compute(m.doc, m.entries)

	metric := func(label string, v int) string {
		return detailLabelStyle.Render(label) + detailValueStyle.Render(strconv.Itoa(v))
	}

	people := boxStyle.Width(44).Render(strings.Join([]string{
		titleStyle.Render("👥 Acculturation"),
		metric("Filières", stats.Total),
		metric("Référents délégués", stats.ReferentsDelegues),
		metric("Collaborateurs sensibilisés", stats.CollaborateursSensibilises),
		metric("Collaborateurs total", stats.CollaborateursTotal),
		RenderProgressBar(stats.TauxSensibilisation(), 30) +
			fmt.Sprintf(" %.0f%%", stats.TauxSensibilisation()*100),
	}, "\n"))

	tools := boxStyle.Width(44).Render(strings.Join([]string{
		titleStyle.Render("🛠 Outils"),
		metric("FOPP", stats.Fopp),
		metric("Accès LaPoste GPT", stats.LaposteGPT),
		metric("Licences Copilot", stats.CopilotLicences),
	}, "\n"))

	var states []string
	states = append(states, titleStyle.Render("📈 Par état"))
	for _, sc := range stats.ParEtat {
		share := 0.0
		if stats.Total > 0 {
			share = float64(sc.Count) / float64(stats.Total)
		}
		states = append(states, fmt.Sprintf("%-16s %s %d",
			filiere.ShortLabel(sc.Label), RenderProgressBar(share, 20), sc.Count))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, people, "  ", tools) + "\n\n" +
		boxStyle.Render(strings.Join(states, "\n"))
}

// Run starts the TUI
func Run(loader Loader, title string, refresh time.Duration) error {
	p := tea.NewProgram(
		NewModel(loader, title, refresh),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
