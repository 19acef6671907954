// Package form converts filière lists to and from the plain-text encodings
// used by edit forms: one usage per line, and one event per line as
// date;titre;description.
package form

import (
	"strings"

	"github.com/n0roo/filiere-kit/internal/document"
)

// EventSeparator separates the parts of an encoded event.
const EventSeparator = ";"

// FormatUsages writes one usage per line.
func FormatUsages(usages []string) string {
	if len(usages) == 0 {
		return ""
	}
	return strings.Join(usages, "\n") + "\n"
}

// ParseUsages reads one usage per line. Lines are trimmed and blank lines
// dropped.
func ParseUsages(text string) []string {
	out := []string{}
	for _, line := range splitLines(text) {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// FormatEvents writes one date;titre;description line per event, in list
// order.
func FormatEvents(events []document.Event) string {
	var b strings.Builder
	for _, ev := range events {
		b.WriteString(ev.Date)
		b.WriteString(EventSeparator)
		b.WriteString(ev.Titre)
		b.WriteString(EventSeparator)
		b.WriteString(ev.Description)
		b.WriteString("\n")
	}
	return b.String()
}

// ParseEvents reads events written by FormatEvents. Lines with fewer than
// three parts are dropped. Separators past the second belong to the
// description. Parts are trimmed and list order is kept.
func ParseEvents(text string) []document.Event {
	out := []document.Event{}
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, EventSeparator, 3)
		if len(parts) < 3 {
			continue
		}
		out = append(out, document.Event{
			Date:        strings.TrimSpace(parts[0]),
			Titre:       strings.TrimSpace(parts[1]),
			Description: strings.TrimSpace(parts[2]),
		})
	}
	return out
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
