package record

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel trims surrounding whitespace and applies Unicode NFC.
// Producers write accented labels ("Diagnóstico Inteligente") in either
// composed or decomposed form; NFC makes the module filter exact.
func NormalizeLabel(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Category groups module labels for display.
type Category string

const (
	CategoryImage     Category = "image"
	CategoryDocument  Category = "document"
	CategoryNotes     Category = "notes"
	CategoryDiagnosis Category = "diagnosis"
	CategoryOther     Category = "other"
)

var categoryMarkers = []struct {
	marker   string
	category Category
}{
	{"imágenes médicas", CategoryImage},
	{"image", CategoryImage},
	{"pdf", CategoryDocument},
	{"texto clínico", CategoryNotes},
	{"note", CategoryNotes},
	{"diagnóstico", CategoryDiagnosis},
	{"diagnosis", CategoryDiagnosis},
}

// CategoryOf classifies a module label. Matching is case-insensitive.
func CategoryOf(module string) Category {
	m := strings.ToLower(NormalizeLabel(module))
	for _, cm := range categoryMarkers {
		if strings.Contains(m, cm.marker) {
			return cm.category
		}
	}
	return CategoryOther
}

// Truncate shortens s to at most n runes, appending "..." when cut.
// Empty input renders as "N/A".
func Truncate(s string, n int) string {
	if s == "" {
		return "N/A"
	}
	r := []rune(s)
	if n < 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
