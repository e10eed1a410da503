// Package category knows the component families the catalog holds: which
// metrics matter for each one, which fields an imported row should carry, and
// how to guess a family from free-text application notes.
package category

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/spigell/part-recommender/internal/spec"
)

const (
	FerriteBead          = "Ferrite Bead"
	ChipInductor         = "Chip Inductor"
	CommonModeFilter     = "Common Mode Filter"
	Capacitor            = "Capacitor"
	Inductor             = "Inductor"
	EMISuppressionFilter = "EMI Suppression Filter"
	BalunFilter          = "Balun Filter"
	LanTransformer       = "Lan Transformer"

	// Default is assumed for imported rows that name no category.
	Default = FerriteBead
)

// Category describes one component family.
type Category struct {
	Name           string
	KeyMetrics     []spec.Field
	RequiredFields []string
}

var registry = []Category{
	{
		Name:           FerriteBead,
		KeyMetrics:     []spec.Field{spec.FieldImpedance, spec.FieldCurrent, spec.FieldDCR, spec.FieldTempMin, spec.FieldTempMax},
		RequiredFields: []string{"part_number", "impedance", "dcr", "current", "size"},
	},
	{
		Name:           ChipInductor,
		KeyMetrics:     []spec.Field{spec.FieldCurrent, spec.FieldDCR, spec.FieldTempMin, spec.FieldTempMax},
		RequiredFields: []string{"part_number", "inductance", "dcr", "current", "size"},
	},
	{
		Name:           CommonModeFilter,
		KeyMetrics:     []spec.Field{spec.FieldImpedance, spec.FieldCurrent, spec.FieldTestFrequency},
		RequiredFields: []string{"part_number", "impedance", "current", "test_frequency", "size"},
	},
}

type keyword struct {
	needle   string
	category string
}

// keywords are matched longest first so that "signal filtering" is not
// swallowed by the generic "filtering".
var keywords = sortKeywords([]keyword{
	{"濾波", FerriteBead},
	{"抗雜訊", FerriteBead},
	{"電源", FerriteBead},
	{"抑制雜訊", FerriteBead},
	{"filtering", FerriteBead},
	{"noise suppression", FerriteBead},
	{"power line", FerriteBead},
	{"儲能", Capacitor},
	{"退耦", Capacitor},
	{"decoupling", Capacitor},
	{"energy storage", Capacitor},
	{"調頻", Inductor},
	{"tuning", Inductor},
	{"濾高頻", EMISuppressionFilter},
	{"high frequency filtering", EMISuppressionFilter},
	{"信號濾波", BalunFilter},
	{"signal filtering", BalunFilter},
	{"網路", LanTransformer},
	{"network", LanTransformer},
	{"ethernet", LanTransformer},
})

func sortKeywords(in []keyword) []keyword {
	slices.SortStableFunc(in, func(a, b keyword) int {
		return len([]rune(b.needle)) - len([]rune(a.needle))
	})
	return in
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}

// Lookup returns the registered category with the given name.
func Lookup(name string) (Category, bool) {
	name = fold(name)
	for _, c := range registry {
		if fold(c.Name) == name {
			return c, true
		}
	}
	return Category{}, false
}

// Names lists the registered categories.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, c := range registry {
		names = append(names, c.Name)
	}
	return names
}

// Detect guesses a category from application text.
func Detect(application string) (string, bool) {
	text := fold(application)
	if text == "" {
		return "", false
	}

	for _, kw := range keywords {
		if strings.Contains(text, kw.needle) {
			return kw.category, true
		}
	}
	return "", false
}

// InferApplication guesses the application segment from a datasheet file name.
func InferApplication(filename string) string {
	name := fold(filename)
	switch {
	case strings.Contains(name, "車用") || strings.Contains(name, "automotive"):
		return "Automotive"
	case strings.Contains(name, "工控") || strings.Contains(name, "industrial"):
		return "Industrial"
	case strings.Contains(name, "通訊") || strings.Contains(name, "communication"):
		return "Communication"
	default:
		return "General"
	}
}

// MissingFields lists the required fields of the category absent from record.
func (c Category) MissingFields(record map[string]any) []string {
	var missing []string
	for _, field := range c.RequiredFields {
		if v, ok := record[field]; !ok || v == nil {
			missing = append(missing, field)
		}
	}
	return missing
}

// Resolve names the category a requirement targets, preferring an explicit
// name over one detected from the application text, and returns the metrics
// that matter for it when the category is registered.
func Resolve(name, application string) (string, []spec.Field) {
	if strings.TrimSpace(name) == "" {
		detected, ok := Detect(application)
		if !ok {
			return "", nil
		}
		name = detected
	}

	if c, ok := Lookup(name); ok {
		return c.Name, c.KeyMetrics
	}
	return strings.TrimSpace(name), nil
}
