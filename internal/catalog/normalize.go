package catalog

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/spigell/part-recommender/internal/category"
)

// DefaultVendor is recorded for imported rows that name no vendor.
const DefaultVendor = "Tai-Tech"

// columns maps folded datasheet headers to catalog fields.
var columns = map[string]string{
	"part_number":              "part_number",
	"part number":              "part_number",
	"tai-tech part number":     "part_number",
	"impedance":                "impedance",
	"impedance (ω)":            "impedance",
	"impedance (ohm)":          "impedance",
	"dcr":                      "dcr",
	"dc resistance (ω) max.":   "dcr",
	"dc resistance (ohm) max.": "dcr",
	"current":                  "current",
	"rated current":            "current",
	"rated current (ma) max.":  "current",
	"test_frequency":           "test_frequency",
	"test frequency (mhz)":     "test_frequency",
	"size":                     "size",
	"chip size":                "size",
	"尺寸":                       "size",
	"temp_min":                 "temp_min",
	"temp_max":                 "temp_max",
	"operating temperature":    "temp_range",
	"temp_range":               "temp_range",
	"vendor":                   "vendor",
	"category":                 "category",
	"application":              "application",
	"source_filename":          "source_filename",
	"inductance":               "inductance",
}

// RowDefaults fills in what a datasheet row usually leaves implicit.
type RowDefaults struct {
	Vendor         string
	Category       string
	SourceFilename string
}

func foldHeader(h string) string {
	h = norm.NFKC.String(h)
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

func blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(t)
		return s == "" || s == "-" || strings.EqualFold(s, "n/a") || strings.EqualFold(s, "nan")
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	default:
		return false
	}
}

// NormalizeRow maps an imported datasheet row onto catalog field names. It
// drops blank cells, splits an operating temperature range into temp_min and
// temp_max, and applies defaults for vendor, category and application. The
// second return value lists the fields the row's category requires but lacks.
func NormalizeRow(row map[string]any, d RowDefaults) (map[string]any, []string) {
	out := make(map[string]any, len(row)+3)

	for header, value := range row {
		field, ok := columns[foldHeader(header)]
		if !ok || blank(value) {
			continue
		}
		if s, isString := value.(string); isString {
			value = strings.TrimSpace(norm.NFKC.String(s))
		}
		if field == "temp_range" {
			splitTempRange(value, out)
			continue
		}
		out[field] = value
	}

	if size, ok := out["size"]; ok {
		out["size"] = sizeCode(size)
	}

	if _, ok := out["source_filename"]; !ok && d.SourceFilename != "" {
		out["source_filename"] = d.SourceFilename
	}
	if _, ok := out["vendor"]; !ok {
		out["vendor"] = firstNonEmpty(d.Vendor, DefaultVendor)
	}
	if _, ok := out["application"]; !ok {
		filename, _ := out["source_filename"].(string)
		out["application"] = category.InferApplication(filename)
	}
	if _, ok := out["category"]; !ok {
		name := d.Category
		if name == "" {
			application, _ := out["application"].(string)
			if detected, found := category.Detect(application); found {
				name = detected
			}
		}
		out["category"] = firstNonEmpty(name, category.Default)
	}

	var missing []string
	if name, _ := out["category"].(string); name != "" {
		if c, ok := category.Lookup(name); ok {
			missing = c.MissingFields(out)
		}
	}

	return out, missing
}

// splitTempRange reads "-40~+125℃" style ranges. Bounds that do not parse are
// kept verbatim so the ranker can report them as unparseable.
func splitTempRange(value any, out map[string]any) {
	s, ok := value.(string)
	if !ok {
		return
	}
	for _, unit := range []string{"℃", "°c", "°C", "oC"} {
		s = strings.ReplaceAll(s, unit, "")
	}

	bounds := strings.SplitN(s, "~", 2)
	if len(bounds) != 2 {
		return
	}

	for i, field := range []string{"temp_min", "temp_max"} {
		raw := strings.TrimSpace(bounds[i])
		if raw == "" {
			continue
		}
		if f, err := strconv.ParseFloat(strings.TrimPrefix(raw, "+"), 64); err == nil {
			out[field] = f
			continue
		}
		out[field] = raw
	}
}

// sizeCode keeps size codes textual. Spreadsheets tend to turn "0603" into 603.
func sizeCode(v any) any {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return v
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
