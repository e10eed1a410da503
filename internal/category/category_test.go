package category

import (
	"slices"
	"testing"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		application string
		want        string
		found       bool
	}{
		{application: "電源濾波", want: FerriteBead, found: true},
		{application: "USB 信號濾波", want: BalunFilter, found: true},
		{application: "需要濾高頻雜訊", want: EMISuppressionFilter, found: true},
		{application: "Decoupling near the SoC", want: Capacitor, found: true},
		{application: "ＥＴＨＥＲＮＥＴ PHY", want: LanTransformer, found: true},
		{application: "Signal filtering on LVDS", want: BalunFilter, found: true},
		{application: "motor drive", found: false},
		{application: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.application, func(t *testing.T) {
			t.Parallel()

			got, ok := Detect(tt.application)
			if ok != tt.found || got != tt.want {
				t.Fatalf("Detect(%q) = %q, %v; want %q, %v", tt.application, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	c, ok := Lookup("  ferrite bead ")
	if !ok || c.Name != FerriteBead {
		t.Fatalf("expected ferrite bead, got %+v", c)
	}
	if len(c.KeyMetrics) != 5 {
		t.Fatalf("expected five key metrics, got %v", c.KeyMetrics)
	}

	if _, ok := Lookup("Resistor"); ok {
		t.Fatalf("did not expect resistor to be registered")
	}

	if !slices.Contains(Names(), CommonModeFilter) {
		t.Fatalf("expected common mode filter in %v", Names())
	}
}

func TestMissingFields(t *testing.T) {
	t.Parallel()

	c, _ := Lookup(FerriteBead)
	missing := c.MissingFields(map[string]any{"part_number": "A", "impedance": 600, "dcr": nil})
	if !slices.Equal(missing, []string{"dcr", "current", "size"}) {
		t.Fatalf("unexpected missing fields %v", missing)
	}
}

func TestInferApplication(t *testing.T) {
	t.Parallel()

	for filename, want := range map[string]string{
		"2025_車用_bead.xlsx":     "Automotive",
		"Industrial-series.pdf": "Industrial",
		"通訊產品.xlsx":             "Communication",
		"catalog.xlsx":          "General",
	} {
		if got := InferApplication(filename); got != want {
			t.Fatalf("InferApplication(%q) = %q, want %q", filename, got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	name, metrics := Resolve("", "電源濾波")
	if name != FerriteBead || len(metrics) != 5 {
		t.Fatalf("expected ferrite bead with metrics, got %q %v", name, metrics)
	}

	name, metrics = Resolve("common mode filter", "電源濾波")
	if name != CommonModeFilter || len(metrics) != 3 {
		t.Fatalf("explicit name must win, got %q %v", name, metrics)
	}

	name, metrics = Resolve("", "儲能")
	if name != Capacitor || metrics != nil {
		t.Fatalf("unregistered categories carry no metrics, got %q %v", name, metrics)
	}

	if name, _ := Resolve("", "motor drive"); name != "" {
		t.Fatalf("expected no category, got %q", name)
	}
}
