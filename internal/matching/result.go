package matching

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spigell/part-recommender/internal/spec"
)

// Rejection is a candidate that failed at least one check, annotated with
// every reason it failed.
type Rejection struct {
	spec.Candidate
	Reasons []string `json:"rejected_reason"`
}

// Ranked pairs a candidate with its derived ranking keys.
type Ranked struct {
	spec.Candidate
	Score     float64 `json:"score"`
	MatchRate float64 `json:"match_rate"`
}

// Result is the partition produced by Filter.
type Result struct {
	Matched  []spec.Candidate `json:"matched"`
	Rejected []Rejection      `json:"rejected"`
	Steps    []Step           `json:"-"`
}

// Len returns the number of matched candidates.
func (r *Result) Len() int {
	return len(r.Matched)
}

// Recommendation is a ranked result ready for presentation.
type Recommendation struct {
	RequestID   string           `json:"request_id,omitempty"`
	Requirement spec.Requirement `json:"requirement"`
	Mode        RankMode         `json:"mode"`
	Ranked      []Ranked         `json:"ranked"`
	Rejected    []Rejection      `json:"rejected"`
	Checks      []Status         `json:"checks,omitempty"`
}

// Len returns the number of ranked products.
func (r *Recommendation) Len() int {
	return len(r.Ranked)
}

// Top returns at most n ranked entries. A non-positive n returns all.
func (r *Recommendation) Top(n int) []Ranked {
	if n <= 0 || n >= len(r.Ranked) {
		return r.Ranked
	}
	return r.Ranked[:n]
}

// FindByPartNumber returns the ranked entry with the given part number.
func (r *Recommendation) FindByPartNumber(partNumber string) *Ranked {
	for i := range r.Ranked {
		if strings.EqualFold(r.Ranked[i].PartNumber, partNumber) {
			return &r.Ranked[i]
		}
	}
	return nil
}

// ReportByVendor groups the ranked entries by vendor for display.
func (r *Recommendation) ReportByVendor() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, item := range r.Ranked {
		vendor := item.Vendor
		if vendor == "" {
			vendor = "unknown vendor"
		}
		report[vendor] = append(report[vendor], map[string]string{
			"part_number": item.Label(),
			"impedance":   displayValue(item.Impedance),
			"current":     displayValue(item.Current),
			"dcr":         displayValue(item.DCR),
			"size":        displayValue(item.Size),
			"application": item.Application,
			"source":      item.SourceFilename,
			"score":       fmt.Sprintf("%g", item.Score),
			"match_rate":  fmt.Sprintf("%.2f%%", item.MatchRate),
		})
	}
	return report
}

// RejectionReport maps part numbers to their joined rejection reasons.
func (r *Recommendation) RejectionReport() map[string]string {
	report := make(map[string]string, len(r.Rejected))
	for _, rej := range r.Rejected {
		report[rej.Label()] = strings.Join(rej.Reasons, "; ")
	}
	return report
}

// DumpToTmpFile writes the recommendation as indented JSON to a temp file.
func (r *Recommendation) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "recommendation_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func displayValue(v *spec.Value) string {
	if v == nil {
		return "N/A"
	}
	return v.String()
}
