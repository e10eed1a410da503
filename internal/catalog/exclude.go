package catalog

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spigell/part-recommender/internal/matching"
	"github.com/spigell/part-recommender/internal/spec"
)

// ExcludedParts is the content of an exclude file: products that must not be
// recommended again.
type ExcludedParts struct {
	Items []*ExcludedPart `json:"items"`
}

type ExcludedPart struct {
	PartNumber string    `json:"part_number"`
	Vendor     string    `json:"vendor,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	ExcludedAt time.Time `json:"excluded_at"`
}

// LoadExcluded reads an exclude file. A missing or empty file is an empty
// list.
func LoadExcluded(path string) (*ExcludedParts, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ExcludedParts{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		return &ExcludedParts{}, nil
	}

	var excluded ExcludedParts
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// ExcludeRanked turns ranked products into exclude entries.
func ExcludeRanked(ranked []matching.Ranked, reason string) *ExcludedParts {
	excluded := &ExcludedParts{}
	now := time.Now().UTC()
	for _, r := range ranked {
		excluded.Items = append(excluded.Items, excludedFrom(r.Candidate, reason, now))
	}
	return excluded
}

func excludedFrom(c spec.Candidate, reason string, at time.Time) *ExcludedPart {
	return &ExcludedPart{
		PartNumber: c.PartNumber,
		Vendor:     c.Vendor,
		Reason:     reason,
		ExcludedAt: at,
	}
}

// Append adds the items of s that are not listed yet.
func (e *ExcludedParts) Append(s *ExcludedParts) {
	seen := make(map[string]bool, len(e.Items))
	for _, item := range e.Items {
		seen[strings.ToLower(item.PartNumber)] = true
	}

	for _, item := range s.Items {
		key := strings.ToLower(item.PartNumber)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		e.Items = append(e.Items, item)
	}
}

func (e *ExcludedParts) PartNumbers() []string {
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		parts = append(parts, item.PartNumber)
	}
	return parts
}

func (e *ExcludedParts) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
