package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/part-recommender/internal/matching"
	"github.com/spigell/part-recommender/internal/spec"
)

func TestLoadExcludedMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()

	excluded, err := LoadExcluded(filepath.Join(dir, "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, excluded.Items)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	excluded, err = LoadExcluded(empty)
	require.NoError(t, err)
	assert.Empty(t, excluded.Items)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0o644))
	_, err = LoadExcluded(broken)
	assert.Error(t, err)
}

func TestExcludedPartsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")

	ranked := []matching.Ranked{
		{Candidate: spec.Candidate{PartNumber: "HCB1608KF-121T30", Vendor: "Tai-Tech"}},
		{Candidate: spec.Candidate{PartNumber: "HCB2012KF-601T20", Vendor: "Tai-Tech"}},
	}

	excluded := &ExcludedParts{}
	excluded.Append(ExcludeRanked(ranked, "already evaluated"))
	excluded.Append(ExcludeRanked(ranked[:1], "duplicate"))
	require.NoError(t, excluded.ToFile(path))

	loaded, err := LoadExcluded(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"HCB1608KF-121T30", "HCB2012KF-601T20"}, loaded.PartNumbers())
	assert.Equal(t, "already evaluated", loaded.Items[0].Reason)
	assert.Equal(t, "Tai-Tech", loaded.Items[1].Vendor)
	assert.False(t, loaded.Items[0].ExcludedAt.IsZero())

	// A shorter list must not leave stale bytes behind.
	loaded.Items = loaded.Items[:1]
	require.NoError(t, loaded.ToFile(path))
	again, err := LoadExcluded(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"HCB1608KF-121T30"}, again.PartNumbers())
}
