package interval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestIndex(t *testing.T, regions []TargetRegion) *Index {
	t.Helper()
	idx, err := BuildIndex(regions)
	require.NoError(t, err)
	return idx
}

func TestQueryOverlap(t *testing.T) {
	idx := buildTestIndex(t, []TargetRegion{
		{Chromosome: "chr1", Start: 100, End: 200},
		{Chromosome: "chr1", Start: 500, End: 600},
		{Chromosome: "chr2", Start: 100, End: 200},
	})

	hits := idx.Query("chr1", 150, 250)
	require.Len(t, hits, 1)
	assert.Equal(t, TargetRegion{Chromosome: "chr1", Start: 100, End: 200}, hits[0])

	hits = idx.Query("chr1", 0, 1000)
	assert.Len(t, hits, 2)

	assert.Empty(t, idx.Query("chr1", 300, 400))
	assert.Empty(t, idx.Query("chr3", 100, 200))
}

func TestQueryHalfOpen(t *testing.T) {
	idx := buildTestIndex(t, []TargetRegion{
		{Chromosome: "chr1", Start: 100, End: 200},
	})

	// [200, 300) does not touch [100, 200).
	assert.Empty(t, idx.Query("chr1", 200, 300))
	// [0, 100) does not touch it either.
	assert.Empty(t, idx.Query("chr1", 0, 100))
	// [199, 200) does.
	assert.Len(t, idx.Query("chr1", 199, 200), 1)
}

func TestQueryTieBreakOrder(t *testing.T) {
	idx := buildTestIndex(t, []TargetRegion{
		{Chromosome: "chr1", Start: 150, End: 400},
		{Chromosome: "chr1", Start: 100, End: 300},
		{Chromosome: "chr1", Start: 100, End: 250},
	})

	hits := idx.Query("chr1", 160, 240)
	require.Len(t, hits, 3)
	assert.Equal(t, TargetRegion{Chromosome: "chr1", Start: 100, End: 250}, hits[0])
	assert.Equal(t, TargetRegion{Chromosome: "chr1", Start: 100, End: 300}, hits[1])
	assert.Equal(t, TargetRegion{Chromosome: "chr1", Start: 150, End: 400}, hits[2])
}

func TestHasChromosome(t *testing.T) {
	idx := buildTestIndex(t, []TargetRegion{
		{Chromosome: "chr1", Start: 100, End: 200},
	})
	assert.True(t, idx.HasChromosome("chr1"))
	assert.False(t, idx.HasChromosome("chrX"))
}

func TestReadBED(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.bed")
	content := "# comment line\n" +
		"chr1\t100\t200\n" +
		"chr1\t500\t600\textra\tcolumns\n" +
		"\n" +
		"short\tline\n" +
		"chr2\t0\t50\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	regions, err := ReadBED(path)
	require.NoError(t, err)
	assert.Equal(t, []TargetRegion{
		{Chromosome: "chr1", Start: 100, End: 200},
		{Chromosome: "chr1", Start: 500, End: 600},
		{Chromosome: "chr2", Start: 0, End: 50},
	}, regions)
}

func TestReadBEDInvalidCoordinate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.bed")
	require.NoError(t, os.WriteFile(path, []byte("chr1\tabc\t200\n"), 0644))

	_, err := ReadBED(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse start")
}

func TestSortRegions(t *testing.T) {
	regions := []TargetRegion{
		{Chromosome: "chr2", Start: 100, End: 200},
		{Chromosome: "chr1", Start: 100, End: 300},
		{Chromosome: "chr1", Start: 100, End: 200},
		{Chromosome: "chr1", Start: 50, End: 60},
	}
	SortRegions(regions)
	assert.Equal(t, []TargetRegion{
		{Chromosome: "chr1", Start: 50, End: 60},
		{Chromosome: "chr1", Start: 100, End: 200},
		{Chromosome: "chr1", Start: 100, End: 300},
		{Chromosome: "chr2", Start: 100, End: 200},
	}, regions)
}
