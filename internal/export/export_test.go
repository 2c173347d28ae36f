package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chictools/chic/internal/store"
	"github.com/chictools/chic/internal/viewpoint"
)

func runExport(t *testing.T, storePath, fileType string) string {
	t.Helper()
	outFolder := filepath.Join(t.TempDir(), "exported")
	e := New(Config{
		File:          storePath,
		FileType:      fileType,
		OutFolder:     outFolder,
		DecimalPlaces: 2,
		Threads:       2,
	})
	require.NoError(t, e.Run(context.Background()))
	return outFolder
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestExportInteraction(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "interactions.duckdb")
	s, err := store.Create(storePath)
	require.NoError(t, err)
	require.NoError(t, s.WriteInteractions(&viewpoint.Data{
		Sample: "FL-E13-5", Chromosome: "chr1", Gene: "Tfap2d",
		SumOfInteractions: 812.5,
		Records: map[string]*viewpoint.Record{
			"chr1_100_200": {Chromosome: "chr1", Start: 100, End: 200, Gene: "Tfap2d",
				SumOfInteractions: 5.125, RelativeDistance: 0.1, RawTarget: 2},
		},
	}))
	require.NoError(t, s.Close())

	outFolder := runExport(t, storePath, TypeInteraction)

	content := readFile(t, filepath.Join(outFolder, "FL-E13-5_chr1_Tfap2d.txt"))
	assert.Equal(t,
		"# Chromosome\tStart\tEnd\tGene\tSum of interactions\tRelative distance\tRaw\n"+
			"chr1\t100\t200\tTfap2d\t5.13\t0.10\t2.00\n",
		content)
}

func TestExportTarget(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "targets.duckdb")
	s, err := store.Create(storePath)
	require.NoError(t, err)
	require.NoError(t, s.WriteTargets(
		store.TargetKey{Matrix1: "FL-E13-5", Matrix2: "MB-E10-5", Gene: "Tfap2d"},
		"chr1", []int64{100, 500}, []int64{300, 700}))
	require.NoError(t, s.Close())

	outFolder := runExport(t, storePath, TypeTarget)

	content := readFile(t, filepath.Join(outFolder, "FL-E13-5_MB-E10-5_genes_Tfap2d.txt"))
	assert.Equal(t,
		"# Chromosome\tStart\tEnd\nchr1\t100\t300\nchr1\t500\t700\n",
		content)
}

func TestExportAggregated(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "aggregate_target.duckdb")
	s, err := store.Create(storePath)
	require.NoError(t, err)
	require.NoError(t, s.WriteAggregated(&store.AggregatedLeaf{
		Combination: "A_B", Sample: "A", Chromosome: "chr1", Gene: "Tfap2d",
		SumOfInteractions: 100,
		Keys:              []string{"chr1_100_200"},
		Starts:            []int64{100},
		Ends:              []int64{250},
		RelativeDistances: []float64{0.3},
		RawTargets:        []float64{3},
	}))
	require.NoError(t, s.Close())

	outFolder := runExport(t, storePath, TypeAggregated)

	content := readFile(t, filepath.Join(outFolder, "A_B_A_chr1_Tfap2d.txt"))
	assert.Equal(t,
		"# Chromosome\tStart\tEnd\tGene\tSum of interactions\tRelative distance\tRaw\n"+
			"chr1\t100\t250\tTfap2d\t100.00\t0.30\t3.00\n",
		content)
}

func TestExportDifferentialSkipsEmptyBuckets(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "differentialResults.duckdb")
	s, err := store.Create(storePath)
	require.NoError(t, err)
	write := func(bucket string, starts []int64) {
		leaf := &store.DifferentialLeaf{
			Matrix1: "A", Matrix2: "B", Chromosome: "chr1", Gene: "Tfap2d",
			Bucket:             bucket,
			SumOfInteractions1: 100,
			SumOfInteractions2: 100,
		}
		for _, start := range starts {
			leaf.Starts = append(leaf.Starts, start)
			leaf.Ends = append(leaf.Ends, start+50)
			leaf.RelativeDistances = append(leaf.RelativeDistances, 0.3)
			leaf.RawTargets1 = append(leaf.RawTargets1, 50)
			leaf.RawTargets2 = append(leaf.RawTargets2, 20)
			leaf.PValues = append(leaf.PValues, 0.0019)
		}
		require.NoError(t, s.WriteDifferential(leaf))
	}
	write(store.BucketRejected, []int64{100})
	write(store.BucketAll, []int64{100})
	// accepted stays empty and must produce no file
	require.NoError(t, s.Close())

	outFolder := runExport(t, storePath, TypeDifferential)

	content := readFile(t, filepath.Join(outFolder, "A_B_chr1_Tfap2d_rejected.txt"))
	assert.Equal(t,
		"# Chromosome\tStart\tEnd\tGene\tRelative distance\tsum of interactions 1\ttarget_1 raw\tsum of interactions 2\ttarget_2 raw\tp-value\n"+
			"chr1\t100\t150\tTfap2d\t0.30\t100.00\t50.00\t100.00\t20.00\t0.00\n",
		content)

	_, err = os.Stat(filepath.Join(outFolder, "A_B_chr1_Tfap2d_all.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outFolder, "A_B_chr1_Tfap2d_accepted.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestExportUnknownFileType(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "any.duckdb")
	s, err := store.Create(storePath)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	e := New(Config{File: storePath, FileType: "bogus", OutFolder: t.TempDir()})
	err = e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown file type")
}
