package difftest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chictools/chic/internal/pool"
	"github.com/chictools/chic/internal/store"
)

// ErrNothingToTest indicates the aggregated store holds no matrix
// combination with two samples to compare.
var ErrNothingToTest = errors.New("fewer than two matrices to compare")

// Config holds the differential test stage inputs.
type Config struct {
	// AggregatedFile is the store written by the aggregation stage.
	AggregatedFile string
	// Alpha is the significance level.
	Alpha float64
	// OutFileName is the differential result store to create.
	OutFileName string
	// StatisticTest selects the procedure, TestFisher or TestChiSquare.
	StatisticTest string
	// Threads is the worker count for the parallel dispatch.
	Threads int
}

// Pipeline runs the differential test stage: it pairs up the aggregated
// leaves of each matrix combination, tests them and writes the
// accepted/rejected/all classifications to a fresh result store.
type Pipeline struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a differential test pipeline.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress and summary messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// leafKey addresses one aggregated leaf within a matrix combination.
type leafKey struct {
	Sample     string
	Chromosome string
	Gene       string
}

// genePair is one work item: the same gene seen from both samples of a
// matrix combination.
type genePair struct {
	Combination string
	A, B        leafKey
}

// testOutput carries the result leaves of one gene pair back to the
// parent, which performs all writes after the workers join.
type testOutput struct {
	Leaves     []*store.DifferentialLeaf
	Untestable int
}

// Run executes the differential test stage.
func (p *Pipeline) Run(ctx context.Context) error {
	in, err := store.Open(p.cfg.AggregatedFile)
	if err != nil {
		return fmt.Errorf("open aggregated store: %w", err)
	}
	defer in.Close()

	items, err := p.buildWorkItems(in)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return ErrNothingToTest
	}
	p.logger.Info("dispatching differential tests",
		zap.Int("genePairs", len(items)),
		zap.String("statisticTest", p.cfg.StatisticTest),
		zap.Float64("alpha", p.cfg.Alpha),
		zap.Int("threads", p.cfg.Threads))

	task := func(ctx context.Context, chunk []genePair) ([]testOutput, error) {
		outputs := make([]testOutput, 0, len(chunk))
		for _, item := range chunk {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out, ok, err := p.testPair(in, item)
			if err != nil {
				return nil, err
			}
			if ok {
				outputs = append(outputs, out)
			}
		}
		return outputs, nil
	}

	outputs, err := pool.Dispatch(ctx, items, p.cfg.Threads, task)
	if err != nil {
		return err
	}

	return p.writeResults(outputs)
}

// buildWorkItems zips the sorted chromosome and gene lists of the two
// samples of every matrix combination. Combinations without exactly two
// samples are skipped with a warning.
func (p *Pipeline) buildWorkItems(in *store.Store) ([]genePair, error) {
	combinations, err := in.Combinations()
	if err != nil {
		return nil, err
	}

	var items []genePair
	for _, combination := range combinations {
		samples, err := in.CombinationSamples(combination)
		if err != nil {
			return nil, err
		}
		if len(samples) < 2 {
			p.logger.Warn("skipping combination with fewer than two matrices",
				zap.String("combination", combination))
			continue
		}
		matrix1, matrix2 := samples[0], samples[1]

		chroms1, err := in.AggregatedChromosomes(combination, matrix1)
		if err != nil {
			return nil, err
		}
		chroms2, err := in.AggregatedChromosomes(combination, matrix2)
		if err != nil {
			return nil, err
		}
		for c := 0; c < len(chroms1) && c < len(chroms2); c++ {
			genes1, err := in.AggregatedGenes(combination, matrix1, chroms1[c])
			if err != nil {
				return nil, err
			}
			genes2, err := in.AggregatedGenes(combination, matrix2, chroms2[c])
			if err != nil {
				return nil, err
			}
			for g := 0; g < len(genes1) && g < len(genes2); g++ {
				items = append(items, genePair{
					Combination: combination,
					A:           leafKey{Sample: matrix1, Chromosome: chroms1[c], Gene: genes1[g]},
					B:           leafKey{Sample: matrix2, Chromosome: chroms2[c], Gene: genes2[g]},
				})
			}
		}
	}
	return items, nil
}

// testPair reads both aggregated leaves of one gene pair and classifies
// the aligned locations. Pairs where either leaf is empty are skipped.
func (p *Pipeline) testPair(in *store.Store, item genePair) (testOutput, bool, error) {
	var out testOutput

	leaf1, err := in.ReadAggregated(item.Combination, item.A.Sample, item.A.Chromosome, item.A.Gene)
	if err != nil {
		return out, false, err
	}
	leaf2, err := in.ReadAggregated(item.Combination, item.B.Sample, item.B.Chromosome, item.B.Gene)
	if err != nil {
		return out, false, err
	}
	if leaf1.Len() == 0 || leaf2.Len() == 0 {
		return out, false, nil
	}

	n := leaf1.Len()
	if leaf2.Len() < n {
		n = leaf2.Len()
	}
	group1 := make([]Pair, n)
	group2 := make([]Pair, n)
	for i := 0; i < n; i++ {
		group1[i] = Pair{Total: leaf1.SumOfInteractions, Target: leaf1.RawTargets[i]}
		group2[i] = Pair{Total: leaf2.SumOfInteractions, Target: leaf2.RawTargets[i]}
	}

	res, err := Run(p.cfg.StatisticTest, group1, group2, p.cfg.Alpha)
	if err != nil {
		return out, false, err
	}
	out.Untestable = res.Untestable

	all := make([]Classification, n)
	for i := 0; i < n; i++ {
		all[i] = Classification{Index: i, PValue: res.PValues[i]}
	}
	byBucket := map[string][]Classification{
		store.BucketAccepted: res.Accepted,
		store.BucketRejected: res.Rejected,
		store.BucketAll:      all,
	}
	for _, bucket := range store.Buckets {
		out.Leaves = append(out.Leaves, buildLeaf(item, leaf1, leaf2, bucket, byBucket[bucket]))
	}
	return out, true, nil
}

// buildLeaf assembles one classification bucket. Location fields come
// from the first sample's leaf, the raw target counts from both.
func buildLeaf(item genePair, leaf1, leaf2 *store.AggregatedLeaf, bucket string, rows []Classification) *store.DifferentialLeaf {
	l := &store.DifferentialLeaf{
		Matrix1:            item.A.Sample,
		Matrix2:            item.B.Sample,
		Chromosome:         item.A.Chromosome,
		Gene:               item.A.Gene,
		Bucket:             bucket,
		SumOfInteractions1: leaf1.SumOfInteractions,
		SumOfInteractions2: leaf2.SumOfInteractions,
	}
	for _, row := range rows {
		i := row.Index
		l.Starts = append(l.Starts, leaf1.Starts[i])
		l.Ends = append(l.Ends, leaf1.Ends[i])
		l.RelativeDistances = append(l.RelativeDistances, leaf1.RelativeDistances[i])
		l.RawTargets1 = append(l.RawTargets1, leaf1.RawTargets[i])
		l.RawTargets2 = append(l.RawTargets2, leaf2.RawTargets[i])
		l.PValues = append(l.PValues, row.PValue)
	}
	return l
}

// writeResults creates the result store, records the alpha level and
// writes every non-empty bucket.
func (p *Pipeline) writeResults(outputs []testOutput) error {
	out, err := store.Create(p.cfg.OutFileName)
	if err != nil {
		return fmt.Errorf("create differential store: %w", err)
	}
	defer out.Close()

	if err := out.SetAttr("alpha", p.cfg.Alpha); err != nil {
		return err
	}

	written, untestable := 0, 0
	for _, o := range outputs {
		untestable += o.Untestable
		for _, leaf := range o.Leaves {
			if err := out.WriteDifferential(leaf); err != nil {
				return err
			}
			if leaf.Len() > 0 {
				written++
			}
		}
	}

	if untestable > 0 {
		p.logger.Info("samples were not tested because at least one condition contained no data in both groups",
			zap.Int("count", untestable))
	}
	p.logger.Info("differential test finished",
		zap.Int("buckets", written),
		zap.String("outFile", p.cfg.OutFileName))
	return nil
}
