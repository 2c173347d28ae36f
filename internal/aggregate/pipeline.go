package aggregate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chictools/chic/internal/interval"
	"github.com/chictools/chic/internal/pool"
	"github.com/chictools/chic/internal/store"
	"github.com/chictools/chic/internal/viewpoint"
)

// ErrTooFewMatrices indicates the interaction store holds fewer than two
// matrices, so there is nothing to prepare for a differential test.
var ErrTooFewMatrices = errors.New("at least two matrices need to be stored, but only one is present")

// Config holds the aggregation stage inputs.
type Config struct {
	// InteractionFile is the store written by the viewpoint stage.
	InteractionFile string
	// TargetFile is either a target store or a three-column region file.
	TargetFile string
	// OutFileName is the aggregated store to create.
	OutFileName string
	// Threads is the worker count for the parallel dispatch.
	Threads int
}

// Pipeline runs the aggregation stage: it pairs up samples, maps each
// viewpoint onto its target regions and writes the merged records to a
// fresh aggregated store.
type Pipeline struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an aggregation pipeline.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress and summary messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// viewpointKey addresses one viewpoint leaf in the interaction store.
type viewpointKey struct {
	Sample     string
	Chromosome string
	Gene       string
}

// workItem is one sample pair for a single gene. When the target file is
// a flat region list all items share one prebuilt index and Target is
// nil; otherwise Target addresses the per-gene target leaf.
type workItem struct {
	Pair   [2]viewpointKey
	Target *store.TargetKey
}

// pairResult carries the aggregated scores of both samples of one item
// back to the parent, which performs all writes after the workers join.
type pairResult struct {
	Keys   [2]viewpointKey
	Totals [2]float64
	Scores [2]map[string]*viewpoint.Record
}

// Run executes the aggregation stage.
func (p *Pipeline) Run(ctx context.Context) error {
	in, err := store.Open(p.cfg.InteractionFile)
	if err != nil {
		return fmt.Errorf("open interaction store: %w", err)
	}
	defer in.Close()

	samples, err := in.Samples()
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return ErrTooFewMatrices
	}

	var (
		sharedIndex *interval.Index
		targets     *store.Store
		present     map[string]map[string]map[string]bool
	)
	if store.IsStoreFile(p.cfg.TargetFile) {
		targets, err = store.Open(p.cfg.TargetFile)
		if err != nil {
			return fmt.Errorf("open target store: %w", err)
		}
		defer targets.Close()

		present, err = targets.PresentGenes()
		if err != nil {
			return err
		}
	} else {
		regions, err := interval.ReadBED(p.cfg.TargetFile)
		if err != nil {
			return err
		}
		sharedIndex, err = interval.BuildIndex(regions)
		if err != nil {
			return err
		}
	}

	items, err := p.buildWorkItems(in, samples, present)
	if err != nil {
		return err
	}
	p.logger.Info("dispatching aggregation",
		zap.Int("combinations", len(items)),
		zap.Int("threads", p.cfg.Threads))

	task := func(ctx context.Context, chunk []workItem) ([]pairResult, error) {
		results := make([]pairResult, 0, len(chunk))
		for _, item := range chunk {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := p.aggregateItem(in, targets, sharedIndex, item)
			if err != nil {
				return nil, err
			}
			results = append(results, res)
		}
		return results, nil
	}

	results, err := pool.Dispatch(ctx, items, p.cfg.Threads, task)
	if err != nil {
		return err
	}

	return p.writeResults(results)
}

// buildWorkItems pairs every sample with every later sample and zips
// their sorted chromosome and gene lists. With a target store, only genes
// with a target leaf for the pair are kept.
func (p *Pipeline) buildWorkItems(in *store.Store, samples []string, present map[string]map[string]map[string]bool) ([]workItem, error) {
	var items []workItem
	for i, sample1 := range samples {
		for _, sample2 := range samples[i+1:] {
			chroms1, err := in.Chromosomes(sample1)
			if err != nil {
				return nil, err
			}
			chroms2, err := in.Chromosomes(sample2)
			if err != nil {
				return nil, err
			}
			for c := 0; c < len(chroms1) && c < len(chroms2); c++ {
				genes1, err := in.Genes(sample1, chroms1[c])
				if err != nil {
					return nil, err
				}
				genes2, err := in.Genes(sample2, chroms2[c])
				if err != nil {
					return nil, err
				}
				for g := 0; g < len(genes1) && g < len(genes2); g++ {
					item := workItem{
						Pair: [2]viewpointKey{
							{Sample: sample1, Chromosome: chroms1[c], Gene: genes1[g]},
							{Sample: sample2, Chromosome: chroms2[c], Gene: genes2[g]},
						},
					}
					if present != nil {
						if !present[sample1][sample2][genes1[g]] {
							continue
						}
						item.Target = &store.TargetKey{
							Matrix1: sample1,
							Matrix2: sample2,
							Gene:    genes1[g],
						}
					}
					items = append(items, item)
				}
			}
		}
	}
	return items, nil
}

// aggregateItem aggregates both viewpoints of one work item. Reads only;
// writing is left to the parent process.
func (p *Pipeline) aggregateItem(in, targets *store.Store, sharedIndex *interval.Index, item workItem) (pairResult, error) {
	res := pairResult{Keys: item.Pair}

	var regions []interval.TargetRegion
	if sharedIndex == nil {
		var err error
		regions, err = targets.ReadTargetRegions(*item.Target)
		if err != nil {
			return res, err
		}
		if regions == nil {
			regions = []interval.TargetRegion{}
		}
	}

	for side, key := range item.Pair {
		data, err := in.ReadInteractions(key.Sample, key.Chromosome, key.Gene)
		if err != nil {
			return res, err
		}
		accepted, err := FilterScores(data.Records, regions, sharedIndex)
		if err != nil {
			return res, err
		}
		res.Totals[side] = data.SumOfInteractions
		res.Scores[side] = accepted
	}
	return res, nil
}

// writeResults creates the aggregated store and writes one leaf per
// non-empty (combination, sample, gene). Empty results leave no trace.
func (p *Pipeline) writeResults(results []pairResult) error {
	out, err := store.Create(p.cfg.OutFileName)
	if err != nil {
		return fmt.Errorf("create aggregated store: %w", err)
	}
	defer out.Close()

	written := 0
	for _, res := range results {
		combination := res.Keys[0].Sample + "_" + res.Keys[1].Sample
		for side, key := range res.Keys {
			scores := res.Scores[side]
			if len(scores) == 0 {
				continue
			}
			leaf := &store.AggregatedLeaf{
				Combination:       combination,
				Sample:            key.Sample,
				Chromosome:        key.Chromosome,
				Gene:              key.Gene,
				SumOfInteractions: res.Totals[side],
			}
			for _, k := range viewpoint.SortedKeys(scores) {
				rec := scores[k]
				leaf.Keys = append(leaf.Keys, k)
				leaf.Starts = append(leaf.Starts, rec.Start)
				leaf.Ends = append(leaf.Ends, rec.End)
				leaf.RelativeDistances = append(leaf.RelativeDistances, rec.RelativeDistance)
				leaf.RawTargets = append(leaf.RawTargets, rec.RawTarget)
			}
			if err := out.WriteAggregated(leaf); err != nil {
				return err
			}
			written++
		}
	}

	p.logger.Info("aggregation finished",
		zap.Int("leaves", written),
		zap.String("outFile", p.cfg.OutFileName))
	return nil
}
