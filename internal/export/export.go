// Package export writes the contents of a result store to tab-separated
// text files, one file per reference point.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/chictools/chic/internal/pool"
	"github.com/chictools/chic/internal/store"
	"github.com/chictools/chic/internal/viewpoint"
)

// File types accepted on the command line.
const (
	TypeInteraction  = "interaction"
	TypeTarget       = "target"
	TypeAggregated   = "aggregated"
	TypeDifferential = "differential"
)

// Config holds the export inputs.
type Config struct {
	// File is the store to export.
	File string
	// FileType selects which table layout the store holds.
	FileType string
	// OutFolder receives one .txt file per reference point.
	OutFolder string
	// DecimalPlaces formats all floating point output values.
	DecimalPlaces int
	// Threads is the worker count for rendering.
	Threads int
}

// Exporter renders store leaves to text files.
type Exporter struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an exporter.
func New(cfg Config) *Exporter {
	return &Exporter{cfg: cfg, logger: zap.NewNop()}
}

// SetLogger sets the logger for summary messages.
func (e *Exporter) SetLogger(l *zap.Logger) {
	e.logger = l
}

// textFile is one rendered output file.
type textFile struct {
	Name    string
	Content string
}

// Run renders every leaf of the store and writes the files.
func (e *Exporter) Run(ctx context.Context) error {
	s, err := store.Open(e.cfg.File)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	var render pool.Task[[]string, textFile]
	var items [][]string

	switch e.cfg.FileType {
	case TypeInteraction:
		items, err = interactionItems(s)
		render = e.renderTask(s, e.renderInteraction)
	case TypeTarget:
		items, err = targetItems(s)
		render = e.renderTask(s, e.renderTarget)
	case TypeAggregated:
		items, err = aggregatedItems(s)
		render = e.renderTask(s, e.renderAggregated)
	case TypeDifferential:
		items, err = differentialItems(s)
		render = e.renderTask(s, e.renderDifferential)
	default:
		return fmt.Errorf("unknown file type %q", e.cfg.FileType)
	}
	if err != nil {
		return err
	}

	files, err := pool.Dispatch(ctx, items, e.cfg.Threads, render)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(e.cfg.OutFolder, 0755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}
	for _, f := range files {
		path := filepath.Join(e.cfg.OutFolder, f.Name)
		if err := os.WriteFile(path, []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	e.logger.Info("export finished",
		zap.Int("files", len(files)),
		zap.String("outFolder", e.cfg.OutFolder))
	return nil
}

// renderTask lifts a per-item renderer into a chunk task.
func (e *Exporter) renderTask(s *store.Store, render func(*store.Store, []string) ([]textFile, error)) pool.Task[[]string, textFile] {
	return func(ctx context.Context, chunk [][]string) ([]textFile, error) {
		var out []textFile
		for _, item := range chunk {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			files, err := render(s, item)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
		}
		return out, nil
	}
}

func (e *Exporter) float(x float64) string {
	return strconv.FormatFloat(x, 'f', e.cfg.DecimalPlaces, 64)
}

func fileName(keys ...string) string {
	return strings.Join(keys, "_") + ".txt"
}

func interactionItems(s *store.Store) ([][]string, error) {
	samples, err := s.Samples()
	if err != nil {
		return nil, err
	}
	var items [][]string
	for _, sample := range samples {
		chroms, err := s.Chromosomes(sample)
		if err != nil {
			return nil, err
		}
		for _, chrom := range chroms {
			genes, err := s.Genes(sample, chrom)
			if err != nil {
				return nil, err
			}
			for _, gene := range genes {
				items = append(items, []string{sample, chrom, gene})
			}
		}
	}
	return items, nil
}

func (e *Exporter) renderInteraction(s *store.Store, item []string) ([]textFile, error) {
	data, err := s.ReadInteractions(item[0], item[1], item[2])
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("# Chromosome\tStart\tEnd\tGene\tSum of interactions\tRelative distance\tRaw\n")
	for _, key := range viewpoint.SortedKeys(data.Records) {
		r := data.Records[key]
		fmt.Fprintf(&b, "%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			r.Chromosome, r.Start, r.End, r.Gene,
			e.float(r.SumOfInteractions), e.float(r.RelativeDistance), e.float(r.RawTarget))
	}
	return []textFile{{Name: fileName(item...), Content: b.String()}}, nil
}

func targetItems(s *store.Store) ([][]string, error) {
	keys, err := s.TargetKeys()
	if err != nil {
		return nil, err
	}
	var items [][]string
	for _, k := range keys {
		items = append(items, []string{k.Matrix1, k.Matrix2, "genes", k.Gene})
	}
	return items, nil
}

func (e *Exporter) renderTarget(s *store.Store, item []string) ([]textFile, error) {
	regions, err := s.ReadTargetRegions(store.TargetKey{
		Matrix1: item[0], Matrix2: item[1], Gene: item[3],
	})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("# Chromosome\tStart\tEnd\n")
	for _, r := range regions {
		fmt.Fprintf(&b, "%s\t%d\t%d\n", r.Chromosome, r.Start, r.End)
	}
	return []textFile{{Name: fileName(item...), Content: b.String()}}, nil
}

func aggregatedItems(s *store.Store) ([][]string, error) {
	combinations, err := s.Combinations()
	if err != nil {
		return nil, err
	}
	var items [][]string
	for _, combination := range combinations {
		samples, err := s.CombinationSamples(combination)
		if err != nil {
			return nil, err
		}
		for _, sample := range samples {
			chroms, err := s.AggregatedChromosomes(combination, sample)
			if err != nil {
				return nil, err
			}
			for _, chrom := range chroms {
				genes, err := s.AggregatedGenes(combination, sample, chrom)
				if err != nil {
					return nil, err
				}
				for _, gene := range genes {
					items = append(items, []string{combination, sample, chrom, gene})
				}
			}
		}
	}
	return items, nil
}

func (e *Exporter) renderAggregated(s *store.Store, item []string) ([]textFile, error) {
	leaf, err := s.ReadAggregated(item[0], item[1], item[2], item[3])
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("# Chromosome\tStart\tEnd\tGene\tSum of interactions\tRelative distance\tRaw\n")
	for i := 0; i < leaf.Len(); i++ {
		fmt.Fprintf(&b, "%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			leaf.Chromosome, leaf.Starts[i], leaf.Ends[i], leaf.Gene,
			e.float(leaf.SumOfInteractions),
			e.float(leaf.RelativeDistances[i]), e.float(leaf.RawTargets[i]))
	}
	return []textFile{{Name: fileName(item...), Content: b.String()}}, nil
}

func differentialItems(s *store.Store) ([][]string, error) {
	combinations, err := s.DifferentialCombinations()
	if err != nil {
		return nil, err
	}
	var items [][]string
	for _, pair := range combinations {
		chroms, err := s.DifferentialChromosomes(pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		for _, chrom := range chroms {
			genes, err := s.DifferentialGenes(pair[0], pair[1], chrom)
			if err != nil {
				return nil, err
			}
			for _, gene := range genes {
				items = append(items, []string{pair[0], pair[1], chrom, gene})
			}
		}
	}
	return items, nil
}

func (e *Exporter) renderDifferential(s *store.Store, item []string) ([]textFile, error) {
	var files []textFile
	for _, bucket := range store.Buckets {
		leaf, err := s.ReadDifferential(item[0], item[1], item[2], item[3], bucket)
		if err != nil {
			return nil, err
		}
		if leaf.Len() == 0 {
			continue
		}

		var b strings.Builder
		b.WriteString("# Chromosome\tStart\tEnd\tGene\tRelative distance\tsum of interactions 1\ttarget_1 raw\tsum of interactions 2\ttarget_2 raw\tp-value\n")
		for i := 0; i < leaf.Len(); i++ {
			fmt.Fprintf(&b, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				leaf.Chromosome, leaf.Starts[i], leaf.Ends[i], leaf.Gene,
				e.float(leaf.RelativeDistances[i]),
				e.float(leaf.SumOfInteractions1), e.float(leaf.RawTargets1[i]),
				e.float(leaf.SumOfInteractions2), e.float(leaf.RawTargets2[i]),
				e.float(leaf.PValues[i]))
		}
		name := fileName(append(append([]string{}, item...), bucket)...)
		files = append(files, textFile{Name: name, Content: b.String()})
	}
	return files, nil
}
