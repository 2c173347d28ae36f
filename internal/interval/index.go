package interval

import (
	"sort"

	"github.com/biogo/store/interval"
)

// regionInterval adapts a TargetRegion to the biogo interval tree interface.
type regionInterval struct {
	start, end int
	id         uintptr
	region     TargetRegion
}

// Overlap reports half-open [start, end) intersection.
func (i regionInterval) Overlap(b interval.IntRange) bool {
	return i.end > b.Start && i.start < b.End
}

func (i regionInterval) ID() uintptr { return i.id }

func (i regionInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.start, End: i.end}
}

// Index maps [start, end) ranges to target regions, one tree per
// chromosome. Built once per target-region set, queried read-only.
type Index struct {
	trees map[string]*interval.IntTree
}

// BuildIndex creates an interval index from a list of target regions.
func BuildIndex(regions []TargetRegion) (*Index, error) {
	idx := &Index{trees: make(map[string]*interval.IntTree)}
	for n, r := range regions {
		tree, ok := idx.trees[r.Chromosome]
		if !ok {
			tree = &interval.IntTree{}
			idx.trees[r.Chromosome] = tree
		}
		iv := regionInterval{
			start:  int(r.Start),
			end:    int(r.End),
			id:     uintptr(n),
			region: r,
		}
		if err := tree.Insert(iv, false); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// HasChromosome reports whether the index holds any region on chrom.
func (x *Index) HasChromosome(chrom string) bool {
	_, ok := x.trees[chrom]
	return ok
}

// Query returns all target regions overlapping [start, end) on chrom,
// ordered by (start, end) so the first entry is the canonical tie-break.
func (x *Index) Query(chrom string, start, end int64) []TargetRegion {
	tree, ok := x.trees[chrom]
	if !ok {
		return nil
	}
	hits := tree.Get(regionInterval{start: int(start), end: int(end)})
	if len(hits) == 0 {
		return nil
	}
	regions := make([]TargetRegion, len(hits))
	for i, h := range hits {
		regions[i] = h.(regionInterval).region
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Start != regions[j].Start {
			return regions[i].Start < regions[j].Start
		}
		return regions[i].End < regions[j].End
	})
	return regions
}
