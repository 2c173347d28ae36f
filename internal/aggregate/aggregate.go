// Package aggregate maps per-viewpoint interaction records onto shared
// target regions and merges records that collapse onto the same target.
package aggregate

import (
	"errors"
	"sort"

	"github.com/chictools/chic/internal/interval"
	"github.com/chictools/chic/internal/viewpoint"
)

// ErrNoTargets indicates a caller contract violation: neither a target
// region list nor a prebuilt interval index was supplied.
var ErrNoTargets = errors.New("no target list given")

// FilterScores assigns each scored record to the target region it
// overlaps and merges all records sharing a target into one record.
//
// Either regions or index must be supplied; when both are given the index
// wins. Records on chromosomes absent from the index, or without any
// overlapping target, are dropped. When several targets overlap a record
// the candidate list is sorted by (start, end) and the first one is
// assigned, so the result is the same on every run.
//
// The merged record keeps the first contributing key (canonical string
// order) as its map key, takes its start from the first and its end from
// the last contributing record, and sums the three trailing numeric
// fields elementwise.
func FilterScores(scores map[string]*viewpoint.Record, regions []interval.TargetRegion, index *interval.Index) (map[string]*viewpoint.Record, error) {
	accepted := make(map[string]*viewpoint.Record)

	if index == nil {
		if regions == nil {
			return nil, ErrNoTargets
		}
		if len(regions) == 0 {
			return accepted, nil
		}
		var err error
		index, err = interval.BuildIndex(regions)
		if err != nil {
			return nil, err
		}
	}

	sameTarget := make(map[interval.TargetRegion][]string)
	for _, key := range viewpoint.SortedKeys(scores) {
		rec := scores[key]
		if !index.HasChromosome(rec.Chromosome) {
			continue
		}
		overlaps := index.Query(rec.Chromosome, rec.Start, rec.End)
		if len(overlaps) == 0 {
			continue
		}
		target := overlaps[0]
		sameTarget[target] = append(sameTarget[target], key)
	}

	targets := make([]interval.TargetRegion, 0, len(sameTarget))
	for t := range sameTarget {
		targets = append(targets, t)
	}
	interval.SortRegions(targets)

	for _, target := range targets {
		keys := sameTarget[target]
		sort.Strings(keys)

		merged := scores[keys[0]].Clone()
		merged.End = scores[keys[len(keys)-1]].End

		var sumInteractions, sumDistance, sumRaw float64
		for _, key := range keys {
			rec := scores[key]
			sumInteractions += rec.SumOfInteractions
			sumDistance += rec.RelativeDistance
			sumRaw += rec.RawTarget
		}
		merged.SumOfInteractions = sumInteractions
		merged.RelativeDistance = sumDistance
		merged.RawTarget = sumRaw

		accepted[keys[0]] = merged
	}

	return accepted, nil
}
