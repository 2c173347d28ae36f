// Package viewpoint defines the per-viewpoint interaction records produced
// by upstream viewpoint extraction and consumed by the aggregation stage.
package viewpoint

import (
	"fmt"
	"sort"
)

// Record is one scored interaction of a viewpoint with a genomic region.
// The three trailing numeric fields are the ones summed when records are
// merged onto a shared target.
type Record struct {
	Chromosome string
	Start      int64
	End        int64
	Gene       string

	SumOfInteractions float64
	RelativeDistance  float64
	RawTarget         float64
}

// Key returns the canonical record key. Keys sort lexicographically, which
// fixes the merge order when several records collapse onto one target.
func (r *Record) Key() string {
	return fmt.Sprintf("%s_%d_%d", r.Chromosome, r.Start, r.End)
}

// Clone returns a copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// Data holds all records of one (sample, chromosome, gene) viewpoint leaf
// together with the viewpoint-wide interaction total.
type Data struct {
	Sample     string
	Chromosome string
	Gene       string

	// SumOfInteractions is the total interaction count of the whole
	// viewpoint, not the sum of the per-record fields.
	SumOfInteractions float64

	Records map[string]*Record
}

// SortedKeys returns the record keys of m in canonical order.
func SortedKeys(m map[string]*Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
