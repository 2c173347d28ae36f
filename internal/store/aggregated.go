package store

import (
	"database/sql"
	"fmt"
)

// AggregatedLeaf is one aggregation result under
// {combination}/{sample}/{chromosome}/{gene}. Arrays are aligned: index i
// describes the i-th merged target of the viewpoint.
type AggregatedLeaf struct {
	Combination string
	Sample      string
	Chromosome  string
	Gene        string

	// SumOfInteractions is the viewpoint-wide interaction total carried
	// through from the interaction leaf.
	SumOfInteractions float64

	Keys              []string
	Starts            []int64
	Ends              []int64
	RelativeDistances []float64
	RawTargets        []float64
}

// Len returns the number of merged targets in the leaf.
func (l *AggregatedLeaf) Len() int { return len(l.Starts) }

// Path returns the deterministic group path of the leaf.
func (l *AggregatedLeaf) Path() string {
	return GroupPath(l.Combination, l.Sample, l.Chromosome, l.Gene)
}

// WriteAggregated stores one aggregation leaf and registers the gene in
// the sample-level genes index. Empty leaves are skipped so downstream
// stages can treat "absent" as "no data".
func (s *Store) WriteAggregated(l *AggregatedLeaf) error {
	if l.Len() == 0 {
		return nil
	}

	_, err := s.db.Exec(`INSERT OR REPLACE INTO aggregated
		(combination, sample, chromosome, gene, sum_of_interactions,
		 record_keys, start_list, end_list, relative_distance_list, raw_target_list)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Combination, l.Sample, l.Chromosome, l.Gene, l.SumOfInteractions,
		compressStrings(l.Keys), compressInts(l.Starts), compressInts(l.Ends),
		compressFloats(l.RelativeDistances), compressFloats(l.RawTargets))
	if err != nil {
		return fmt.Errorf("write aggregated %s: %w", l.Path(), err)
	}

	_, err = s.db.Exec(`INSERT OR IGNORE INTO aggregated_genes
		(combination, sample, gene, chromosome) VALUES (?, ?, ?, ?)`,
		l.Combination, l.Sample, l.Gene, l.Chromosome)
	if err != nil {
		return fmt.Errorf("index aggregated gene %s: %w",
			GroupPath(l.Combination, l.Sample, "genes", l.Gene), err)
	}
	return nil
}

// ReadAggregated reconstructs the leaf at
// {combination}/{sample}/{chromosome}/{gene}. A missing leaf yields an
// empty leaf, not an error.
func (s *Store) ReadAggregated(combination, sample, chromosome, gene string) (*AggregatedLeaf, error) {
	l := &AggregatedLeaf{
		Combination: combination,
		Sample:      sample,
		Chromosome:  chromosome,
		Gene:        gene,
	}

	var keysBlob, startBlob, endBlob, distBlob, rawBlob []byte
	err := s.db.QueryRow(`SELECT sum_of_interactions, record_keys, start_list,
		end_list, relative_distance_list, raw_target_list
		FROM aggregated WHERE combination=? AND sample=? AND chromosome=? AND gene=?`,
		combination, sample, chromosome, gene).Scan(
		&l.SumOfInteractions, &keysBlob, &startBlob, &endBlob, &distBlob, &rawBlob)
	if err == sql.ErrNoRows {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read aggregated %s: %w", l.Path(), err)
	}

	if l.Keys, err = decompressStrings(keysBlob); err != nil {
		return nil, err
	}
	if l.Starts, err = decompressInts(startBlob); err != nil {
		return nil, err
	}
	if l.Ends, err = decompressInts(endBlob); err != nil {
		return nil, err
	}
	if l.RelativeDistances, err = decompressFloats(distBlob); err != nil {
		return nil, err
	}
	if l.RawTargets, err = decompressFloats(rawBlob); err != nil {
		return nil, err
	}
	return l, nil
}

// Combinations lists the matrix combinations present, sorted.
func (s *Store) Combinations() ([]string, error) {
	return s.stringColumn(`SELECT DISTINCT combination FROM aggregated ORDER BY combination`)
}

// CombinationSamples lists the samples stored under a matrix combination,
// sorted. A differential test expects exactly two.
func (s *Store) CombinationSamples(combination string) ([]string, error) {
	return s.stringColumn(
		`SELECT DISTINCT sample FROM aggregated WHERE combination=? ORDER BY sample`,
		combination)
}

// AggregatedChromosomes lists the chromosomes of a (combination, sample)
// group, sorted.
func (s *Store) AggregatedChromosomes(combination, sample string) ([]string, error) {
	return s.stringColumn(
		`SELECT DISTINCT chromosome FROM aggregated WHERE combination=? AND sample=? ORDER BY chromosome`,
		combination, sample)
}

// AggregatedGenes lists the genes of a (combination, sample, chromosome)
// group, sorted.
func (s *Store) AggregatedGenes(combination, sample, chromosome string) ([]string, error) {
	return s.stringColumn(
		`SELECT gene FROM aggregated WHERE combination=? AND sample=? AND chromosome=? ORDER BY gene`,
		combination, sample, chromosome)
}
