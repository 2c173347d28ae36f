package store

import (
	"database/sql"
	"fmt"
)

// Differential classification buckets.
const (
	BucketAccepted = "accepted"
	BucketRejected = "rejected"
	BucketAll      = "all"
)

// Buckets lists the classification buckets in output order.
var Buckets = []string{BucketAccepted, BucketRejected, BucketAll}

// DifferentialLeaf is one test result bucket under
// {matrix1}/{matrix2}/{chromosome}/{gene}/{bucket}. Arrays are aligned:
// index i describes the i-th classified location.
type DifferentialLeaf struct {
	Matrix1    string
	Matrix2    string
	Chromosome string
	Gene       string
	Bucket     string

	SumOfInteractions1 float64
	SumOfInteractions2 float64

	Starts            []int64
	Ends              []int64
	RelativeDistances []float64
	RawTargets1       []float64
	RawTargets2       []float64
	PValues           []float64
}

// Len returns the number of locations in the bucket.
func (l *DifferentialLeaf) Len() int { return len(l.Starts) }

// Path returns the deterministic group path of the leaf.
func (l *DifferentialLeaf) Path() string {
	return GroupPath(l.Matrix1, l.Matrix2, l.Chromosome, l.Gene, l.Bucket)
}

// WriteDifferential stores one test result bucket. Empty buckets are
// skipped.
func (s *Store) WriteDifferential(l *DifferentialLeaf) error {
	if l.Len() == 0 {
		return nil
	}

	_, err := s.db.Exec(`INSERT OR REPLACE INTO differential
		(matrix1, matrix2, chromosome, gene, bucket,
		 sum_of_interactions_1, sum_of_interactions_2,
		 start_list, end_list, relative_distance_list,
		 raw_target_list_1, raw_target_list_2, pvalue_list)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Matrix1, l.Matrix2, l.Chromosome, l.Gene, l.Bucket,
		l.SumOfInteractions1, l.SumOfInteractions2,
		compressInts(l.Starts), compressInts(l.Ends),
		compressFloats(l.RelativeDistances),
		compressFloats(l.RawTargets1), compressFloats(l.RawTargets2),
		compressFloats(l.PValues))
	if err != nil {
		return fmt.Errorf("write differential %s: %w", l.Path(), err)
	}
	return nil
}

// ReadDifferential reconstructs one test result bucket. A missing leaf
// yields an empty leaf, not an error.
func (s *Store) ReadDifferential(matrix1, matrix2, chromosome, gene, bucket string) (*DifferentialLeaf, error) {
	l := &DifferentialLeaf{
		Matrix1:    matrix1,
		Matrix2:    matrix2,
		Chromosome: chromosome,
		Gene:       gene,
		Bucket:     bucket,
	}

	var startBlob, endBlob, distBlob, raw1Blob, raw2Blob, pBlob []byte
	err := s.db.QueryRow(`SELECT sum_of_interactions_1, sum_of_interactions_2,
		start_list, end_list, relative_distance_list,
		raw_target_list_1, raw_target_list_2, pvalue_list
		FROM differential
		WHERE matrix1=? AND matrix2=? AND chromosome=? AND gene=? AND bucket=?`,
		matrix1, matrix2, chromosome, gene, bucket).Scan(
		&l.SumOfInteractions1, &l.SumOfInteractions2,
		&startBlob, &endBlob, &distBlob, &raw1Blob, &raw2Blob, &pBlob)
	if err == sql.ErrNoRows {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read differential %s: %w", l.Path(), err)
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
	if l.RawTargets1, err = decompressFloats(raw1Blob); err != nil {
		return nil, err
	}
	if l.RawTargets2, err = decompressFloats(raw2Blob); err != nil {
		return nil, err
	}
	if l.PValues, err = decompressFloats(pBlob); err != nil {
		return nil, err
	}
	return l, nil
}

// DifferentialCombinations lists the (matrix1, matrix2) pairs present,
// sorted.
func (s *Store) DifferentialCombinations() ([][2]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT matrix1, matrix2 FROM differential ORDER BY matrix1, matrix2`)
	if err != nil {
		return nil, fmt.Errorf("list differential combinations: %w", err)
	}
	defer rows.Close()

	var out [][2]string
	for rows.Next() {
		var m1, m2 string
		if err := rows.Scan(&m1, &m2); err != nil {
			return nil, err
		}
		out = append(out, [2]string{m1, m2})
	}
	return out, rows.Err()
}

// DifferentialChromosomes lists the chromosomes of a matrix pair, sorted.
func (s *Store) DifferentialChromosomes(matrix1, matrix2 string) ([]string, error) {
	return s.stringColumn(
		`SELECT DISTINCT chromosome FROM differential WHERE matrix1=? AND matrix2=? ORDER BY chromosome`,
		matrix1, matrix2)
}

// DifferentialGenes lists the genes of a (matrix pair, chromosome) group,
// sorted.
func (s *Store) DifferentialGenes(matrix1, matrix2, chromosome string) ([]string, error) {
	return s.stringColumn(
		`SELECT DISTINCT gene FROM differential WHERE matrix1=? AND matrix2=? AND chromosome=? ORDER BY gene`,
		matrix1, matrix2, chromosome)
}
