package store

import (
	"database/sql"
	"fmt"

	"github.com/chictools/chic/internal/interval"
)

// TargetKey addresses one target leaf {matrix1}/{matrix2}/genes/{gene}
// produced by the significant-interaction stage.
type TargetKey struct {
	Matrix1 string
	Matrix2 string
	Gene    string
}

func (k TargetKey) Path() string {
	return GroupPath(k.Matrix1, k.Matrix2, "genes", k.Gene)
}

// WriteTargets stores the target regions of one gene. All regions of a
// leaf share a chromosome. Empty leaves are skipped.
func (s *Store) WriteTargets(key TargetKey, chromosome string, starts, ends []int64) error {
	if len(starts) == 0 {
		return nil
	}
	if len(starts) != len(ends) {
		return fmt.Errorf("write targets %s: start/end length mismatch", key.Path())
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO targets
		(matrix1, matrix2, gene, chromosome, start_list, end_list)
		VALUES (?, ?, ?, ?, ?, ?)`,
		key.Matrix1, key.Matrix2, key.Gene, chromosome,
		compressInts(starts), compressInts(ends))
	if err != nil {
		return fmt.Errorf("write targets %s: %w", key.Path(), err)
	}
	return nil
}

// TargetKeys lists all target leaves in deterministic order.
func (s *Store) TargetKeys() ([]TargetKey, error) {
	rows, err := s.db.Query(
		`SELECT matrix1, matrix2, gene FROM targets ORDER BY matrix1, matrix2, gene`)
	if err != nil {
		return nil, fmt.Errorf("list target keys: %w", err)
	}
	defer rows.Close()

	var keys []TargetKey
	for rows.Next() {
		var k TargetKey
		if err := rows.Scan(&k.Matrix1, &k.Matrix2, &k.Gene); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ReadTargetRegions reconstructs the target regions of one leaf. A missing
// leaf yields no regions.
func (s *Store) ReadTargetRegions(key TargetKey) ([]interval.TargetRegion, error) {
	var chromosome string
	var startBlob, endBlob []byte
	err := s.db.QueryRow(`SELECT chromosome, start_list, end_list
		FROM targets WHERE matrix1=? AND matrix2=? AND gene=?`,
		key.Matrix1, key.Matrix2, key.Gene).Scan(&chromosome, &startBlob, &endBlob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read targets %s: %w", key.Path(), err)
	}

	starts, err := decompressInts(startBlob)
	if err != nil {
		return nil, err
	}
	ends, err := decompressInts(endBlob)
	if err != nil {
		return nil, err
	}

	regions := make([]interval.TargetRegion, len(starts))
	for i := range starts {
		regions[i] = interval.TargetRegion{
			Chromosome: chromosome,
			Start:      starts[i],
			End:        ends[i],
		}
	}
	return regions, nil
}

// PresentGenes maps matrix1 -> matrix2 -> genes with a target leaf. The
// aggregation stage only tests gene combinations present here.
func (s *Store) PresentGenes() (map[string]map[string]map[string]bool, error) {
	keys, err := s.TargetKeys()
	if err != nil {
		return nil, err
	}
	present := make(map[string]map[string]map[string]bool)
	for _, k := range keys {
		inner, ok := present[k.Matrix1]
		if !ok {
			inner = make(map[string]map[string]bool)
			present[k.Matrix1] = inner
		}
		genes, ok := inner[k.Matrix2]
		if !ok {
			genes = make(map[string]bool)
			inner[k.Matrix2] = genes
		}
		genes[k.Gene] = true
	}
	return present, nil
}
