package store

import (
	"database/sql"
	"fmt"

	"github.com/chictools/chic/internal/viewpoint"
)

// WriteInteractions stores one viewpoint leaf under
// {sample}/{chromosome}/{gene} and registers the gene in the sample-level
// genes index. Empty leaves are skipped entirely.
func (s *Store) WriteInteractions(d *viewpoint.Data) error {
	if len(d.Records) == 0 {
		return nil
	}

	keys := viewpoint.SortedKeys(d.Records)
	starts := make([]int64, len(keys))
	ends := make([]int64, len(keys))
	interactions := make([]float64, len(keys))
	distances := make([]float64, len(keys))
	raws := make([]float64, len(keys))
	for i, k := range keys {
		r := d.Records[k]
		starts[i] = r.Start
		ends[i] = r.End
		interactions[i] = r.SumOfInteractions
		distances[i] = r.RelativeDistance
		raws[i] = r.RawTarget
	}

	_, err := s.db.Exec(`INSERT OR REPLACE INTO interactions
		(sample, chromosome, gene, sum_of_interactions,
		 record_keys, start_list, end_list, interaction_list,
		 relative_distance_list, raw_target_list)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Sample, d.Chromosome, d.Gene, d.SumOfInteractions,
		compressStrings(keys), compressInts(starts), compressInts(ends),
		compressFloats(interactions), compressFloats(distances), compressFloats(raws))
	if err != nil {
		return fmt.Errorf("write interactions %s: %w",
			GroupPath(d.Sample, d.Chromosome, d.Gene), err)
	}

	_, err = s.db.Exec(`INSERT OR IGNORE INTO interaction_genes
		(sample, gene, chromosome) VALUES (?, ?, ?)`,
		d.Sample, d.Gene, d.Chromosome)
	if err != nil {
		return fmt.Errorf("index gene %s: %w", GroupPath(d.Sample, d.Gene), err)
	}
	return nil
}

// ReadInteractions reconstructs the viewpoint leaf at
// {sample}/{chromosome}/{gene}. A missing leaf yields empty data, not an
// error: absent means no interactions for this key.
func (s *Store) ReadInteractions(sample, chromosome, gene string) (*viewpoint.Data, error) {
	d := &viewpoint.Data{
		Sample:     sample,
		Chromosome: chromosome,
		Gene:       gene,
		Records:    make(map[string]*viewpoint.Record),
	}

	var keysBlob, startBlob, endBlob, interBlob, distBlob, rawBlob []byte
	err := s.db.QueryRow(`SELECT sum_of_interactions, record_keys, start_list,
		end_list, interaction_list, relative_distance_list, raw_target_list
		FROM interactions WHERE sample=? AND chromosome=? AND gene=?`,
		sample, chromosome, gene).Scan(
		&d.SumOfInteractions, &keysBlob, &startBlob, &endBlob,
		&interBlob, &distBlob, &rawBlob)
	if err == sql.ErrNoRows {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read interactions %s: %w",
			GroupPath(sample, chromosome, gene), err)
	}

	keys, err := decompressStrings(keysBlob)
	if err != nil {
		return nil, err
	}
	starts, err := decompressInts(startBlob)
	if err != nil {
		return nil, err
	}
	ends, err := decompressInts(endBlob)
	if err != nil {
		return nil, err
	}
	interactions, err := decompressFloats(interBlob)
	if err != nil {
		return nil, err
	}
	distances, err := decompressFloats(distBlob)
	if err != nil {
		return nil, err
	}
	raws, err := decompressFloats(rawBlob)
	if err != nil {
		return nil, err
	}

	for i, k := range keys {
		d.Records[k] = &viewpoint.Record{
			Chromosome:        chromosome,
			Start:             starts[i],
			End:               ends[i],
			Gene:              gene,
			SumOfInteractions: interactions[i],
			RelativeDistance:  distances[i],
			RawTarget:         raws[i],
		}
	}
	return d, nil
}

// Samples lists the samples present in the interaction store, sorted.
func (s *Store) Samples() ([]string, error) {
	return s.stringColumn(`SELECT DISTINCT sample FROM interactions ORDER BY sample`)
}

// Chromosomes lists the chromosomes of a sample, sorted.
func (s *Store) Chromosomes(sample string) ([]string, error) {
	return s.stringColumn(
		`SELECT DISTINCT chromosome FROM interactions WHERE sample=? ORDER BY chromosome`,
		sample)
}

// Genes lists the genes of a (sample, chromosome) group, sorted.
func (s *Store) Genes(sample, chromosome string) ([]string, error) {
	return s.stringColumn(
		`SELECT gene FROM interactions WHERE sample=? AND chromosome=? ORDER BY gene`,
		sample, chromosome)
}

// GenesForSample enumerates all genes of a sample via the genes index,
// without walking chromosomes. The result maps gene to its chromosome.
func (s *Store) GenesForSample(sample string) (map[string]string, error) {
	rows, err := s.db.Query(
		`SELECT gene, chromosome FROM interaction_genes WHERE sample=?`, sample)
	if err != nil {
		return nil, fmt.Errorf("list genes for %s: %w", sample, err)
	}
	defer rows.Close()

	genes := make(map[string]string)
	for rows.Next() {
		var gene, chrom string
		if err := rows.Scan(&gene, &chrom); err != nil {
			return nil, err
		}
		genes[gene] = chrom
	}
	return genes, rows.Err()
}
