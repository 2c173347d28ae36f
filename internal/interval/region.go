// Package interval provides target regions and per-chromosome interval
// indexes for mapping scored records onto shared targets.
package interval

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// TargetRegion is one region records are aggregated against. Regions are
// immutable once loaded.
type TargetRegion struct {
	Chromosome string
	Start      int64
	End        int64
}

func (r TargetRegion) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chromosome, r.Start, r.End)
}

// SortRegions orders regions canonically by (chromosome, start, end).
func SortRegions(regions []TargetRegion) {
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Chromosome != regions[j].Chromosome {
			return regions[i].Chromosome < regions[j].Chromosome
		}
		if regions[i].Start != regions[j].Start {
			return regions[i].Start < regions[j].Start
		}
		return regions[i].End < regions[j].End
	})
}

// ReadBED reads target regions from a three-column tab-separated file.
// Comment lines and lines with fewer than three columns are skipped.
func ReadBED(path string) ([]TargetRegion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open region file: %w", err)
	}
	defer f.Close()

	var regions []TargetRegion
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("region file line %d: parse start: %w", lineNo, err)
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("region file line %d: parse end: %w", lineNo, err)
		}
		regions = append(regions, TargetRegion{
			Chromosome: fields[0],
			Start:      start,
			End:        end,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read region file: %w", err)
	}
	return regions, nil
}
