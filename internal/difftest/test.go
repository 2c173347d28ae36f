// Package difftest tests pairs of aggregated interaction counts for
// differential chromatin interactions using Fisher's exact test or the
// chi-squared contingency test.
package difftest

import (
	"fmt"
	"math"

	fet "github.com/glycerine/golang-fisher-exact"
	"gonum.org/v1/gonum/stat/distuv"
)

// Test procedure names as accepted on the command line.
const (
	TestFisher    = "fisher"
	TestChiSquare = "chi2"
)

// Pair is one aligned observation: the viewpoint-wide interaction total
// and the raw target count of a single location.
type Pair struct {
	Total  float64
	Target float64
}

// Classification is one classified location with its p-value.
type Classification struct {
	Index  int
	PValue float64
}

// Result holds all three views of a test run. Every index appears in
// exactly one of Accepted or Rejected; untestable pairs default into
// Accepted with p = 1.0 while PValues carries NaN for them.
type Result struct {
	// PValues is the full ordered p-value list, NaN where untestable.
	PValues []float64
	// Accepted are the locations where H0 was not rejected.
	Accepted []Classification
	// Rejected are the locations where H0 was rejected, i.e. the
	// differential interactions.
	Rejected []Classification
	// Untestable counts pairs excluded because a contingency row or
	// column summed to zero.
	Untestable int
}

// ChiSquare classifies each aligned pair with a 2x2 chi-squared
// contingency test without Yates continuity correction. H0 is rejected
// when the statistic meets or exceeds the critical value for one degree
// of freedom at confidence level 1-alpha.
func ChiSquare(group1, group2 []Pair, alpha float64) (*Result, error) {
	if len(group1) != len(group2) {
		return nil, fmt.Errorf("group length mismatch: %d vs %d", len(group1), len(group2))
	}

	dist := distuv.ChiSquared{K: 1}
	critical := dist.Quantile(1 - alpha)

	res := &Result{PValues: make([]float64, 0, len(group1))}
	for i := range group1 {
		a, b := group1[i].Total, group1[i].Target
		c, d := group2[i].Total, group2[i].Target

		// A zero row or column sum makes the expected frequencies
		// undefined; the pair is untestable.
		if a+b == 0 || c+d == 0 || a+c == 0 || b+d == 0 {
			res.Untestable++
			res.PValues = append(res.PValues, math.NaN())
			res.Accepted = append(res.Accepted, Classification{Index: i, PValue: 1.0})
			continue
		}

		n := a + b + c + d
		diff := a*d - b*c
		statistic := n * diff * diff / ((a + b) * (c + d) * (a + c) * (b + d))
		p := dist.Survival(statistic)

		res.PValues = append(res.PValues, p)
		if statistic >= critical {
			res.Rejected = append(res.Rejected, Classification{Index: i, PValue: p})
		} else {
			res.Accepted = append(res.Accepted, Classification{Index: i, PValue: p})
		}
	}
	return res, nil
}

// FisherExact classifies each aligned pair with Fisher's exact test. The
// smoothed float counts are rounded up to the next integer first; H0 is
// rejected when the two-sided p-value is at most alpha.
func FisherExact(group1, group2 []Pair, alpha float64) (*Result, error) {
	if len(group1) != len(group2) {
		return nil, fmt.Errorf("group length mismatch: %d vs %d", len(group1), len(group2))
	}

	res := &Result{PValues: make([]float64, 0, len(group1))}
	for i := range group1 {
		n11 := int(math.Ceil(group1[i].Total))
		n12 := int(math.Ceil(group1[i].Target))
		n21 := int(math.Ceil(group2[i].Total))
		n22 := int(math.Ceil(group2[i].Target))

		if n11 < 0 || n12 < 0 || n21 < 0 || n22 < 0 ||
			n11+n12+n21+n22 == 0 {
			res.Untestable++
			res.PValues = append(res.PValues, math.NaN())
			res.Accepted = append(res.Accepted, Classification{Index: i, PValue: 1.0})
			continue
		}

		_, _, _, p := fet.FisherExactTest(n11, n12, n21, n22)

		res.PValues = append(res.PValues, p)
		if p <= alpha {
			res.Rejected = append(res.Rejected, Classification{Index: i, PValue: p})
		} else {
			res.Accepted = append(res.Accepted, Classification{Index: i, PValue: p})
		}
	}
	return res, nil
}

// Run dispatches to the named test procedure.
func Run(test string, group1, group2 []Pair, alpha float64) (*Result, error) {
	switch test {
	case TestFisher:
		return FisherExact(group1, group2, alpha)
	case TestChiSquare:
		return ChiSquare(group1, group2, alpha)
	default:
		return nil, fmt.Errorf("unknown statistic test %q", test)
	}
}
