package difftest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

// chiSquareStatistic mirrors the 2x2 statistic without continuity
// correction for cross-checking classifications.
func chiSquareStatistic(a, b, c, d float64) float64 {
	n := a + b + c + d
	diff := a*d - b*c
	return n * diff * diff / ((a + b) * (c + d) * (a + c) * (b + d))
}

func TestChiSquareClassification(t *testing.T) {
	group1 := []Pair{{Total: 100, Target: 50}, {Total: 100, Target: 10}}
	group2 := []Pair{{Total: 100, Target: 20}, {Total: 100, Target: 8}}
	alpha := 0.05

	res, err := ChiSquare(group1, group2, alpha)
	require.NoError(t, err)

	critical := distuv.ChiSquared{K: 1}.Quantile(1 - alpha)
	for i := range group1 {
		stat := chiSquareStatistic(group1[i].Total, group1[i].Target, group2[i].Total, group2[i].Target)
		rejected := false
		for _, r := range res.Rejected {
			if r.Index == i {
				rejected = true
			}
		}
		assert.Equal(t, stat >= critical, rejected, "pair %d", i)
	}

	// (100,50) vs (100,20) differs strongly, (100,10) vs (100,8) does not.
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 0, res.Rejected[0].Index)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, 1, res.Accepted[0].Index)
	assert.Equal(t, 0, res.Untestable)
}

func TestChiSquareUntestable(t *testing.T) {
	// Second column sums to zero: expected frequencies undefined.
	group1 := []Pair{{Total: 100, Target: 0}}
	group2 := []Pair{{Total: 50, Target: 0}}

	res, err := ChiSquare(group1, group2, 0.05)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Untestable)
	require.Len(t, res.PValues, 1)
	assert.True(t, math.IsNaN(res.PValues[0]))
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, 1.0, res.Accepted[0].PValue)
	assert.Empty(t, res.Rejected)
}

func TestChiSquarePValueMatchesSurvival(t *testing.T) {
	group1 := []Pair{{Total: 100, Target: 50}}
	group2 := []Pair{{Total: 100, Target: 20}}

	res, err := ChiSquare(group1, group2, 0.05)
	require.NoError(t, err)

	stat := chiSquareStatistic(100, 50, 100, 20)
	want := distuv.ChiSquared{K: 1}.Survival(stat)
	assert.InDelta(t, want, res.PValues[0], 1e-12)
}

func TestFisherExactClassification(t *testing.T) {
	group1 := []Pair{{Total: 100, Target: 50}, {Total: 100, Target: 10}}
	group2 := []Pair{{Total: 100, Target: 20}, {Total: 100, Target: 9}}

	res, err := FisherExact(group1, group2, 0.05)
	require.NoError(t, err)

	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 0, res.Rejected[0].Index)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, 1, res.Accepted[0].Index)
}

func TestFisherExactSymmetricTableAccepted(t *testing.T) {
	group1 := []Pair{{Total: 100, Target: 10}}
	group2 := []Pair{{Total: 100, Target: 10}}

	res, err := FisherExact(group1, group2, 0.05)
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	assert.InDelta(t, 1.0, res.Accepted[0].PValue, 1e-9)
}

func TestFisherExactBoundaryRejects(t *testing.T) {
	// A p-value exactly equal to alpha rejects H0 (<=, not <).
	group1 := []Pair{{Total: 100, Target: 50}}
	group2 := []Pair{{Total: 100, Target: 20}}

	res, err := FisherExact(group1, group2, 0.5)
	require.NoError(t, err)
	require.Len(t, res.PValues, 1)
	p := res.PValues[0]

	res, err = FisherExact(group1, group2, p)
	require.NoError(t, err)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, p, res.Rejected[0].PValue)
}

func TestFisherExactCeilsCounts(t *testing.T) {
	// 0.2 rounds up to 1; an all-zero table would be untestable.
	group1 := []Pair{{Total: 0.2, Target: 0.2}}
	group2 := []Pair{{Total: 0.2, Target: 0.2}}

	res, err := FisherExact(group1, group2, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Untestable)
	require.Len(t, res.Accepted, 1)
}

func TestFisherExactAllZeroUntestable(t *testing.T) {
	group1 := []Pair{{Total: 0, Target: 0}}
	group2 := []Pair{{Total: 0, Target: 0}}

	res, err := FisherExact(group1, group2, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Untestable)
	assert.True(t, math.IsNaN(res.PValues[0]))
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, 1.0, res.Accepted[0].PValue)
}

func TestClassificationCompleteness(t *testing.T) {
	group1 := []Pair{
		{Total: 100, Target: 50},
		{Total: 100, Target: 10},
		{Total: 100, Target: 0},
		{Total: 200, Target: 90},
	}
	group2 := []Pair{
		{Total: 100, Target: 20},
		{Total: 100, Target: 8},
		{Total: 50, Target: 0},
		{Total: 200, Target: 30},
	}

	for _, test := range []string{TestFisher, TestChiSquare} {
		res, err := Run(test, group1, group2, 0.05)
		require.NoError(t, err, test)

		assert.Len(t, res.PValues, len(group1), test)
		assert.Equal(t, len(res.PValues), len(res.Accepted)+len(res.Rejected), test)

		seen := make(map[int]int)
		for _, c := range res.Accepted {
			seen[c.Index]++
		}
		for _, c := range res.Rejected {
			seen[c.Index]++
		}
		for i := range group1 {
			assert.Equal(t, 1, seen[i], "%s: index %d classified once", test, i)
		}
	}
}

func TestLengthMismatch(t *testing.T) {
	_, err := ChiSquare([]Pair{{Total: 1, Target: 1}}, nil, 0.05)
	require.Error(t, err)
	_, err = FisherExact([]Pair{{Total: 1, Target: 1}}, nil, 0.05)
	require.Error(t, err)
}

func TestRunUnknownProcedure(t *testing.T) {
	_, err := Run("welch", nil, nil, 0.05)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown statistic test")
}
