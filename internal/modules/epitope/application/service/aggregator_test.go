package service

import (
	"testing"

	"EpiPredict/internal/modules/epitope/domain/peptide"
	"EpiPredict/internal/modules/epitope/domain/prediction"
	"EpiPredict/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateSliding_SortsByPositionThenLength(t *testing.T) {
	// 生成顺序：(1,8) (2,8) (1,9)
	in := []prediction.Result{
		{Peptide: "ACDEFGHI", Position: 1, Length: 8, IsEpitope: true},
		{Peptide: "CDEFGHIK", Position: 2, Length: 8},
		{Peptide: "ACDEFGHIK", Position: 1, Length: 9, IsEpitope: true},
	}

	resp, err := AggregateSliding("ACDEFGHIK", peptide.ClassI, in)

	require.NoError(t, err)
	got := make([][2]int, len(resp.Results))
	for i, r := range resp.Results {
		got[i] = [2]int{r.Position, r.Length}
	}
	assert.Equal(t, [][2]int{{1, 8}, {1, 9}, {2, 8}}, got)
	assert.Equal(t, 3, resp.TotalPeptides)
	assert.Equal(t, 2, resp.EpitopeCount)
	assert.InDelta(t, 2.0/3.0, resp.EpitopeDensity, 1e-12)
	assert.Equal(t, "ACDEFGHIK", resp.OriginalSequence)
	assert.Equal(t, peptide.ClassI, resp.HLAClass)

	// 输入切片不被修改
	assert.Equal(t, 2, in[1].Position)
}

func TestAggregateSliding_EpitopeCountMatchesResults(t *testing.T) {
	var in []prediction.Result
	for pos := 10; pos >= 1; pos-- {
		for length := 8; length <= 10; length++ {
			in = append(in, prediction.Result{Position: pos, Length: length, IsEpitope: (pos+length)%3 == 0})
		}
	}

	resp, err := AggregateSliding("X", peptide.ClassI, in)

	require.NoError(t, err)
	count := 0
	for i, r := range resp.Results {
		if r.IsEpitope {
			count++
		}
		if i > 0 {
			prev := resp.Results[i-1]
			assert.True(t, prev.Position < r.Position || (prev.Position == r.Position && prev.Length < r.Length))
		}
	}
	assert.Equal(t, count, resp.EpitopeCount)
	assert.InDelta(t, float64(count)/30, resp.EpitopeDensity, 1e-12)
}

func TestAggregateSliding_EmptyIsUserError(t *testing.T) {
	_, err := AggregateSliding("SIIN", peptide.ClassI, nil)

	require.Error(t, err)
	assert.True(t, xerr.Is(err, xerr.KindEmptyCandidateSet))
	var ce *xerr.CodeError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 400, ce.Code)
}

func TestDensity(t *testing.T) {
	assert.Equal(t, 0.0, Density(0, 0))
	assert.Equal(t, 0.25, Density(1, 4))
	assert.Equal(t, 1.0, Density(3, 3))
}

func TestAggregateSingle(t *testing.T) {
	c := peptide.Candidate{Peptide: "SIINFEKL", Position: 1, Length: 8, Class: peptide.ClassI}
	r := prediction.NewResult(c, 0.9)

	resp := AggregateSingle(c, r)

	assert.Equal(t, "SIINFEKL", resp.Peptide)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].IsEpitope)
	assert.Equal(t, "single", resp.Mode())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "sliding|SIINFEKL|I|all", CacheKey("sliding", "SIINFEKL", peptide.ClassI, 0))
	assert.Equal(t, "sliding|SIINFEKL|II|13", CacheKey("sliding", "SIINFEKL", peptide.ClassII, 13))
	assert.NotEqual(t, CacheKey("single", "SIINFEKL", peptide.ClassI, 0), CacheKey("sliding", "SIINFEKL", peptide.ClassI, 0))
}
