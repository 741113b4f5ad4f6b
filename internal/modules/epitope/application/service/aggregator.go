package service

import (
	"sort"

	"EpiPredict/internal/modules/epitope/application/dto/respond"
	"EpiPredict/internal/modules/epitope/domain/peptide"
	"EpiPredict/internal/modules/epitope/domain/prediction"
	"EpiPredict/pkg/xerr"
)

// AggregateSingle 单肽响应
func AggregateSingle(c peptide.Candidate, r prediction.Result) *respond.SingleRespond {
	return &respond.SingleRespond{
		Peptide: c.Peptide,
		Results: []prediction.Result{r},
	}
}

// AggregateSliding 按 (position, length) 排序并计算统计量，results 为空返回 EmptyCandidateSet
func AggregateSliding(sequence string, class peptide.HLAClass, results []prediction.Result) (*respond.SlidingRespond, error) {
	if len(results) == 0 {
		return nil, xerr.EmptyCandidateSet("No peptides could be generated from sequence of length %d for HLA class %s", len(sequence), class)
	}

	sorted := make([]prediction.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].Length < sorted[j].Length
	})

	count := 0
	for _, r := range sorted {
		if r.IsEpitope {
			count++
		}
	}
	return &respond.SlidingRespond{
		OriginalSequence: sequence,
		HLAClass:         class,
		Results:          sorted,
		TotalPeptides:    len(sorted),
		EpitopeCount:     count,
		EpitopeDensity:   Density(count, len(sorted)),
	}, nil
}

// Density total 为 0 时返回 0
func Density(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}
