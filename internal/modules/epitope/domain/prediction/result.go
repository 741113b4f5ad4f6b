package prediction

import "EpiPredict/internal/modules/epitope/domain/peptide"

// EpitopeThreshold 概率严格大于该值才判为表位
const EpitopeThreshold = 0.5

// Result 单个肽段的预测结果，创建后不再修改
type Result struct {
	Peptide     string           `json:"peptide"`
	Position    int              `json:"position"`
	Length      int              `json:"length"`
	HLAClass    peptide.HLAClass `json:"hla_class"`
	Probability float64          `json:"probability"`
	IsEpitope   bool             `json:"is_epitope"`
}

// NewResult 由候选肽段与模型输出的表位概率构造结果
func NewResult(c peptide.Candidate, probability float64) Result {
	return Result{
		Peptide:     c.Peptide,
		Position:    c.Position,
		Length:      c.Length,
		HLAClass:    c.Class,
		Probability: probability,
		IsEpitope:   IsEpitope(probability),
	}
}

func IsEpitope(probability float64) bool {
	return probability > EpitopeThreshold
}
