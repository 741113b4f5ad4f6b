package respond

import (
	"EpiPredict/internal/modules/epitope/domain/peptide"
	"EpiPredict/internal/modules/epitope/domain/prediction"
)

// PredictRespond single 与 sliding 两种响应的公共接口，缓存中保存的就是它
type PredictRespond interface {
	Mode() string
}

// SingleRespond 单肽预测响应
type SingleRespond struct {
	Peptide string              `json:"peptide"`
	Results []prediction.Result `json:"results"`
}

func (*SingleRespond) Mode() string { return "single" }

// SlidingRespond 滑窗预测响应，Results 按 (position, length) 升序
type SlidingRespond struct {
	OriginalSequence string              `json:"original_sequence"`
	HLAClass         peptide.HLAClass    `json:"hla_class"`
	WindowSize       int                 `json:"window_size,omitempty"` // 固定窗口时返回
	Results          []prediction.Result `json:"results"`
	TotalPeptides    int                 `json:"total_peptides"`
	EpitopeCount     int                 `json:"epitope_count"`
	EpitopeDensity   float64             `json:"epitope_density"`
}

func (*SlidingRespond) Mode() string { return "sliding" }

// HealthRespond 健康检查响应，degraded 时仍返回 200
type HealthRespond struct {
	Status string `json:"status"`
}

const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)
