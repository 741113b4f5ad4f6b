package request

// PredictRequest 表位预测请求
type PredictRequest struct {
	Sequence           string `json:"sequence"`           // 肽段或蛋白序列（必填，大小写不敏感）
	Mode               string `json:"mode"`               // single | sliding，缺省为 single
	HLAClass           string `json:"hla_class"`          // I | II；single 模式缺省时按长度自动选择
	UseFixedWindowSize bool   `json:"useFixedWindowSize"` // sliding 模式下是否只使用固定窗口长度
	WindowSize         int    `json:"windowSize"`         // 固定窗口长度，需落在类别长度范围内
}

const (
	ModeSingle  = "single"
	ModeSliding = "sliding"
)
