package request

// StructureRequest 结构预测请求
type StructureRequest struct {
	Sequence string `json:"sequence"`
}
