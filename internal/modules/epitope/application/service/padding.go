package service

import "fmt"

// PadRight 右侧补齐到 budget，超长返回错误而不是截断
func PadRight(ids []int64, budget int, padID int64) ([]int64, error) {
	if len(ids) > budget {
		return nil, fmt.Errorf("encoded length %d exceeds token budget %d", len(ids), budget)
	}
	out := make([]int64, budget)
	n := copy(out, ids)
	for i := n; i < budget; i++ {
		out[i] = padID
	}
	return out, nil
}
