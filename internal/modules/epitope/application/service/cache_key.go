package service

import (
	"strconv"
	"strings"

	"EpiPredict/internal/modules/epitope/domain/peptide"
)

// CacheKey 组合 mode、规范化序列、HLA 类别与窗口长度；未使用固定窗口时窗口部分为 "all"
func CacheKey(mode, sequence string, class peptide.HLAClass, windowSize int) string {
	window := "all"
	if windowSize > 0 {
		window = strconv.Itoa(windowSize)
	}
	return strings.Join([]string{mode, sequence, string(class), window}, "|")
}
