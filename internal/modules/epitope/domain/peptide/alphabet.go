package peptide

import "strings"

// Alphabet 20 种标准氨基酸
const Alphabet = "ACDEFGHIKLMNPQRSTVWY"

var validResidue [256]bool

func init() {
	for i := 0; i < len(Alphabet); i++ {
		validResidue[Alphabet[i]] = true
	}
}

// Normalize 去除首尾空白并转大写
func Normalize(sequence string) string {
	return strings.ToUpper(strings.TrimSpace(sequence))
}

// IsValidPeptide 判断序列（忽略大小写）是否只包含标准氨基酸字母。
// 空串返回 true，非空校验由调用方负责。
func IsValidPeptide(sequence string) bool {
	for _, r := range strings.ToUpper(sequence) {
		if r >= 256 || !validResidue[r] {
			return false
		}
	}
	return true
}

// FirstInvalidResidue 返回第一个非法字符及其 1-based 位置，全部合法时 ok=false
func FirstInvalidResidue(sequence string) (r rune, pos int, ok bool) {
	pos = 0
	for _, c := range strings.ToUpper(sequence) {
		pos++
		if c >= 256 || !validResidue[c] {
			return c, pos, true
		}
	}
	return 0, 0, false
}
