package peptide

// Candidate 候选肽段，Position 为在原序列中的 1-based 起始位置
type Candidate struct {
	Peptide  string
	Position int
	Length   int
	Class    HLAClass
}

// GeneratePeptides 枚举序列中长度落在类别范围内（或固定窗口长度）的全部子串。
//
// fixedWindow <= 0 表示使用类别的完整范围；固定窗口的边界由调用方校验。
// 输出顺序：长度升序，同长度内位置升序。序列过短时返回空切片，不报错。
func GeneratePeptides(sequence string, profile ClassProfile, fixedWindow int) []Candidate {
	seq := Normalize(sequence)
	n := len(seq)

	minLen, maxLen := profile.MinLength, profile.MaxLength
	if fixedWindow > 0 {
		minLen, maxLen = fixedWindow, fixedWindow
	}
	if maxLen > n {
		maxLen = n
	}
	if minLen > maxLen {
		return []Candidate{}
	}

	out := make([]Candidate, 0, CountWindows(n, minLen, maxLen))
	for length := minLen; length <= maxLen; length++ {
		for i := 0; i+length <= n; i++ {
			sub := seq[i : i+length]
			if !IsValidPeptide(sub) {
				continue
			}
			out = append(out, Candidate{
				Peptide:  sub,
				Position: i + 1,
				Length:   length,
				Class:    profile.Class,
			})
		}
	}
	return out
}

// CountWindows 长度为 n 的序列在 [minLen, maxLen] 范围内的窗口总数
func CountWindows(n, minLen, maxLen int) int {
	if maxLen > n {
		maxLen = n
	}
	total := 0
	for length := minLen; length <= maxLen; length++ {
		total += n - length + 1
	}
	return total
}
