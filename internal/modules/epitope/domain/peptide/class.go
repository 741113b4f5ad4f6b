package peptide

import "fmt"

// HLAClass HLA 分子类别
type HLAClass string

const (
	ClassI  HLAClass = "I"
	ClassII HLAClass = "II"
)

// Classes 所有支持的类别，顺序固定
var Classes = []HLAClass{ClassI, ClassII}

// ClassProfile 每个 HLA 类别的静态配置
type ClassProfile struct {
	Class       HLAClass
	MinLength   int
	MaxLength   int
	TokenBudget int // 模型输入 padding 后的固定长度
}

// Contains 判断长度是否落在 [MinLength, MaxLength] 内
func (p ClassProfile) Contains(length int) bool {
	return length >= p.MinLength && length <= p.MaxLength
}

var profiles = map[HLAClass]ClassProfile{
	ClassI:  {Class: ClassI, MinLength: 8, MaxLength: 14, TokenBudget: 16},
	ClassII: {Class: ClassII, MinLength: 13, MaxLength: 21, TokenBudget: 23},
}

// UnknownClassError 未知的 HLA 类别标签
type UnknownClassError struct {
	Tag string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("unknown HLA class %q (expected \"I\" or \"II\")", e.Tag)
}

// ResolveClassProfile 按类别标签查找配置
func ResolveClassProfile(class HLAClass) (ClassProfile, error) {
	p, ok := profiles[class]
	if !ok {
		return ClassProfile{}, &UnknownClassError{Tag: string(class)}
	}
	return p, nil
}

// ClassForLength 单肽模式未指定类别时按长度选择，8-14 优先 Class I
func ClassForLength(length int) (HLAClass, bool) {
	for _, c := range Classes {
		if profiles[c].Contains(length) {
			return c, true
		}
	}
	return "", false
}
