package model

import (
	"fmt"

	"EpiPredict/internal/modules/epitope/domain/repository"
)

// ESM-2 固定词表（facebook/esm2_t33_650M_UR50D vocab.txt 的顺序）
var esmVocab = []string{
	"<cls>", "<pad>", "<eos>", "<unk>",
	"L", "A", "G", "V", "S", "E", "R", "T", "I", "D", "P", "K", "Q", "N", "F", "Y", "M", "H", "W", "C",
	"X", "B", "U", "Z", "O", ".", "-", "<null_1>", "<mask>",
}

const (
	esmCLS int64 = 0
	esmEOS int64 = 2
	esmUNK int64 = 3
)

// ESMTokenizer 未配置 tokenizer.json 时使用的内置字符级分词器，
// 编码结果为 <cls> + 残基 + <eos>，与 HuggingFace EsmTokenizer 一致。
type ESMTokenizer struct {
	index map[byte]int64
}

func NewESMTokenizer() *ESMTokenizer {
	idx := make(map[byte]int64, len(esmVocab))
	for i, tok := range esmVocab {
		if len(tok) == 1 {
			idx[tok[0]] = int64(i)
		}
	}
	return &ESMTokenizer{index: idx}
}

var _ repository.Tokenizer = (*ESMTokenizer)(nil)

func (t *ESMTokenizer) Encode(sequence string) ([]int64, error) {
	if sequence == "" {
		return nil, fmt.Errorf("empty sequence")
	}
	ids := make([]int64, 0, len(sequence)+2)
	ids = append(ids, esmCLS)
	for i := 0; i < len(sequence); i++ {
		id, ok := t.index[sequence[i]]
		if !ok {
			id = esmUNK
		}
		ids = append(ids, id)
	}
	return append(ids, esmEOS), nil
}
