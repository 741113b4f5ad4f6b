package model

import (
	"fmt"

	"EpiPredict/internal/modules/epitope/domain/repository"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFTokenizer 基于 HuggingFace tokenizer.json 的分词器
type HFTokenizer struct {
	tk *tokenizer.Tokenizer
}

// NewHFTokenizer 从 tokenizer.json 加载
func NewHFTokenizer(path string) (*HFTokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	return &HFTokenizer{tk: tk}, nil
}

var _ repository.Tokenizer = (*HFTokenizer)(nil)

func (h *HFTokenizer) Encode(sequence string) ([]int64, error) {
	enc, err := h.tk.EncodeSingle(sequence, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize %q: %w", sequence, err)
	}
	ids := enc.GetIds()
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out, nil
}
