package repository

import (
	"context"
	"errors"

	"EpiPredict/internal/modules/epitope/domain/peptide"
)

// 模型能力抽象：application 层只依赖这些接口，不直接依赖 onnxruntime 或 tokenizer 实现。

// PadTokenID ESM 词表中的 <pad>
const PadTokenID int64 = 1

// ErrNotLoaded 模型或分词器尚未加载
var ErrNotLoaded = errors.New("model not loaded")

// Tokenizer 将肽段编码为 token id（包含特殊 token）
type Tokenizer interface {
	Encode(sequence string) ([]int64, error)
}

// Classifier 对一个已 padding 的批次做一次推理，每行返回类别概率分布（index 0 非表位，index 1 表位）
type Classifier interface {
	Classify(ctx context.Context, inputIDs [][]int64) ([][]float32, error)
}

// ModelProvider 进程级模型持有者
type ModelProvider interface {
	// Tokenizer 未加载时返回 ErrNotLoaded
	Tokenizer() (Tokenizer, error)
	// Classifier 返回指定类别的模型，未加载时返回 ErrNotLoaded
	Classifier(class peptide.HLAClass) (Classifier, error)
	// Ready 分词器与全部类别模型均已加载
	Ready() bool
	// Reload 重新加载全部模型
	Reload(ctx context.Context) error
}
