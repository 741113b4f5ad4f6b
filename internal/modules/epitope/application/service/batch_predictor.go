package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"EpiPredict/internal/modules/epitope/domain/peptide"
	"EpiPredict/internal/modules/epitope/domain/prediction"
	"EpiPredict/internal/modules/epitope/domain/repository"
	"EpiPredict/pkg/xerr"
)

// DefaultBatchSize 每次模型调用的肽段数。
// 批次越大单次调用开销摊得越薄，但峰值内存随之上升；16 个 23-token 序列对 ESM 级模型足够轻。
const DefaultBatchSize = 16

// epitopeIndex 模型输出中表位类别的下标（0 为非表位）
const epitopeIndex = 1

// BatchPredictor 将候选肽段按固定大小分批，每批调用一次对应类别的模型
type BatchPredictor struct {
	models    repository.ModelProvider
	batchSize int
}

func NewBatchPredictor(models repository.ModelProvider, batchSize int) *BatchPredictor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchPredictor{models: models, batchSize: batchSize}
}

func (b *BatchPredictor) BatchSize() int { return b.batchSize }

// Predict 返回与 candidates 一一对应、顺序一致的预测结果。
// 任何一批失败都不返回部分结果。
func (b *BatchPredictor) Predict(ctx context.Context, candidates []peptide.Candidate, class peptide.HLAClass) ([]prediction.Result, error) {
	profile, err := peptide.ResolveClassProfile(class)
	if err != nil {
		return nil, xerr.InputValidation("%s", err.Error())
	}

	tok, err := b.models.Tokenizer()
	if err != nil {
		return nil, unavailable(err)
	}
	clf, err := b.models.Classifier(class)
	if err != nil {
		return nil, unavailable(err)
	}

	results := make([]prediction.Result, 0, len(candidates))
	for start := 0; start < len(candidates); start += b.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, xerr.Internal(err)
		}
		end := start + b.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		chunk := candidates[start:end]

		batch := make([][]int64, len(chunk))
		for i, c := range chunk {
			ids, err := tok.Encode(c.Peptide)
			if err != nil {
				return nil, xerr.Internal(err)
			}
			padded, err := PadRight(ids, profile.TokenBudget, repository.PadTokenID)
			if err != nil {
				return nil, xerr.Internal(fmt.Errorf("peptide %s (class %s): %w", c.Peptide, class, err))
			}
			batch[i] = padded
		}

		probs, err := clf.Classify(ctx, batch)
		if err != nil {
			if errors.Is(err, repository.ErrNotLoaded) {
				return nil, unavailable(err)
			}
			return nil, xerr.Internal(fmt.Errorf("classify batch [%d:%d]: %w", start, end, err))
		}
		if len(probs) != len(chunk) {
			return nil, xerr.Internal(fmt.Errorf("model returned %d rows for batch of %d", len(probs), len(chunk)))
		}
		for i, row := range probs {
			if len(row) <= epitopeIndex {
				return nil, xerr.Internal(fmt.Errorf("model row has %d classes, expected 2", len(row)))
			}
			p := float64(row[epitopeIndex])
			if math.IsNaN(p) {
				return nil, xerr.Internal(fmt.Errorf("model returned NaN for %s", chunk[i].Peptide))
			}
			results = append(results, prediction.NewResult(chunk[i], p))
		}
	}
	return results, nil
}

func unavailable(err error) error {
	if errors.Is(err, repository.ErrNotLoaded) {
		return xerr.ModelUnavailable(err)
	}
	return xerr.Internal(err)
}
