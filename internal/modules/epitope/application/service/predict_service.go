package service

import (
	"context"
	"time"

	"EpiPredict/internal/modules/epitope/application/dto/request"
	"EpiPredict/internal/modules/epitope/application/dto/respond"
	"EpiPredict/internal/modules/epitope/domain/peptide"
	"EpiPredict/internal/modules/epitope/domain/repository"
	"EpiPredict/pkg/cache"
	"EpiPredict/pkg/xerr"
	"EpiPredict/pkg/zlog"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxSequenceLength 单个请求允许的最长序列。
// 滑窗模式下 Class II 每个残基约产生 9 个候选肽段，上限决定单个请求的模型调用量。
const DefaultMaxSequenceLength = 2000

// PredictService 表位预测服务接口
type PredictService interface {
	// Predict 校验请求 -> 查缓存 -> 枚举/批量预测 -> 聚合 -> 写缓存
	Predict(ctx context.Context, req request.PredictRequest) (respond.PredictRespond, error)
	// Health 模型全部加载为 healthy，否则 degraded
	Health() respond.HealthRespond
	CacheStats() cache.Stats
}

type predictServiceImpl struct {
	models  repository.ModelProvider
	batch   *BatchPredictor
	cache   *cache.BoundedCache[respond.PredictRespond]
	flights singleflight.Group
	reloads singleflight.Group
	maxLen  int
}

// NewPredictService 创建表位预测服务，maxSequenceLength <= 0 时使用 DefaultMaxSequenceLength
func NewPredictService(models repository.ModelProvider, batch *BatchPredictor, c *cache.BoundedCache[respond.PredictRespond], maxSequenceLength int) PredictService {
	if c == nil {
		c = cache.New[respond.PredictRespond](cache.DefaultCapacity, cache.FIFO{})
	}
	if maxSequenceLength <= 0 {
		maxSequenceLength = DefaultMaxSequenceLength
	}
	return &predictServiceImpl{models: models, batch: batch, cache: c, maxLen: maxSequenceLength}
}

// job 校验通过后的请求
type job struct {
	mode     string
	sequence string
	profile  peptide.ClassProfile
	window   int
}

func (j job) key() string { return CacheKey(j.mode, j.sequence, j.profile.Class, j.window) }

func (s *predictServiceImpl) Predict(ctx context.Context, req request.PredictRequest) (respond.PredictRespond, error) {
	j, err := validate(req, s.maxLen)
	if err != nil {
		return nil, err
	}

	key := j.key()
	if resp, ok := s.cache.Get(key); ok {
		zlog.Debug("prediction cache hit", zap.String("key", key))
		return resp, nil
	}

	// 相同 key 的并发请求只计算一次；计算不受单个调用方取消影响
	ch := s.flights.DoChan(key, func() (v interface{}, err error) {
		// DoChan 在独立 goroutine 中执行，panic 不会经过 gin.Recovery
		defer xerr.Recover(&err)
		if resp, ok := s.cache.Get(key); ok {
			return resp, nil
		}
		resp, err := s.computeWithReload(context.WithoutCancel(ctx), j)
		if err != nil {
			return nil, err
		}
		s.cache.Put(key, resp)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, xerr.Internal(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(respond.PredictRespond), nil
	}
}

// computeWithReload 模型不可用时只尝试重新加载一次
func (s *predictServiceImpl) computeWithReload(ctx context.Context, j job) (respond.PredictRespond, error) {
	resp, err := s.compute(ctx, j)
	if !xerr.Is(err, xerr.KindModelUnavailable) {
		return resp, err
	}

	zlog.Warn("model unavailable, attempting reload", zap.String("class", string(j.profile.Class)), zap.Error(err))
	_, reloadErr, _ := s.reloads.Do("reload", func() (interface{}, error) {
		return nil, s.models.Reload(ctx)
	})
	if reloadErr != nil {
		zlog.Error("model reload failed", zap.Error(reloadErr))
	}
	return s.compute(ctx, j)
}

func (s *predictServiceImpl) compute(ctx context.Context, j job) (respond.PredictRespond, error) {
	start := time.Now()
	switch j.mode {
	case request.ModeSingle:
		cand := peptide.Candidate{
			Peptide:  j.sequence,
			Position: 1,
			Length:   len(j.sequence),
			Class:    j.profile.Class,
		}
		results, err := s.batch.Predict(ctx, []peptide.Candidate{cand}, j.profile.Class)
		if err != nil {
			return nil, err
		}
		zlog.Info("single prediction done",
			zap.String("class", string(j.profile.Class)),
			zap.Int("length", cand.Length),
			zap.Duration("elapsed", time.Since(start)))
		return AggregateSingle(cand, results[0]), nil

	default:
		candidates := peptide.GeneratePeptides(j.sequence, j.profile, j.window)
		if len(candidates) == 0 {
			return AggregateSliding(j.sequence, j.profile.Class, nil)
		}
		results, err := s.batch.Predict(ctx, candidates, j.profile.Class)
		if err != nil {
			return nil, err
		}
		resp, err := AggregateSliding(j.sequence, j.profile.Class, results)
		if err != nil {
			return nil, err
		}
		resp.WindowSize = j.window
		zlog.Info("sliding prediction done",
			zap.String("class", string(j.profile.Class)),
			zap.Int("sequence_length", len(j.sequence)),
			zap.Int("peptides", resp.TotalPeptides),
			zap.Int("epitopes", resp.EpitopeCount),
			zap.Int("batch_size", s.batch.BatchSize()),
			zap.Duration("elapsed", time.Since(start)))
		return resp, nil
	}
}

func (s *predictServiceImpl) Health() respond.HealthRespond {
	if s.models != nil && s.models.Ready() {
		return respond.HealthRespond{Status: respond.HealthHealthy}
	}
	return respond.HealthRespond{Status: respond.HealthDegraded}
}

func (s *predictServiceImpl) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// validate 在任何模型调用之前完成全部输入校验
func validate(req request.PredictRequest, maxLen int) (job, error) {
	seq := peptide.Normalize(req.Sequence)
	if seq == "" {
		return job{}, xerr.InputValidation("No peptide sequence provided")
	}
	if len(seq) > maxLen {
		return job{}, xerr.InputValidation("Sequence length %d exceeds the maximum of %d amino acids", len(seq), maxLen)
	}
	if r, pos, bad := peptide.FirstInvalidResidue(seq); bad {
		return job{}, xerr.InputValidation("Invalid peptide sequence. Use only valid amino acid letters (found %q at position %d).", r, pos)
	}

	mode := req.Mode
	if mode == "" {
		mode = request.ModeSingle
	}
	if mode != request.ModeSingle && mode != request.ModeSliding {
		return job{}, xerr.InputValidation("Invalid processing mode %q", req.Mode)
	}

	class := peptide.HLAClass(req.HLAClass)
	if class == "" && mode == request.ModeSingle {
		auto, ok := peptide.ClassForLength(len(seq))
		if !ok {
			return job{}, xerr.InputValidation("Peptide length %d is outside the supported range (8-21 amino acids)", len(seq))
		}
		class = auto
	}
	profile, err := peptide.ResolveClassProfile(class)
	if err != nil {
		return job{}, xerr.InputValidation("%s", err.Error())
	}

	j := job{mode: mode, sequence: seq, profile: profile}
	switch mode {
	case request.ModeSingle:
		if !profile.Contains(len(seq)) {
			return job{}, xerr.InputValidation("Peptide length %d is outside the HLA class %s range (%d-%d amino acids)",
				len(seq), profile.Class, profile.MinLength, profile.MaxLength)
		}
	case request.ModeSliding:
		if req.UseFixedWindowSize {
			if !profile.Contains(req.WindowSize) {
				return job{}, xerr.InputValidation("Window size %d is outside the HLA class %s range (%d-%d)",
					req.WindowSize, profile.Class, profile.MinLength, profile.MaxLength)
			}
			j.window = req.WindowSize
		}
	}
	return j, nil
}
