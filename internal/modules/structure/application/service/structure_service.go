package service

import (
	"context"
	"errors"
	"fmt"

	"EpiPredict/internal/modules/epitope/domain/peptide"
	"EpiPredict/internal/modules/structure/application/dto/respond"
	"EpiPredict/internal/modules/structure/domain/repository"
	"EpiPredict/internal/modules/structure/infrastructure/esmfold"
	"EpiPredict/pkg/cache"
	"EpiPredict/pkg/xerr"
	"EpiPredict/pkg/zlog"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MaxSequenceLength ESM Atlas 接口接受的最长序列
const MaxSequenceLength = 400

// StructureService 结构预测代理
type StructureService interface {
	Predict(ctx context.Context, sequence string) (*respond.StructureRespond, error)
}

type structureServiceImpl struct {
	client  repository.FoldingClient
	local   *cache.BoundedCache[string]
	shared  repository.StructureStore // 可为 nil
	flights singleflight.Group
}

// NewStructureService shared 为 nil 时只使用进程内缓存
func NewStructureService(client repository.FoldingClient, local *cache.BoundedCache[string], shared repository.StructureStore) StructureService {
	if local == nil {
		local = cache.New[string](cache.DefaultCapacity, cache.FIFO{})
	}
	return &structureServiceImpl{client: client, local: local, shared: shared}
}

func (s *structureServiceImpl) Predict(ctx context.Context, sequence string) (*respond.StructureRespond, error) {
	seq := peptide.Normalize(sequence)
	if seq == "" {
		return nil, xerr.InputValidation("No sequence provided")
	}
	if !peptide.IsValidPeptide(seq) {
		return nil, xerr.InputValidation("Invalid protein sequence. Use only valid amino acid letters.")
	}
	if len(seq) > MaxSequenceLength {
		return nil, xerr.InputValidation("Sequence length %d exceeds the structure prediction limit of %d", len(seq), MaxSequenceLength)
	}

	if pdb, ok := s.local.Get(seq); ok {
		return &respond.StructureRespond{PDBStructure: pdb}, nil
	}

	ch := s.flights.DoChan(seq, func() (v interface{}, err error) {
		defer xerr.Recover(&err)
		return s.fold(context.WithoutCancel(ctx), seq)
	})
	select {
	case <-ctx.Done():
		return nil, xerr.Internal(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return &respond.StructureRespond{PDBStructure: res.Val.(string)}, nil
	}
}

func (s *structureServiceImpl) fold(ctx context.Context, seq string) (string, error) {
	if s.shared != nil {
		pdb, err := s.shared.Get(ctx, seq)
		switch {
		case err == nil:
			s.local.Put(seq, pdb)
			return pdb, nil
		case !errors.Is(err, repository.ErrCacheMiss):
			zlog.Warn("structure shared cache read failed", zap.Error(err))
		}
	}

	pdb, err := s.client.Fold(ctx, seq)
	if err != nil {
		var upstream *esmfold.UpstreamError
		if errors.As(err, &upstream) {
			msg := upstream.Body
			if msg == "" {
				msg = fmt.Sprintf("structure prediction service returned status %d", upstream.StatusCode)
			}
			return "", xerr.Upstream(msg, err)
		}
		return "", xerr.Upstream(fmt.Sprintf("structure prediction service unavailable: %v", err), err)
	}

	s.local.Put(seq, pdb)
	if s.shared != nil {
		if err := s.shared.Set(ctx, seq, pdb); err != nil {
			zlog.Warn("structure shared cache write failed", zap.Error(err))
		}
	}
	zlog.Info("structure predicted", zap.Int("sequence_length", len(seq)), zap.Int("pdb_bytes", len(pdb)))
	return pdb, nil
}
