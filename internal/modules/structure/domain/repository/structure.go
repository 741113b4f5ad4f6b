package repository

import (
	"context"
	"errors"
)

// ErrCacheMiss 共享缓存未命中
var ErrCacheMiss = errors.New("structure cache miss")

// FoldingClient 外部结构预测服务（ESMFold）
type FoldingClient interface {
	// Fold 返回 PDB 文本
	Fold(ctx context.Context, sequence string) (string, error)
}

// StructureStore 跨实例共享的结构缓存（Redis），未命中返回 ErrCacheMiss
type StructureStore interface {
	Get(ctx context.Context, sequence string) (string, error)
	Set(ctx context.Context, sequence, pdb string) error
}
