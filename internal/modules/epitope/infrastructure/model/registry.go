package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"EpiPredict/internal/modules/epitope/domain/peptide"
	"EpiPredict/internal/modules/epitope/domain/repository"
	"EpiPredict/pkg/zlog"

	"go.uber.org/zap"
)

// Models 一次加载得到的模型集合，加载失败的类别为 nil
type Models struct {
	Tokenizer   repository.Tokenizer
	Classifiers map[peptide.HLAClass]repository.Classifier
}

// LoadRequest 本次需要加载的组件，只包含尚未加载的部分
type LoadRequest struct {
	Tokenizer bool
	Classes   []peptide.HLAClass
}

// Loader 按 LoadRequest 加载模型；允许部分成功，失败项通过 error 返回
type Loader func(ctx context.Context, req LoadRequest) (*Models, error)

// Registry 持有分词器与各类别模型，实现 repository.ModelProvider。
// 推理调用按模型加锁：Class I 与 Class II 互不阻塞。
// 已加载的模型在进程生命周期内不会被 Reload 替换或关闭，只有 Close 会释放它们。
type Registry struct {
	loader Loader

	reloadMu sync.Mutex // 串行化 Reload

	mu          sync.RWMutex
	tokenizer   repository.Tokenizer
	classifiers map[peptide.HLAClass]*serialClassifier
	lastErr     error
}

// NewRegistry 创建 Registry，不会立即加载
func NewRegistry(loader Loader) *Registry {
	return &Registry{loader: loader, classifiers: map[peptide.HLAClass]*serialClassifier{}}
}

var _ repository.ModelProvider = (*Registry)(nil)

func (r *Registry) Tokenizer() (repository.Tokenizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.tokenizer == nil {
		return nil, r.notLoaded("tokenizer")
	}
	return r.tokenizer, nil
}

func (r *Registry) Classifier(class peptide.HLAClass) (repository.Classifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classifiers[class]
	if !ok || c == nil {
		return nil, r.notLoaded("class " + string(class) + " model")
	}
	return c, nil
}

func (r *Registry) notLoaded(what string) error {
	if r.lastErr != nil {
		return fmt.Errorf("%s: %w (last load error: %v)", what, repository.ErrNotLoaded, r.lastErr)
	}
	return fmt.Errorf("%s: %w", what, repository.ErrNotLoaded)
}

func (r *Registry) Ready() bool {
	return r.missing().empty()
}

func (r *Registry) missing() LoadRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req := LoadRequest{Tokenizer: r.tokenizer == nil}
	for _, c := range peptide.Classes {
		if r.classifiers[c] == nil {
			req.Classes = append(req.Classes, c)
		}
	}
	return req
}

func (req LoadRequest) empty() bool {
	return !req.Tokenizer && len(req.Classes) == 0
}

// Reload 只加载缺失的分词器与模型，已加载的保持不变；全部就绪时不调用 loader
func (r *Registry) Reload(ctx context.Context) error {
	if r.loader == nil {
		return errors.New("no model loader configured")
	}
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	req := r.missing()
	if req.empty() {
		return nil
	}
	zlog.Info("loading models", zap.Bool("tokenizer", req.Tokenizer), zap.Any("classes", req.Classes))
	models, err := r.loader(ctx, req)

	var surplus []repository.Classifier
	loaded := 0
	r.mu.Lock()
	if models != nil {
		if r.tokenizer == nil && models.Tokenizer != nil {
			r.tokenizer = models.Tokenizer
		}
		for class, c := range models.Classifiers {
			if c == nil {
				continue
			}
			if r.classifiers[class] != nil {
				surplus = append(surplus, c)
				continue
			}
			r.classifiers[class] = &serialClassifier{inner: c}
			loaded++
		}
	}
	r.lastErr = err
	r.mu.Unlock()

	// loader 多返回的模型从未对外暴露，可以直接关闭
	for _, c := range surplus {
		closeClassifier(c)
	}

	if err != nil {
		zlog.Error("model load failed", zap.Error(err), zap.Int("loaded_models", loaded))
		return err
	}
	zlog.Info("models loaded", zap.Int("loaded_models", loaded))
	return nil
}

// Close 释放全部模型，已取出的句柄之后返回 ErrNotLoaded
func (r *Registry) Close() error {
	r.mu.Lock()
	old := r.classifiers
	r.classifiers = map[peptide.HLAClass]*serialClassifier{}
	r.tokenizer = nil
	r.mu.Unlock()
	for _, c := range old {
		c.close()
	}
	return nil
}

func closeClassifier(c repository.Classifier) {
	if closer, ok := c.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			zlog.Warn("close model failed", zap.Error(err))
		}
	}
}

// serialClassifier 同一模型实例的推理串行执行；关闭后拒绝推理
type serialClassifier struct {
	mu     sync.Mutex
	inner  repository.Classifier
	closed bool
}

func (s *serialClassifier) Classify(ctx context.Context, inputIDs [][]int64) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("model closed: %w", repository.ErrNotLoaded)
	}
	return s.inner.Classify(ctx, inputIDs)
}

// close 等待正在进行的推理结束后释放
func (s *serialClassifier) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	closeClassifier(s.inner)
}

// OnnxLoaderConfig ONNX 模型加载参数
type OnnxLoaderConfig struct {
	LibraryPath   string
	TokenizerPath string
	Models        map[peptide.HLAClass]OnnxOptions
}

// NewOnnxLoader 返回基于 onnxruntime 的 Loader
func NewOnnxLoader(cfg OnnxLoaderConfig) Loader {
	return func(ctx context.Context, req LoadRequest) (*Models, error) {
		models := &Models{Classifiers: map[peptide.HLAClass]repository.Classifier{}}
		var errs []error

		if req.Tokenizer {
			tk, err := loadTokenizer(cfg.TokenizerPath)
			if err != nil {
				errs = append(errs, err)
			} else {
				models.Tokenizer = tk
			}
		}

		if len(req.Classes) == 0 {
			return models, errors.Join(errs...)
		}
		if err := InitRuntime(cfg.LibraryPath); err != nil {
			return models, errors.Join(append(errs, fmt.Errorf("init onnxruntime: %w", err))...)
		}
		for _, class := range req.Classes {
			if err := ctx.Err(); err != nil {
				errs = append(errs, err)
				break
			}
			opts, ok := cfg.Models[class]
			if !ok || opts.ModelPath == "" {
				errs = append(errs, fmt.Errorf("class %s: model path not configured", class))
				continue
			}
			c, err := NewOnnxClassifier(opts)
			if err != nil {
				errs = append(errs, fmt.Errorf("class %s: %w", class, err))
				continue
			}
			models.Classifiers[class] = c
			zlog.Info("model loaded", zap.String("class", string(class)), zap.String("path", opts.ModelPath))
		}
		return models, errors.Join(errs...)
	}
}

// loadTokenizer 未配置 tokenizer.json 时使用内置 ESM-2 词表
func loadTokenizer(path string) (repository.Tokenizer, error) {
	if path == "" {
		return NewESMTokenizer(), nil
	}
	return NewHFTokenizer(path)
}
