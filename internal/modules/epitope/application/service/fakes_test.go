package service

import (
	"context"
	"errors"
	"sync"

	"EpiPredict/internal/modules/epitope/domain/peptide"
	"EpiPredict/internal/modules/epitope/domain/repository"
)

// byteTokenizer 每个残基编码为其 ASCII 值，前后加 <cls>=0 / <eos>=2
type byteTokenizer struct{}

func (byteTokenizer) Encode(s string) ([]int64, error) {
	ids := []int64{0}
	for i := 0; i < len(s); i++ {
		ids = append(ids, int64(s[i]))
	}
	return append(ids, 2), nil
}

func decode(row []int64) string {
	var out []byte
	for _, t := range row[1:] {
		if t == 2 {
			break
		}
		out = append(out, byte(t))
	}
	return string(out)
}

// fakeClassifier 按肽段返回预设概率，记录每次调用的批次
type fakeClassifier struct {
	mu      sync.Mutex
	probs   map[string]float32
	def     float32
	err     error
	batches [][][]int64
	gate    chan struct{}
}

func (f *fakeClassifier) Classify(_ context.Context, ids [][]int64) ([][]float32, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, ids)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(ids))
	for i, row := range ids {
		p, ok := f.probs[decode(row)]
		if !ok {
			p = f.def
		}
		out[i] = []float32{1 - p, p}
	}
	return out, nil
}

func (f *fakeClassifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

// fakeProvider 可控的 ModelProvider；reload 调用 onReload
type fakeProvider struct {
	mu       sync.Mutex
	tok      repository.Tokenizer
	clfs     map[peptide.HLAClass]repository.Classifier
	reloads  int
	onReload func(p *fakeProvider) error
}

func newFakeProvider(classI, classII repository.Classifier) *fakeProvider {
	p := &fakeProvider{tok: byteTokenizer{}, clfs: map[peptide.HLAClass]repository.Classifier{}}
	if classI != nil {
		p.clfs[peptide.ClassI] = classI
	}
	if classII != nil {
		p.clfs[peptide.ClassII] = classII
	}
	return p
}

func (p *fakeProvider) Tokenizer() (repository.Tokenizer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tok == nil {
		return nil, repository.ErrNotLoaded
	}
	return p.tok, nil
}

func (p *fakeProvider) Classifier(class peptide.HLAClass) (repository.Classifier, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.clfs[class]
	if !ok {
		return nil, repository.ErrNotLoaded
	}
	return c, nil
}

func (p *fakeProvider) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tok != nil && len(p.clfs) == 2
}

func (p *fakeProvider) Reload(context.Context) error {
	p.mu.Lock()
	p.reloads++
	fn := p.onReload
	p.mu.Unlock()
	if fn == nil {
		return errors.New("reload not supported")
	}
	return fn(p)
}

func (p *fakeProvider) reloadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

// panicClassifier 模拟已释放的推理会话
type panicClassifier struct{}

func (panicClassifier) Classify(context.Context, [][]int64) ([][]float32, error) {
	var rows *[][]float32
	return *rows, nil
}
