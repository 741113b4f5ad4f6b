package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"EpiPredict/internal/modules/epitope/domain/peptide"
	"EpiPredict/internal/modules/epitope/domain/repository"
	"EpiPredict/internal/modules/epitope/infrastructure/model"
	"EpiPredict/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadRight(t *testing.T) {
	out, err := PadRight([]int64{0, 5, 6, 2}, 8, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 5, 6, 2, 1, 1, 1, 1}, out)

	exact := []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 2}
	out, err = PadRight(exact, 16, 1)
	require.NoError(t, err)
	assert.Equal(t, exact, out)

	_, err = PadRight(make([]int64, 17), 16, 1)
	assert.Error(t, err)
}

func candidatesOf(t *testing.T, seq string, class peptide.HLAClass) []peptide.Candidate {
	t.Helper()
	profile, err := peptide.ResolveClassProfile(class)
	require.NoError(t, err)
	return peptide.GeneratePeptides(seq, profile, 0)
}

func TestBatchPredictor_ChunksAndPreservesOrder(t *testing.T) {
	clf := &fakeClassifier{def: 0.2}
	bp := NewBatchPredictor(newFakeProvider(clf, nil), 4)
	cands := candidatesOf(t, "ACDEFGHIKLMNPQ", peptide.ClassI) // 7+6+5+4+3+2+1 = 28

	results, err := bp.Predict(context.Background(), cands, peptide.ClassI)

	require.NoError(t, err)
	require.Len(t, results, len(cands))
	assert.Equal(t, 7, clf.calls())
	for i, r := range results {
		assert.Equal(t, cands[i].Peptide, r.Peptide)
		assert.Equal(t, cands[i].Position, r.Position)
		assert.Equal(t, cands[i].Length, r.Length)
		assert.Equal(t, peptide.ClassI, r.HLAClass)
	}
}

func TestBatchPredictor_PadsToClassBudget(t *testing.T) {
	clfI := &fakeClassifier{}
	clfII := &fakeClassifier{}
	bp := NewBatchPredictor(newFakeProvider(clfI, clfII), 16)

	_, err := bp.Predict(context.Background(), []peptide.Candidate{{Peptide: "SIINFEKL", Position: 1, Length: 8, Class: peptide.ClassI}}, peptide.ClassI)
	require.NoError(t, err)
	row := clfI.batches[0][0]
	require.Len(t, row, 16)
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 1}, row[10:])

	long := strings.Repeat("A", 21)
	_, err = bp.Predict(context.Background(), []peptide.Candidate{{Peptide: long, Position: 1, Length: 21, Class: peptide.ClassII}}, peptide.ClassII)
	require.NoError(t, err)
	row = clfII.batches[0][0]
	require.Len(t, row, 23)
	assert.NotContains(t, row[1:22], int64(1), "a 21-mer fills the budget without padding")
}

func TestBatchPredictor_RejectsPeptideOverBudget(t *testing.T) {
	clf := &fakeClassifier{}
	bp := NewBatchPredictor(newFakeProvider(clf, nil), 16)

	_, err := bp.Predict(context.Background(), []peptide.Candidate{{Peptide: strings.Repeat("A", 15), Position: 1, Length: 15, Class: peptide.ClassI}}, peptide.ClassI)

	require.Error(t, err)
	assert.Equal(t, xerr.KindInternal, xerr.KindOf(err))
	assert.Zero(t, clf.calls())
}

func TestBatchPredictor_StrictThreshold(t *testing.T) {
	clf := &fakeClassifier{probs: map[string]float32{
		"AAAAAAAA": 0.5,
		"CCCCCCCC": 0.51,
		"DDDDDDDD": 0.49,
	}}
	bp := NewBatchPredictor(newFakeProvider(clf, nil), 8)
	cands := []peptide.Candidate{
		{Peptide: "AAAAAAAA", Position: 1, Length: 8, Class: peptide.ClassI},
		{Peptide: "CCCCCCCC", Position: 2, Length: 8, Class: peptide.ClassI},
		{Peptide: "DDDDDDDD", Position: 3, Length: 8, Class: peptide.ClassI},
	}

	results, err := bp.Predict(context.Background(), cands, peptide.ClassI)

	require.NoError(t, err)
	assert.False(t, results[0].IsEpitope, "0.5 is not an epitope")
	assert.True(t, results[1].IsEpitope)
	assert.False(t, results[2].IsEpitope)
	assert.InDelta(t, 0.51, results[1].Probability, 1e-6)
}

func TestBatchPredictor_ModelUnavailableBeforeAnyChunk(t *testing.T) {
	clfI := &fakeClassifier{}
	bp := NewBatchPredictor(newFakeProvider(clfI, nil), 4)
	cands := candidatesOf(t, strings.Repeat("ACDEFGHIKL", 3), peptide.ClassII)

	_, err := bp.Predict(context.Background(), cands, peptide.ClassII)

	assert.True(t, xerr.Is(err, xerr.KindModelUnavailable))
	assert.Zero(t, clfI.calls())
}

func TestBatchPredictor_TokenizerMissing(t *testing.T) {
	clf := &fakeClassifier{}
	p := newFakeProvider(clf, nil)
	p.tok = nil
	bp := NewBatchPredictor(p, 4)

	_, err := bp.Predict(context.Background(), candidatesOf(t, "SIINFEKL", peptide.ClassI), peptide.ClassI)

	assert.True(t, xerr.Is(err, xerr.KindModelUnavailable))
}

func TestBatchPredictor_ClassifierErrorReturnsNoPartialResults(t *testing.T) {
	clf := &fakeClassifier{err: errors.New("boom")}
	bp := NewBatchPredictor(newFakeProvider(clf, nil), 2)

	results, err := bp.Predict(context.Background(), candidatesOf(t, "SIINFEKLAA", peptide.ClassI), peptide.ClassI)

	assert.Nil(t, results)
	assert.Equal(t, xerr.KindInternal, xerr.KindOf(err))
}

func TestBatchPredictor_UnknownClass(t *testing.T) {
	bp := NewBatchPredictor(newFakeProvider(&fakeClassifier{}, nil), 2)

	_, err := bp.Predict(context.Background(), nil, "III")

	assert.True(t, xerr.Is(err, xerr.KindInputValidation))
}

func TestBatchPredictor_StopsOnCancelledContext(t *testing.T) {
	clf := &fakeClassifier{}
	bp := NewBatchPredictor(newFakeProvider(clf, nil), 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bp.Predict(ctx, candidatesOf(t, "SIINFEKLAA", peptide.ClassI), peptide.ClassI)

	assert.Error(t, err)
	assert.Zero(t, clf.calls())
}

func TestNewBatchPredictor_DefaultBatchSize(t *testing.T) {
	bp := NewBatchPredictor(newFakeProvider(nil, nil), 0)
	assert.Equal(t, DefaultBatchSize, bp.BatchSize())
}

// reloadingClassifier 第一次推理后触发一次 registry 重新加载
type reloadingClassifier struct {
	fakeClassifier
	reload func()
	once   sync.Once
	closed bool
}

func (r *reloadingClassifier) Classify(ctx context.Context, ids [][]int64) ([][]float32, error) {
	out, err := r.fakeClassifier.Classify(ctx, ids)
	r.once.Do(r.reload)
	return out, err
}

func (r *reloadingClassifier) Close() error {
	r.closed = true
	return nil
}

func TestBatchPredictor_ReloadBetweenChunksKeepsModel(t *testing.T) {
	clfI := &reloadingClassifier{fakeClassifier: fakeClassifier{def: 0.9}}
	classIIReady := false
	registry := model.NewRegistry(func(_ context.Context, req model.LoadRequest) (*model.Models, error) {
		m := &model.Models{Classifiers: map[peptide.HLAClass]repository.Classifier{}}
		if req.Tokenizer {
			m.Tokenizer = byteTokenizer{}
		}
		for _, class := range req.Classes {
			if class == peptide.ClassI {
				m.Classifiers[class] = clfI
			} else if classIIReady {
				m.Classifiers[class] = &fakeClassifier{}
			}
		}
		if !classIIReady {
			return m, errors.New("class II model missing")
		}
		return m, nil
	})
	require.Error(t, registry.Reload(context.Background()))

	var reloadErr error
	clfI.reload = func() {
		classIIReady = true
		reloadErr = registry.Reload(context.Background())
	}
	bp := NewBatchPredictor(registry, 2)
	cands := candidatesOf(t, "ACDEFGHIKL", peptide.ClassI) // 3+2+1 = 6

	results, err := bp.Predict(context.Background(), cands, peptide.ClassI)

	require.NoError(t, err)
	require.NoError(t, reloadErr)
	assert.Len(t, results, len(cands))
	assert.Equal(t, 3, clfI.calls())
	assert.False(t, clfI.closed)
	assert.True(t, registry.Ready())
}
