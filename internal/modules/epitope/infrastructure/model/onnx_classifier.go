package model

import (
	"context"
	"fmt"
	"math"
	"sync"

	"EpiPredict/internal/modules/epitope/domain/repository"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// InitRuntime 初始化 onnxruntime 环境，进程内只执行一次
func InitRuntime(libraryPath string) error {
	ortOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if ort.IsInitialized() {
			return
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

// DestroyRuntime 释放 onnxruntime 环境
func DestroyRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// OnnxClassifier 导出为 ONNX 的 TransHLA 分类器。
// 输入 input_ids [batch, budget] int64，输出 [batch, 2] float32。
type OnnxClassifier struct {
	session    *ort.DynamicAdvancedSession
	modelPath  string
	softmax    bool
	outputName string
}

// OnnxOptions 单个模型的加载参数
type OnnxOptions struct {
	ModelPath    string
	InputName    string
	OutputName   string
	ApplySoftmax bool // 模型输出为 logits 时开启
}

// NewOnnxClassifier 创建推理会话，调用前需先 InitRuntime
func NewOnnxClassifier(opts OnnxOptions) (*OnnxClassifier, error) {
	if opts.ModelPath == "" {
		return nil, fmt.Errorf("model path is empty")
	}
	inputName := opts.InputName
	if inputName == "" {
		inputName = "input_ids"
	}
	outputName := opts.OutputName
	if outputName == "" {
		outputName = "probabilities"
	}
	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath, []string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("create onnx session %s: %w", opts.ModelPath, err)
	}
	return &OnnxClassifier{session: session, modelPath: opts.ModelPath, softmax: opts.ApplySoftmax, outputName: outputName}, nil
}

var _ repository.Classifier = (*OnnxClassifier)(nil)

func (o *OnnxClassifier) Classify(ctx context.Context, inputIDs [][]int64) ([][]float32, error) {
	if len(inputIDs) == 0 {
		return nil, nil
	}
	if o.session == nil {
		return nil, fmt.Errorf("onnx session %s released: %w", o.modelPath, repository.ErrNotLoaded)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	width := len(inputIDs[0])
	flat := make([]int64, 0, len(inputIDs)*width)
	for i, row := range inputIDs {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d tokens, expected %d", i, len(row), width)
		}
		flat = append(flat, row...)
	}

	input, err := ort.NewTensor(ort.NewShape(int64(len(inputIDs)), int64(width)), flat)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := o.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("onnx run %s: %w", o.modelPath, err)
	}
	defer outputs[0].Destroy()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("output %s is not a float32 tensor", o.outputName)
	}
	shape := tensor.GetShape()
	if len(shape) != 2 || int(shape[0]) != len(inputIDs) {
		return nil, fmt.Errorf("unexpected output shape %v for batch of %d", shape, len(inputIDs))
	}
	classes := int(shape[1])
	data := tensor.GetData()

	out := make([][]float32, len(inputIDs))
	for i := range out {
		row := make([]float32, classes)
		copy(row, data[i*classes:(i+1)*classes])
		if o.softmax {
			softmaxInPlace(row)
		}
		out[i] = row
	}
	return out, nil
}

// Close 释放会话
func (o *OnnxClassifier) Close() error {
	if o == nil || o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}

func softmaxInPlace(v []float32) {
	if len(v) == 0 {
		return
	}
	maxV := v[0]
	for _, x := range v[1:] {
		if x > maxV {
			maxV = x
		}
	}
	var sum float64
	for i, x := range v {
		e := math.Exp(float64(x - maxV))
		v[i] = float32(e)
		sum += e
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / sum)
	}
}
