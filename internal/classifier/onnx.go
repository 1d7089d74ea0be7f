package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/plantid/internal/preprocess"
	ort "github.com/yalue/onnxruntime_go"
)

// ClassNamesMetadataKey is the ONNX custom metadata entry holding the label
// table as a JSON array of strings.
const ClassNamesMetadataKey = "class_names"

// ONNXOptions tunes how an artifact is loaded
type ONNXOptions struct {
	// LabelsPath overrides the embedded label table with a sidecar file.
	LabelsPath string
	// RuntimeLibrary is the path to the onnxruntime shared library.
	RuntimeLibrary string
}

// ONNXModel is a classifier artifact backed by onnxruntime. It is safe for
// concurrent use: every call binds its own tensors.
type ONNXModel struct {
	session    *ort.DynamicAdvancedSession
	classNames []string
	inputName  string
	outputName string
	outputSize int64
}

// LoadONNX opens the artifact at modelPath. A missing label table is not a
// load error; Predict reports it on every request instead.
func LoadONNX(modelPath string, opts ONNXOptions) (*ONNXModel, error) {
	if opts.RuntimeLibrary != "" {
		ort.SetSharedLibraryPath(opts.RuntimeLibrary)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect model: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("%w: expected one input and one output, got %d and %d", ErrModelContract, len(inputs), len(outputs))
	}

	if err := checkInputShape(inputs[0].Dimensions); err != nil {
		return nil, err
	}

	outDims := outputs[0].Dimensions
	if len(outDims) == 0 || outDims[len(outDims)-1] <= 0 {
		return nil, fmt.Errorf("%w: output %q has no fixed class dimension: %v", ErrModelContract, outputs[0].Name, outDims)
	}
	outputSize := outDims[len(outDims)-1]

	classNames, err := loadClassNames(modelPath, opts.LabelsPath)
	if err != nil {
		return nil, err
	}
	switch {
	case len(classNames) == 0:
		slog.Warn("Model has no label table, predictions will fail", "path", modelPath)
	case int64(len(classNames)) != outputSize:
		slog.Warn("Label table size does not match model output", "classes", len(classNames), "outputs", outputSize)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	slog.Info("Loaded classifier", "path", modelPath, "input", inputs[0].Name, "output", outputs[0].Name, "classes", len(classNames))

	return &ONNXModel{
		session:    session,
		classNames: classNames,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		outputSize: outputSize,
	}, nil
}

func checkInputShape(dims ort.Shape) error {
	expected := []int64{1, preprocess.Channels, preprocess.CropSize, preprocess.CropSize}
	if len(dims) != len(expected) {
		return fmt.Errorf("%w: expected a 4-dimensional input, got %v", ErrModelContract, dims)
	}
	for i, d := range dims {
		// -1 marks a dynamic axis, usually the batch
		if d != -1 && d != expected[i] {
			return fmt.Errorf("%w: expected input shape %v, got %v", ErrModelContract, expected, dims)
		}
	}
	return nil
}

// Classify runs a single forward pass in inference mode
func (m *ONNXModel) Classify(ctx context.Context, t preprocess.Tensor) (int, float32, error) {
	if err := ctx.Err(); err != nil {
		return -1, 0, err
	}

	input, err := ort.NewTensor(ort.NewShape(t.Shape[:]...), t.Data)
	if err != nil {
		return -1, 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, m.outputSize))
	if err != nil {
		return -1, 0, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := m.session.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return -1, 0, fmt.Errorf("inference failed: %w", err)
	}

	scores := output.GetData()
	idx := Argmax(scores)
	if idx < 0 {
		return -1, 0, fmt.Errorf("%w: empty output", ErrModelContract)
	}
	return idx, scores[idx], nil
}

// ClassNames returns the label table, nil if the artifact has none
func (m *ONNXModel) ClassNames() []string {
	return m.classNames
}

func (m *ONNXModel) Close() {
	if m.session != nil {
		if err := m.session.Destroy(); err != nil {
			slog.Error("Failed to destroy ONNX session", "err", err)
		}
	}
	if err := ort.DestroyEnvironment(); err != nil {
		slog.Error("Failed to destroy ONNX environment", "err", err)
	}
}

func loadClassNames(modelPath, labelsPath string) ([]string, error) {
	if labelsPath != "" {
		return LoadLabelsFile(labelsPath)
	}

	metadata, err := ort.GetModelMetadata(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model metadata: %w", err)
	}
	defer metadata.Destroy()

	raw, ok, err := metadata.LookupCustomMetadataMap(ClassNamesMetadataKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s metadata: %w", ClassNamesMetadataKey, err)
	}
	if !ok {
		return nil, nil
	}
	return ParseClassNames([]byte(raw))
}
