package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/plantid/internal/preprocess"
)

var (
	// ErrModelContract marks a classifier artifact whose shape does not match
	// what the service expects. It is a deployment fault, not an input error.
	ErrModelContract = errors.New("model contract violated")

	// ErrMissingClassNames is the contract failure for an artifact shipped
	// without its label table. Predict wraps it together with ErrModelContract.
	ErrMissingClassNames = errors.New("model is missing the 'class_names' attribute")
)

// Classifier is any inference engine that maps a preprocessed tensor to a
// class index and exposes the index -> label table.
type Classifier interface {
	// Classify returns the argmax index and its raw score.
	Classify(ctx context.Context, t preprocess.Tensor) (int, float32, error)
	// ClassNames is nil when the artifact carries no label table.
	ClassNames() []string
}

// Prediction is the argmax result; no confidence threshold is applied.
type Prediction struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Score float32 `json:"score"`
}

// Predict runs c on t and resolves the label
func Predict(ctx context.Context, c Classifier, t preprocess.Tensor) (Prediction, error) {
	index, score, err := c.Classify(ctx, t)
	if err != nil {
		return Prediction{}, fmt.Errorf("inference failed: %w", err)
	}

	names := c.ClassNames()
	if len(names) == 0 {
		return Prediction{}, fmt.Errorf("%w: %w", ErrModelContract, ErrMissingClassNames)
	}

	if index < 0 || index >= len(names) {
		return Prediction{}, fmt.Errorf("%w: class index %d outside label table of %d entries", ErrModelContract, index, len(names))
	}

	return Prediction{
		Index: index,
		Label: names[index],
		Score: score,
	}, nil
}

// Argmax returns the index of the largest score, the first one on ties, or -1
// for an empty slice.
func Argmax(scores []float32) int {
	if len(scores) == 0 {
		return -1
	}
	maxIdx := 0
	maxVal := scores[0]
	for i, val := range scores[1:] {
		if val > maxVal {
			maxVal = val
			maxIdx = i + 1
		}
	}
	return maxIdx
}
