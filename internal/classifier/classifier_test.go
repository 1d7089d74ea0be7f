package classifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/plantid/internal/preprocess"
)

type stubClassifier struct {
	scores []float32
	names  []string
	err    error
}

func (s *stubClassifier) Classify(ctx context.Context, t preprocess.Tensor) (int, float32, error) {
	if s.err != nil {
		return -1, 0, s.err
	}
	idx := Argmax(s.scores)
	return idx, s.scores[idx], nil
}

func (s *stubClassifier) ClassNames() []string {
	return s.names
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float32
		expected int
	}{
		{name: "single", scores: []float32{0.2}, expected: 0},
		{name: "max in middle", scores: []float32{0.1, 2.5, -1, 0.3}, expected: 1},
		{name: "max last", scores: []float32{-3, -2, -1}, expected: 2},
		{name: "tie picks first", scores: []float32{1, 4, 4, 2}, expected: 1},
		{name: "all equal", scores: []float32{7, 7, 7}, expected: 0},
		{name: "empty", scores: nil, expected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Argmax(tt.scores); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestPredict(t *testing.T) {
	names := []string{"Aloe Vera", "Neem", "Tulsi", "Rose"}

	t.Run("resolves label", func(t *testing.T) {
		c := &stubClassifier{scores: []float32{0.1, 0.2, 0.3, 0.9}, names: names}
		p, err := Predict(context.Background(), c, preprocess.Tensor{})
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		if p.Index != 3 || p.Label != "Rose" {
			t.Errorf("Expected index 3 'Rose', got %d '%s'", p.Index, p.Label)
		}
		if p.Score != 0.9 {
			t.Errorf("Expected score 0.9, got %v", p.Score)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		c := &stubClassifier{scores: []float32{0.5, 0.5, 0.1, 0.4}, names: names}
		first, _ := Predict(context.Background(), c, preprocess.Tensor{})
		for i := 0; i < 5; i++ {
			p, _ := Predict(context.Background(), c, preprocess.Tensor{})
			if p.Index != first.Index {
				t.Fatalf("Expected stable index %d, got %d", first.Index, p.Index)
			}
		}
	})

	t.Run("missing label table", func(t *testing.T) {
		c := &stubClassifier{scores: []float32{1}}
		_, err := Predict(context.Background(), c, preprocess.Tensor{})
		if !errors.Is(err, ErrMissingClassNames) {
			t.Errorf("Expected ErrMissingClassNames, got %v", err)
		}
		if !errors.Is(err, ErrModelContract) {
			t.Errorf("Expected missing labels to be a contract error, got %v", err)
		}
	})

	t.Run("index outside table", func(t *testing.T) {
		c := &stubClassifier{scores: []float32{0, 0, 0, 0, 5}, names: names}
		_, err := Predict(context.Background(), c, preprocess.Tensor{})
		if !errors.Is(err, ErrModelContract) {
			t.Errorf("Expected ErrModelContract, got %v", err)
		}
		if errors.Is(err, ErrMissingClassNames) {
			t.Error("Out of range index is not a missing label table")
		}
	})

	t.Run("inference error", func(t *testing.T) {
		boom := errors.New("session closed")
		c := &stubClassifier{err: boom, names: names}
		_, err := Predict(context.Background(), c, preprocess.Tensor{})
		if !errors.Is(err, boom) {
			t.Errorf("Expected wrapped inference error, got %v", err)
		}
		if errors.Is(err, ErrModelContract) {
			t.Error("Inference errors are not contract errors")
		}
	})
}

func TestParseClassNames(t *testing.T) {
	names, err := ParseClassNames([]byte(`["Aloe Vera","Neem","Tulsi"]`))
	if err != nil {
		t.Fatalf("ParseClassNames failed: %v", err)
	}
	if len(names) != 3 || names[2] != "Tulsi" {
		t.Errorf("Expected 3 names ending in 'Tulsi', got %v", names)
	}

	if _, err := ParseClassNames([]byte(`{"classes": []}`)); err == nil {
		t.Error("Expected error for non-array metadata")
	}
	if _, err := ParseClassNames([]byte(`["Neem", ""]`)); !errors.Is(err, ErrModelContract) {
		t.Errorf("Expected ErrModelContract for empty name, got %v", err)
	}
}

func TestLoadLabelsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.json")
	if err := os.WriteFile(path, []byte(`{"classes": ["Rose", "Tulsi"]}`), 0644); err != nil {
		t.Fatal(err)
	}

	names, err := LoadLabelsFile(path)
	if err != nil {
		t.Fatalf("LoadLabelsFile failed: %v", err)
	}
	if len(names) != 2 || names[0] != "Rose" {
		t.Errorf("Expected [Rose Tulsi], got %v", names)
	}

	if _, err := LoadLabelsFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Expected error for missing labels file")
	}
}

func TestCheckInputShape(t *testing.T) {
	tests := []struct {
		dims    []int64
		wantErr bool
	}{
		{dims: []int64{1, 3, 224, 224}},
		{dims: []int64{-1, 3, 224, 224}},
		{dims: []int64{1, 3, 256, 256}, wantErr: true},
		{dims: []int64{3, 224, 224}, wantErr: true},
	}

	for _, tt := range tests {
		err := checkInputShape(tt.dims)
		if (err != nil) != tt.wantErr {
			t.Errorf("checkInputShape(%v): wantErr %v, got %v", tt.dims, tt.wantErr, err)
		}
	}
}
