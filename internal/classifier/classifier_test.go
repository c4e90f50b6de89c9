package classifier

import (
	"context"
	"errors"
	"testing"

	"textlab-go/internal/config"
	"textlab-go/pkg/apperr"
)

// 两个线性可分的簇，三种家族都应当能完美拟合。
func separableData() ([][]float64, []string) {
	X := [][]float64{
		{1.0, 0.1}, {0.9, 0.2}, {1.1, 0.0}, {0.8, 0.1}, {1.2, 0.2},
		{0.1, 1.0}, {0.2, 0.9}, {0.0, 1.1}, {0.1, 0.8}, {0.2, 1.2},
	}
	y := []string{"pos", "pos", "pos", "pos", "pos", "neg", "neg", "neg", "neg", "neg"}
	return X, y
}

var allKinds = []string{KindLinearSVM, KindMLP, KindForest}

func TestTrainPredictSeparable(t *testing.T) {
	X, y := separableData()
	for _, kind := range allKinds {
		t.Run(kind, func(t *testing.T) {
			clf, err := New(kind, config.ClassifiersConfig{}, []string{"pos", "neg"}, 42)
			if err != nil {
				t.Fatal(err)
			}
			if err := clf.Train(context.Background(), X, y); err != nil {
				t.Fatalf("Train: %v", err)
			}
			for i, x := range X {
				got, err := clf.Predict(x)
				if err != nil {
					t.Fatalf("Predict: %v", err)
				}
				if got != y[i] {
					t.Errorf("sample %d: got %s, want %s", i, got, y[i])
				}
			}
		})
	}
}

func TestTrainDeterministicWithFixedSeed(t *testing.T) {
	X, y := separableData()
	for _, kind := range allKinds {
		t.Run(kind, func(t *testing.T) {
			var outputs [2][]string
			for run := 0; run < 2; run++ {
				clf, err := New(kind, config.ClassifiersConfig{}, []string{"pos", "neg"}, 7)
				if err != nil {
					t.Fatal(err)
				}
				if err := clf.Train(context.Background(), X, y); err != nil {
					t.Fatal(err)
				}
				for _, x := range X {
					pred, _ := clf.Predict(x)
					outputs[run] = append(outputs[run], pred)
				}
			}
			for i := range outputs[0] {
				if outputs[0][i] != outputs[1][i] {
					t.Fatalf("prediction %d differs across identical runs", i)
				}
			}
		})
	}
}

func TestTrainLengthMismatch(t *testing.T) {
	X, _ := separableData()
	for _, kind := range allKinds {
		clf, _ := New(kind, config.ClassifiersConfig{}, []string{"pos", "neg"}, 1)
		err := clf.Train(context.Background(), X, []string{"pos"})
		if !errors.Is(err, apperr.ErrLabelSetMismatch) {
			t.Errorf("%s: err = %v, want ErrLabelSetMismatch", kind, err)
		}
	}
}

func TestTrainUnknownLabel(t *testing.T) {
	X, y := separableData()
	y[3] = "mystery"
	for _, kind := range allKinds {
		clf, _ := New(kind, config.ClassifiersConfig{}, []string{"pos", "neg"}, 1)
		err := clf.Train(context.Background(), X, y)
		if !errors.Is(err, apperr.ErrLabelSetMismatch) {
			t.Errorf("%s: err = %v, want ErrLabelSetMismatch", kind, err)
		}
	}
}

func TestPredictBeforeTrain(t *testing.T) {
	for _, kind := range allKinds {
		clf, _ := New(kind, config.ClassifiersConfig{}, []string{"a", "b"}, 1)
		if _, err := clf.Predict([]float64{0, 0}); !errors.Is(err, apperr.ErrLabelSetMismatch) {
			t.Errorf("%s: err = %v, want ErrLabelSetMismatch", kind, err)
		}
	}
}

func TestNewUnknownKind(t *testing.T) {
	if _, err := New("boosting", config.ClassifiersConfig{}, []string{"a"}, 1); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
