package evaluator

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"textlab-go/pkg/apperr"
)

var labels = []string{"ham", "spam"}

func TestEvaluatePerfectPredictions(t *testing.T) {
	truth := []string{"spam", "ham", "spam", "ham"}
	m, err := Evaluate(truth, truth, labels)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if m.Accuracy != 1.0 {
		t.Errorf("accuracy = %f, want 1.0", m.Accuracy)
	}
	if m.F1 != 1.0 {
		t.Errorf("macro F1 = %f, want 1.0", m.F1)
	}
	if m.Precision != 1.0 || m.Recall != 1.0 {
		t.Errorf("precision/recall = %f/%f, want 1.0", m.Precision, m.Recall)
	}
}

func TestEvaluateEmptyPredictionSet(t *testing.T) {
	_, err := Evaluate(nil, nil, labels)
	if !errors.Is(err, apperr.ErrEmptyPredictionSet) {
		t.Fatalf("err = %v, want ErrEmptyPredictionSet", err)
	}
}

func TestEvaluateAbsentClassCountsZero(t *testing.T) {
	// 批次里只出现 ham：spam 类按零贡献计入宏平均，不报除零错误
	truth := []string{"ham", "ham"}
	preds := []string{"ham", "ham"}
	m, err := Evaluate(preds, truth, labels)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if m.Accuracy != 1.0 {
		t.Errorf("accuracy = %f", m.Accuracy)
	}
	// ham 类 F1=1，spam 类 0 → 宏平均 0.5
	if math.Abs(m.F1-0.5) > 1e-9 {
		t.Errorf("macro F1 = %f, want 0.5", m.F1)
	}
}

func TestEvaluateConfusionDimensions(t *testing.T) {
	preds := []string{"ham", "spam", "ham"}
	truth := []string{"ham", "ham", "spam"}
	m, err := Evaluate(preds, truth, labels)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Confusion) != len(labels) {
		t.Fatalf("confusion rows = %d, want %d", len(m.Confusion), len(labels))
	}
	for _, row := range m.Confusion {
		if len(row) != len(labels) {
			t.Fatalf("confusion cols = %d, want %d", len(row), len(labels))
		}
	}
	// truth=ham,pred=ham 一次；truth=ham,pred=spam 一次；truth=spam,pred=ham 一次
	if m.Confusion[0][0] != 1 || m.Confusion[0][1] != 1 || m.Confusion[1][0] != 1 || m.Confusion[1][1] != 0 {
		t.Errorf("confusion = %v", m.Confusion)
	}
}

func TestEvaluateUnknownLabel(t *testing.T) {
	_, err := Evaluate([]string{"eggs"}, []string{"ham"}, labels)
	if !errors.Is(err, apperr.ErrLabelSetMismatch) {
		t.Fatalf("err = %v, want ErrLabelSetMismatch", err)
	}
}

func TestRenderF1Chart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f1.png")
	scores := []CellScore{
		{Name: "tfidf/linearsvm", F1: 0.9},
		{Name: "tfidf/mlp", F1: 0.8},
	}
	if err := RenderF1Chart(scores, path); err != nil {
		t.Fatalf("RenderF1Chart: %v", err)
	}
}
