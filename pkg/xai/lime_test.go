package xai

import (
	"context"
	"strings"
	"testing"
)

// 黑盒：包含 "excellent" 判为 pos，否则 neg。
func keywordPredict(ctx context.Context, text string) (string, error) {
	if strings.Contains(text, "excellent") {
		return "pos", nil
	}
	return "neg", nil
}

const reviewText = "the food was excellent and the service slow but friendly"

func TestExplainTextFindsDecisiveWord(t *testing.T) {
	ex := NewExplainer(300, 5, 42)
	label, attrs, err := ex.ExplainText(context.Background(), reviewText, keywordPredict)
	if err != nil {
		t.Fatalf("ExplainText: %v", err)
	}
	if label != "pos" {
		t.Fatalf("base label = %s, want pos", label)
	}
	if len(attrs) == 0 {
		t.Fatal("no attributions")
	}
	if attrs[0].Feature != "excellent" {
		t.Errorf("top feature = %s (%f), want excellent", attrs[0].Feature, attrs[0].Weight)
	}
	if attrs[0].Weight <= 0 {
		t.Errorf("decisive word weight = %f, want positive", attrs[0].Weight)
	}
}

func TestExplainTextDeterministicWithSeed(t *testing.T) {
	a := NewExplainer(100, 5, 7)
	b := NewExplainer(100, 5, 7)
	_, attrsA, err := a.ExplainText(context.Background(), reviewText, keywordPredict)
	if err != nil {
		t.Fatal(err)
	}
	_, attrsB, err := b.ExplainText(context.Background(), reviewText, keywordPredict)
	if err != nil {
		t.Fatal(err)
	}
	for i := range attrsA {
		if attrsA[i] != attrsB[i] {
			t.Fatalf("attribution %d differs: %+v vs %+v", i, attrsA[i], attrsB[i])
		}
	}
}

func TestExplainTextEmptyInput(t *testing.T) {
	ex := NewExplainer(50, 5, 1)
	if _, _, err := ex.ExplainText(context.Background(), "   ", keywordPredict); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestShapleySamplerFindsDecisiveWord(t *testing.T) {
	sampler := NewShapleySampler(10, 42)
	label, attrs, err := sampler.Explain(context.Background(), reviewText, keywordPredict)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if label != "pos" {
		t.Fatalf("base label = %s, want pos", label)
	}
	if attrs[0].Feature != "excellent" {
		t.Errorf("top feature = %s, want excellent", attrs[0].Feature)
	}
}
