package summarizer

import (
	"strings"
	"testing"
)

const sampleText = "the cat sat on the mat. " +
	"dogs chase cats in the park. " +
	"the cat and the dog are friends. " +
	"stock prices fell sharply today. " +
	"the cat likes the warm mat near the dog. " +
	"it rained all afternoon in the city."

func TestSummarizeDeterministic(t *testing.T) {
	ex := NewExtractive(2)
	first := ex.Summarize(sampleText)
	second := ex.Summarize(sampleText)
	if first != second {
		t.Fatalf("summaries differ:\n%q\n%q", first, second)
	}
	if first == "" {
		t.Fatal("empty summary")
	}
}

func TestSummarizeSentenceCount(t *testing.T) {
	ex := NewExtractive(2)
	summary := ex.Summarize(sampleText)
	if got := len(SplitSentences(summary)); got != 2 {
		t.Fatalf("summary has %d sentences, want 2: %q", got, summary)
	}
}

func TestSummarizeSelectsExistingSentences(t *testing.T) {
	ex := NewExtractive(2)
	summary := ex.Summarize(sampleText)
	for _, s := range SplitSentences(summary) {
		if !strings.Contains(sampleText, s) {
			t.Errorf("sentence %q not taken from source", s)
		}
	}
}

func TestSummarizeShortTextReturnedWhole(t *testing.T) {
	ex := NewExtractive(3)
	text := "only one sentence here."
	if got := ex.Summarize(text); got != text {
		t.Errorf("short text should pass through, got %q", got)
	}
}

func TestSplitSentences(t *testing.T) {
	sents := SplitSentences("one. two! three? four")
	if len(sents) != 4 {
		t.Fatalf("got %d sentences: %v", len(sents), sents)
	}
}
