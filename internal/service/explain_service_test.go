package service

import (
	"context"
	"errors"
	"testing"

	"textlab-go/internal/config"
	"textlab-go/internal/experiment"
	"textlab-go/internal/model"
	"textlab-go/internal/repository"
	"textlab-go/internal/vectorizer"
	"textlab-go/pkg/apperr"
)

func seedLabeledDocs(t *testing.T, docRepo *repository.MemoryDocumentRepository) []*model.Document {
	t.Helper()
	texts := map[string]string{
		"sports": "the team won the match with a late goal and the fans cheered the players",
		"tech":   "the new chip improves compute performance and the software update fixes bugs",
	}
	var docs []*model.Document
	for i := 0; i < 10; i++ {
		label := "sports"
		if i%2 == 1 {
			label = "tech"
		}
		docs = append(docs, &model.Document{
			RowID:         model.RowID("toy", i),
			CleanedText:   texts[label],
			Label:         label,
			DatasetOrigin: "toy",
		})
	}
	if err := docRepo.ReplaceDataset("toy", docs); err != nil {
		t.Fatal(err)
	}
	return docs
}

func newExplainFixture(t *testing.T) (ExplainService, *repository.MemorySummaryRepository, []*model.Document) {
	t.Helper()
	docRepo := repository.NewMemoryDocumentRepository()
	sumRepo := repository.NewMemorySummaryRepository()
	docs := seedLabeledDocs(t, docRepo)

	vecCfg := config.VectorizerConfig{TFIDF: config.TFIDFConfig{MaxFeatures: 100, MinDocFreq: 1}}
	artifact, err := experiment.TrainArtifact(context.Background(), docs,
		vectorizer.KindTFIDF, "linearsvm", []string{"sports", "tech"},
		vecCfg, config.ClassifiersConfig{}, 42, experiment.Deps{})
	if err != nil {
		t.Fatalf("TrainArtifact: %v", err)
	}

	summarySvc := newTestService(docRepo, sumRepo, nil, 0)
	return NewExplainService(docRepo, summarySvc, artifact, 150, 5, 42), sumRepo, docs
}

func TestExplainLIME(t *testing.T) {
	svc, _, docs := newExplainFixture(t)

	result, err := svc.ExplainLIME(context.Background(), docs[0].RowID, false)
	if err != nil {
		t.Fatalf("ExplainLIME: %v", err)
	}
	if result.RowID != docs[0].RowID {
		t.Errorf("row id = %s, want %s", result.RowID, docs[0].RowID)
	}
	if result.FullText.Label != "sports" && result.FullText.Label != "tech" {
		t.Errorf("label = %s, want a known label", result.FullText.Label)
	}
	if len(result.FullText.Attributions) == 0 {
		t.Error("no attributions returned")
	}
	if result.Summary != nil {
		t.Error("summary explanation present without useSummaryAlso")
	}
}

func TestExplainLIMERowNotFound(t *testing.T) {
	svc, _, _ := newExplainFixture(t)
	if _, err := svc.ExplainLIME(context.Background(), "toy-999999", false); !errors.Is(err, apperr.ErrRowNotFound) {
		t.Errorf("err = %v, want ErrRowNotFound", err)
	}
}

func TestExplainLIMESummaryMissing(t *testing.T) {
	svc, _, docs := newExplainFixture(t)
	if _, err := svc.ExplainLIME(context.Background(), docs[0].RowID, true); !errors.Is(err, apperr.ErrSummaryMissing) {
		t.Errorf("err = %v, want ErrSummaryMissing", err)
	}
}

func TestExplainLIMEWithSummary(t *testing.T) {
	svc, sumRepo, docs := newExplainFixture(t)
	sumRepo.Upsert(&model.Summary{
		RowID:       docs[0].RowID,
		Kind:        model.SummaryKindAbstractive,
		SummaryText: "the team won the match and fans cheered",
	})

	result, err := svc.ExplainLIME(context.Background(), docs[0].RowID, true)
	if err != nil {
		t.Fatalf("ExplainLIME: %v", err)
	}
	if result.Summary == nil {
		t.Fatal("summary explanation missing")
	}
	if len(result.Summary.Attributions) == 0 {
		t.Error("no summary attributions")
	}
}

func TestExplainSHAP(t *testing.T) {
	svc, _, docs := newExplainFixture(t)
	result, err := svc.ExplainSHAP(context.Background(), docs[1].RowID, false)
	if err != nil {
		t.Fatalf("ExplainSHAP: %v", err)
	}
	if len(result.FullText.Attributions) == 0 {
		t.Error("no attributions returned")
	}
}
