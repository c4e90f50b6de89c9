package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"textlab-go/internal/config"
	"textlab-go/internal/model"
	"textlab-go/internal/repository"
	"textlab-go/pkg/apperr"
	"textlab-go/pkg/tasks"

	pkgerrors "github.com/pkg/errors"
)

// fakeLLM 是一个可编排失败行为的生成客户端。
type fakeLLM struct {
	calls      int
	failUntil  int   // 前 N 次调用失败
	failErr    error // 失败时返回的错误
	failOnWord string
}

func (f *fakeLLM) Generate(ctx context.Context, text string, targetWords int) (string, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return "", pkgerrors.Wrap(f.failErr, "fake failure")
	}
	if f.failOnWord != "" && strings.Contains(text, f.failOnWord) {
		return "", pkgerrors.Wrap(apperr.ErrSummaryServiceUnavailable, "fake failure")
	}
	return "摘要: " + text, nil
}

func seedDocs(t *testing.T, docRepo *repository.MemoryDocumentRepository, n int) []*model.Document {
	t.Helper()
	var docs []*model.Document
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("document number %d talks about topic %d. it has two sentences.", i, i%2)
		docs = append(docs, &model.Document{
			RowID:         model.RowID("toy", i),
			CleanedText:   text,
			Label:         "a",
			DatasetOrigin: "toy",
		})
	}
	if err := docRepo.ReplaceDataset("toy", docs); err != nil {
		t.Fatal(err)
	}
	return docs
}

func newTestService(docRepo repository.DocumentRepository, sumRepo repository.SummaryRepository, client *fakeLLM, retries int) SummaryService {
	sumCfg := config.SummarizerConfig{ExtractiveSentences: 1, AbstractiveWords: 30}
	llmCfg := config.LLMConfig{MaxRetries: retries}
	if client == nil {
		return NewSummaryService(docRepo, sumRepo, nil, sumCfg, llmCfg, false)
	}
	return NewSummaryService(docRepo, sumRepo, client, sumCfg, llmCfg, false)
}

func TestGenerateForDatasetExtractive(t *testing.T) {
	docRepo := repository.NewMemoryDocumentRepository()
	sumRepo := repository.NewMemorySummaryRepository()
	docs := seedDocs(t, docRepo, 4)
	svc := newTestService(docRepo, sumRepo, nil, 0)

	stats, err := svc.GenerateForDataset(context.Background(), "toy", model.SummaryKindExtractive)
	if err != nil {
		t.Fatalf("GenerateForDataset: %v", err)
	}
	if stats.Generated != 4 || stats.Failed != 0 {
		t.Fatalf("stats = %+v, want 4 generated", stats)
	}
	for _, doc := range docs {
		sum, err := sumRepo.FindByRowIDAndKind(doc.RowID, model.SummaryKindExtractive)
		if err != nil {
			t.Fatalf("summary for %s not persisted: %v", doc.RowID, err)
		}
		if sum.SummaryText == "" {
			t.Errorf("summary for %s is empty", doc.RowID)
		}
	}
}

func TestGenerateForDatasetSkipsExisting(t *testing.T) {
	docRepo := repository.NewMemoryDocumentRepository()
	sumRepo := repository.NewMemorySummaryRepository()
	seedDocs(t, docRepo, 3)
	svc := newTestService(docRepo, sumRepo, nil, 0)

	if _, err := svc.GenerateForDataset(context.Background(), "toy", model.SummaryKindExtractive); err != nil {
		t.Fatal(err)
	}
	stats, err := svc.GenerateForDataset(context.Background(), "toy", model.SummaryKindExtractive)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 3 || stats.Generated != 0 {
		t.Errorf("second run stats = %+v, want all skipped", stats)
	}
}

// 单行生成失败落空哨兵，整批继续。
func TestGenerateForDatasetAbstractivePartialFailure(t *testing.T) {
	docRepo := repository.NewMemoryDocumentRepository()
	sumRepo := repository.NewMemorySummaryRepository()
	docs := seedDocs(t, docRepo, 4)
	client := &fakeLLM{failOnWord: "number 2", failErr: apperr.ErrSummaryServiceUnavailable}
	svc := newTestService(docRepo, sumRepo, client, 0)

	stats, err := svc.GenerateForDataset(context.Background(), "toy", model.SummaryKindAbstractive)
	if err != nil {
		t.Fatalf("GenerateForDataset: %v", err)
	}
	if stats.Generated != 3 || stats.Failed != 1 {
		t.Fatalf("stats = %+v, want 3 generated / 1 failed", stats)
	}

	failed, err := sumRepo.FindByRowIDAndKind(docs[2].RowID, model.SummaryKindAbstractive)
	if err != nil {
		t.Fatalf("sentinel row not persisted: %v", err)
	}
	if failed.SummaryText != "" {
		t.Errorf("failed row text = %q, want empty sentinel", failed.SummaryText)
	}
}

// 瞬时失败在有界次数内重试，重试耗尽后放弃。
func TestAbstractiveBoundedRetry(t *testing.T) {
	client := &fakeLLM{failUntil: 1, failErr: apperr.ErrSummaryTimeout}
	svc := newTestService(repository.NewMemoryDocumentRepository(), repository.NewMemorySummaryRepository(), client, 1)

	text, err := svc.SummarizeText(context.Background(), "some long document text here", model.SummaryKindAbstractive)
	if err != nil {
		t.Fatalf("SummarizeText after retry: %v", err)
	}
	if text == "" || client.calls != 2 {
		t.Errorf("text=%q calls=%d, want summary after 2 calls", text, client.calls)
	}

	exhausted := &fakeLLM{failUntil: 10, failErr: apperr.ErrSummaryTimeout}
	svc = newTestService(repository.NewMemoryDocumentRepository(), repository.NewMemorySummaryRepository(), exhausted, 1)
	if _, err := svc.SummarizeText(context.Background(), "text", model.SummaryKindAbstractive); !errors.Is(err, apperr.ErrSummaryTimeout) {
		t.Errorf("err = %v, want ErrSummaryTimeout", err)
	}
	if exhausted.calls != 2 {
		t.Errorf("calls = %d, want bounded at 2", exhausted.calls)
	}
}

func TestGetSummaryMissingAndSentinel(t *testing.T) {
	docRepo := repository.NewMemoryDocumentRepository()
	sumRepo := repository.NewMemorySummaryRepository()
	svc := newTestService(docRepo, sumRepo, nil, 0)

	if _, err := svc.GetSummary(context.Background(), "toy-000000", model.SummaryKindAbstractive); !errors.Is(err, apperr.ErrSummaryMissing) {
		t.Errorf("missing summary err = %v, want ErrSummaryMissing", err)
	}

	sumRepo.Upsert(&model.Summary{RowID: "toy-000001", Kind: model.SummaryKindAbstractive, SummaryText: ""})
	if _, err := svc.GetSummary(context.Background(), "toy-000001", model.SummaryKindAbstractive); !errors.Is(err, apperr.ErrSummaryMissing) {
		t.Errorf("sentinel summary err = %v, want ErrSummaryMissing", err)
	}

	sumRepo.Upsert(&model.Summary{RowID: "toy-000002", Kind: model.SummaryKindAbstractive, SummaryText: "ok"})
	text, err := svc.GetSummary(context.Background(), "toy-000002", model.SummaryKindAbstractive)
	if err != nil || text != "ok" {
		t.Errorf("text=%q err=%v, want ok", text, err)
	}
}

func TestRebuild(t *testing.T) {
	docRepo := repository.NewMemoryDocumentRepository()
	sumRepo := repository.NewMemorySummaryRepository()
	docs := seedDocs(t, docRepo, 1)
	svc := newTestService(docRepo, sumRepo, nil, 0)

	task := tasks.SummaryRebuildTask{RowID: docs[0].RowID, Kind: model.SummaryKindExtractive}
	if err := svc.Rebuild(context.Background(), task); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if _, err := sumRepo.FindByRowIDAndKind(docs[0].RowID, model.SummaryKindExtractive); err != nil {
		t.Fatalf("rebuilt summary not persisted: %v", err)
	}

	missing := tasks.SummaryRebuildTask{RowID: "toy-999999", Kind: model.SummaryKindExtractive}
	if err := svc.Rebuild(context.Background(), missing); !errors.Is(err, apperr.ErrRowNotFound) {
		t.Errorf("err = %v, want ErrRowNotFound", err)
	}
}

func TestSummarizeTextUnknownKind(t *testing.T) {
	svc := newTestService(repository.NewMemoryDocumentRepository(), repository.NewMemorySummaryRepository(), nil, 0)
	if _, err := svc.SummarizeText(context.Background(), "text", "lsa"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
