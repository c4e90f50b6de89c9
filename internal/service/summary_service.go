// Package service 包含了流水线的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"time"

	"textlab-go/internal/config"
	"textlab-go/internal/model"
	"textlab-go/internal/repository"
	"textlab-go/internal/summarizer"
	"textlab-go/pkg/apperr"
	"textlab-go/pkg/database"
	"textlab-go/pkg/kafka"
	"textlab-go/pkg/llm"
	"textlab-go/pkg/log"
	"textlab-go/pkg/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const summaryCacheTTL = 24 * time.Hour

// BatchStats 汇总一次批量摘要生成的行级结果。
type BatchStats struct {
	Total     int `json:"total"`
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// SummaryService 接口定义了摘要生成相关的业务操作。
// 批量生成对单行失败是宽容的：失败行以空哨兵落库，整批继续。
type SummaryService interface {
	GenerateForDataset(ctx context.Context, dataset, kind string) (*BatchStats, error)
	SummarizeText(ctx context.Context, text, kind string) (string, error)
	GetSummary(ctx context.Context, rowID, kind string) (string, error)
	Rebuild(ctx context.Context, task tasks.SummaryRebuildTask) error
	EnqueueRebuild(rowID, kind string) error
}

type summaryService struct {
	docRepo      repository.DocumentRepository
	summaryRepo  repository.SummaryRepository
	extractive   *summarizer.Extractive
	llmClient    llm.Client
	cfg          config.SummarizerConfig
	llmRetries   int
	kafkaEnabled bool
}

// NewSummaryService 创建一个新的 SummaryService 实例。llmClient 可为 nil，
// 此时生成式摘要直接按服务不可用处理。
func NewSummaryService(
	docRepo repository.DocumentRepository,
	summaryRepo repository.SummaryRepository,
	llmClient llm.Client,
	sumCfg config.SummarizerConfig,
	llmCfg config.LLMConfig,
	kafkaEnabled bool,
) SummaryService {
	retries := llmCfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &summaryService{
		docRepo:      docRepo,
		summaryRepo:  summaryRepo,
		extractive:   summarizer.NewExtractive(sumCfg.ExtractiveSentences),
		llmClient:    llmClient,
		cfg:          sumCfg,
		llmRetries:   retries,
		kafkaEnabled: kafkaEnabled,
	}
}

// GenerateForDataset 为数据集的每一行生成指定种类的摘要。
// 已有非空摘要的行跳过；生成失败的行落空哨兵并计数，不中断整批。
func (s *summaryService) GenerateForDataset(ctx context.Context, dataset, kind string) (*BatchStats, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	docs, err := s.docRepo.FindByDataset(dataset)
	if err != nil {
		return nil, errors.Wrap(err, "读取数据集文档失败")
	}
	if len(docs) == 0 {
		return nil, errors.Wrapf(apperr.ErrDataUnavailable, "数据集 '%s' 没有文档", dataset)
	}

	rowIDs := make([]string, len(docs))
	for i, doc := range docs {
		rowIDs[i] = doc.RowID
	}
	existing, err := s.summaryRepo.FindByRowIDsAndKind(rowIDs, kind)
	if err != nil {
		return nil, errors.Wrap(err, "读取已有摘要失败")
	}
	done := make(map[string]struct{}, len(existing))
	for _, sum := range existing {
		if sum.SummaryText != "" {
			done[sum.RowID] = struct{}{}
		}
	}

	stats := &BatchStats{Total: len(docs)}
	var batch []*model.Summary
	for _, doc := range docs {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if _, ok := done[doc.RowID]; ok {
			stats.Skipped++
			continue
		}

		text, err := s.SummarizeText(ctx, doc.CleanedText, kind)
		if err != nil {
			log.Warnf("[SummaryService] 行 %s 摘要生成失败(%s): %v", doc.RowID, apperr.Kind(err), err)
			stats.Failed++
			text = "" // 哨兵：该行参与落库但不可用
		} else {
			stats.Generated++
		}
		batch = append(batch, &model.Summary{RowID: doc.RowID, Kind: kind, SummaryText: text})
		s.cacheSet(ctx, doc.RowID, kind, text)
	}

	if len(batch) > 0 {
		if err := s.summaryRepo.BatchUpsert(batch); err != nil {
			return stats, errors.Wrap(err, "批量保存摘要失败")
		}
	}
	log.Infof("[SummaryService] 数据集 %s/%s 摘要完成: 共 %d, 生成 %d, 跳过 %d, 失败 %d",
		dataset, kind, stats.Total, stats.Generated, stats.Skipped, stats.Failed)
	return stats, nil
}

// SummarizeText 对一段文本生成指定种类的摘要，不落库。
func (s *summaryService) SummarizeText(ctx context.Context, text, kind string) (string, error) {
	if err := validateKind(kind); err != nil {
		return "", err
	}
	if kind == model.SummaryKindExtractive {
		return s.extractive.Summarize(text), nil
	}
	return s.generateAbstractive(ctx, text)
}

// generateAbstractive 调用生成服务，失败时在有界次数内重试。
func (s *summaryService) generateAbstractive(ctx context.Context, text string) (string, error) {
	if s.llmClient == nil {
		return "", errors.Wrap(apperr.ErrSummaryServiceUnavailable, "生成服务未配置")
	}
	words := s.cfg.AbstractiveWords
	if words <= 0 {
		words = 60
	}

	var lastErr error
	for attempt := 0; attempt <= s.llmRetries; attempt++ {
		summary, err := s.llmClient.Generate(ctx, text, words)
		if err == nil {
			return summary, nil
		}
		lastErr = err
		// 只重试服务侧的瞬时失败
		if !errors.Is(err, apperr.ErrSummaryServiceUnavailable) && !errors.Is(err, apperr.ErrSummaryTimeout) {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

// GetSummary 返回某行某种类的摘要文本，优先命中 Redis 缓存。
// 摘要不存在或为失败哨兵时返回 apperr.ErrSummaryMissing。
func (s *summaryService) GetSummary(ctx context.Context, rowID, kind string) (string, error) {
	if err := validateKind(kind); err != nil {
		return "", err
	}

	if text, ok := s.cacheGet(ctx, rowID, kind); ok {
		if text == "" {
			return "", errors.Wrapf(apperr.ErrSummaryMissing, "行 %s 的 %s 摘要生成失败", rowID, kind)
		}
		return text, nil
	}

	sum, err := s.summaryRepo.FindByRowIDAndKind(rowID, kind)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errors.Wrapf(apperr.ErrSummaryMissing, "行 %s 没有 %s 摘要", rowID, kind)
	}
	if err != nil {
		return "", errors.Wrap(err, "读取摘要失败")
	}
	s.cacheSet(ctx, rowID, kind, sum.SummaryText)
	if sum.SummaryText == "" {
		return "", errors.Wrapf(apperr.ErrSummaryMissing, "行 %s 的 %s 摘要生成失败", rowID, kind)
	}
	return sum.SummaryText, nil
}

// Rebuild 重新生成单行摘要，供 Kafka 消费者调用。
// 生成失败时返回错误而不落哨兵，让队列按既定策略重试。
func (s *summaryService) Rebuild(ctx context.Context, task tasks.SummaryRebuildTask) error {
	if err := validateKind(task.Kind); err != nil {
		return err
	}
	doc, err := s.docRepo.FindByRowID(task.RowID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(apperr.ErrRowNotFound, "行 %s 不存在", task.RowID)
	}
	if err != nil {
		return errors.Wrap(err, "读取文档失败")
	}

	text, err := s.SummarizeText(ctx, doc.CleanedText, task.Kind)
	if err != nil {
		return err
	}
	if err := s.summaryRepo.Upsert(&model.Summary{RowID: task.RowID, Kind: task.Kind, SummaryText: text}); err != nil {
		return errors.Wrap(err, "保存摘要失败")
	}
	s.cacheSet(ctx, task.RowID, task.Kind, text)
	return nil
}

// EnqueueRebuild 将单行摘要重建任务投递到 Kafka。
func (s *summaryService) EnqueueRebuild(rowID, kind string) error {
	if err := validateKind(kind); err != nil {
		return err
	}
	if !s.kafkaEnabled {
		return errors.New("摘要重建队列未启用")
	}
	return kafka.ProduceSummaryTask(tasks.SummaryRebuildTask{RowID: rowID, Kind: kind})
}

func validateKind(kind string) error {
	switch kind {
	case model.SummaryKindExtractive, model.SummaryKindAbstractive:
		return nil
	default:
		return errors.Errorf("未知的摘要种类: %s", kind)
	}
}

func summaryCacheKey(rowID, kind string) string {
	return fmt.Sprintf("summary:%s:%s", kind, rowID)
}

func (s *summaryService) cacheGet(ctx context.Context, rowID, kind string) (string, bool) {
	if database.RDB == nil {
		return "", false
	}
	text, err := database.RDB.Get(ctx, summaryCacheKey(rowID, kind)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Warnf("[SummaryService] 读取缓存失败: %v", err)
		return "", false
	}
	return text, true
}

func (s *summaryService) cacheSet(ctx context.Context, rowID, kind, text string) {
	if database.RDB == nil {
		return
	}
	if err := database.RDB.Set(ctx, summaryCacheKey(rowID, kind), text, summaryCacheTTL).Err(); err != nil {
		log.Warnf("[SummaryService] 写入缓存失败: %v", err)
	}
}
