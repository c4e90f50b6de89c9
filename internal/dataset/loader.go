package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"textlab-go/internal/config"
	"textlab-go/internal/model"
	"textlab-go/internal/repository"
	"textlab-go/pkg/apperr"
	"textlab-go/pkg/log"
	"textlab-go/pkg/tika"

	"github.com/pkg/errors"
)

// LoadStats 记录一次加载的行级统计。
type LoadStats struct {
	Total         int
	Kept          int
	DroppedBadRow int
	DroppedEmpty  int
	DroppedLabel  int
}

// Loader 读取原始语料，清洗后写入文档仓库。
type Loader struct {
	tikaClient *tika.Client
	docRepo    repository.DocumentRepository
}

// NewLoader 创建一个新的 Loader 实例。dir 型语料需要 tikaClient，csv 型可传 nil。
func NewLoader(tikaClient *tika.Client, docRepo repository.DocumentRepository) *Loader {
	return &Loader{tikaClient: tikaClient, docRepo: docRepo}
}

// Load 读取并清洗一个配置好的语料，持久化后返回文档序列。
// 单行的编码或标签问题只做丢弃计数；整个语料不可读时返回 ErrDataUnavailable。
func (l *Loader) Load(ctx context.Context, cfg *config.DatasetConfig) ([]*model.Document, LoadStats, error) {
	var (
		docs  []*model.Document
		stats LoadStats
		err   error
	)

	switch cfg.Kind {
	case "dir":
		docs, stats, err = l.loadDir(ctx, cfg)
	default:
		docs, stats, err = l.loadCSV(cfg)
	}
	if err != nil {
		return nil, stats, err
	}

	if len(docs) == 0 {
		return nil, stats, errors.Wrapf(apperr.ErrDataUnavailable, "数据集 '%s' 没有产出任何有效行", cfg.Name)
	}

	if err := l.docRepo.ReplaceDataset(cfg.Name, docs); err != nil {
		return nil, stats, errors.Wrap(err, "写入清洗后的文档失败")
	}

	log.Infof("[Loader] 数据集 '%s' 加载完成: 共 %d 行, 保留 %d, 丢弃(坏行/空文本/未知标签)=%d/%d/%d",
		cfg.Name, stats.Total, stats.Kept, stats.DroppedBadRow, stats.DroppedEmpty, stats.DroppedLabel)
	return docs, stats, nil
}

// loadCSV 按列名读取 CSV 语料。
func (l *Loader) loadCSV(cfg *config.DatasetConfig) ([]*model.Document, LoadStats, error) {
	var stats LoadStats

	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, stats, errors.Wrapf(apperr.ErrDataUnavailable, "打开 '%s' 失败: %v", cfg.Path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, stats, errors.Wrapf(apperr.ErrDataUnavailable, "读取 '%s' 表头失败: %v", cfg.Path, err)
	}

	textIdx, labelIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.ToLower(col)) {
		case strings.ToLower(cfg.TextColumn):
			textIdx = i
		case strings.ToLower(cfg.LabelColumn):
			labelIdx = i
		}
	}
	if textIdx < 0 || labelIdx < 0 {
		return nil, stats, errors.Wrapf(apperr.ErrSchemaMismatch,
			"数据集 '%s' 缺少列 '%s' 或 '%s'", cfg.Name, cfg.TextColumn, cfg.LabelColumn)
	}

	labelSet := toSet(cfg.Labels)
	var docs []*model.Document
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		stats.Total++
		if err != nil {
			stats.DroppedBadRow++
			continue
		}
		if textIdx >= len(record) || labelIdx >= len(record) {
			stats.DroppedBadRow++
			continue
		}
		raw, label := record[textIdx], strings.TrimSpace(record[labelIdx])
		if !utf8.ValidString(raw) {
			stats.DroppedBadRow++
			continue
		}
		doc, ok := l.buildDocument(cfg.Name, stats.Total-1, raw, label, labelSet, &stats)
		if !ok {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, stats, nil
}

// loadDir 遍历目录语料，每个文件一条记录，标签取自父目录名。
func (l *Loader) loadDir(ctx context.Context, cfg *config.DatasetConfig) ([]*model.Document, LoadStats, error) {
	var stats LoadStats

	info, err := os.Stat(cfg.Path)
	if err != nil || !info.IsDir() {
		return nil, stats, errors.Wrapf(apperr.ErrDataUnavailable, "目录 '%s' 不存在或不可用", cfg.Path)
	}
	if l.tikaClient == nil {
		return nil, stats, errors.Wrapf(apperr.ErrDataUnavailable, "目录型语料 '%s' 需要 Tika 客户端", cfg.Name)
	}

	labelSet := toSet(cfg.Labels)
	var docs []*model.Document
	walkErr := filepath.Walk(cfg.Path, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats.Total++

		raw, err := l.tikaClient.ExtractFile(path)
		if err != nil {
			log.Warnf("[Loader] 提取文件 '%s' 失败: %v", path, err)
			stats.DroppedBadRow++
			return nil
		}
		label := filepath.Base(filepath.Dir(path))
		doc, ok := l.buildDocument(cfg.Name, stats.Total-1, raw, label, labelSet, &stats)
		if !ok {
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if walkErr != nil {
		return nil, stats, errors.Wrap(walkErr, "遍历语料目录失败")
	}
	return docs, stats, nil
}

// buildDocument 清洗并校验一行，通过则构造文档记录。
func (l *Loader) buildDocument(dataset string, ordinal int, raw, label string, labelSet map[string]struct{}, stats *LoadStats) (*model.Document, bool) {
	cleaned := CleanText(raw)
	if cleaned == "" {
		stats.DroppedEmpty++
		return nil, false
	}
	if label == "" {
		stats.DroppedLabel++
		return nil, false
	}
	if len(labelSet) > 0 {
		if _, ok := labelSet[label]; !ok {
			stats.DroppedLabel++
			return nil, false
		}
	}
	stats.Kept++
	return &model.Document{
		RowID:         model.RowID(dataset, ordinal),
		RawText:       raw,
		CleanedText:   cleaned,
		Label:         label,
		DatasetOrigin: dataset,
	}, true
}

func toSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}
