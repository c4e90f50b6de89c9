package repository

import (
	"sort"
	"sync"

	"textlab-go/internal/model"

	"gorm.io/gorm"
)

// 本文件提供各仓库接口的内存实现，供测试以及无数据库的本地运行使用。
// 未命中时统一返回 gorm.ErrRecordNotFound，使调用方的判别逻辑与 MySQL 实现一致。

// MemoryDocumentRepository 是 DocumentRepository 的内存实现。
type MemoryDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]*model.Document // row_id -> document
}

// NewMemoryDocumentRepository 创建一个空的内存文档仓库。
func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{docs: make(map[string]*model.Document)}
}

func (r *MemoryDocumentRepository) ReplaceDataset(dataset string, docs []*model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for rowID, doc := range r.docs {
		if doc.DatasetOrigin == dataset {
			delete(r.docs, rowID)
		}
	}
	for _, doc := range docs {
		r.docs[doc.RowID] = doc
	}
	return nil
}

func (r *MemoryDocumentRepository) FindByRowID(rowID string) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[rowID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return doc, nil
}

func (r *MemoryDocumentRepository) FindByDataset(dataset string) ([]*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var docs []*model.Document
	for _, doc := range r.docs {
		if doc.DatasetOrigin == dataset {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].RowID < docs[j].RowID })
	return docs, nil
}

// MemorySummaryRepository 是 SummaryRepository 的内存实现。
type MemorySummaryRepository struct {
	mu        sync.RWMutex
	summaries map[string]*model.Summary // row_id + "/" + kind -> summary
}

// NewMemorySummaryRepository 创建一个空的内存摘要仓库。
func NewMemorySummaryRepository() *MemorySummaryRepository {
	return &MemorySummaryRepository{summaries: make(map[string]*model.Summary)}
}

func summaryKey(rowID, kind string) string { return rowID + "/" + kind }

func (r *MemorySummaryRepository) Upsert(summary *model.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries[summaryKey(summary.RowID, summary.Kind)] = summary
	return nil
}

func (r *MemorySummaryRepository) BatchUpsert(summaries []*model.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range summaries {
		r.summaries[summaryKey(s.RowID, s.Kind)] = s
	}
	return nil
}

func (r *MemorySummaryRepository) FindByRowIDAndKind(rowID, kind string) (*model.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.summaries[summaryKey(rowID, kind)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *MemorySummaryRepository) FindByRowIDsAndKind(rowIDs []string, kind string) ([]*model.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*model.Summary
	for _, rowID := range rowIDs {
		if s, ok := r.summaries[summaryKey(rowID, kind)]; ok {
			result = append(result, s)
		}
	}
	return result, nil
}

// MemoryMetricsRepository 是 MetricsRepository 的内存实现。
type MemoryMetricsRepository struct {
	mu   sync.RWMutex
	list []*model.Metrics
}

// NewMemoryMetricsRepository 创建一个空的内存指标仓库。
func NewMemoryMetricsRepository() *MemoryMetricsRepository {
	return &MemoryMetricsRepository{}
}

func (r *MemoryMetricsRepository) Create(metrics *model.Metrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, metrics)
	return nil
}

func (r *MemoryMetricsRepository) FindByRunID(runID string) ([]*model.Metrics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*model.Metrics
	for _, m := range r.list {
		if m.RunID == runID {
			result = append(result, m)
		}
	}
	return result, nil
}
