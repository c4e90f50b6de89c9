package repository

import (
	"textlab-go/internal/model"

	"gorm.io/gorm"
)

// DocumentRepository 定义了对 documents 表的数据操作接口。
type DocumentRepository interface {
	// ReplaceDataset 以幂等方式重写某个数据集的全部文档记录。
	ReplaceDataset(dataset string, docs []*model.Document) error
	FindByRowID(rowID string) (*model.Document, error)
	FindByDataset(dataset string) ([]*model.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// ReplaceDataset 先清理该数据集既有记录，再批量写入，避免重复加载导致的累计膨胀。
func (r *documentRepository) ReplaceDataset(dataset string, docs []*model.Document) error {
	if err := r.db.Where("dataset_origin = ?", dataset).Delete(&model.Document{}).Error; err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	return r.db.CreateInBatches(docs, 100).Error // 每100条记录一批
}

// FindByRowID 根据行号查找单条文档记录。
func (r *documentRepository) FindByRowID(rowID string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("row_id = ?", rowID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByDataset 返回某个数据集的全部文档，按行号排序以保证各阶段对齐。
func (r *documentRepository) FindByDataset(dataset string) ([]*model.Document, error) {
	var docs []*model.Document
	err := r.db.Where("dataset_origin = ?", dataset).Order("row_id asc").Find(&docs).Error
	return docs, err
}
