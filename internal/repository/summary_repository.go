package repository

import (
	"textlab-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SummaryRepository 定义了对 summaries 表的数据操作接口。
type SummaryRepository interface {
	Upsert(summary *model.Summary) error
	BatchUpsert(summaries []*model.Summary) error
	FindByRowIDAndKind(rowID, kind string) (*model.Summary, error)
	FindByRowIDsAndKind(rowIDs []string, kind string) ([]*model.Summary, error)
}

type summaryRepository struct {
	db *gorm.DB
}

// NewSummaryRepository 创建一个新的 SummaryRepository 实例。
func NewSummaryRepository(db *gorm.DB) SummaryRepository {
	return &summaryRepository{db: db}
}

// Upsert 按 (row_id, kind) 写入或覆盖一条摘要记录。
func (r *summaryRepository) Upsert(summary *model.Summary) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "row_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"summary_text"}),
	}).Create(summary).Error
}

// BatchUpsert 批量写入摘要记录。
func (r *summaryRepository) BatchUpsert(summaries []*model.Summary) error {
	if len(summaries) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "row_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"summary_text"}),
	}).CreateInBatches(summaries, 100).Error
}

// FindByRowIDAndKind 查找某行某种类的摘要记录。
func (r *summaryRepository) FindByRowIDAndKind(rowID, kind string) (*model.Summary, error) {
	var summary model.Summary
	if err := r.db.Where("row_id = ? AND kind = ?", rowID, kind).First(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

// FindByRowIDsAndKind 批量查找一组行的摘要记录。
func (r *summaryRepository) FindByRowIDsAndKind(rowIDs []string, kind string) ([]*model.Summary, error) {
	if len(rowIDs) == 0 {
		return nil, nil
	}
	var summaries []*model.Summary
	err := r.db.Where("row_id IN ? AND kind = ?", rowIDs, kind).Find(&summaries).Error
	return summaries, err
}
