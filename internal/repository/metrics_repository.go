package repository

import (
	"textlab-go/internal/model"

	"gorm.io/gorm"
)

// MetricsRepository 定义了对 metrics 表的数据操作接口。指标记录一经写入不再修改。
type MetricsRepository interface {
	Create(metrics *model.Metrics) error
	FindByRunID(runID string) ([]*model.Metrics, error)
}

type metricsRepository struct {
	db *gorm.DB
}

// NewMetricsRepository 创建一个新的 MetricsRepository 实例。
func NewMetricsRepository(db *gorm.DB) MetricsRepository {
	return &metricsRepository{db: db}
}

// Create 写入一条评估指标记录。
func (r *metricsRepository) Create(metrics *model.Metrics) error {
	return r.db.Create(metrics).Error
}

// FindByRunID 返回一次运行的全部指标记录。
func (r *metricsRepository) FindByRunID(runID string) ([]*model.Metrics, error) {
	var list []*model.Metrics
	err := r.db.Where("run_id = ?", runID).Find(&list).Error
	return list, err
}
