// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "fmt"

// RowID 由数据集名与行序号构造稳定行号，重复加载同一数据集时行号不变。
func RowID(dataset string, ordinal int) string {
	return fmt.Sprintf("%s-%06d", dataset, ordinal)
}

// Document 对应于数据库中的 documents 表，是一条清洗后的语料记录。
// 清洗完成后即视为只读，行号 RowID 是贯穿所有阶段的关联键。
type Document struct {
	ID            uint   `gorm:"primaryKey;autoIncrement;column:id"`
	RowID         string `gorm:"type:varchar(64);not null;uniqueIndex;column:row_id"`
	RawText       string `gorm:"type:text;column:raw_text"`
	CleanedText   string `gorm:"type:text;column:cleaned_text"`
	Label         string `gorm:"type:varchar(64);not null;column:label"`
	DatasetOrigin string `gorm:"type:varchar(64);not null;index;column:dataset_origin"`
}

func (Document) TableName() string {
	return "documents"
}
