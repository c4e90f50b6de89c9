package model

// 摘要种类。
const (
	SummaryKindExtractive  = "extractive"
	SummaryKindAbstractive = "abstractive"
)

// Summary 对应于数据库中的 summaries 表，按 (row_id, kind) 唯一。
// SummaryText 为空字符串表示该行生成失败，作为哨兵值保留。
type Summary struct {
	ID          uint   `gorm:"primaryKey;autoIncrement;column:id"`
	RowID       string `gorm:"type:varchar(64);not null;uniqueIndex:uk_row_kind;column:row_id"`
	Kind        string `gorm:"type:varchar(16);not null;uniqueIndex:uk_row_kind;column:kind"`
	SummaryText string `gorm:"type:text;column:summary_text"`
}

func (Summary) TableName() string {
	return "summaries"
}
