package model

// Metrics 对应于数据库中的 metrics 表。
// 每条记录是一个实验单元格（表示种类 × 分类器种类 × 文本来源）的一次完成评估，写入后不再修改。
type Metrics struct {
	ID             uint    `gorm:"primaryKey;autoIncrement;column:id"`
	RunID          string  `gorm:"type:varchar(36);not null;index;column:run_id"`
	Representation string  `gorm:"type:varchar(32);not null;column:representation"`
	Classifier     string  `gorm:"type:varchar(32);not null;column:classifier"`
	TextSource     string  `gorm:"type:varchar(32);not null;column:text_source"`
	Accuracy       float64 `gorm:"column:accuracy"`
	Precision      float64 `gorm:"column:precision_macro"`
	Recall         float64 `gorm:"column:recall_macro"`
	F1             float64 `gorm:"column:f1_macro"`
	// ConfusionJSON 是按标签集合维度展开的混淆矩阵的 JSON 编码。
	ConfusionJSON string    `gorm:"type:text;column:confusion_json"`
	RuntimeMillis int64     `gorm:"column:runtime_millis"`
	CreatedAt     LocalTime `gorm:"column:created_at" json:"created_at"`
	Confusion     [][]int   `gorm:"-" json:"confusion"`
	Labels        []string  `gorm:"-" json:"labels"`
}

func (Metrics) TableName() string {
	return "metrics"
}
