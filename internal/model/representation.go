package model

// 文本来源种类。
const (
	TextSourceFullText    = "fulltext"
	TextSourceExtractive  = "extractive"
	TextSourceAbstractive = "abstractive"
)

// RepresentationDoc 定义了缓存在 Elasticsearch 中的文档向量结构。
// 向量按 (row_id, text_source, kind) 推导，缓存仅为加速重复运行，可随时重建。
type RepresentationDoc struct {
	VectorID      string    `json:"vector_id"` // 唯一标识：rowID_textSource_kind
	RowID         string    `json:"row_id"`
	TextSource    string    `json:"text_source"`
	Kind          string    `json:"kind"`
	Vector        []float64 `json:"vector"`
	ModelVersion  string    `json:"model_version"`
	DatasetOrigin string    `json:"dataset_origin"`
}
