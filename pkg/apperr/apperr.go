// Package apperr 定义了流水线各阶段共享的错误类别。
// 调用方通过 errors.Is 判别类别，通过 pkg/errors 附加上下文。
package apperr

import "errors"

var (
	// ErrDataUnavailable 表示数据集原始文件缺失或不可读。
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrSchemaMismatch 表示数据集缺少预期的列。
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrSummaryServiceUnavailable 表示生成式摘要服务不可达。
	ErrSummaryServiceUnavailable = errors.New("summary service unavailable")
	// ErrSummaryTimeout 表示生成式摘要调用超出配置的时限。
	ErrSummaryTimeout = errors.New("summary timeout")
	// ErrEmptyVocabulary 表示频率类向量化器在 fit 后没有任何可用词项。
	ErrEmptyVocabulary = errors.New("empty vocabulary")
	// ErrLabelSetMismatch 表示标签落在训练时声明的标签集合之外。
	ErrLabelSetMismatch = errors.New("label set mismatch")
	// ErrTrainingFailed 表示分类器在重试一次后仍然训练失败。
	ErrTrainingFailed = errors.New("training failed")
	// ErrEmptyPredictionSet 表示评估器收到了零行预测。
	ErrEmptyPredictionSet = errors.New("empty prediction set")
	// ErrRowNotFound 表示按行号查询的文档不存在。
	ErrRowNotFound = errors.New("row not found")
	// ErrSummaryMissing 表示请求使用摘要但该行没有已生成的摘要。
	ErrSummaryMissing = errors.New("summary missing")
	// ErrExplainerError 表示归因过程本身失败。
	ErrExplainerError = errors.New("explainer error")
)

var kindNames = map[error]string{
	ErrDataUnavailable:           "DataUnavailable",
	ErrSchemaMismatch:            "SchemaMismatch",
	ErrSummaryServiceUnavailable: "SummaryServiceUnavailable",
	ErrSummaryTimeout:            "SummaryTimeout",
	ErrEmptyVocabulary:           "EmptyVocabulary",
	ErrLabelSetMismatch:          "LabelSetMismatch",
	ErrTrainingFailed:            "TrainingFailed",
	ErrEmptyPredictionSet:        "EmptyPredictionSet",
	ErrRowNotFound:               "RowNotFound",
	ErrSummaryMissing:            "SummaryMissing",
	ErrExplainerError:            "ExplainerError",
}

// Kind 返回错误所属类别的名称，未知类别返回 "Internal"。
func Kind(err error) string {
	for sentinel, name := range kindNames {
		if errors.Is(err, sentinel) {
			return name
		}
	}
	return "Internal"
}
