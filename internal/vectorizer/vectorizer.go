// Package vectorizer 将文档或摘要转换为定长数值表示。
// 频率类向量化器需要先在训练子集上 fit，再复用同一状态 transform 全部数据，
// 避免测试集信息泄漏；预训练向量类 fit 为空操作。
package vectorizer

import (
	"context"
	"fmt"

	"textlab-go/internal/config"
	"textlab-go/pkg/embedding"
)

// 表示种类。
const (
	KindTFIDF     = "tfidf"
	KindEmbedding = "embedding"
)

// Vectorizer 是各向量化器家族的统一能力接口。
type Vectorizer interface {
	Kind() string
	Fit(ctx context.Context, corpus []string) error
	Transform(ctx context.Context, text string) ([]float64, error)
}

// New 按种类构造向量化器。embedding 种类需要一个已初始化的客户端。
func New(kind string, cfg config.VectorizerConfig, embClient embedding.Client) (Vectorizer, error) {
	switch kind {
	case KindTFIDF:
		return NewTFIDF(cfg.TFIDF), nil
	case KindEmbedding:
		if embClient == nil {
			return nil, fmt.Errorf("embedding 向量化器需要 embedding 客户端")
		}
		return NewEmbedding(embClient), nil
	default:
		return nil, fmt.Errorf("未知的表示种类: %s", kind)
	}
}
