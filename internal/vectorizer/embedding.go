package vectorizer

import (
	"context"

	"textlab-go/pkg/embedding"
)

// Embedding 通过远程预训练模型生成稠密表示。无 fit 状态，逐次调用无共享可变量，
// 训练后并发只读使用是安全的。
type Embedding struct {
	client embedding.Client
}

// NewEmbedding 创建一个基于远程模型的向量化器。
func NewEmbedding(client embedding.Client) *Embedding {
	return &Embedding{client: client}
}

func (e *Embedding) Kind() string { return KindEmbedding }

// Fit 对预训练向量化器是空操作。
func (e *Embedding) Fit(ctx context.Context, corpus []string) error {
	return nil
}

// Transform 调用远程模型获取文本向量。
func (e *Embedding) Transform(ctx context.Context, text string) ([]float64, error) {
	return e.client.CreateEmbedding(ctx, text)
}
