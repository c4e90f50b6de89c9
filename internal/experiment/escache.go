package experiment

import (
	"context"

	"textlab-go/internal/model"
	"textlab-go/pkg/es"
	"textlab-go/pkg/log"
)

// RepCache 缓存行级表示向量，避免重复调用远端嵌入服务。
// 缓存未命中或后端不可用时实现必须降级为未命中，不得让实验失败。
type RepCache interface {
	Get(ctx context.Context, vectorID string) (*model.RepresentationDoc, bool)
	Put(ctx context.Context, doc model.RepresentationDoc)
}

// esRepCache 基于 Elasticsearch 的表示向量缓存。
type esRepCache struct {
	indexName string
}

// NewESRepCache 创建一个 ES 表示向量缓存，要求 es.InitES 已成功执行。
func NewESRepCache(indexName string) RepCache {
	return &esRepCache{indexName: indexName}
}

func (c *esRepCache) Get(ctx context.Context, vectorID string) (*model.RepresentationDoc, bool) {
	doc, err := es.GetRepresentation(ctx, c.indexName, vectorID)
	if err != nil {
		log.Warnf("[RepCache] 读取 %s 失败: %v", vectorID, err)
		return nil, false
	}
	if doc == nil || len(doc.Vector) == 0 {
		return nil, false
	}
	return doc, true
}

func (c *esRepCache) Put(ctx context.Context, doc model.RepresentationDoc) {
	if err := es.IndexRepresentation(ctx, c.indexName, doc); err != nil {
		log.Warnf("[RepCache] 写入 %s 失败: %v", doc.VectorID, err)
	}
}
