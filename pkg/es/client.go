// Package es 提供了表示向量缓存所用的 Elasticsearch 客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"textlab-go/internal/config"
	"textlab-go/internal/model"
	"textlab-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(esCfg.IndexName)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(indexName string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	// 缓存的是按 (行号, 文本来源, 向量化器种类) 推导的向量，维度不固定，
	// 因此向量字段不建 dense_vector 索引，只做原样存取。
	mapping := `{
		"mappings": {
			"properties": {
				"vector_id": { "type": "keyword" },
				"row_id": { "type": "keyword" },
				"text_source": { "type": "keyword" },
				"kind": { "type": "keyword" },
				"vector": { "type": "float", "index": false },
				"model_version": { "type": "keyword" },
				"dataset_origin": { "type": "keyword" }
			}
		}
	}`

	res, err = ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// IndexRepresentation 将单条表示向量写入缓存索引。
func IndexRepresentation(ctx context.Context, indexName string, doc model.RepresentationDoc) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: doc.VectorID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引表示向量到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index representation")
	}
	return nil
}

// GetRepresentation 按 vector_id 读取缓存的表示向量，未命中时返回 (nil, nil)。
func GetRepresentation(ctx context.Context, indexName, vectorID string) (*model.RepresentationDoc, error) {
	req := esapi.GetRequest{Index: indexName, DocumentID: vectorID}
	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("读取表示向量缓存出错: %s", res.String())
	}

	var envelope struct {
		Source model.RepresentationDoc `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, err
	}
	return &envelope.Source, nil
}
