package vectorizer

import (
	"context"
	"math"
	"sort"
	"strings"

	"textlab-go/internal/config"
	"textlab-go/pkg/apperr"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// TFIDF 是稀疏统计类向量化器。fit 产出的词表与 idf 即其全部状态，
// fit 后只读，同一状态下 transform 是确定的。
type TFIDF struct {
	cfg    config.TFIDFConfig
	vocab  map[string]int
	idf    []float64
	names  []string
	fitted bool
}

// NewTFIDF 创建一个未 fit 的 TF-IDF 向量化器。
func NewTFIDF(cfg config.TFIDFConfig) *TFIDF {
	if cfg.MinDocFreq <= 0 {
		cfg.MinDocFreq = 1
	}
	return &TFIDF{cfg: cfg}
}

func (t *TFIDF) Kind() string { return KindTFIDF }

// Fit 在语料上统计词表与文档频率。没有任何词项通过筛选时返回 ErrEmptyVocabulary。
func (t *TFIDF) Fit(ctx context.Context, corpus []string) error {
	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, term := range tokenize(doc) {
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}

	type termDF struct {
		term string
		df   int
	}
	kept := make([]termDF, 0, len(df))
	for term, count := range df {
		if count >= t.cfg.MinDocFreq {
			kept = append(kept, termDF{term, count})
		}
	}
	if len(kept) == 0 {
		return errors.Wrap(apperr.ErrEmptyVocabulary, "tfidf fit 后没有可用词项")
	}

	// 超出特征上限时保留文档频率最高的词，并用字典序断开平局以保证确定性
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].df != kept[j].df {
			return kept[i].df > kept[j].df
		}
		return kept[i].term < kept[j].term
	})
	if t.cfg.MaxFeatures > 0 && len(kept) > t.cfg.MaxFeatures {
		kept = kept[:t.cfg.MaxFeatures]
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].term < kept[j].term })

	n := float64(len(corpus))
	t.vocab = make(map[string]int, len(kept))
	t.idf = make([]float64, len(kept))
	t.names = make([]string, len(kept))
	for i, td := range kept {
		t.vocab[td.term] = i
		t.idf[i] = math.Log((1+n)/(1+float64(td.df))) + 1
		t.names[i] = td.term
	}
	t.fitted = true
	return nil
}

// Transform 将文本映射为 L2 归一化的 tf-idf 向量。
// 文本中不含任何词表词项时返回零向量而非错误。
func (t *TFIDF) Transform(ctx context.Context, text string) ([]float64, error) {
	if !t.fitted {
		return nil, errors.Wrap(apperr.ErrEmptyVocabulary, "tfidf 尚未 fit")
	}
	vec := make([]float64, len(t.vocab))
	for _, term := range tokenize(text) {
		if idx, ok := t.vocab[term]; ok {
			vec[idx]++
		}
	}
	for i := range vec {
		vec[i] *= t.idf[i]
	}
	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec, nil
}

// FeatureNames 返回词表中的词项，索引与向量维度对齐，供归因输出使用。
func (t *TFIDF) FeatureNames() []string {
	return t.names
}

func tokenize(text string) []string {
	fields := strings.Fields(text)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		term := strings.Trim(f, ".!?")
		if len(term) > 1 {
			terms = append(terms, term)
		}
	}
	return terms
}
