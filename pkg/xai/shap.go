package xai

import (
	"context"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

// ShapleySampler 以采样法估计词级 Shapley 值：对随机排列中的每个词，
// 度量把它加入其前缀集合时预测一致性的边际变化。种子固定时结果可复现。
type ShapleySampler struct {
	permutations int
	seed         int64
}

// NewShapleySampler 创建一个采样 Shapley 估计器。
func NewShapleySampler(permutations int, seed int64) *ShapleySampler {
	if permutations <= 0 {
		permutations = 20
	}
	return &ShapleySampler{permutations: permutations, seed: seed}
}

// Explain 返回每个词的 Shapley 值估计，按绝对值降序。
func (s *ShapleySampler) Explain(ctx context.Context, text string, predict PredictFunc) (string, []Attribution, error) {
	words := uniqueWords(text)
	if len(words) == 0 {
		return "", nil, errors.New("文本中没有可归因的词")
	}

	baseLabel, err := predict(ctx, text)
	if err != nil {
		return "", nil, errors.Wrap(err, "基准预测失败")
	}

	agree := func(mask []bool) (float64, error) {
		label, err := predict(ctx, maskedText(text, words, mask))
		if err != nil {
			return 0, err
		}
		if label == baseLabel {
			return 1, nil
		}
		return 0, nil
	}

	rng := rand.New(rand.NewSource(s.seed))
	values := make([]float64, len(words))
	mask := make([]bool, len(words))

	for p := 0; p < s.permutations; p++ {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		for j := range mask {
			mask[j] = false
		}
		prev, err := agree(mask)
		if err != nil {
			return "", nil, errors.Wrap(err, "前缀预测失败")
		}
		for _, j := range rng.Perm(len(words)) {
			mask[j] = true
			cur, err := agree(mask)
			if err != nil {
				return "", nil, errors.Wrap(err, "前缀预测失败")
			}
			values[j] += cur - prev
			prev = cur
		}
	}

	attrs := make([]Attribution, len(words))
	for j, word := range words {
		attrs[j] = Attribution{Feature: word, Weight: values[j] / float64(s.permutations)}
	}
	sort.SliceStable(attrs, func(i, j int) bool {
		return abs(attrs[i].Weight) > abs(attrs[j].Weight)
	})
	return baseLabel, attrs, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
