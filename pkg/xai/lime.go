// Package xai 实现基于扰动的局部特征归因。
// 归因对象是任意 "文本 -> 预测标签" 的黑盒函数，向量化与分类的组合由调用方闭包传入。
package xai

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Attribution 是单个特征（词）对一次预测的贡献分。
type Attribution struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// PredictFunc 是被解释的黑盒：输入文本，输出预测标签。
type PredictFunc func(ctx context.Context, text string) (string, error)

// Explainer 通过词级掩码采样与加权岭回归代理模型估计局部归因。
// 种子固定时解释结果可复现。
type Explainer struct {
	samples int
	topK    int
	seed    int64
}

// NewExplainer 创建一个解释器。samples 是扰动采样数，topK 是返回的特征数。
func NewExplainer(samples, topK int, seed int64) *Explainer {
	if samples <= 0 {
		samples = 200
	}
	if topK <= 0 {
		topK = 10
	}
	return &Explainer{samples: samples, topK: topK, seed: seed}
}

const (
	ridgeLambda = 1e-3
	kernelWidth = 0.25
)

// ExplainText 返回对 predict 在 text 上预测结果影响最大的 topK 个词。
// 代理目标是扰动样本与原始预测的一致性指示，权重为正表示该词支撑当前预测。
func (e *Explainer) ExplainText(ctx context.Context, text string, predict PredictFunc) (string, []Attribution, error) {
	words := uniqueWords(text)
	if len(words) == 0 {
		return "", nil, errors.New("文本中没有可归因的词")
	}

	baseLabel, err := predict(ctx, text)
	if err != nil {
		return "", nil, errors.Wrap(err, "基准预测失败")
	}

	rng := rand.New(rand.NewSource(e.seed))
	n := e.samples
	d := len(words)

	Z := mat.NewDense(n, d, nil)
	y := mat.NewVecDense(n, nil)
	w := make([]float64, n)

	mask := make([]bool, d)
	for s := 0; s < n; s++ {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		kept := 0
		for j := range mask {
			mask[j] = rng.Float64() < 0.5
			if mask[j] {
				kept++
				Z.Set(s, j, 1)
			} else {
				Z.Set(s, j, 0)
			}
		}
		label, err := predict(ctx, maskedText(text, words, mask))
		if err != nil {
			return "", nil, errors.Wrap(err, "扰动样本预测失败")
		}
		if label == baseLabel {
			y.SetVec(s, 1)
		}
		// 距离 = 被移除词的比例，指数核转为邻近度权重
		dist := 1 - float64(kept)/float64(d)
		w[s] = math.Exp(-dist * dist / kernelWidth)
	}

	weights, err := weightedRidge(Z, y, w)
	if err != nil {
		return "", nil, errors.Wrap(err, "代理模型拟合失败")
	}

	attrs := make([]Attribution, d)
	for j := 0; j < d; j++ {
		attrs[j] = Attribution{Feature: words[j], Weight: weights[j]}
	}
	sort.SliceStable(attrs, func(i, j int) bool {
		return math.Abs(attrs[i].Weight) > math.Abs(attrs[j].Weight)
	})
	if len(attrs) > e.topK {
		attrs = attrs[:e.topK]
	}
	return baseLabel, attrs, nil
}

// weightedRidge 解 (Zᵀ W Z + λI) β = Zᵀ W y。
func weightedRidge(Z *mat.Dense, y *mat.VecDense, w []float64) ([]float64, error) {
	n, d := Z.Dims()

	WZ := mat.NewDense(n, d, nil)
	Wy := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			WZ.Set(i, j, Z.At(i, j)*w[i])
		}
		Wy.SetVec(i, y.AtVec(i)*w[i])
	}

	var gram mat.Dense
	gram.Mul(Z.T(), WZ)
	for j := 0; j < d; j++ {
		gram.Set(j, j, gram.At(j, j)+ridgeLambda)
	}

	var rhs mat.VecDense
	rhs.MulVec(Z.T(), Wy)

	var beta mat.VecDense
	if err := beta.SolveVec(&gram, &rhs); err != nil {
		return nil, err
	}

	out := make([]float64, d)
	for j := 0; j < d; j++ {
		out[j] = beta.AtVec(j)
	}
	return out, nil
}

// uniqueWords 按出现顺序返回文本中去重后的词。
func uniqueWords(text string) []string {
	seen := make(map[string]struct{})
	var words []string
	for _, f := range strings.Fields(text) {
		word := strings.Trim(f, ".!?")
		if word == "" {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	return words
}

// maskedText 移除 mask 为 false 的词，保留其余词的原始顺序。
func maskedText(text string, words []string, mask []bool) string {
	removed := make(map[string]struct{})
	for j, keep := range mask {
		if !keep {
			removed[words[j]] = struct{}{}
		}
	}
	var b strings.Builder
	for _, f := range strings.Fields(text) {
		word := strings.Trim(f, ".!?")
		if _, drop := removed[word]; drop {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f)
	}
	return b.String()
}
