// Package summarizer 实现抽取式摘要，并承载生成式摘要的调用参数。
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const (
	dampingFactor = 0.85
	rankIters     = 30
)

var sentenceSplit = regexp.MustCompile(`[^.!?]+[.!?]?`)

// Extractive 基于句子相似度图的 TextRank 选句。输入输出完全确定，
// 同一文本与目标句数多次调用产出一致。
type Extractive struct {
	sentences int
}

// NewExtractive 创建一个抽取式摘要器，sentences 是选取的目标句数。
func NewExtractive(sentences int) *Extractive {
	if sentences <= 0 {
		sentences = 3
	}
	return &Extractive{sentences: sentences}
}

// Summarize 对清洗后的文本生成抽取式摘要，按原文顺序拼接选中的句子。
func (e *Extractive) Summarize(text string) string {
	sents := SplitSentences(text)
	if len(sents) <= e.sentences {
		return strings.TrimSpace(text)
	}

	scores := rankSentences(sents)

	// 按得分选句，得分相同时靠前的句子优先，保证确定性
	idx := make([]int, len(sents))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if scores[idx[a]] != scores[idx[b]] {
			return scores[idx[a]] > scores[idx[b]]
		}
		return idx[a] < idx[b]
	})

	chosen := idx[:e.sentences]
	sort.Ints(chosen)

	parts := make([]string, 0, len(chosen))
	for _, i := range chosen {
		parts = append(parts, strings.TrimSpace(sents[i]))
	}
	return strings.Join(parts, " ")
}

// SplitSentences 按句末标点切分文本。
func SplitSentences(text string) []string {
	var sents []string
	for _, s := range sentenceSplit.FindAllString(text, -1) {
		if strings.TrimSpace(s) != "" {
			sents = append(sents, strings.TrimSpace(s))
		}
	}
	return sents
}

// rankSentences 在句子相似度图上做带阻尼的幂迭代，返回每句的得分。
func rankSentences(sents []string) []float64 {
	n := len(sents)
	tokens := make([][]string, n)
	for i, s := range sents {
		tokens[i] = strings.Fields(strings.Trim(s, ".!? "))
	}

	// 相似度：词重叠数 / (log(len_i)+log(len_j))，TextRank 原始定义
	adj := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := overlapSimilarity(tokens[i], tokens[j])
			adj.Set(i, j, sim)
			adj.Set(j, i, sim)
		}
	}

	// 列归一化为转移权重
	trans := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		var colSum float64
		for i := 0; i < n; i++ {
			colSum += adj.At(i, j)
		}
		if colSum == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			trans.Set(i, j, adj.At(i, j)/colSum)
		}
	}

	rank := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rank.SetVec(i, 1.0/float64(n))
	}
	base := (1 - dampingFactor) / float64(n)

	var next mat.VecDense
	for iter := 0; iter < rankIters; iter++ {
		next.MulVec(trans, rank)
		for i := 0; i < n; i++ {
			rank.SetVec(i, base+dampingFactor*next.AtVec(i))
		}
	}

	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		scores[i] = rank.AtVec(i)
	}
	return scores
}

func overlapSimilarity(a, b []string) float64 {
	if len(a) <= 1 || len(b) <= 1 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, w := range a {
		set[w] = struct{}{}
	}
	var overlap float64
	for _, w := range b {
		if _, ok := set[w]; ok {
			overlap++
		}
	}
	return overlap / (math.Log(float64(len(a))) + math.Log(float64(len(b))))
}
