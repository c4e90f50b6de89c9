package classifier

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"textlab-go/internal/config"
	"textlab-go/pkg/apperr"

	"github.com/pkg/errors"
)

// forest 是基于 bootstrap 采样与随机特征子集的随机森林，树为 gini 分裂的 CART。
// 默认值：Trees=50, MaxDepth=8。
type forest struct {
	cfg      config.ForestConfig
	universe []string
	seed     int64

	trees   []*treeNode
	trained bool
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	label     string // 叶节点的多数类
	leaf      bool
}

func newForest(cfg config.ForestConfig, universe []string, seed int64) *forest {
	if cfg.Trees <= 0 {
		cfg.Trees = 50
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 8
	}
	return &forest{cfg: cfg, universe: universe, seed: seed}
}

func (f *forest) Kind() string     { return KindForest }
func (f *forest) Labels() []string { return f.universe }

func (f *forest) Train(ctx context.Context, X [][]float64, y []string) error {
	if _, err := validateTrainingSet(X, y, f.universe); err != nil {
		return err
	}
	return trainWithRetry(KindForest, f.seed, func(seed int64) error {
		return f.fit(ctx, X, y, seed)
	})
}

func (f *forest) fit(ctx context.Context, X [][]float64, y []string, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	n := len(X)
	featureSample := int(math.Ceil(math.Sqrt(float64(len(X[0])))))

	trees := make([]*treeNode, 0, f.cfg.Trees)
	for t := 0; t < f.cfg.Trees; t++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		trees = append(trees, f.buildTree(X, y, sample, featureSample, 0, rng))
	}

	f.trees = trees
	f.trained = true
	return nil
}

func (f *forest) buildTree(X [][]float64, y []string, sample []int, featureSample, depth int, rng *rand.Rand) *treeNode {
	if depth >= f.cfg.MaxDepth || pure(y, sample) || len(sample) < 2 {
		return &treeNode{leaf: true, label: f.majority(y, sample)}
	}

	feature, threshold, ok := f.bestSplit(X, y, sample, featureSample, rng)
	if !ok {
		return &treeNode{leaf: true, label: f.majority(y, sample)}
	}

	var left, right []int
	for _, i := range sample {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{leaf: true, label: f.majority(y, sample)}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      f.buildTree(X, y, left, featureSample, depth+1, rng),
		right:     f.buildTree(X, y, right, featureSample, depth+1, rng),
	}
}

// bestSplit 在随机特征子集上寻找 gini 增益最大的 (特征, 阈值)。
func (f *forest) bestSplit(X [][]float64, y []string, sample []int, featureSample int, rng *rand.Rand) (int, float64, bool) {
	dim := len(X[0])
	features := rng.Perm(dim)
	if featureSample < len(features) {
		features = features[:featureSample]
	}

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0
	values := make([]float64, 0, len(sample))

	for _, feat := range features {
		values = values[:0]
		for _, i := range sample {
			values = append(values, X[i][feat])
		}
		sort.Float64s(values)
		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2
			gini := f.splitGini(X, y, sample, feat, threshold)
			if gini < bestGini {
				bestGini, bestFeature, bestThreshold = gini, feat, threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func (f *forest) splitGini(X [][]float64, y []string, sample []int, feature int, threshold float64) float64 {
	leftCounts := make(map[string]int)
	rightCounts := make(map[string]int)
	var nLeft, nRight float64
	for _, i := range sample {
		if X[i][feature] <= threshold {
			leftCounts[y[i]]++
			nLeft++
		} else {
			rightCounts[y[i]]++
			nRight++
		}
	}
	total := nLeft + nRight
	return nLeft/total*gini(leftCounts, nLeft) + nRight/total*gini(rightCounts, nRight)
}

func gini(counts map[string]int, n float64) float64 {
	if n == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / n
		impurity -= p * p
	}
	return impurity
}

func pure(y []string, sample []int) bool {
	for _, i := range sample[1:] {
		if y[i] != y[sample[0]] {
			return false
		}
	}
	return true
}

// majority 返回样本中的多数类，平局时取字典序靠前的标签。
func (f *forest) majority(y []string, sample []int) string {
	counts := make(map[string]int)
	for _, i := range sample {
		counts[y[i]]++
	}
	best, bestCount := "", -1
	for _, label := range f.universe {
		if c := counts[label]; c > bestCount {
			best, bestCount = label, c
		}
	}
	return best
}

// Predict 以多数投票聚合各树结果，平局时取字典序靠前的标签。
func (f *forest) Predict(x []float64) (string, error) {
	if !f.trained {
		return "", errors.Wrap(apperr.ErrLabelSetMismatch, "forest 尚未训练")
	}
	votes := make(map[string]int)
	for _, tree := range f.trees {
		node := tree
		for !node.leaf {
			if x[node.feature] <= node.threshold {
				node = node.left
			} else {
				node = node.right
			}
		}
		votes[node.label]++
	}
	best, bestCount := "", -1
	for _, label := range f.universe {
		if c := votes[label]; c > bestCount {
			best, bestCount = label, c
		}
	}
	return best, nil
}
