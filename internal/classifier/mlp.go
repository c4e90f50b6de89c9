package classifier

import (
	"context"
	"math"
	"math/rand"

	"textlab-go/internal/config"
	"textlab-go/pkg/apperr"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// mlp 是单隐藏层的多层感知机：ReLU 隐层 + softmax 输出，逐样本 SGD。
// 默认值：HiddenSize=32, LearningRate=0.05, Epochs=30。
type mlp struct {
	cfg      config.MLPConfig
	universe []string
	seed     int64

	w1      [][]float64 // hidden x input
	b1      []float64
	w2      [][]float64 // output x hidden
	b2      []float64
	trained bool
}

func newMLP(cfg config.MLPConfig, universe []string, seed int64) *mlp {
	if cfg.HiddenSize <= 0 {
		cfg.HiddenSize = 32
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.05
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 30
	}
	return &mlp{cfg: cfg, universe: universe, seed: seed}
}

func (m *mlp) Kind() string     { return KindMLP }
func (m *mlp) Labels() []string { return m.universe }

func (m *mlp) Train(ctx context.Context, X [][]float64, y []string) error {
	index, err := validateTrainingSet(X, y, m.universe)
	if err != nil {
		return err
	}
	return trainWithRetry(KindMLP, m.seed, func(seed int64) error {
		return m.fit(ctx, X, y, index, seed)
	})
}

func (m *mlp) fit(ctx context.Context, X [][]float64, y []string, index map[string]int, seed int64) error {
	dim := len(X[0])
	hidden := m.cfg.HiddenSize
	out := len(m.universe)
	rng := rand.New(rand.NewSource(seed))

	w1 := randomMatrix(rng, hidden, dim)
	b1 := make([]float64, hidden)
	w2 := randomMatrix(rng, out, hidden)
	b2 := make([]float64, out)

	order := make([]int, len(X))
	for i := range order {
		order[i] = i
	}

	h := make([]float64, hidden)
	probs := make([]float64, out)
	dh := make([]float64, hidden)

	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		var epochLoss float64
		for _, i := range order {
			// 前向
			for j := 0; j < hidden; j++ {
				h[j] = math.Max(0, floats.Dot(w1[j], X[i])+b1[j])
			}
			for k := 0; k < out; k++ {
				probs[k] = floats.Dot(w2[k], h) + b2[k]
			}
			softmaxInPlace(probs)
			target := index[y[i]]
			epochLoss += -math.Log(math.Max(probs[target], 1e-12))

			// 反向：softmax 交叉熵的梯度是 probs - onehot
			for j := range dh {
				dh[j] = 0
			}
			for k := 0; k < out; k++ {
				grad := probs[k]
				if k == target {
					grad -= 1
				}
				floats.AddScaled(dh, grad*1.0, w2[k])
				floats.AddScaled(w2[k], -m.cfg.LearningRate*grad, h)
				b2[k] -= m.cfg.LearningRate * grad
			}
			for j := 0; j < hidden; j++ {
				if h[j] <= 0 {
					continue
				}
				floats.AddScaled(w1[j], -m.cfg.LearningRate*dh[j], X[i])
				b1[j] -= m.cfg.LearningRate * dh[j]
			}
		}
		if math.IsNaN(epochLoss) || math.IsInf(epochLoss, 0) {
			return errors.Wrapf(errNonFinite, "epoch %d 损失为非有限值", epoch)
		}
	}

	m.w1, m.b1, m.w2, m.b2 = w1, b1, w2, b2
	m.trained = true
	return nil
}

// Predict 返回 softmax 概率最高的类，平局时取字典序靠前的标签。
func (m *mlp) Predict(x []float64) (string, error) {
	if !m.trained {
		return "", errors.Wrap(apperr.ErrLabelSetMismatch, "mlp 尚未训练")
	}
	h := make([]float64, m.cfg.HiddenSize)
	for j := range h {
		h[j] = math.Max(0, floats.Dot(m.w1[j], x)+m.b1[j])
	}
	best, bestScore := 0, math.Inf(-1)
	for k := range m.universe {
		if score := floats.Dot(m.w2[k], h) + m.b2[k]; score > bestScore {
			best, bestScore = k, score
		}
	}
	return m.universe[best], nil
}

func randomMatrix(rng *rand.Rand, rows, cols int) [][]float64 {
	scale := 1.0 / math.Sqrt(float64(cols))
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = (rng.Float64()*2 - 1) * scale
		}
	}
	return m
}

func softmaxInPlace(v []float64) {
	max := floats.Max(v)
	var sum float64
	for i := range v {
		v[i] = math.Exp(v[i] - max)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}
