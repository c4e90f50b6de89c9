package classifier

import (
	"context"
	"math/rand"

	"textlab-go/internal/config"
	"textlab-go/pkg/apperr"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// linearSVM 以一对多方式训练的线性 SVM，SGD 优化 hinge 损失（Pegasos 形式）。
// 默认值：C=1.0, Epochs=20。
type linearSVM struct {
	cfg      config.LinearSVMConfig
	universe []string
	seed     int64

	weights [][]float64 // 每个类一组权重
	bias    []float64
	trained bool
}

func newLinearSVM(cfg config.LinearSVMConfig, universe []string, seed int64) *linearSVM {
	if cfg.C <= 0 {
		cfg.C = 1.0
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 20
	}
	return &linearSVM{cfg: cfg, universe: universe, seed: seed}
}

func (s *linearSVM) Kind() string     { return KindLinearSVM }
func (s *linearSVM) Labels() []string { return s.universe }

func (s *linearSVM) Train(ctx context.Context, X [][]float64, y []string) error {
	index, err := validateTrainingSet(X, y, s.universe)
	if err != nil {
		return err
	}
	return trainWithRetry(KindLinearSVM, s.seed, func(seed int64) error {
		return s.fit(ctx, X, y, index, seed)
	})
}

func (s *linearSVM) fit(ctx context.Context, X [][]float64, y []string, index map[string]int, seed int64) error {
	dim := len(X[0])
	nClasses := len(s.universe)
	lambda := 1.0 / (s.cfg.C * float64(len(X)))

	weights := make([][]float64, nClasses)
	bias := make([]float64, nClasses)
	for k := range weights {
		weights[k] = make([]float64, dim)
	}

	rng := rand.New(rand.NewSource(seed))
	order := make([]int, len(X))
	for i := range order {
		order[i] = i
	}

	step := 0
	for epoch := 0; epoch < s.cfg.Epochs; epoch++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, i := range order {
			step++
			eta := 1.0 / (lambda * float64(step))
			for k := 0; k < nClasses; k++ {
				target := -1.0
				if index[y[i]] == k {
					target = 1.0
				}
				margin := target * (floats.Dot(weights[k], X[i]) + bias[k])
				floats.Scale(1-eta*lambda, weights[k])
				if margin < 1 {
					floats.AddScaled(weights[k], eta*target, X[i])
					bias[k] += eta * target
				}
			}
		}
		for k := range weights {
			if !allFinite(weights[k]) {
				return errors.Wrapf(errNonFinite, "epoch %d 类 %s 权重溢出", epoch, s.universe[k])
			}
		}
	}

	s.weights = weights
	s.bias = bias
	s.trained = true
	return nil
}

// Predict 返回得分最高的类，平局时取字典序靠前的标签以保证确定性。
func (s *linearSVM) Predict(x []float64) (string, error) {
	if !s.trained {
		return "", errors.Wrap(apperr.ErrLabelSetMismatch, "linearsvm 尚未训练")
	}
	best, bestScore := 0, floats.Dot(s.weights[0], x)+s.bias[0]
	for k := 1; k < len(s.universe); k++ {
		if score := floats.Dot(s.weights[k], x) + s.bias[k]; score > bestScore {
			best, bestScore = k, score
		}
	}
	return s.universe[best], nil
}
