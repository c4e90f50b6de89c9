// Package classifier 实现实验对比用的三类分类器家族。
// 每个家族一个带文档化默认值的结构化配置；训练在数值不收敛时自动换种子重试一次，
// 仍失败才以 ErrTrainingFailed 上抛。训练完成后实例只读，可安全共享。
package classifier

import (
	"context"
	"fmt"
	"math"
	"sort"

	"textlab-go/internal/config"
	"textlab-go/pkg/apperr"
	"textlab-go/pkg/log"

	"github.com/pkg/errors"
)

// 分类器种类。
const (
	KindLinearSVM = "linearsvm"
	KindMLP       = "mlp"
	KindForest    = "forest"
)

// Classifier 是各分类器家族的统一能力接口。
type Classifier interface {
	Kind() string
	Train(ctx context.Context, X [][]float64, y []string) error
	Predict(x []float64) (string, error)
	Labels() []string
}

// New 按种类构造分类器。labels 是数据集声明的封闭标签集合，seed 控制全部随机性。
func New(kind string, cfg config.ClassifiersConfig, labels []string, seed int64) (Classifier, error) {
	universe := append([]string(nil), labels...)
	sort.Strings(universe)
	switch kind {
	case KindLinearSVM:
		return newLinearSVM(cfg.LinearSVM, universe, seed), nil
	case KindMLP:
		return newMLP(cfg.MLP, universe, seed), nil
	case KindForest:
		return newForest(cfg.Forest, universe, seed), nil
	default:
		return nil, fmt.Errorf("未知的分类器种类: %s", kind)
	}
}

// errNonFinite 标记一次数值不收敛的训练，触发换种子重试。
var errNonFinite = errors.New("non-finite values during training")

// validateTrainingSet 校验样本与标签的对齐及标签集合的封闭性。
func validateTrainingSet(X [][]float64, y []string, universe []string) (map[string]int, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, errors.Wrapf(apperr.ErrLabelSetMismatch,
			"样本数 %d 与标签数 %d 不一致或为空", len(X), len(y))
	}
	index := make(map[string]int, len(universe))
	for i, label := range universe {
		index[label] = i
	}
	for i, label := range y {
		if _, ok := index[label]; !ok {
			return nil, errors.Wrapf(apperr.ErrLabelSetMismatch,
				"第 %d 行标签 '%s' 不在已知标签集合内", i, label)
		}
	}
	return index, nil
}

// trainWithRetry 执行一次训练，数值失败时换种子重试一次。
func trainWithRetry(kind string, seed int64, attempt func(seed int64) error) error {
	err := attempt(seed)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errNonFinite) {
		return errors.Wrap(apperr.ErrTrainingFailed, err.Error())
	}
	log.Warnf("[Classifier] %s 训练数值不收敛，换种子重试一次 (seed=%d)", kind, seed+1)
	if err := attempt(seed + 1); err != nil {
		return errors.Wrap(apperr.ErrTrainingFailed, err.Error())
	}
	return nil
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
