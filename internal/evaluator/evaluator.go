// Package evaluator 计算分类指标并渲染对比产物。
package evaluator

import (
	"textlab-go/internal/model"
	"textlab-go/pkg/apperr"

	"github.com/pkg/errors"
)

// Evaluate 对一批预测计算 accuracy 与宏平均 precision/recall/F1。
// labels 是数据集的固定标签集合：批次中未出现的类按零贡献计入宏平均，
// 混淆矩阵维度恒等于 len(labels)，与批次内容无关。
func Evaluate(preds, truth, labels []string) (*model.Metrics, error) {
	if len(preds) == 0 {
		return nil, errors.Wrap(apperr.ErrEmptyPredictionSet, "评估收到零行预测")
	}
	if len(preds) != len(truth) {
		return nil, errors.Wrapf(apperr.ErrLabelSetMismatch,
			"预测数 %d 与真值数 %d 不一致", len(preds), len(truth))
	}

	index := make(map[string]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}

	confusion := make([][]int, len(labels))
	for i := range confusion {
		confusion[i] = make([]int, len(labels))
	}

	correct := 0
	for i := range preds {
		ti, ok := index[truth[i]]
		if !ok {
			return nil, errors.Wrapf(apperr.ErrLabelSetMismatch, "真值 '%s' 不在标签集合内", truth[i])
		}
		pi, ok := index[preds[i]]
		if !ok {
			return nil, errors.Wrapf(apperr.ErrLabelSetMismatch, "预测 '%s' 不在标签集合内", preds[i])
		}
		confusion[ti][pi]++
		if ti == pi {
			correct++
		}
	}

	var sumPrecision, sumRecall, sumF1 float64
	for k := range labels {
		var tp, fp, fn int
		tp = confusion[k][k]
		for j := range labels {
			if j == k {
				continue
			}
			fn += confusion[k][j]
			fp += confusion[j][k]
		}
		precision := safeDiv(float64(tp), float64(tp+fp))
		recall := safeDiv(float64(tp), float64(tp+fn))
		f1 := safeDiv(2*precision*recall, precision+recall)
		sumPrecision += precision
		sumRecall += recall
		sumF1 += f1
	}

	n := float64(len(labels))
	return &model.Metrics{
		Accuracy:  float64(correct) / float64(len(preds)),
		Precision: sumPrecision / n,
		Recall:    sumRecall / n,
		F1:        sumF1 / n,
		Confusion: confusion,
		Labels:    append([]string(nil), labels...),
	}, nil
}

// safeDiv 在分母为零时返回 0，保证缺席类不会引发除零。
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
