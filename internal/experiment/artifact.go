// Package experiment 实现表示种类 × 分类器种类的交叉对比实验。
package experiment

import (
	"context"

	"textlab-go/internal/classifier"
	"textlab-go/internal/config"
	"textlab-go/internal/model"
	"textlab-go/internal/vectorizer"

	"github.com/pkg/errors"
)

// PredictorArtifact 是一次训练产出的可服务工件：向量化器状态 + 分类器 + 标签集合。
// 发布给解释服务后视为只读，并发使用是安全的。
type PredictorArtifact struct {
	Representation string
	ClassifierKind string
	Vectorizer     vectorizer.Vectorizer
	Classifier     classifier.Classifier
	Labels         []string
}

// Predict 对一段文本做向量化并预测标签。
func (a *PredictorArtifact) Predict(ctx context.Context, text string) (string, error) {
	vec, err := a.Vectorizer.Transform(ctx, text)
	if err != nil {
		return "", err
	}
	return a.Classifier.Predict(vec)
}

// TrainArtifact 在整个文档集上拟合一个可服务工件，供解释服务复用而无需重训。
func TrainArtifact(
	ctx context.Context,
	docs []*model.Document,
	representation, classifierKind string,
	labels []string,
	vecCfg config.VectorizerConfig,
	clsCfg config.ClassifiersConfig,
	seed int64,
	deps Deps,
) (*PredictorArtifact, error) {
	if len(docs) == 0 {
		return nil, errors.New("没有可训练的文档")
	}

	texts := make([]string, len(docs))
	y := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.CleanedText
		y[i] = doc.Label
	}

	vec, err := vectorizer.New(representation, vecCfg, deps.EmbeddingClient)
	if err != nil {
		return nil, err
	}
	if err := vec.Fit(ctx, texts); err != nil {
		return nil, err
	}

	X := make([][]float64, len(texts))
	for i, text := range texts {
		if X[i], err = vec.Transform(ctx, text); err != nil {
			return nil, errors.Wrapf(err, "向量化第 %d 行失败", i)
		}
	}

	clf, err := classifier.New(classifierKind, clsCfg, labels, seed)
	if err != nil {
		return nil, err
	}
	if err := clf.Train(ctx, X, y); err != nil {
		return nil, err
	}

	return &PredictorArtifact{
		Representation: representation,
		ClassifierKind: classifierKind,
		Vectorizer:     vec,
		Classifier:     clf,
		Labels:         clf.Labels(),
	}, nil
}
