package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"textlab-go/internal/classifier"
	"textlab-go/internal/config"
	"textlab-go/internal/evaluator"
	"textlab-go/internal/model"
	"textlab-go/internal/repository"
	"textlab-go/internal/vectorizer"
	"textlab-go/pkg/apperr"
	"textlab-go/pkg/embedding"
	"textlab-go/pkg/log"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Deps 聚合实验运行器的外部依赖。RepCache 与 MetricsRepo 可为 nil。
type Deps struct {
	EmbeddingClient embedding.Client
	SummaryRepo     repository.SummaryRepository
	MetricsRepo     repository.MetricsRepository
	RepCache        RepCache
}

// Runner 顺序遍历 {文本来源} × {表示种类} × {分类器种类} 的全部单元格。
// 单元格之间没有共享可变状态，一个单元格失败只记录原因，不中断其余单元格。
type Runner struct {
	expCfg config.ExperimentConfig
	vecCfg config.VectorizerConfig
	clsCfg config.ClassifiersConfig
	deps   Deps
}

// NewRunner 创建一个实验运行器。
func NewRunner(expCfg config.ExperimentConfig, vecCfg config.VectorizerConfig, clsCfg config.ClassifiersConfig, deps Deps) *Runner {
	if len(expCfg.Representations) == 0 {
		expCfg.Representations = []string{vectorizer.KindTFIDF}
	}
	if len(expCfg.Classifiers) == 0 {
		expCfg.Classifiers = []string{classifier.KindLinearSVM, classifier.KindMLP, classifier.KindForest}
	}
	if len(expCfg.TextSources) == 0 {
		expCfg.TextSources = []string{model.TextSourceFullText}
	}
	if expCfg.TestFraction <= 0 || expCfg.TestFraction >= 1 {
		expCfg.TestFraction = 0.3
	}
	return &Runner{expCfg: expCfg, vecCfg: vecCfg, clsCfg: clsCfg, deps: deps}
}

// CellResult 是单个实验单元格的结果：要么有指标，要么有失败原因。
type CellResult struct {
	Representation string
	Classifier     string
	TextSource     string
	Metrics        *model.Metrics
	ErrKind        string
	Err            error
	RuntimeMillis  int64
}

// CellName 返回单元格的展示名。
func (c *CellResult) CellName() string {
	return fmt.Sprintf("%s/%s/%s", c.TextSource, c.Representation, c.Classifier)
}

// Report 聚合一次运行的全部单元格结果。
type Report struct {
	RunID   string
	Dataset string
	Cells   []CellResult
}

// row 是某个文本来源下参与实验的一行，行号对齐贯穿向量化、训练与评估。
type row struct {
	rowID string
	text  string
	label string
}

// Run 对一个已加载的数据集执行全部单元格并返回聚合报告。
func (r *Runner) Run(ctx context.Context, datasetCfg *config.DatasetConfig, docs []*model.Document) (*Report, error) {
	if len(docs) == 0 {
		return nil, errors.Wrap(apperr.ErrDataUnavailable, "数据集没有可用文档")
	}

	report := &Report{RunID: uuid.NewString(), Dataset: datasetCfg.Name}
	labels := datasetCfg.Labels
	if len(labels) == 0 {
		labels = collectLabels(docs)
	}

	log.Infof("[Runner] 运行 %s 开始: 数据集=%s, 文档=%d, 来源=%v, 表示=%v, 分类器=%v",
		report.RunID, datasetCfg.Name, len(docs), r.expCfg.TextSources, r.expCfg.Representations, r.expCfg.Classifiers)

	for _, source := range r.expCfg.TextSources {
		rows, err := r.resolveRows(docs, source)
		if err != nil {
			r.failSource(report, source, err)
			continue
		}
		trainIdx, testIdx, err := r.split(len(rows))
		if err != nil {
			r.failSource(report, source, err)
			continue
		}

		for _, rep := range r.expCfg.Representations {
			X, err := r.vectorize(ctx, datasetCfg.Name, source, rep, rows, trainIdx)
			if err != nil {
				for _, clf := range r.expCfg.Classifiers {
					report.Cells = append(report.Cells, failedCell(rep, clf, source, err))
				}
				continue
			}

			for _, clfKind := range r.expCfg.Classifiers {
				result := r.runCell(ctx, report.RunID, rep, clfKind, source, rows, X, trainIdx, testIdx, labels)
				report.Cells = append(report.Cells, result)
			}
		}
	}

	return report, nil
}

// runCell 训练并评估一个单元格。
func (r *Runner) runCell(
	ctx context.Context,
	runID, rep, clfKind, source string,
	rows []row,
	X [][]float64,
	trainIdx, testIdx []int,
	labels []string,
) CellResult {
	start := time.Now()

	clf, err := classifier.New(clfKind, r.clsCfg, labels, r.expCfg.Seed)
	if err != nil {
		return failedCell(rep, clfKind, source, err)
	}

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]string, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i] = X[idx]
		trainY[i] = rows[idx].label
	}
	if err := clf.Train(ctx, trainX, trainY); err != nil {
		return failedCell(rep, clfKind, source, err)
	}

	preds := make([]string, len(testIdx))
	truth := make([]string, len(testIdx))
	for i, idx := range testIdx {
		pred, err := clf.Predict(X[idx])
		if err != nil {
			return failedCell(rep, clfKind, source, err)
		}
		preds[i] = pred
		truth[i] = rows[idx].label
	}

	metrics, err := evaluator.Evaluate(preds, truth, labels)
	if err != nil {
		return failedCell(rep, clfKind, source, err)
	}

	metrics.RunID = runID
	metrics.Representation = rep
	metrics.Classifier = clfKind
	metrics.TextSource = source
	metrics.RuntimeMillis = time.Since(start).Milliseconds()
	metrics.CreatedAt = model.LocalTime(time.Now())
	if confJSON, err := json.Marshal(metrics.Confusion); err == nil {
		metrics.ConfusionJSON = string(confJSON)
	}

	if r.deps.MetricsRepo != nil {
		if err := r.deps.MetricsRepo.Create(metrics); err != nil {
			log.Errorf("[Runner] 持久化指标失败 (%s/%s/%s): %v", source, rep, clfKind, err)
		}
	}

	log.Infof("[Runner] 单元格 %s/%s/%s 完成: acc=%.4f f1=%.4f (%dms)",
		source, rep, clfKind, metrics.Accuracy, metrics.F1, metrics.RuntimeMillis)
	return CellResult{
		Representation: rep,
		Classifier:     clfKind,
		TextSource:     source,
		Metrics:        metrics,
		RuntimeMillis:  metrics.RuntimeMillis,
	}
}

// vectorize 在训练子集上 fit，再 transform 全部行。嵌入类表示可命中缓存。
func (r *Runner) vectorize(ctx context.Context, dataset, source, rep string, rows []row, trainIdx []int) ([][]float64, error) {
	vec, err := vectorizer.New(rep, r.vecCfg, r.deps.EmbeddingClient)
	if err != nil {
		return nil, err
	}

	trainTexts := make([]string, len(trainIdx))
	for i, idx := range trainIdx {
		trainTexts[i] = rows[idx].text
	}
	if err := vec.Fit(ctx, trainTexts); err != nil {
		return nil, err
	}

	// 缓存只对无 fit 状态的表示安全：tfidf 的向量依赖词表，不缓存
	useCache := r.deps.RepCache != nil && rep == vectorizer.KindEmbedding

	X := make([][]float64, len(rows))
	for i, rw := range rows {
		vectorID := fmt.Sprintf("%s_%s_%s", rw.rowID, source, rep)
		if useCache {
			if cached, ok := r.deps.RepCache.Get(ctx, vectorID); ok {
				X[i] = cached.Vector
				continue
			}
		}
		if X[i], err = vec.Transform(ctx, rw.text); err != nil {
			return nil, errors.Wrapf(err, "行 %s 向量化失败", rw.rowID)
		}
		if useCache {
			r.deps.RepCache.Put(ctx, model.RepresentationDoc{
				VectorID:      vectorID,
				RowID:         rw.rowID,
				TextSource:    source,
				Kind:          rep,
				Vector:        X[i],
				DatasetOrigin: dataset,
			})
		}
	}
	return X, nil
}

// resolveRows 按文本来源解析每行参与实验的文本。
// 摘要来源下，缺失或生成失败（哨兵空值）的行被排除，其余行保持行号对齐。
func (r *Runner) resolveRows(docs []*model.Document, source string) ([]row, error) {
	if source == model.TextSourceFullText {
		rows := make([]row, len(docs))
		for i, doc := range docs {
			rows[i] = row{rowID: doc.RowID, text: doc.CleanedText, label: doc.Label}
		}
		return rows, nil
	}

	if r.deps.SummaryRepo == nil {
		return nil, errors.Wrapf(apperr.ErrSummaryMissing, "来源 '%s' 需要摘要仓库", source)
	}
	rowIDs := make([]string, len(docs))
	for i, doc := range docs {
		rowIDs[i] = doc.RowID
	}
	summaries, err := r.deps.SummaryRepo.FindByRowIDsAndKind(rowIDs, source)
	if err != nil {
		return nil, errors.Wrap(err, "读取摘要失败")
	}
	byRow := make(map[string]string, len(summaries))
	for _, s := range summaries {
		byRow[s.RowID] = s.SummaryText
	}

	var rows []row
	skipped := 0
	for _, doc := range docs {
		text, ok := byRow[doc.RowID]
		if !ok || text == "" {
			skipped++
			continue
		}
		rows = append(rows, row{rowID: doc.RowID, text: text, label: doc.Label})
	}
	if skipped > 0 {
		log.Warnf("[Runner] 来源 '%s' 下 %d 行缺少可用摘要，已排除", source, skipped)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(apperr.ErrSummaryMissing, "来源 '%s' 下没有任何可用摘要", source)
	}
	return rows, nil
}

// split 以固定种子打乱行号并切分训练/测试子集。
func (r *Runner) split(n int) (trainIdx, testIdx []int, err error) {
	if n < 2 {
		return nil, nil, errors.Wrap(apperr.ErrDataUnavailable, "行数不足以切分训练/测试集")
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(r.expCfg.Seed))
	rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	testCount := int(float64(n)*r.expCfg.TestFraction + 0.5)
	if testCount < 1 {
		testCount = 1
	}
	if testCount >= n {
		testCount = n - 1
	}
	return order[testCount:], order[:testCount], nil
}

// failSource 将一个来源下的所有单元格标记为同一失败原因。
func (r *Runner) failSource(report *Report, source string, err error) {
	log.Errorf("[Runner] 来源 '%s' 不可用: %v", source, err)
	for _, rep := range r.expCfg.Representations {
		for _, clf := range r.expCfg.Classifiers {
			report.Cells = append(report.Cells, failedCell(rep, clf, source, err))
		}
	}
}

func failedCell(rep, clf, source string, err error) CellResult {
	return CellResult{
		Representation: rep,
		Classifier:     clf,
		TextSource:     source,
		ErrKind:        apperr.Kind(err),
		Err:            err,
	}
}

func collectLabels(docs []*model.Document) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, doc := range docs {
		if _, ok := seen[doc.Label]; !ok {
			seen[doc.Label] = struct{}{}
			labels = append(labels, doc.Label)
		}
	}
	return labels
}
