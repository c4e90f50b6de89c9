package service

import (
	"context"

	"textlab-go/internal/experiment"
	"textlab-go/internal/model"
	"textlab-go/internal/repository"
	"textlab-go/pkg/apperr"
	"textlab-go/pkg/xai"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Explanation 是对一段文本的一次归因结果。
type Explanation struct {
	Label        string            `json:"label"`
	Attributions []xai.Attribution `json:"attributions"`
}

// ExplainResult 聚合一行的归因：全文归因总是存在，
// 请求方要求时再附上生成式摘要的归因。
type ExplainResult struct {
	RowID    string       `json:"line_id"`
	FullText Explanation  `json:"full_text"`
	Summary  *Explanation `json:"summary,omitempty"`
}

// ExplainService 接口定义了模型解释相关的业务操作。
// 解释的对象是启动时训练并发布的预测工件，请求之间只读共享。
type ExplainService interface {
	ExplainLIME(ctx context.Context, rowID string, useSummaryAlso bool) (*ExplainResult, error)
	ExplainSHAP(ctx context.Context, rowID string, useSummaryAlso bool) (*ExplainResult, error)
	ExplainTextLIME(ctx context.Context, text string) (*Explanation, error)
}

type explainService struct {
	docRepo    repository.DocumentRepository
	summarySvc SummaryService
	artifact   *experiment.PredictorArtifact
	samples    int
	topK       int
	seed       int64
}

// NewExplainService 创建一个新的 ExplainService 实例。
func NewExplainService(
	docRepo repository.DocumentRepository,
	summarySvc SummaryService,
	artifact *experiment.PredictorArtifact,
	samples, topK int,
	seed int64,
) ExplainService {
	return &explainService{
		docRepo:    docRepo,
		summarySvc: summarySvc,
		artifact:   artifact,
		samples:    samples,
		topK:       topK,
		seed:       seed,
	}
}

// ExplainLIME 用扰动采样代理模型解释指定行的预测。
func (s *explainService) ExplainLIME(ctx context.Context, rowID string, useSummaryAlso bool) (*ExplainResult, error) {
	explainer := xai.NewExplainer(s.samples, s.topK, s.seed)
	return s.explain(ctx, rowID, useSummaryAlso, func(ctx context.Context, text string) (*Explanation, error) {
		label, attrs, err := explainer.ExplainText(ctx, text, s.artifact.Predict)
		if err != nil {
			return nil, err
		}
		return &Explanation{Label: label, Attributions: attrs}, nil
	})
}

// ExplainSHAP 用排列采样的 Shapley 值解释指定行的预测。
func (s *explainService) ExplainSHAP(ctx context.Context, rowID string, useSummaryAlso bool) (*ExplainResult, error) {
	sampler := xai.NewShapleySampler(0, s.seed)
	return s.explain(ctx, rowID, useSummaryAlso, func(ctx context.Context, text string) (*Explanation, error) {
		label, attrs, err := sampler.Explain(ctx, text, s.artifact.Predict)
		if err != nil {
			return nil, err
		}
		if len(attrs) > s.topK && s.topK > 0 {
			attrs = attrs[:s.topK]
		}
		return &Explanation{Label: label, Attributions: attrs}, nil
	})
}

// ExplainTextLIME 对任意一段文本做归因，不查行。
func (s *explainService) ExplainTextLIME(ctx context.Context, text string) (*Explanation, error) {
	explainer := xai.NewExplainer(s.samples, s.topK, s.seed)
	label, attrs, err := explainer.ExplainText(ctx, text, s.artifact.Predict)
	if err != nil {
		return nil, errors.Wrap(apperr.ErrExplainerError, err.Error())
	}
	return &Explanation{Label: label, Attributions: attrs}, nil
}

type explainFunc func(ctx context.Context, text string) (*Explanation, error)

// explain 解析行文本并执行归因。行不存在与摘要缺失的判别先于归因执行，
// 归因自身的失败统一归入 ErrExplainerError。
func (s *explainService) explain(ctx context.Context, rowID string, useSummaryAlso bool, run explainFunc) (*ExplainResult, error) {
	if s.artifact == nil {
		return nil, errors.Wrap(apperr.ErrExplainerError, "预测工件尚未就绪")
	}

	doc, err := s.docRepo.FindByRowID(rowID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(apperr.ErrRowNotFound, "行 %s 不存在", rowID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "读取文档失败")
	}

	var summaryText string
	if useSummaryAlso {
		// 摘要缺失属于请求方可见的前置条件失败，先于归因报告
		summaryText, err = s.summarySvc.GetSummary(ctx, rowID, model.SummaryKindAbstractive)
		if err != nil {
			return nil, err
		}
	}

	result := &ExplainResult{RowID: rowID}

	full, err := run(ctx, doc.CleanedText)
	if err != nil {
		return nil, errors.Wrap(apperr.ErrExplainerError, err.Error())
	}
	result.FullText = *full

	if useSummaryAlso {
		sum, err := run(ctx, summaryText)
		if err != nil {
			return nil, errors.Wrap(apperr.ErrExplainerError, err.Error())
		}
		result.Summary = sum
	}
	return result, nil
}
