package handler

import (
	"net/http"

	"textlab-go/internal/config"
	"textlab-go/internal/dataset"
	"textlab-go/internal/model"
	"textlab-go/internal/service"
	"textlab-go/internal/vectorizer"
	"textlab-go/pkg/embedding"
	"textlab-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// TextHandler 结构体定义了单段文本处理相关的处理器：清洗、摘要与向量化。
type TextHandler struct {
	summaryService service.SummaryService
	embClient      embedding.Client
	vecCfg         config.VectorizerConfig
}

// NewTextHandler 创建一个新的 TextHandler 实例。embClient 可为 nil，
// 此时 embedding 向量化路由返回服务不可用。
func NewTextHandler(summaryService service.SummaryService, embClient embedding.Client, vecCfg config.VectorizerConfig) *TextHandler {
	return &TextHandler{
		summaryService: summaryService,
		embClient:      embClient,
		vecCfg:         vecCfg,
	}
}

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

type textsRequest struct {
	Texts []string `json:"texts" binding:"required"`
}

// Health 是根路由的健康检查。
func (h *TextHandler) Health(c *gin.Context) {
	c.String(http.StatusOK, "textlab is running")
}

// Preprocess 清洗一段原始文本。
func (h *TextHandler) Preprocess(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}
	respondOK(c, gin.H{"cleaned": dataset.CleanText(req.Text)})
}

// SummarizeExtractive 对一段文本生成抽取式摘要。
func (h *TextHandler) SummarizeExtractive(c *gin.Context) {
	h.summarize(c, model.SummaryKindExtractive)
}

// SummarizeAbstractive 对一段文本生成生成式摘要。
func (h *TextHandler) SummarizeAbstractive(c *gin.Context) {
	h.summarize(c, model.SummaryKindAbstractive)
}

func (h *TextHandler) summarize(c *gin.Context, kind string) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}
	summary, err := h.summaryService.SummarizeText(c.Request.Context(), req.Text, kind)
	if err != nil {
		log.Errorf("[TextHandler] %s 摘要生成失败, error: %v", kind, err)
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"kind": kind, "summary": summary})
}

// VectorizeTFIDF 在请求给出的语料上拟合 TF-IDF 并返回每行的向量。
func (h *TextHandler) VectorizeTFIDF(c *gin.Context) {
	var req textsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Texts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}

	vec := vectorizer.NewTFIDF(h.vecCfg.TFIDF)
	if err := vec.Fit(c.Request.Context(), req.Texts); err != nil {
		log.Errorf("[TextHandler] TF-IDF 拟合失败, error: %v", err)
		respondError(c, err)
		return
	}
	vectors := make([][]float64, len(req.Texts))
	for i, text := range req.Texts {
		v, err := vec.Transform(c.Request.Context(), text)
		if err != nil {
			respondError(c, err)
			return
		}
		vectors[i] = v
	}
	respondOK(c, gin.H{"vectors": vectors, "features": vec.FeatureNames()})
}

// VectorizeEmbedding 通过远端模型返回每行文本的稠密向量。
func (h *TextHandler) VectorizeEmbedding(c *gin.Context) {
	var req textsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Texts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}
	if h.embClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "embedding 服务未配置"})
		return
	}

	vectors := make([][]float64, len(req.Texts))
	for i, text := range req.Texts {
		v, err := h.embClient.CreateEmbedding(c.Request.Context(), text)
		if err != nil {
			log.Errorf("[TextHandler] embedding 调用失败, error: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		vectors[i] = v
	}
	respondOK(c, gin.H{"vectors": vectors})
}

type summarizeAndVectorizeRequest struct {
	Text        string `json:"text" binding:"required"`
	SummaryKind string `json:"summary_kind"`
}

// SummarizeAndVectorize 先摘要再对摘要做 embedding 向量化。
func (h *TextHandler) SummarizeAndVectorize(c *gin.Context) {
	var req summarizeAndVectorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}
	if req.SummaryKind == "" {
		req.SummaryKind = model.SummaryKindExtractive
	}
	if h.embClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "embedding 服务未配置"})
		return
	}

	summary, err := h.summaryService.SummarizeText(c.Request.Context(), req.Text, req.SummaryKind)
	if err != nil {
		respondError(c, err)
		return
	}
	vector, err := h.embClient.CreateEmbedding(c.Request.Context(), summary)
	if err != nil {
		log.Errorf("[TextHandler] embedding 调用失败, error: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	respondOK(c, gin.H{"summary": summary, "vector": vector})
}

type rebuildRequest struct {
	LineID string `json:"line_id" binding:"required"`
	Kind   string `json:"kind" binding:"required"`
}

// RebuildSummary 将单行摘要重建任务投递到队列，立即返回。
func (h *TextHandler) RebuildSummary(c *gin.Context) {
	var req rebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}
	if err := h.summaryService.EnqueueRebuild(req.LineID, req.Kind); err != nil {
		log.Errorf("[TextHandler] 摘要重建任务投递失败, line_id: %s, error: %v", req.LineID, err)
		respondError(c, err)
		return
	}
	log.Infof("[TextHandler] 摘要重建任务已投递, line_id: %s, kind: %s", req.LineID, req.Kind)
	c.JSON(http.StatusAccepted, gin.H{"code": 202, "message": "任务已入队"})
}
