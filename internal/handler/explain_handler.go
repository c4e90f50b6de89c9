package handler

import (
	"net/http"

	"textlab-go/internal/service"
	"textlab-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ExplainHandler 结构体定义了模型解释相关的处理器。
type ExplainHandler struct {
	explainService service.ExplainService
}

// NewExplainHandler 创建一个新的 ExplainHandler 实例。
func NewExplainHandler(explainService service.ExplainService) *ExplainHandler {
	return &ExplainHandler{explainService: explainService}
}

// explainRequest 是 /xai 路由的请求体。
type explainRequest struct {
	LineID         string `json:"line_id" binding:"required"`
	UseSummaryAlso bool   `json:"useSummaryAlso"`
}

// LIME 是处理 LIME 归因请求的 Gin 处理函数。
func (h *ExplainHandler) LIME(c *gin.Context) {
	var req explainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[ExplainHandler] 无效的请求体: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}
	log.Infof("[ExplainHandler] 收到 LIME 归因请求, line_id: %s, useSummaryAlso: %v", req.LineID, req.UseSummaryAlso)

	result, err := h.explainService.ExplainLIME(c.Request.Context(), req.LineID, req.UseSummaryAlso)
	if err != nil {
		log.Errorf("[ExplainHandler] LIME 归因失败, line_id: %s, error: %v", req.LineID, err)
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// SHAP 是处理 Shapley 归因请求的 Gin 处理函数。
func (h *ExplainHandler) SHAP(c *gin.Context) {
	var req explainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[ExplainHandler] 无效的请求体: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体"})
		return
	}
	log.Infof("[ExplainHandler] 收到 SHAP 归因请求, line_id: %s", req.LineID)

	result, err := h.explainService.ExplainSHAP(c.Request.Context(), req.LineID, req.UseSummaryAlso)
	if err != nil {
		log.Errorf("[ExplainHandler] SHAP 归因失败, line_id: %s, error: %v", req.LineID, err)
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
