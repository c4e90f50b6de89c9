// Package handler 包含了所有 Gin 框架的 HTTP 处理器。
package handler

import (
	"errors"
	"net/http"

	"textlab-go/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// statusFor 将错误类别映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrRowNotFound), errors.Is(err, apperr.ErrSummaryMissing):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrSummaryServiceUnavailable), errors.Is(err, apperr.ErrSummaryTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError 以统一结构返回错误：类别名 + 描述。
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"kind": apperr.Kind(err), "error": err.Error()})
}

// respondOK 以统一结构返回成功数据。
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": data, "message": "success"})
}
