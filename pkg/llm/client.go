// Package llm provides a client for the external text-generation service.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"textlab-go/internal/config"
	"textlab-go/pkg/apperr"
	"textlab-go/pkg/log"

	"github.com/pkg/errors"
)

// Client defines the interface for the generation service used to produce
// abstractive summaries. 契约：给定文本与目标词数，返回一段自然语言摘要。
type Client interface {
	Generate(ctx context.Context, text string, targetWords int) (string, error)
}

type openAICompatibleClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new generation client based on the config.
func NewClient(cfg config.LLMConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = 30 * time.Second
	}
	return &openAICompatibleClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate 以单次非流式调用生成摘要。超时映射为 apperr.ErrSummaryTimeout，
// 其它传输失败映射为 apperr.ErrSummaryServiceUnavailable，由调用方决定是否跳过该行。
func (c *openAICompatibleClient) Generate(ctx context.Context, text string, targetWords int) (string, error) {
	prompt := fmt.Sprintf("请将下面的文本概括为不超过 %d 个词的摘要，只输出摘要本身。\n\n%s", targetWords, text)

	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: []Message{{Role: "user", Content: prompt}},
		Stream:   false,
	}
	if c.cfg.Temperature != 0 {
		t := c.cfg.Temperature
		reqBody.Temperature = &t
	}
	if c.cfg.MaxTokens != 0 {
		m := c.cfg.MaxTokens
		reqBody.MaxTokens = &m
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal chat request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", errors.Wrap(err, "failed to create chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
			return "", errors.Wrap(apperr.ErrSummaryTimeout, err.Error())
		}
		// http.Client 自身的超时会以 Timeout() 标记的 url.Error 形式返回
		if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
			return "", errors.Wrap(apperr.ErrSummaryTimeout, err.Error())
		}
		return "", errors.Wrap(apperr.ErrSummaryServiceUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Errorf("[LLMClient] 生成服务返回非 200 状态码: %s, body: %s", resp.Status, string(bodyBytes))
		return "", errors.Wrapf(apperr.ErrSummaryServiceUnavailable, "status %s", resp.Status)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", errors.Wrap(apperr.ErrSummaryServiceUnavailable, "failed to decode chat response")
	}
	if len(chat.Choices) == 0 {
		return "", errors.Wrap(apperr.ErrSummaryServiceUnavailable, "empty choices in chat response")
	}

	summary := strings.TrimSpace(chat.Choices[0].Message.Content)
	log.Infof("[LLMClient] 摘要生成成功, 输入 %d 字符, 输出 %d 字符", len(text), len(summary))
	return summary, nil
}
