package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"textlab-go/internal/config"
	"textlab-go/internal/repository"
	"textlab-go/internal/service"

	"github.com/gin-gonic/gin"
)

func newTextRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	summarySvc := service.NewSummaryService(
		repository.NewMemoryDocumentRepository(),
		repository.NewMemorySummaryRepository(),
		nil,
		config.SummarizerConfig{ExtractiveSentences: 1},
		config.LLMConfig{},
		false,
	)
	h := NewTextHandler(summarySvc, nil, config.VectorizerConfig{TFIDF: config.TFIDFConfig{MinDocFreq: 1}})

	r := gin.New()
	r.GET("/", h.Health)
	r.POST("/preprocess", h.Preprocess)
	r.POST("/summarize/lsa", h.SummarizeExtractive)
	r.POST("/summarize/llm", h.SummarizeAbstractive)
	r.POST("/vectorize/tfidf", h.VectorizeTFIDF)
	r.POST("/vectorize/embedding", h.VectorizeEmbedding)
	return r
}

func TestPreprocessHandler(t *testing.T) {
	w := postJSON(t, newTextRouter(), "/preprocess", `{"text":"Visit https://example.com NOW!"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Data struct {
			Cleaned string `json:"cleaned"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Cleaned != "visit now!" {
		t.Errorf("cleaned = %q, want %q", resp.Data.Cleaned, "visit now!")
	}
}

func TestSummarizeExtractiveHandler(t *testing.T) {
	body := `{"text":"first sentence about cats. second sentence about dogs. third sentence about cats again."}`
	w := postJSON(t, newTextRouter(), "/summarize/lsa", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Summary string `json:"summary"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Summary == "" {
		t.Error("empty summary")
	}
}

// 生成服务未配置时按服务不可用返回。
func TestSummarizeAbstractiveHandlerUnavailable(t *testing.T) {
	w := postJSON(t, newTextRouter(), "/summarize/llm", `{"text":"some text"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestVectorizeTFIDFHandler(t *testing.T) {
	body := `{"texts":["cats and dogs","dogs and birds"]}`
	w := postJSON(t, newTextRouter(), "/vectorize/tfidf", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Vectors  [][]float64 `json:"vectors"`
			Features []string    `json:"features"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data.Vectors) != 2 {
		t.Fatalf("vectors = %d, want 2", len(resp.Data.Vectors))
	}
	if len(resp.Data.Features) == 0 {
		t.Error("no feature names")
	}
	if len(resp.Data.Vectors[0]) != len(resp.Data.Features) {
		t.Errorf("vector dim %d != feature count %d", len(resp.Data.Vectors[0]), len(resp.Data.Features))
	}
}

func TestVectorizeEmbeddingHandlerUnconfigured(t *testing.T) {
	w := postJSON(t, newTextRouter(), "/vectorize/embedding", `{"texts":["hello"]}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestTextHandlerBadBody(t *testing.T) {
	r := newTextRouter()
	for _, path := range []string{"/preprocess", "/summarize/lsa", "/vectorize/tfidf"} {
		w := postJSON(t, r, path, `{}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}
