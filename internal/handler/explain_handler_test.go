package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"textlab-go/internal/service"
	"textlab-go/pkg/apperr"
	"textlab-go/pkg/xai"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// fakeExplainService 按行号返回预置的结果或错误。
type fakeExplainService struct {
	results map[string]*service.ExplainResult
	errs    map[string]error
}

func (f *fakeExplainService) ExplainLIME(ctx context.Context, rowID string, useSummaryAlso bool) (*service.ExplainResult, error) {
	if err, ok := f.errs[rowID]; ok {
		return nil, err
	}
	if res, ok := f.results[rowID]; ok {
		return res, nil
	}
	return nil, errors.Wrap(apperr.ErrRowNotFound, rowID)
}

func (f *fakeExplainService) ExplainSHAP(ctx context.Context, rowID string, useSummaryAlso bool) (*service.ExplainResult, error) {
	return f.ExplainLIME(ctx, rowID, useSummaryAlso)
}

func (f *fakeExplainService) ExplainTextLIME(ctx context.Context, text string) (*service.Explanation, error) {
	return &service.Explanation{Label: "pos"}, nil
}

func newExplainRouter(svc service.ExplainService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewExplainHandler(svc)
	r.POST("/xai/lime", h.LIME)
	r.POST("/xai/shap", h.SHAP)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLIMEHandlerSuccess(t *testing.T) {
	svc := &fakeExplainService{
		results: map[string]*service.ExplainResult{
			"ds-000001": {
				RowID: "ds-000001",
				FullText: service.Explanation{
					Label:        "pos",
					Attributions: []xai.Attribution{{Feature: "great", Weight: 0.8}},
				},
			},
		},
	}
	w := postJSON(t, newExplainRouter(svc), "/xai/lime", `{"line_id":"ds-000001","useSummaryAlso":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data service.ExplainResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.FullText.Label != "pos" || len(resp.Data.FullText.Attributions) != 1 {
		t.Errorf("unexpected payload: %+v", resp.Data)
	}
}

func TestLIMEHandlerStatusMapping(t *testing.T) {
	svc := &fakeExplainService{errs: map[string]error{
		"gone":   errors.Wrap(apperr.ErrRowNotFound, "gone"),
		"nosum":  errors.Wrap(apperr.ErrSummaryMissing, "nosum"),
		"down":   errors.Wrap(apperr.ErrSummaryServiceUnavailable, "down"),
		"slow":   errors.Wrap(apperr.ErrSummaryTimeout, "slow"),
		"broken": errors.Wrap(apperr.ErrExplainerError, "broken"),
	}}
	r := newExplainRouter(svc)

	cases := []struct {
		rowID string
		want  int
		kind  string
	}{
		{"gone", http.StatusNotFound, "RowNotFound"},
		{"nosum", http.StatusNotFound, "SummaryMissing"},
		{"down", http.StatusServiceUnavailable, "SummaryServiceUnavailable"},
		{"slow", http.StatusServiceUnavailable, "SummaryTimeout"},
		{"broken", http.StatusInternalServerError, "ExplainerError"},
	}
	for _, tc := range cases {
		w := postJSON(t, r, "/xai/lime", `{"line_id":"`+tc.rowID+`"}`)
		if w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.rowID, w.Code, tc.want)
		}
		if !strings.Contains(w.Body.String(), tc.kind) {
			t.Errorf("%s: body %q missing kind %s", tc.rowID, w.Body.String(), tc.kind)
		}
	}
}

func TestLIMEHandlerBadBody(t *testing.T) {
	r := newExplainRouter(&fakeExplainService{})
	for _, body := range []string{``, `{}`, `{"useSummaryAlso":true}`, `not json`} {
		w := postJSON(t, r, "/xai/lime", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestSHAPHandler(t *testing.T) {
	svc := &fakeExplainService{
		results: map[string]*service.ExplainResult{
			"ds-000002": {RowID: "ds-000002", FullText: service.Explanation{Label: "neg"}},
		},
	}
	w := postJSON(t, newExplainRouter(svc), "/xai/shap", `{"line_id":"ds-000002"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
