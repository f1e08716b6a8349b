package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeProber struct {
	err error
}

func (f *fakeProber) Ping(ctx context.Context) error {
	return f.err
}

func performStatus(t *testing.T, store, llm DependencyProber) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/status", NewHealthHandler(store, llm).Status)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestStatus_AllHealthy(t *testing.T) {
	body := performStatus(t, &fakeProber{}, &fakeProber{})

	if body["backend"] != "ok" || body["database"] != "ok" || body["llm"] != "ok" {
		t.Errorf("unexpected status body %v", body)
	}
}

func TestStatus_DegradedDependencies(t *testing.T) {
	body := performStatus(t,
		&fakeProber{err: errors.New("connection refused")},
		&fakeProber{err: errors.New("401 unauthorized")},
	)

	if body["backend"] != "ok" {
		t.Errorf("backend must report ok while responding, got %q", body["backend"])
	}
	if body["database"] != "error" {
		t.Errorf("expected database error, got %q", body["database"])
	}
	if body["llm"] != "error" {
		t.Errorf("expected llm error, got %q", body["llm"])
	}
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", NewHealthHandler(&fakeProber{}, &fakeProber{}).Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body %v", body)
	}
}
