package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"recipe-pipeline-service/model"

	"github.com/gin-gonic/gin"
)

type stubRunner struct {
	results []model.UploadResult
	err     error
	trigger string
}

func (s *stubRunner) Run(ctx context.Context, trigger string) ([]model.UploadResult, error) {
	s.trigger = trigger
	return s.results, s.err
}

func TestRunNow(t *testing.T) {
	gin.SetMode(gin.TestMode)

	runner := &stubRunner{results: []model.UploadResult{{Region: "Canadian", Uploaded: 4}}}
	r := gin.New()
	r.POST("/api/v1/pipeline/run", NewPipelineHandler(runner).RunNow)

	w := doRequest(r, "POST", "/api/v1/pipeline/run", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if runner.trigger != "manual" {
		t.Errorf("HTTP trigger should run with the manual label, got %q", runner.trigger)
	}
}

func TestRunNowSurfacesPipelineError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	runner := &stubRunner{err: errors.New("fetch stage exploded")}
	r := gin.New()
	r.POST("/api/v1/pipeline/run", NewPipelineHandler(runner).RunNow)

	w := doRequest(r, "POST", "/api/v1/pipeline/run", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
