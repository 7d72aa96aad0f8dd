package handler

import (
	"context"
	"net/http"

	"recipe-pipeline-service/model"

	"github.com/gin-gonic/gin"
)

// PipelineRunner is the slice of the pipeline the handler needs.
// *pipeline.Pipeline satisfies it.
type PipelineRunner interface {
	Run(ctx context.Context, trigger string) ([]model.UploadResult, error)
}

type PipelineHandler struct {
	runner PipelineRunner
}

func NewPipelineHandler(runner PipelineRunner) *PipelineHandler {
	return &PipelineHandler{runner: runner}
}

// RunNow triggers a full pipeline run synchronously and returns the
// per-region summary.
func (h *PipelineHandler) RunNow(c *gin.Context) {
	results, err := h.runner.Run(c.Request.Context(), "manual")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Manual run complete",
		"results": results,
	})
}
