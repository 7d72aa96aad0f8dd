package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"recipe-pipeline-service/config"
	"recipe-pipeline-service/model"
	"recipe-pipeline-service/pipeline"
	"recipe-pipeline-service/retention"

	"github.com/nats-io/nats.go"
)

const (
	subjectPipelineRequest  = "recipes.pipeline.request"
	subjectPipelineResult   = "recipes.pipeline.result"
	subjectRetentionRequest = "recipes.retention.request"
	subjectRetentionResult  = "recipes.retention.result"
)

// Worker consumes pipeline and retention requests from JetStream and runs
// an in-process scheduler that publishes both daily.
type Worker struct {
	config     *config.Config
	nc         *nats.Conn
	js         nats.JetStreamContext
	pipeline   *pipeline.Pipeline
	calculator *retention.Calculator
}

func NewWorker(cfg *config.Config, nc *nats.Conn, p *pipeline.Pipeline, calc *retention.Calculator) (*Worker, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}

	if err := setupStreams(js); err != nil {
		return nil, err
	}

	return &Worker{
		config:     cfg,
		nc:         nc,
		js:         js,
		pipeline:   p,
		calculator: calc,
	}, nil
}

func (w *Worker) Start(ctx context.Context) error {
	_, err := w.js.Subscribe(subjectPipelineRequest, w.handlePipelineRequest,
		nats.Durable("recipe-pipeline-workers"),
		nats.ManualAck(),
		nats.MaxAckPending(1),
	)
	if err != nil {
		return err
	}

	_, err = w.js.Subscribe(subjectRetentionRequest, w.handleRetentionRequest,
		nats.Durable("retention-workers"),
		nats.ManualAck(),
		nats.MaxAckPending(1),
	)
	if err != nil {
		return err
	}

	go w.startScheduler(ctx)

	log.Println("Workers started successfully")

	<-ctx.Done()
	return ctx.Err()
}

func (w *Worker) handlePipelineRequest(msg *nats.Msg) {
	var req model.PipelineRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Printf("Failed to unmarshal pipeline request: %v", err)
		msg.Nak()
		return
	}

	log.Printf("Processing pipeline request: trigger=%s, requestID=%s", req.Trigger, req.RequestID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result := model.PipelineResult{RequestID: req.RequestID, Finished: time.Now()}

	results, err := w.pipeline.Run(ctx, req.Trigger)
	if err != nil {
		log.Printf("Pipeline run failed: %v", err)
		result.Error = err.Error()
		w.publish(subjectPipelineResult, result)
		msg.Nak()
		return
	}

	result.Success = true
	result.Results = results
	w.publish(subjectPipelineResult, result)
	msg.Ack()
}

func (w *Worker) handleRetentionRequest(msg *nats.Msg) {
	var req model.RetentionRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Printf("Failed to unmarshal retention request: %v", err)
		msg.Nak()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var err error
	var result *model.RetentionMetrics
	if req.CohortDate != "" {
		result, err = w.calculator.Run(ctx, req.CohortDate)
	} else {
		result, err = w.calculator.RunScheduled(ctx)
	}
	if err != nil {
		log.Printf("Retention run failed: %v", err)
		msg.Nak()
		return
	}

	if result != nil {
		w.publish(subjectRetentionResult, result)
	}
	msg.Ack()
}

func (w *Worker) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal result for %s: %v", subject, err)
		return
	}
	if _, err := w.js.Publish(subject, data); err != nil {
		log.Printf("Failed to publish to %s: %v", subject, err)
	}
}

func (w *Worker) startScheduler(ctx context.Context) {
	pipelineTicker := time.NewTicker(w.config.PipelineInterval)
	retentionTicker := time.NewTicker(w.config.RetentionInterval)
	defer pipelineTicker.Stop()
	defer retentionTicker.Stop()

	// Kick off an ingestion run on startup.
	w.SchedulePipelineRun("schedule")

	for {
		select {
		case <-ctx.Done():
			return
		case <-pipelineTicker.C:
			w.SchedulePipelineRun("schedule")
		case <-retentionTicker.C:
			w.ScheduleRetentionRun("")
		}
	}
}

// SchedulePipelineRun enqueues a pipeline run request.
func (w *Worker) SchedulePipelineRun(trigger string) {
	req := model.PipelineRequest{
		Trigger:   trigger,
		RequestID: generateRequestID("pipeline"),
		Requested: time.Now(),
	}

	data, err := json.Marshal(req)
	if err != nil {
		log.Printf("Failed to marshal pipeline request: %v", err)
		return
	}

	if _, err := w.js.Publish(subjectPipelineRequest, data); err != nil {
		log.Printf("Failed to schedule pipeline run: %v", err)
	} else {
		log.Printf("Scheduled pipeline run %s", req.RequestID)
	}
}

// ScheduleRetentionRun enqueues a retention run, optionally for a
// specific cohort date.
func (w *Worker) ScheduleRetentionRun(cohortDate string) {
	req := model.RetentionRequest{
		CohortDate: cohortDate,
		RequestID:  generateRequestID("retention"),
		Requested:  time.Now(),
	}

	data, err := json.Marshal(req)
	if err != nil {
		log.Printf("Failed to marshal retention request: %v", err)
		return
	}

	if _, err := w.js.Publish(subjectRetentionRequest, data); err != nil {
		log.Printf("Failed to schedule retention run: %v", err)
	} else {
		log.Printf("Scheduled retention run %s", req.RequestID)
	}
}

func generateRequestID(kind string) string {
	return kind + "-" + time.Now().Format("20060102-150405")
}

func setupStreams(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      "RECIPE_JOBS",
		Subjects:  []string{"recipes.>"},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		return err
	}

	log.Println("NATS streams configured successfully")
	return nil
}
