package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/prospector/internal/dataset"
	jobmetrics "github.com/odyssey-erp/prospector/internal/jobs"
	"github.com/odyssey-erp/prospector/internal/leads"
	"github.com/odyssey-erp/prospector/jobs"
)

// DatasetLoader resolves the dataset a report job refers to.
type DatasetLoader interface {
	Get(ctx context.Context, id string) (dataset.Dataset, error)
}

// ResultWriter records the outcome of an asynchronous report.
type ResultWriter interface {
	SaveReady(ctx context.Context, id, fileName string, pdf []byte) error
	MarkFailed(ctx context.Context, id string, cause error) error
}

// JobConfig wires dependencies required by the worker job.
type JobConfig struct {
	Service  *Service
	Datasets DatasetLoader
	Results  ResultWriter
	Metrics  *jobmetrics.Metrics
	Logger   *slog.Logger
}

// Job processes report rendering requests coming from the queue.
type Job struct {
	service  *Service
	datasets DatasetLoader
	results  ResultWriter
	metrics  *jobmetrics.Metrics
	logger   *slog.Logger
}

// NewJob constructs a Job handler.
func NewJob(cfg JobConfig) *Job {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{service: cfg.Service, datasets: cfg.Datasets, results: cfg.Results, metrics: cfg.Metrics, logger: logger}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *Job) Handle(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.service == nil || j.datasets == nil || j.results == nil {
		return errors.New("report job not configured")
	}
	var payload jobs.ReportRenderPayload
	decodeErr := json.Unmarshal(task.Payload(), &payload)
	if payload.ReportID == "" {
		// Reports are enqueued with their ID as the task ID.
		payload.ReportID, _ = asynq.GetTaskID(ctx)
	}
	if decodeErr != nil || payload.ReportID == "" {
		cause := decodeErr
		if cause == nil {
			cause = errors.New("report job: missing report id")
		}
		if payload.ReportID != "" {
			j.fail(ctx, j.logger.With(slog.String("report_id", payload.ReportID)), payload.ReportID, cause)
		}
		return fmt.Errorf("%w: %v", asynq.SkipRetry, cause)
	}
	tracker := j.metrics.Track(jobs.TaskReportRender)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger.With(slog.String("report_id", payload.ReportID), slog.String("dataset_id", payload.DatasetID))
	ds, err := j.datasets.Get(ctx, payload.DatasetID)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			j.fail(ctx, logger, payload.ReportID, err)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}
	selected := leads.SelectRows(ds.Records, payload.Rows)
	if len(selected) == 0 {
		j.fail(ctx, logger, payload.ReportID, ErrEmptySelection)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, ErrEmptySelection)
	}
	result, err := j.service.Generate(ctx, Request{Records: selected, IncludeNarratives: payload.IncludeNarratives})
	if err != nil {
		if lastAttempt(ctx) {
			j.fail(ctx, logger, payload.ReportID, err)
		}
		return err
	}
	if err := j.results.SaveReady(ctx, payload.ReportID, result.FileName, result.PDF); err != nil {
		if lastAttempt(ctx) {
			j.fail(ctx, logger, payload.ReportID, err)
		}
		return err
	}
	logger.Info("report ready", slog.Int("companies", len(selected)), slog.String("file", result.FileName))
	return nil
}

func (j *Job) fail(ctx context.Context, logger *slog.Logger, id string, cause error) {
	logger.Warn("report failed", slog.Any("error", cause))
	if err := j.results.MarkFailed(ctx, id, cause); err != nil {
		logger.Error("mark report failed", slog.Any("error", err))
	}
}

func lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return false
	}
	limit, ok := asynq.GetMaxRetry(ctx)
	return ok && retried >= limit
}
