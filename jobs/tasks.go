package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportRender renders a leads report outside the request cycle.
	TaskReportRender = "report:render"
)

// ReportRenderPayload identifies the dataset rows a report covers.
type ReportRenderPayload struct {
	ReportID          string `json:"report_id"`
	DatasetID         string `json:"dataset_id"`
	Rows              []int  `json:"rows"`
	IncludeNarratives bool   `json:"include_narratives"`
}

// NewReportRenderTask constructs an Asynq task.
func NewReportRenderTask(payload ReportRenderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportRender, data, asynq.MaxRetry(2), asynq.Timeout(15*time.Minute)), nil
}
