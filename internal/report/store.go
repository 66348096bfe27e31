package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrResultNotFound is returned for unknown or expired report IDs.
var ErrResultNotFound = errors.New("report: result not found")

// Result states.
const (
	StatusPending = "pending"
	StatusReady   = "ready"
	StatusFailed  = "failed"
)

// Status describes an asynchronous report.
type Status struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	FileName string `json:"file_name,omitempty"`
	Error    string `json:"error,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// ResultStore keeps asynchronous report outcomes in Redis until they expire.
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultStore constructs a ResultStore.
func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResultStore{client: client, ttl: ttl}
}

func statusKey(id string) string { return "prospector:report:" + id }
func pdfKey(id string) string    { return "prospector:report:" + id + ":pdf" }

// MarkPending records a freshly enqueued report.
func (s *ResultStore) MarkPending(ctx context.Context, id string) error {
	return s.writeStatus(ctx, id, map[string]any{"state": StatusPending})
}

// MarkFailed records a terminal failure.
func (s *ResultStore) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.writeStatus(ctx, id, map[string]any{"state": StatusFailed, "error": msg})
}

// SaveReady stores the PDF and flips the status to ready.
func (s *ResultStore) SaveReady(ctx context.Context, id, fileName string, pdf []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, pdfKey(id), pdf, s.ttl)
	pipe.HSet(ctx, statusKey(id), map[string]any{"state": StatusReady, "file_name": fileName, "size": len(pdf), "error": ""})
	pipe.Expire(ctx, statusKey(id), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("report: save result: %w", err)
	}
	return nil
}

func (s *ResultStore) writeStatus(ctx context.Context, id string, fields map[string]any) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, statusKey(id), fields)
	pipe.Expire(ctx, statusKey(id), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("report: write status: %w", err)
	}
	return nil
}

// Status reads the current status of id.
func (s *ResultStore) Status(ctx context.Context, id string) (Status, error) {
	values, err := s.client.HGetAll(ctx, statusKey(id)).Result()
	if err != nil {
		return Status{}, fmt.Errorf("report: read status: %w", err)
	}
	if len(values) == 0 {
		return Status{}, ErrResultNotFound
	}
	st := Status{ID: id, State: values["state"], FileName: values["file_name"], Error: values["error"]}
	if raw := values["size"]; raw != "" {
		_, _ = fmt.Sscan(raw, &st.Size)
	}
	return st, nil
}

// PDF returns the stored document for a ready report.
func (s *ResultStore) PDF(ctx context.Context, id string) ([]byte, error) {
	pdf, err := s.client.Get(ctx, pdfKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("report: read pdf: %w", err)
	}
	return pdf, nil
}
