// Package dataset keeps the annotated workbook of each dashboard session in Redis.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/prospector/internal/leads"
)

// ErrNotFound is returned for unknown or expired datasets.
var ErrNotFound = errors.New("dataset: not found")

// Dataset is the annotated result of one successful workbook load.
type Dataset struct {
	ID       string                  `json:"id"`
	FileName string                  `json:"file_name"`
	Sheet    string                  `json:"sheet"`
	LoadedAt time.Time               `json:"loaded_at"`
	Skipped  int                     `json:"skipped"`
	Records  []leads.AnnotatedRecord `json:"records"`
}

// Store persists datasets as JSON blobs with a sliding TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore constructs a Store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Store{client: client, ttl: ttl, now: time.Now}
}

func key(id string) string {
	return "prospector:dataset:" + id
}

// Save assigns an ID and stores records.
func (s *Store) Save(ctx context.Context, fileName, sheet string, skipped int, records []leads.AnnotatedRecord) (Dataset, error) {
	ds := Dataset{
		ID:       uuid.NewString(),
		FileName: fileName,
		Sheet:    sheet,
		LoadedAt: s.now().UTC(),
		Skipped:  skipped,
		Records:  records,
	}
	raw, err := json.Marshal(ds)
	if err != nil {
		return Dataset{}, fmt.Errorf("dataset: encode: %w", err)
	}
	if err := s.client.Set(ctx, key(ds.ID), raw, s.ttl).Err(); err != nil {
		return Dataset{}, fmt.Errorf("dataset: save: %w", err)
	}
	return ds, nil
}

// Get loads a dataset and refreshes its TTL.
func (s *Store) Get(ctx context.Context, id string) (Dataset, error) {
	if id == "" {
		return Dataset{}, ErrNotFound
	}
	raw, err := s.client.GetEx(ctx, key(id), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return Dataset{}, ErrNotFound
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("dataset: load: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return Dataset{}, fmt.Errorf("dataset: decode: %w", err)
	}
	return ds, nil
}

// Delete forgets a dataset. Missing datasets are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, key(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("dataset: delete: %w", err)
	}
	return nil
}
