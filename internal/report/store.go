package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stream-uploader/internal/model"
	"stream-uploader/internal/s3"
)

// NewRun starts an empty report with a fresh id.
func NewRun(policy model.FailurePolicy, now time.Time) *model.RunReport {
	return &model.RunReport{
		ID:        uuid.NewString(),
		Policy:    policy,
		StartedAt: now,
		Items:     []model.UploadRecord{},
	}
}

// Store keeps run reports as JSON objects under a key prefix.
type Store struct {
	s3     s3.Client
	prefix string
}

func NewStore(c s3.Client, prefix string) *Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{s3: c, prefix: prefix}
}

func (s *Store) Key(id string) string {
	return s.prefix + id + ".json"
}

// Save writes the report and returns its key.
func (s *Store) Save(ctx context.Context, rep *model.RunReport) (string, error) {
	if rep.ID == "" {
		return "", fmt.Errorf("report has no id")
	}
	key := s.Key(rep.ID)
	if err := s.s3.WriteJSON(ctx, key, rep); err != nil {
		return "", fmt.Errorf("write report %s: %w", key, err)
	}
	return key, nil
}

func (s *Store) Load(ctx context.Context, id string) (*model.RunReport, bool, error) {
	var rep model.RunReport
	found, err := s.s3.ReadJSON(ctx, s.Key(id), &rep)
	if err != nil {
		return nil, false, fmt.Errorf("read report %s: %w", id, err)
	}
	if !found {
		return nil, false, nil
	}
	return &rep, true, nil
}
