package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// FailurePolicy decides what a batch does after one upload fails.
type FailurePolicy string

const (
	// FailurePolicyAbort stops the batch at the first failed upload.
	FailurePolicyAbort FailurePolicy = "abort"
	// FailurePolicyContinue records the failure and moves on to the next URL.
	FailurePolicyContinue FailurePolicy = "continue"
)

// ParseFailurePolicy accepts "abort" or "continue" (any case). Empty means abort.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailurePolicyAbort:
		return FailurePolicyAbort, nil
	case FailurePolicyContinue:
		return FailurePolicyContinue, nil
	}
	return "", fmt.Errorf("unknown failure policy %q (want abort or continue)", s)
}

type UploadRecord struct {
	SourceURL  string    `json:"source_url"`
	Name       string    `json:"name"`
	UID        string    `json:"uid,omitempty"`
	Preview    string    `json:"preview,omitempty"`
	Ready      bool      `json:"ready"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Failed reports whether the upload ended with an error.
func (r UploadRecord) Failed() bool { return r.Error != "" }

type RunReport struct {
	ID         string         `json:"id"`
	Policy     FailurePolicy  `json:"policy"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Items      []UploadRecord `json:"items"`
}

// Counts returns how many uploads in the report succeeded and failed.
func (r *RunReport) Counts() (succeeded, failed int) {
	failed = lo.CountBy(r.Items, UploadRecord.Failed)
	return len(r.Items) - failed, failed
}
