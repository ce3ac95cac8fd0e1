package uploaders

import (
	"context"
	"strings"

	"github.com/samber/lo"
)

// UploadResult represents the result of an upload operation
type UploadResult struct {
	Success  bool              `json:"success"`
	Platform string            `json:"platform"`
	VideoID  string            `json:"video_id,omitempty"`
	URL      string            `json:"url,omitempty"`
	Ready    bool              `json:"ready"`
	Error    string            `json:"error,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

// UploadRequest represents a request to upload a video from a remote URL
type UploadRequest struct {
	SourceURL string
	Name      string
}

// Uploader is an interface for uploading videos to a hosting platform
type Uploader interface {
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)
	Platform() string
}

// BuildRequests turns video URL arguments into upload requests, skipping
// blank entries. Every request gets the same display name.
func BuildRequests(urls []string, name string) []UploadRequest {
	return lo.FilterMap(urls, func(u string, _ int) (UploadRequest, bool) {
		u = strings.TrimSpace(u)
		return UploadRequest{SourceURL: u, Name: name}, u != ""
	})
}
