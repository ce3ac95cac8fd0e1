package uploaders

import (
	"context"
	"fmt"

	"stream-uploader/internal/stream"
)

// VideoCopier is the part of stream.Client the uploader needs.
type VideoCopier interface {
	UploadVideo(ctx context.Context, req stream.VideoRequest) (stream.Video, error)
}

// StreamUploader copies remote videos into a Cloudflare Stream account and
// waits until they can be played.
type StreamUploader struct {
	client VideoCopier
}

func NewStreamUploader(client VideoCopier) *StreamUploader {
	return &StreamUploader{client: client}
}

// Platform returns the platform name
func (s *StreamUploader) Platform() string {
	return "stream"
}

func (s *StreamUploader) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if req.SourceURL == "" {
		return &UploadResult{
			Success:  false,
			Platform: s.Platform(),
			Error:    "Missing source URL",
		}, fmt.Errorf("source URL is empty")
	}

	video, err := s.client.UploadVideo(ctx, stream.VideoRequest{
		URL:  req.SourceURL,
		Meta: stream.VideoMeta{Name: req.Name},
	})
	if err != nil {
		return &UploadResult{
			Success:  false,
			Platform: s.Platform(),
			VideoID:  video.UID,
			Error:    err.Error(),
			Details:  errorDetails(err),
		}, err
	}

	return &UploadResult{
		Success:  true,
		Platform: s.Platform(),
		VideoID:  video.UID,
		URL:      video.Preview,
		Ready:    video.ReadyToStream,
		Details: map[string]string{
			"name":   req.Name,
			"source": req.SourceURL,
		},
	}, nil
}

func errorDetails(err error) map[string]string {
	switch {
	case stream.IsProvider(err):
		return map[string]string{"kind": "provider"}
	case stream.IsTransport(err):
		return map[string]string{"kind": "transport"}
	}
	return map[string]string{"kind": "other"}
}
