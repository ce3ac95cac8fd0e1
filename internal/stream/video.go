package stream

import (
	"context"
	"fmt"
	"time"
)

// PollInterval is the fixed pause between readiness checks.
const PollInterval = time.Second

type VideoRequest struct {
	URL  string    `json:"url"`
	Meta VideoMeta `json:"meta"`
}

type VideoMeta struct {
	Name string `json:"name"`
}

type Video struct {
	UID           string `json:"uid"`
	Preview       string `json:"preview"`
	ReadyToStream bool   `json:"readyToStream"`
}

// UploadVideo asks the API to copy req.URL into the account, then polls the
// new asset every PollInterval until it is ready to stream. Without a poll
// limit it waits for as long as the video takes; only ctx can stop it.
func (c *Client) UploadVideo(ctx context.Context, req VideoRequest) (Video, error) {
	video, err := Post[Video](ctx, c, c.streamURL("copy"), req)
	if err != nil {
		return Video{}, fmt.Errorf("copy %s: %w", req.URL, err)
	}
	uid := video.UID

	for polls := 0; !video.ReadyToStream; {
		if c.maxPolls > 0 && polls >= c.maxPolls {
			return video, fmt.Errorf("%w: %s after %d polls", ErrNotReady, uid, polls)
		}
		if err := c.sleep(ctx, PollInterval); err != nil {
			return Video{}, fmt.Errorf("wait for %s: %w", uid, err)
		}
		polls++

		video, err = c.GetVideo(ctx, uid)
		if err != nil {
			return Video{}, fmt.Errorf("poll %s: %w", uid, err)
		}
		if c.onPoll != nil {
			c.onPoll(polls, video)
		}
	}
	return video, nil
}

// GetVideo fetches the current state of a video.
func (c *Client) GetVideo(ctx context.Context, uid string) (Video, error) {
	return Get[Video](ctx, c, c.streamURL(uid))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
