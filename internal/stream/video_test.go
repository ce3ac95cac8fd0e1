package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream scripts one POST response followed by a sequence of GET responses.
type fakeStream struct {
	mu       sync.Mutex
	post     string
	gets     []string
	posts    int
	getPaths []string
	auth     []string
}

func (f *fakeStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	switch r.Method {
	case http.MethodPost:
		f.posts++
		writeJSON(w, http.StatusOK, f.post)
	case http.MethodGet:
		f.getPaths = append(f.getPaths, r.URL.Path)
		if len(f.getPaths) > len(f.gets) {
			writeJSON(w, http.StatusInternalServerError, `{"result":null,"success":false,"errors":["unexpected poll"],"messages":[]}`)
			return
		}
		writeJSON(w, http.StatusOK, f.gets[len(f.getPaths)-1])
	}
}

func videoEnvelope(uid string, ready bool) string {
	b, _ := json.Marshal(Envelope[Video]{
		Result:   &Video{UID: uid, Preview: "https://watch/" + uid, ReadyToStream: ready},
		Success:  true,
		Errors:   []Message{},
		Messages: []Message{},
	})
	return string(b)
}

func newScriptedClient(t *testing.T, f *fakeStream, opts func(*ClientBuilder)) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	b := NewClientBuilder().Token("tok").AccountID("acc").BaseURL(srv.URL)
	if opts != nil {
		opts(b)
	}
	c, err := b.Build()
	require.NoError(t, err)

	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return c, &sleeps
}

func TestUploadVideoPollsUntilReady(t *testing.T) {
	f := &fakeStream{
		post: videoEnvelope("vid-1", false),
		gets: []string{
			videoEnvelope("vid-1", false),
			videoEnvelope("vid-1", false),
			videoEnvelope("vid-1", true),
		},
	}
	var seen []int
	c, sleeps := newScriptedClient(t, f, func(b *ClientBuilder) {
		b.OnPoll(func(polls int, v Video) { seen = append(seen, polls) })
	})

	v, err := c.UploadVideo(context.Background(), VideoRequest{URL: "https://src/a.mp4", Meta: VideoMeta{Name: "Test video"}})
	require.NoError(t, err)

	assert.Equal(t, Video{UID: "vid-1", Preview: "https://watch/vid-1", ReadyToStream: true}, v)
	assert.Equal(t, 1, f.posts)
	assert.Len(t, f.getPaths, 3)
	assert.Equal(t, []time.Duration{PollInterval, PollInterval, PollInterval}, *sleeps)
	assert.Equal(t, []int{1, 2, 3}, seen)
	for _, a := range f.auth {
		assert.Equal(t, "Bearer: tok", a)
	}
}

func TestUploadVideoReadyImmediately(t *testing.T) {
	f := &fakeStream{post: videoEnvelope("vid-1", true)}
	c, sleeps := newScriptedClient(t, f, nil)

	v, err := c.UploadVideo(context.Background(), VideoRequest{URL: "https://src/a.mp4"})
	require.NoError(t, err)
	assert.True(t, v.ReadyToStream)
	assert.Empty(t, f.getPaths)
	assert.Empty(t, *sleeps)
}

func TestUploadVideoPollsOriginalUID(t *testing.T) {
	// Later responses report a different uid; polling must keep using the
	// one from the copy response.
	f := &fakeStream{
		post: videoEnvelope("orig", false),
		gets: []string{
			videoEnvelope("other-1", false),
			videoEnvelope("other-2", true),
		},
	}
	c, _ := newScriptedClient(t, f, nil)

	v, err := c.UploadVideo(context.Background(), VideoRequest{URL: "https://src/a.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "other-2", v.UID)
	assert.Equal(t, []string{"/accounts/acc/stream/orig", "/accounts/acc/stream/orig"}, f.getPaths)
}

func TestUploadVideoStopsOnFirstReady(t *testing.T) {
	f := &fakeStream{
		post: videoEnvelope("vid-1", false),
		gets: []string{
			videoEnvelope("vid-1", true),
			videoEnvelope("vid-1", false),
		},
	}
	c, _ := newScriptedClient(t, f, nil)

	_, err := c.UploadVideo(context.Background(), VideoRequest{URL: "https://src/a.mp4"})
	require.NoError(t, err)
	assert.Len(t, f.getPaths, 1)
}

func TestUploadVideoCopyRejected(t *testing.T) {
	f := &fakeStream{post: `{"result":null,"success":false,"errors":["bad url"],"messages":[]}`}
	c, sleeps := newScriptedClient(t, f, nil)

	_, err := c.UploadVideo(context.Background(), VideoRequest{URL: "nope"})
	require.Error(t, err)
	assert.True(t, IsProvider(err))
	assert.Contains(t, err.Error(), "bad url")
	assert.Empty(t, f.getPaths)
	assert.Empty(t, *sleeps)
}

func TestUploadVideoPollFailureAborts(t *testing.T) {
	f := &fakeStream{
		post: videoEnvelope("vid-1", false),
		gets: []string{
			videoEnvelope("vid-1", false),
			`{"result":null,"success":false,"errors":["video errored"],"messages":[]}`,
			videoEnvelope("vid-1", true),
		},
	}
	c, _ := newScriptedClient(t, f, nil)

	_, err := c.UploadVideo(context.Background(), VideoRequest{URL: "https://src/a.mp4"})
	require.Error(t, err)
	assert.True(t, IsProvider(err))
	assert.Contains(t, err.Error(), "poll vid-1")
	assert.Len(t, f.getPaths, 2)
}

func TestUploadVideoMaxPolls(t *testing.T) {
	f := &fakeStream{post: videoEnvelope("vid-1", false)}
	for i := 0; i < 5; i++ {
		f.gets = append(f.gets, videoEnvelope("vid-1", false))
	}
	c, _ := newScriptedClient(t, f, func(b *ClientBuilder) { b.MaxPolls(2) })

	v, err := c.UploadVideo(context.Background(), VideoRequest{URL: "https://src/a.mp4"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))
	assert.Equal(t, "vid-1", v.UID)
	assert.Len(t, f.getPaths, 2)
}

func TestUploadVideoCanceledWhileWaiting(t *testing.T) {
	f := &fakeStream{post: videoEnvelope("vid-1", false)}
	srv := httptest.NewServer(f)
	defer srv.Close()

	c, err := NewClientBuilder().Token("tok").AccountID("acc").BaseURL(srv.URL).Build()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.UploadVideo(ctx, VideoRequest{URL: "https://src/a.mp4"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), fmt.Sprint(err))
	assert.Empty(t, f.getPaths)
}
