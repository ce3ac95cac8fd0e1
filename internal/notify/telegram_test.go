package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBotAPI struct {
	mu   sync.Mutex
	sent []url.Values
	fail bool
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"uploader","username":"uploader_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.sent = append(f.sent, r.PostForm)
		if f.fail {
			_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":-100,"type":"channel"},"text":"ok"}}`)
	default:
		http.NotFound(w, r)
	}
}

func newFakeTelegram(t *testing.T, f *fakeBotAPI) *Telegram {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	tg, err := NewTelegramWithClient("123:abc", srv.URL+"/bot%s/%s", -100, srv.Client())
	require.NoError(t, err)
	return tg
}

func TestTelegramNotify(t *testing.T) {
	f := &fakeBotAPI{}
	tg := newFakeTelegram(t, f)

	require.NoError(t, tg.Notify(context.Background(), UploadedText("Test video", "https://src/a.mp4", "vid-1", "https://watch/vid-1")))

	require.Len(t, f.sent, 1)
	assert.Equal(t, "-100", f.sent[0].Get("chat_id"))
	assert.Contains(t, f.sent[0].Get("text"), "uid: vid-1")
	assert.Contains(t, f.sent[0].Get("text"), "preview: https://watch/vid-1")
}

func TestTelegramNotifyAPIError(t *testing.T) {
	f := &fakeBotAPI{fail: true}
	tg := newFakeTelegram(t, f)

	err := tg.Notify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramNotifyCanceled(t *testing.T) {
	f := &fakeBotAPI{}
	tg := newFakeTelegram(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tg.Notify(ctx, "hello"), context.Canceled)
	assert.Empty(t, f.sent)
}

func TestNewTelegramRequiresChat(t *testing.T) {
	_, err := NewTelegramWithClient("123:abc", "http://127.0.0.1:1/bot%s/%s", 0, http.DefaultClient)
	assert.Error(t, err)
}

func TestTexts(t *testing.T) {
	assert.Equal(t, "❌ clip failed\nsource: https://src/a.mp4\nerror: boom", FailedText("clip", "https://src/a.mp4", errors.New("boom")))
	assert.NoError(t, Nop{}.Notify(context.Background(), "ignored"))
}
