package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTelegram(t *testing.T, handler http.HandlerFunc) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.BaseURL = srv.URL
	tn.Client = srv.Client()
	tn.Backoff = time.Millisecond
	return tn
}

func TestTelegramNotifier_Dispatch(t *testing.T) {
	var payload map[string]string
	var path string
	tn := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, tn.Dispatch(context.Background(), testBatch()))
	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, "42", payload["chat_id"])
	assert.Equal(t, "HTML", payload["parse_mode"])
	assert.Contains(t, payload["text"], "Large Price Movement")
}

func TestTelegramNotifier_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	tn := newTestTelegram(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, tn.Dispatch(context.Background(), testBatch()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestTelegramNotifier_GivesUp(t *testing.T) {
	var calls atomic.Int32
	tn := newTestTelegram(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	})
	tn.MaxRetries = 1

	err := tn.Dispatch(context.Background(), testBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, int32(2), calls.Load())
}

func TestTelegramNotifier_Polling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		replies []string
		served  atomic.Bool
	)
	tn := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if served.Swap(true) {
				w.Write([]byte(`{"ok":true,"result":[]}`))
				return
			}
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":"/status","chat":{"id":99}}},
				{"update_id":8,"message":{"text":" /status ","chat":{"id":42}}}
			]}`))
		case "/botTOKEN/sendMessage":
			var p map[string]string
			json.NewDecoder(r.Body).Decode(&p)
			mu.Lock()
			replies = append(replies, p["text"])
			mu.Unlock()
			w.Write([]byte(`{"ok":true}`))
			cancel()
		}
	})

	var commands []string
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(_ context.Context, cmd string) string {
			commands = append(commands, cmd)
			return "all good"
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, []string{"/status"}, commands, "messages from other chats are ignored")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"all good"}, replies)
}
