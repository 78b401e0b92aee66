package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumir-agentic-be/pkg/httpx"
	"lumir-agentic-be/pkg/llm"
)

func newTestProvider(url string) *GatewayProvider {
	client := httpx.New(httpx.ShortTimeouts(), httpx.WithRetries(0), httpx.WithBackoff(time.Millisecond))
	return NewGatewayProvider(url, "test-model", client)
}

func TestChatParsesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": true, "result": {"content": "the answer"}}`))
	}))
	defer srv.Close()

	got, err := newTestProvider(srv.URL).Chat(context.Background(), []llm.Message{{Role: "user", Content: "q"}})
	require.NoError(t, err)
	assert.Equal(t, "the answer", got)
}

func TestChatSurfacesRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": false, "error": "model overloaded"}`))
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Chat(context.Background(), []llm.Message{{Role: "user", Content: "q"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

// Consumers drain the text channel and then block on the error channel, so
// a finished stream must close both.
func TestChatStreamClosesBothChannelsAfterSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, piece := range []string{"hello", " ", "world"} {
			w.Write([]byte(piece))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	textCh, errCh := newTestProvider(srv.URL).ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "q"}})

	var full strings.Builder
	for fragment := range textCh {
		full.WriteString(fragment)
	}
	assert.Equal(t, "hello world", full.String())

	select {
	case err, open := <-errCh:
		assert.NoError(t, err)
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("error channel not closed after successful stream")
	}
}

func TestChatStreamReportsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("gateway exploded"))
	}))
	defer srv.Close()

	textCh, errCh := newTestProvider(srv.URL).ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "q"}})

	for range textCh {
	}

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gateway exploded")
	case <-time.After(time.Second):
		t.Fatal("error channel yielded nothing after upstream failure")
	}
}
