package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyasprabhudev/Tranquil/internal/providers/llm"
)

// fakeBackend mimics the small slice of the Ollama HTTP API the client uses.
type fakeBackend struct {
	models    []string
	pullFails bool
	pulls     int
	chats     int

	chatContent string
	chatStatus  int
	chatDelay   time.Duration
	lastChatReq api.ChatRequest
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"version":"0.5.7"}`)
	})

	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		type tag struct {
			Name string `json:"name"`
		}
		var tags []tag
		for _, m := range f.models {
			tags = append(tags, tag{Name: m})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": tags})
	})

	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		f.pulls++
		if f.pullFails {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"pull exploded"}`)
			return
		}
		fmt.Fprintln(w, `{"status":"pulling manifest"}`)
		fmt.Fprintln(w, `{"status":"success"}`)
	})

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		f.chats++
		_ = json.NewDecoder(r.Body).Decode(&f.lastChatReq)

		if f.chatDelay > 0 {
			time.Sleep(f.chatDelay)
		}
		if f.chatStatus != 0 && f.chatStatus != http.StatusOK {
			w.WriteHeader(f.chatStatus)
			fmt.Fprint(w, `{"error":"chat exploded"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "phi3",
			"message": map[string]string{"role": "assistant", "content": f.chatContent},
			"done":    true,
		})
	})

	// Heartbeat probes the root.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Ollama is running")
	})

	return mux
}

func newBackend(t *testing.T, f *fakeBackend) *llm.Ollama {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	o, err := llm.NewOllama(srv.URL, "phi3", nil)
	require.NoError(t, err)
	return o
}

func TestEnsureModelAlreadyPresent(t *testing.T) {
	f := &fakeBackend{models: []string{"phi3:latest"}}
	o := newBackend(t, f)

	require.NoError(t, o.EnsureModel(context.Background()))
	assert.Zero(t, f.pulls, "present model must not be pulled")
}

func TestEnsureModelPullsWhenAbsent(t *testing.T) {
	f := &fakeBackend{models: []string{"llama3:latest"}}
	o := newBackend(t, f)

	require.NoError(t, o.EnsureModel(context.Background()))
	assert.Equal(t, 1, f.pulls)
}

func TestEnsureModelPullFailure(t *testing.T) {
	f := &fakeBackend{pullFails: true}
	o := newBackend(t, f)

	err := o.EnsureModel(context.Background())
	require.ErrorIs(t, err, llm.ErrModelPull)
	assert.Zero(t, f.chats, "no inference may happen after a failed pull")
}

func TestEnsureModelServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	o, err := llm.NewOllama(srv.URL, "phi3", nil)
	require.NoError(t, err)

	err = o.EnsureModel(context.Background())
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestChatReturnsReply(t *testing.T) {
	f := &fakeBackend{chatContent: "Hello there"}
	o := newBackend(t, f)

	history := []llm.Turn{
		{Role: llm.RoleSystem, Content: "be kind"},
		{Role: llm.RoleUser, Content: "hi"},
	}
	reply, err := o.Chat(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", reply)

	// Full ordered history goes over the wire, stream disabled.
	require.Len(t, f.lastChatReq.Messages, 2)
	assert.Equal(t, "system", f.lastChatReq.Messages[0].Role)
	assert.Equal(t, "hi", f.lastChatReq.Messages[1].Content)
	assert.Equal(t, "phi3", f.lastChatReq.Model)
	require.NotNil(t, f.lastChatReq.Stream)
	assert.False(t, *f.lastChatReq.Stream)

	// The caller's slice is untouched.
	assert.Len(t, history, 2)
}

func TestChatTimeout(t *testing.T) {
	f := &fakeBackend{chatContent: "late", chatDelay: 300 * time.Millisecond}
	o := newBackend(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := o.Chat(ctx, []llm.Turn{{Role: llm.RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, llm.ErrTimeout)
}

func TestChatEmptyReplyIsProtocolError(t *testing.T) {
	f := &fakeBackend{chatContent: ""}
	o := newBackend(t, f)

	_, err := o.Chat(context.Background(), []llm.Turn{{Role: llm.RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, llm.ErrProtocol)
}

func TestChatServerErrorIsUnavailable(t *testing.T) {
	f := &fakeBackend{chatStatus: http.StatusInternalServerError}
	o := newBackend(t, f)

	_, err := o.Chat(context.Background(), []llm.Turn{{Role: llm.RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}
