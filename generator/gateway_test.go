package generator

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tidwall/gjson"
)

// fakeGateway is an OpenAI-compatible chat completions endpoint for tests.
// Handlers are chosen by the shape of the incoming request.
type fakeGateway struct {
	srv   *httptest.Server
	calls atomic.Int32

	mu      sync.Mutex
	bodies  []string
	headers []http.Header

	copyReply  func(body string) (int, string)
	imageReply func(body string) (int, string)
	titleReply func(body string) (int, string)
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	g := &fakeGateway{}
	g.srv = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *fakeGateway) URL() string { return g.srv.URL + "/v1" }

func (g *fakeGateway) serve(w http.ResponseWriter, r *http.Request) {
	g.calls.Add(1)
	raw, _ := io.ReadAll(r.Body)
	body := string(raw)
	g.mu.Lock()
	g.bodies = append(g.bodies, body)
	g.headers = append(g.headers, r.Header.Clone())
	g.mu.Unlock()

	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	var reply func(string) (int, string)
	switch {
	case gjson.Get(body, "tools").Exists():
		reply = g.copyReply
	case gjson.Get(body, "modalities").Exists():
		reply = g.imageReply
	case gjson.Get(body, "max_tokens").Exists():
		reply = g.titleReply
	}
	if reply == nil {
		http.Error(w, `{"error":{"message":"unexpected request"}}`, http.StatusBadRequest)
		return
	}
	status, payload := reply(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, payload)
}

func (g *fakeGateway) requests() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.bodies...)
}

func (g *fakeGateway) header(i int) http.Header {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.headers[i]
}

func chatJSON(message map[string]any) string {
	message["role"] = "assistant"
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "test-model",
		"choices": []any{map[string]any{"index": 0, "finish_reason": "stop", "message": message}},
	})
	return string(b)
}

func textReply(content string) func(string) (int, string) {
	return func(string) (int, string) {
		return http.StatusOK, chatJSON(map[string]any{"content": content})
	}
}

func toolReply(arguments string) func(string) (int, string) {
	return func(string) (int, string) {
		return http.StatusOK, chatJSON(map[string]any{
			"content": nil,
			"tool_calls": []any{map[string]any{
				"id":       "call_1",
				"type":     "function",
				"function": map[string]any{"name": creativeToolName, "arguments": arguments},
			}},
		})
	}
}

func imageReply(url string) func(string) (int, string) {
	return func(string) (int, string) {
		return http.StatusOK, chatJSON(map[string]any{
			"content": "",
			"images":  []any{map[string]any{"type": "image_url", "image_url": map[string]any{"url": url}}},
		})
	}
}

func statusReply(status int) func(string) (int, string) {
	return func(string) (int, string) {
		return status, `{"error":{"message":"upstream says no"}}`
	}
}

func creativesJSON(n int) string {
	items := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, map[string]any{
			"title":            "Variation",
			"headline":         "Cold brew, delivered",
			"primary_text":     "Fresh cold brew at your door every week.",
			"description_text": "Cancel anytime",
			"visual_prompt":    "Glass of cold brew on a walnut desk, morning light",
			"tags":             []string{"coffee", "subscription", "morning"},
		})
	}
	b, _ := json.Marshal(map[string]any{"message": "Here you go", "creatives": items})
	return string(b)
}
