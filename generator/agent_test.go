package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestAgent(t *testing.T, g *fakeGateway, defaultKey, altKey string) *Agent {
	t.Helper()
	router := NewRouter(RouterSettings{
		Default:         Gateway{BaseURL: g.URL(), APIKey: defaultKey},
		Alternate:       Gateway{BaseURL: g.URL(), APIKey: altKey, Headers: map[string]string{"X-Title": "Creative Studio"}},
		AlternatePrefix: "openrouter/",
		DefaultModel:    "google/gemini-2.5-flash",
		ImageCapable:    []string{"google/gemini-2.5-flash-image-preview"},
	})
	agent, err := NewAgent(NewOpenAILLM(LLMSettings{}, g.srv.Client()), AgentSettings{
		Router: router,
		Images: SynthSettings{Model: "google/gemini-2.5-flash-image-preview", Timeout: 2 * time.Second},
	})
	require.NoError(t, err)
	return agent
}

func TestGenerateCreativeSetWithImages(t *testing.T) {
	g := newFakeGateway(t)
	g.copyReply = toolReply(creativesJSON(3))
	g.imageReply = imageReply("data:image/png;base64,AAAA")
	agent := newTestAgent(t, g, "key", "")

	out, err := agent.Generate(context.Background(), Request{
		Prompt:         "three ads for a cold-brew subscription",
		GenerateImages: true,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreativeSet, out.Type)
	require.Len(t, out.Creatives, 3)
	for _, c := range out.Creatives {
		assert.Equal(t, "data:image/png;base64,AAAA", c.ImageData)
		assert.Empty(t, c.ImageNote)
	}
	// one copy call plus one image call per creative
	assert.Equal(t, int32(4), g.calls.Load())

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(raw, "type").Exists())
	assert.Equal(t, int64(3), gjson.GetBytes(raw, "creatives.#").Int())
}

func TestGenerateCapsImageTasks(t *testing.T) {
	g := newFakeGateway(t)
	g.copyReply = toolReply(creativesJSON(5))
	g.imageReply = imageReply("https://img.example/1.png")
	agent := newTestAgent(t, g, "key", "")

	out, err := agent.Generate(context.Background(), Request{Prompt: "five ads", GenerateImages: true})
	require.NoError(t, err)
	require.Len(t, out.Creatives, 5)
	assert.Equal(t, int32(1+DefaultImageCap), g.calls.Load())
	for i, c := range out.Creatives {
		if i < DefaultImageCap {
			assert.NotEmpty(t, c.ImageData, "creative %d", i)
			continue
		}
		assert.Empty(t, c.ImageData, "creative %d", i)
		assert.Empty(t, c.ImageNote, "creative %d", i)
	}
}

func TestGenerateSkipsImagesWhenDisabled(t *testing.T) {
	g := newFakeGateway(t)
	g.copyReply = toolReply(creativesJSON(2))
	agent := newTestAgent(t, g, "key", "")

	out, err := agent.Generate(context.Background(), Request{Prompt: "two ads", GenerateImages: false})
	require.NoError(t, err)
	require.Len(t, out.Creatives, 2)
	assert.Equal(t, int32(1), g.calls.Load())
}

func TestGenerateImageFailureStaysOnCreative(t *testing.T) {
	g := newFakeGateway(t)
	g.copyReply = toolReply(creativesJSON(3))
	g.imageReply = statusReply(http.StatusInternalServerError)
	agent := newTestAgent(t, g, "key", "")

	out, err := agent.Generate(context.Background(), Request{Prompt: "ads", GenerateImages: true})
	require.NoError(t, err)
	require.Len(t, out.Creatives, 3)
	for _, c := range out.Creatives {
		assert.Empty(t, c.ImageData)
		assert.Contains(t, c.ImageNote, "Image generation failed")
		assert.Equal(t, "Cold brew, delivered", c.Headline)
	}
}

func TestGenerateMissingCredentialMakesNoCalls(t *testing.T) {
	g := newFakeGateway(t)
	g.copyReply = toolReply(creativesJSON(1))
	agent := newTestAgent(t, g, "", "")

	for _, model := range []string{"", "google/gemini-2.5-flash", "openrouter/anthropic/claude-sonnet-4"} {
		_, err := agent.Generate(context.Background(), Request{Prompt: "ads", Model: model, GenerateImages: true})
		require.Error(t, err, model)
		assert.Equal(t, KindConfiguration, KindOf(err), model)
	}
	assert.Equal(t, int32(0), g.calls.Load())
}

func TestGenerateAlternateRoute(t *testing.T) {
	g := newFakeGateway(t)
	g.copyReply = textReply("Happy to help. What product are we advertising?")
	agent := newTestAgent(t, g, "", "alt-key")

	out, err := agent.Generate(context.Background(), Request{Prompt: "hi", Model: "openrouter/anthropic/claude-sonnet-4"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConversation, out.Type)

	reqs := g.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "anthropic/claude-sonnet-4", gjson.Get(reqs[0], "model").String())
	assert.Equal(t, "Bearer alt-key", g.header(0).Get("Authorization"))
	assert.Equal(t, "Creative Studio", g.header(0).Get("X-Title"))
}

func TestGenerateMalformedArgumentsDegrade(t *testing.T) {
	g := newFakeGateway(t)
	g.copyReply = toolReply(`{"creatives": [{"headline": "broken"`)
	agent := newTestAgent(t, g, "key", "")

	out, err := agent.Generate(context.Background(), Request{Prompt: "ads", GenerateImages: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConversation, out.Type)
	assert.Equal(t, ClarifyMessage, out.Message)
	assert.Empty(t, out.Creatives)
	assert.Equal(t, int32(1), g.calls.Load())
}

func TestGenerateEmptyResponseClarifies(t *testing.T) {
	g := newFakeGateway(t)
	g.copyReply = textReply("")
	agent := newTestAgent(t, g, "key", "")

	out, err := agent.Generate(context.Background(), Request{Prompt: "??", IsFirstMessage: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConversation, out.Type)
	assert.Equal(t, ClarifyMessage, out.Message)
	assert.Empty(t, out.SuggestedTitle)
}

func TestGenerateTitleOnlyOnFirstMessage(t *testing.T) {
	g := newFakeGateway(t)
	g.copyReply = textReply("Sure, tell me about your audience.")
	g.titleReply = textReply("**Cold Brew Launch Ideas**")
	agent := newTestAgent(t, g, "key", "")

	out, err := agent.Generate(context.Background(), Request{Prompt: "let's plan a launch", IsFirstMessage: true})
	require.NoError(t, err)
	assert.Equal(t, "Cold Brew Launch Ideas", out.SuggestedTitle)
	assert.Equal(t, int32(2), g.calls.Load())

	out, err = agent.Generate(context.Background(), Request{Prompt: "and another thing", IsFirstMessage: false})
	require.NoError(t, err)
	assert.Empty(t, out.SuggestedTitle)
	assert.Equal(t, int32(3), g.calls.Load())
}

func TestGenerateTitleFailureIsSwallowed(t *testing.T) {
	g := newFakeGateway(t)
	g.copyReply = textReply("Sure.")
	g.titleReply = statusReply(http.StatusTooManyRequests)
	agent := newTestAgent(t, g, "key", "")

	out, err := agent.Generate(context.Background(), Request{Prompt: "hello", IsFirstMessage: true})
	require.NoError(t, err)
	assert.Equal(t, "Sure.", out.Message)
	assert.Empty(t, out.SuggestedTitle)
}

func TestGenerateUpstreamStatusMapping(t *testing.T) {
	cases := map[int]Kind{
		http.StatusTooManyRequests:     KindRateLimited,
		http.StatusPaymentRequired:     KindPaymentRequired,
		http.StatusBadGateway:          KindUpstream,
		http.StatusInternalServerError: KindUpstream,
	}
	for status, want := range cases {
		g := newFakeGateway(t)
		g.copyReply = statusReply(status)
		agent := newTestAgent(t, g, "key", "")

		_, err := agent.Generate(context.Background(), Request{Prompt: "ads"})
		require.Error(t, err)
		assert.Equal(t, want, KindOf(err), "status %d", status)
	}
}

func TestGenerateImageCapableModel(t *testing.T) {
	g := newFakeGateway(t)
	g.imageReply = func(body string) (int, string) {
		return http.StatusOK, chatJSON(map[string]any{
			"content": "Here is a concept.",
			"images":  []any{map[string]any{"type": "image_url", "image_url": map[string]any{"url": "data:image/png;base64,BBBB"}}},
		})
	}
	agent := newTestAgent(t, g, "key", "")

	for _, images := range []bool{true, false} {
		out, err := agent.Generate(context.Background(), Request{
			Prompt:         "a hero image",
			Model:          "google/gemini-2.5-flash-image-preview",
			GenerateImages: images,
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeConversation, out.Type)
		assert.Equal(t, []string{"data:image/png;base64,BBBB"}, out.Images)
		assert.Empty(t, out.Creatives)
	}
	for _, body := range g.requests() {
		assert.False(t, gjson.Get(body, "tools").Exists())
	}
}

func TestGenerateSendsReferenceImages(t *testing.T) {
	g := newFakeGateway(t)
	g.copyReply = textReply("Noted.")
	agent := newTestAgent(t, g, "key", "")

	refs := []string{"https://a/1.png", "https://a/2.png", "https://a/3.png", "https://a/4.png", "https://a/5.png", "https://a/6.png"}
	_, err := agent.Generate(context.Background(), Request{Prompt: "match these", ReferenceImages: refs})
	require.NoError(t, err)

	body := g.requests()[0]
	parts := gjson.Get(body, `messages.#(role=="user").content`)
	require.True(t, parts.IsArray())
	assert.Equal(t, int64(1+MaxReferenceImages), parts.Get("#").Int())
	assert.Contains(t, gjson.Get(body, `messages.#(role=="system").content`).String(), "Reference Images")
}
