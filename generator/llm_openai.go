package generator

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions)
// against any OpenAI-compatible gateway.
type OpenAILLM struct {
	Settings   LLMSettings
	HTTPClient *http.Client
}

func NewOpenAILLM(settings LLMSettings, httpClient *http.Client) *OpenAILLM {
	return &OpenAILLM{Settings: settings, HTTPClient: httpClient}
}

func (o *OpenAILLM) options(route Route) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(route.APIKey),
		option.WithBaseURL(route.BaseURL),
		option.WithMaxRetries(o.Settings.MaxRetries),
	}
	if o.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(o.HTTPClient))
	}
	for k, v := range route.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	return opts
}

func (o *OpenAILLM) Complete(ctx context.Context, route Route, prompt Prompt) (Completion, error) {
	if route.APIKey == "" {
		return Completion{}, configError("%s gateway API key is not configured", route.Family)
	}
	client := openai.NewClient(o.options(route)...)

	var msgs []openai.ChatCompletionMessageParamUnion
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	if len(prompt.Images) == 0 {
		msgs = append(msgs, openai.UserMessage(prompt.User))
	} else {
		parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(prompt.User)}
		for _, img := range prompt.Images {
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: img}))
		}
		msgs = append(msgs, openai.UserMessage(parts))
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(route.Model),
		Messages: msgs,
	}
	if prompt.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(prompt.MaxTokens))
	}
	if t := prompt.Tool; t != nil {
		params.Tools = []openai.ChatCompletionToolParam{{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.Parameters),
			},
		}}
	}
	if prompt.ImageOutput {
		params.Modalities = []string{"image", "text"}
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Completion{}, Classify(err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, &Error{Kind: KindUpstream, Message: "AI gateway returned no choices", Err: errors.New("empty choices")}
	}

	msg := resp.Choices[0].Message
	out := Completion{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	// Gateways return generated images outside the OpenAI schema, under message.images.
	gjson.Get(resp.RawJSON(), "choices.0.message.images.#.image_url.url").ForEach(func(_, v gjson.Result) bool {
		if u := v.String(); u != "" {
			out.Images = append(out.Images, u)
		}
		return true
	})
	return out, nil
}
