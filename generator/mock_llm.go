package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// placeholderImage is a 1x1 transparent PNG.
const placeholderImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

// MockLLM is an offline stand-in for local debugging. It never calls a gateway:
// briefs get three creatives, image prompts get a placeholder image and title
// prompts get the first words of the brief.
type MockLLM struct{}

func (MockLLM) Complete(_ context.Context, route Route, prompt Prompt) (Completion, error) {
	switch {
	case prompt.Tool != nil:
		return Completion{ToolCalls: []ToolCall{{Name: prompt.Tool.Name, Arguments: mockCreatives(prompt.User)}}}, nil
	case prompt.ImageOutput && prompt.System == "":
		return Completion{Images: []string{placeholderImage}}, nil
	case prompt.ImageOutput:
		return Completion{Content: "Mock response from " + route.Model, Images: []string{placeholderImage}}, nil
	case prompt.MaxTokens > 0:
		words := strings.Fields(prompt.User)
		return Completion{Content: strings.Join(words[:min(len(words), 6)], " ")}, nil
	default:
		return Completion{Content: "Mock reply: " + prompt.User}, nil
	}
}

func mockCreatives(brief string) string {
	type item struct {
		Title           string   `json:"title"`
		Headline        string   `json:"headline"`
		PrimaryText     string   `json:"primary_text"`
		DescriptionText string   `json:"description_text"`
		VisualPrompt    string   `json:"visual_prompt"`
		Tags            []string `json:"tags"`
	}
	angles := []string{"Benefit", "Social proof", "Urgency"}
	items := make([]item, 0, len(angles))
	for i, angle := range angles {
		items = append(items, item{
			Title:           fmt.Sprintf("Variation %d: %s", i+1, angle),
			Headline:        fmt.Sprintf("%s-led headline", angle),
			PrimaryText:     "Mock copy for: " + brief,
			DescriptionText: "Mock description",
			VisualPrompt:    "Studio product photograph on a white seamless background, soft box lighting, 85mm lens",
			Tags:            []string{"mock", strings.ToLower(angle), "test"},
		})
	}
	b, _ := json.Marshal(map[string]any{"message": "Mock creatives for your brief.", "creatives": items})
	return string(b)
}
