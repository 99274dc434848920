package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	creativeToolName = "generate_creatives"
	// CreativeSchemaVersion is bumped whenever the declared creative contract changes.
	CreativeSchemaVersion = 1

	minTags = 3
	maxTags = 5
)

// ToolSpec is a function declared to the model as its structured output contract.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// CreativeTool is the declared contract for a structured creative set.
func CreativeTool() ToolSpec {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	creative := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":            str("Internal name for this creative variation"),
			"headline":         str("Ad headline, short and punchy"),
			"primary_text":     str("Main ad body copy"),
			"description_text": str("Secondary description line"),
			"visual_prompt":    str("Concrete photographic description of the ad image"),
			"tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    minTags,
				"maxItems":    maxTags,
				"description": "3 to 5 short tags describing angle, audience or format",
			},
		},
		"required":             []string{"title", "headline", "primary_text", "description_text", "visual_prompt", "tags"},
		"additionalProperties": false,
	}
	return ToolSpec{
		Name:        creativeToolName,
		Description: fmt.Sprintf("Return a set of ad creatives for the brief (schema v%d).", CreativeSchemaVersion),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": str("One or two sentences introducing the creatives to the user"),
				"creatives": map[string]any{
					"type":     "array",
					"items":    creative,
					"minItems": 1,
				},
			},
			"required": []string{"message", "creatives"},
		},
	}
}

// creativeSet mirrors the declared tool arguments.
type creativeSet struct {
	Message   string          `json:"message"`
	Creatives []creativeInput `json:"creatives"`
}

type creativeInput struct {
	Title           string   `json:"title"`
	Headline        string   `json:"headline"`
	PrimaryText     string   `json:"primary_text"`
	DescriptionText string   `json:"description_text"`
	VisualPrompt    string   `json:"visual_prompt"`
	Tags            []string `json:"tags"`
}

var errNoCreatives = errors.New("tool arguments contain no creatives")

// ParseCreatives validates raw tool arguments against the creative contract and
// returns the creatives with the accompanying message. Any violation rejects the
// whole set so that callers can fall back to a conversational reply.
func ParseCreatives(raw string) (string, []Creative, error) {
	var set creativeSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		return "", nil, &Error{Kind: KindParse, Message: "malformed tool arguments", Err: err}
	}
	if len(set.Creatives) == 0 {
		return "", nil, &Error{Kind: KindParse, Message: "invalid tool arguments", Err: errNoCreatives}
	}
	out := make([]Creative, 0, len(set.Creatives))
	for i, in := range set.Creatives {
		c, err := in.validate()
		if err != nil {
			return "", nil, &Error{Kind: KindParse, Message: fmt.Sprintf("creative %d is invalid", i), Err: err}
		}
		out = append(out, c)
	}
	return strings.TrimSpace(set.Message), out, nil
}

func (in creativeInput) validate() (Creative, error) {
	c := Creative{
		Title:           strings.TrimSpace(in.Title),
		Headline:        strings.TrimSpace(in.Headline),
		PrimaryText:     strings.TrimSpace(in.PrimaryText),
		DescriptionText: strings.TrimSpace(in.DescriptionText),
		VisualPrompt:    strings.TrimSpace(in.VisualPrompt),
	}
	switch {
	case c.Headline == "":
		return Creative{}, errors.New("headline is empty")
	case c.PrimaryText == "":
		return Creative{}, errors.New("primary_text is empty")
	case c.VisualPrompt == "":
		return Creative{}, errors.New("visual_prompt is empty")
	}
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			c.Tags = append(c.Tags, t)
		}
	}
	if n := len(c.Tags); n < minTags || n > maxTags {
		return Creative{}, fmt.Errorf("has %d tags, want %d to %d", n, minTags, maxTags)
	}
	if c.Title == "" {
		c.Title = c.Headline
	}
	return c, nil
}
