package generator

import (
	"fmt"
	"strings"
)

// Prompt is the message set sent to the model for one completion.
type Prompt struct {
	System string
	User   string
	// Images are attached to the user message as image parts.
	Images []string
	// Tool, when set, is declared as the function the model may call.
	Tool *ToolSpec
	// ImageOutput asks the gateway for image modality output.
	ImageOutput bool
	MaxTokens   int
}

// MaxReferenceImages is how many reference images are sent with a brief.
const MaxReferenceImages = 5

// referenceMarkers flag canvas material that contains example copy to emulate.
var referenceMarkers = []string{
	"reference content",
	"reference copy",
	"example copy",
	"example ad",
	"[reference",
	"[example",
}

// BuildContext merges the optional context fragments of r into one instruction
// block with a fixed precedence. Absent fragments contribute nothing.
func BuildContext(r Request) string {
	var sb strings.Builder
	section := func(title, body string) {
		body = strings.TrimSpace(body)
		if body == "" {
			return
		}
		sb.WriteString(fmt.Sprintf("\n\n## %s\n%s", title, body))
	}

	section("Style Notes", r.StyleNotes)
	section("Canvas & Reference Materials", r.CanvasContext)
	section("Knowledge Base", r.KnowledgeContext)
	section("Strategic Guidelines", r.StrategyContext)
	section("Market Research", r.ResearchContext)
	section("Referenced Assets", formatAssets(r.Assets))
	section("Available Tools", r.ToolsContext)

	if len(referenceImages(r.ReferenceImages)) > 0 {
		sb.WriteString("\n\n## Reference Images\n")
		sb.WriteString("Reference images are attached to the brief. Analyze their color palette, lighting, ")
		sb.WriteString("composition and mood, and write every visual_prompt so the generated images stay ")
		sb.WriteString("consistent with that analysis.")
	}
	if hasReferenceCopy(r.CanvasContext) {
		sb.WriteString("\n\n## Using Reference Copy\n")
		sb.WriteString("The canvas materials contain example copy. Extract the strategy and tone behind it ")
		sb.WriteString("(structure, hooks, emotional angle, length) and write original copy inspired by it. ")
		sb.WriteString("Do not reuse sentences or phrases from the examples verbatim.")
	}
	return strings.TrimLeft(sb.String(), "\n")
}

func formatAssets(assets []Asset) string {
	var sb strings.Builder
	for _, a := range assets {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", name, strings.TrimSpace(a.Type)))
		if text := strings.TrimSpace(a.TextContent); text != "" {
			sb.WriteString("  Content:\n")
			for _, line := range strings.Split(text, "\n") {
				sb.WriteString("  " + line + "\n")
			}
		}
	}
	return sb.String()
}

func hasReferenceCopy(canvas string) bool {
	lower := strings.ToLower(canvas)
	for _, m := range referenceMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// referenceImages returns the non-empty locators, capped at MaxReferenceImages.
func referenceImages(locators []string) []string {
	out := make([]string, 0, MaxReferenceImages)
	for _, l := range locators {
		if l = strings.TrimSpace(l); l == "" {
			continue
		}
		out = append(out, l)
		if len(out) == MaxReferenceImages {
			break
		}
	}
	return out
}

const copywriterRole = `You are a senior performance-marketing copywriter and creative director.
When the user asks for ads, creatives, variations or copy, call the ` + creativeToolName + ` function
with a complete set of creatives. When the user asks a question, wants feedback or is just
talking, answer conversationally in plain text instead of calling the function.`

// visualPromptPolicy is embedded in every copy prompt so that visual_prompt values
// can be sent to an image model without rewriting.
const visualPromptPolicy = `## Writing visual_prompt
Each visual_prompt is sent straight to an image model. Describe a concrete photograph:
subject, setting, lighting, camera angle, lens and color palette. Never describe abstract
concepts, emotions or brand values; show the physical scene that evokes them. Do not ask for
text, logos or typography inside the image.

Good: "Overhead shot of a glass of cold brew on a walnut desk beside an open laptop, morning
sunlight from a window on the left, condensation on the glass, warm amber and cream tones,
50mm lens, shallow depth of field."
Bad: "Energy and productivity for busy professionals."
Bad: "A modern, premium feeling with our logo and the headline on top."`

// BuildCopyPrompt assembles the structured copy request for r.
func BuildCopyPrompt(r Request) Prompt {
	var sb strings.Builder
	sb.WriteString(copywriterRole)
	if ctx := BuildContext(r); ctx != "" {
		sb.WriteString("\n\n# Context\n")
		sb.WriteString(ctx)
	}
	sb.WriteString("\n\n")
	sb.WriteString(visualPromptPolicy)

	spec := CreativeTool()
	return Prompt{
		System: sb.String(),
		User:   strings.TrimSpace(r.Prompt),
		Images: referenceImages(r.ReferenceImages),
		Tool:   &spec,
	}
}

// BuildImageChatPrompt is used for image-capable models, which answer the brief
// with text and images in a single call.
func BuildImageChatPrompt(r Request) Prompt {
	system := "You are a creative director. Answer the brief and produce the requested images."
	if ctx := BuildContext(r); ctx != "" {
		system += "\n\n# Context\n" + ctx
	}
	return Prompt{
		System:      system,
		User:        strings.TrimSpace(r.Prompt),
		Images:      referenceImages(r.ReferenceImages),
		ImageOutput: true,
	}
}

// BuildImagePrompt asks the image model for one ad visual.
func BuildImagePrompt(visualPrompt string) Prompt {
	return Prompt{
		User:        "Generate a high-quality advertising photograph. " + strings.TrimSpace(visualPrompt),
		ImageOutput: true,
	}
}

// BuildTitlePrompt asks for a short session title for the first turn of a conversation.
func BuildTitlePrompt(brief string, maxLen int) Prompt {
	return Prompt{
		System: fmt.Sprintf("Write a short title (at most %d characters) for a conversation that starts with the user's message. Reply with the title only, no quotes.", maxLen),
		User:   strings.TrimSpace(brief),
		// Titles are a handful of tokens.
		MaxTokens: 30,
	}
}
