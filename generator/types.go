package generator

// Asset is a referenced brand asset whose text, when present, is fed to the model.
type Asset struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	TextContent string `json:"text_content,omitempty"`
}

// Request is one creative brief plus the context it should be written against.
// It is built once per invocation and never mutated by the pipeline.
type Request struct {
	Prompt           string
	StyleNotes       string
	CanvasContext    string
	KnowledgeContext string
	StrategyContext  string
	ResearchContext  string
	ToolsContext     string
	Assets           []Asset
	// ReferenceImages are image locators (URLs or data URLs); only the first few are used.
	ReferenceImages []string
	Model           string
	IsFirstMessage  bool
	GenerateImages  bool
}

// Creative is one ad unit produced by the structured copy call.
// Image fields are filled in by the image fan-out.
type Creative struct {
	Title           string   `json:"title"`
	Headline        string   `json:"headline"`
	PrimaryText     string   `json:"primary_text"`
	DescriptionText string   `json:"description_text"`
	VisualPrompt    string   `json:"visual_prompt"`
	Tags            []string `json:"tags"`

	ImageData string `json:"image_data,omitempty"`
	// ImageNote explains why no image was attached after a synthesis attempt.
	ImageNote string `json:"visual_description,omitempty"`
}
