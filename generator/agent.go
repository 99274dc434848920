package generator

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Agent runs the creative generation pipeline for one brief at a time.
// It holds no per-request state and is safe for concurrent use.
type Agent struct {
	llm         LLMClient
	router      *Router
	synth       *Synthesizer
	titleMaxLen int
	logger      *zap.Logger
}

// AgentSettings configures an Agent.
type AgentSettings struct {
	Router      *Router
	Images      SynthSettings
	TitleMaxLen int
	Logger      *zap.Logger
}

func NewAgent(llm LLMClient, settings AgentSettings) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if settings.Router == nil {
		return nil, errors.New("router is required")
	}
	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.TitleMaxLen <= 0 {
		settings.TitleMaxLen = DefaultTitleMaxLen
	}
	return &Agent{
		llm:         llm,
		router:      settings.Router,
		synth:       NewSynthesizer(llm, settings.Router, settings.Images, logger),
		titleMaxLen: settings.TitleMaxLen,
		logger:      logger,
	}, nil
}

// Generate turns a brief into either a conversational reply or a creative set.
// Only configuration, rate-limit, payment and upstream failures are returned as
// errors; parse and image failures degrade the outcome instead.
func (a *Agent) Generate(ctx context.Context, req Request) (Outcome, error) {
	route, err := a.router.Resolve(req.Model)
	if err != nil {
		return Outcome{}, err
	}
	log := a.logger.With(
		zap.String("gateway", route.Family.String()),
		zap.String("model", route.Model),
		zap.Bool("image_capable", route.ImageCapable))
	log.Info("generation started", zap.Int("reference_images", len(referenceImages(req.ReferenceImages))))

	if route.ImageCapable {
		comp, err := a.llm.Complete(ctx, route, BuildImageChatPrompt(req))
		if err != nil {
			return Outcome{}, Classify(err)
		}
		log.Info("image chat completed", zap.Int("images", len(comp.Images)))
		return Conversation(strings.TrimSpace(comp.Content), comp.Images), nil
	}

	comp, err := a.llm.Complete(ctx, route, BuildCopyPrompt(req))
	if err != nil {
		return Outcome{}, Classify(err)
	}

	if call, ok := findToolCall(comp.ToolCalls, creativeToolName); ok {
		message, creatives, perr := ParseCreatives(call.Arguments)
		if perr == nil {
			log.Info("creative set generated", zap.Int("creatives", len(creatives)))
			if req.GenerateImages {
				a.synth.Run(ctx, creatives)
			}
			return CreativeSet(message, creatives), nil
		}
		log.Warn("structured output rejected, replying conversationally", zap.Error(perr))
	}

	content := strings.TrimSpace(comp.Content)
	if content == "" {
		log.Info("model returned neither creatives nor text")
		return Conversation(ClarifyMessage, nil), nil
	}
	out := Conversation(content, nil)
	if req.IsFirstMessage {
		out.SuggestedTitle = a.suggestTitle(ctx, route, req.Prompt)
	}
	return out, nil
}

// suggestTitle is best effort: any failure leaves the title empty.
func (a *Agent) suggestTitle(ctx context.Context, route Route, brief string) string {
	comp, err := a.llm.Complete(ctx, route, BuildTitlePrompt(brief, a.titleMaxLen))
	if err != nil {
		a.logger.Warn("title synthesis failed", zap.Error(err))
		return ""
	}
	return CleanTitle(comp.Content, a.titleMaxLen)
}

func findToolCall(calls []ToolCall, name string) (ToolCall, bool) {
	for _, c := range calls {
		if c.Name == name {
			return c, true
		}
	}
	return ToolCall{}, false
}
