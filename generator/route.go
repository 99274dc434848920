package generator

import (
	"strings"
)

// Family identifies which gateway a route targets.
type Family int

const (
	FamilyDefault Family = iota
	FamilyAlternate
)

func (f Family) String() string {
	if f == FamilyAlternate {
		return "alternate"
	}
	return "default"
}

// Gateway describes one OpenAI-compatible chat completions backend.
type Gateway struct {
	BaseURL string
	APIKey  string
	Headers map[string]string
}

// Route is a resolved backend for one model identifier. Downstream code reads the
// route and never inspects the raw model string again.
type Route struct {
	Family       Family
	BaseURL      string
	APIKey       string
	Headers      map[string]string
	Model        string
	ImageCapable bool
}

// RouterSettings configures model resolution.
type RouterSettings struct {
	Default         Gateway
	Alternate       Gateway
	AlternatePrefix string
	DefaultModel    string
	// ImageCapable lists resolved model names that return images directly from
	// the chat call and therefore skip the structured copy flow.
	ImageCapable []string
}

// Router resolves model identifiers to routes.
type Router struct {
	settings     RouterSettings
	imageCapable map[string]struct{}
}

func NewRouter(settings RouterSettings) *Router {
	set := make(map[string]struct{}, len(settings.ImageCapable))
	for _, m := range settings.ImageCapable {
		set[strings.TrimSpace(m)] = struct{}{}
	}
	return &Router{settings: settings, imageCapable: set}
}

// DefaultModel is used when a request names no model.
func (r *Router) DefaultModel() string { return r.settings.DefaultModel }

// Resolve returns the route for model, or a configuration error when the targeted
// gateway has no credential. It performs no I/O.
func (r *Router) Resolve(model string) (Route, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = r.settings.DefaultModel
	}
	if model == "" {
		return Route{}, configError("no model requested and no default model configured")
	}

	gw, family := r.settings.Default, FamilyDefault
	if p := r.settings.AlternatePrefix; p != "" && strings.HasPrefix(model, p) {
		model = strings.TrimPrefix(model, p)
		gw, family = r.settings.Alternate, FamilyAlternate
		if model == "" {
			return Route{}, configError("model identifier %q names no model after the gateway prefix", p)
		}
	}
	if strings.TrimSpace(gw.APIKey) == "" {
		return Route{}, configError("%s gateway API key is not configured", family)
	}
	if strings.TrimSpace(gw.BaseURL) == "" {
		return Route{}, configError("%s gateway base URL is not configured", family)
	}

	_, img := r.imageCapable[model]
	return Route{
		Family:       family,
		BaseURL:      gw.BaseURL,
		APIKey:       gw.APIKey,
		Headers:      gw.Headers,
		Model:        model,
		ImageCapable: img,
	}, nil
}

// WithModel returns a copy of the route that targets another model on the same gateway.
func (rt Route) WithModel(model string) Route {
	rt.Model = model
	return rt
}
