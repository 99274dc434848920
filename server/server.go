package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"ad_creative_studio/assets"
	"ad_creative_studio/generator"
)

// maxBodyBytes bounds request bodies; reference images may be inline data URLs.
const maxBodyBytes = 32 << 20

// Generator is the pipeline the server exposes.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) (generator.Outcome, error)
}

type Server struct {
	gen          Generator
	assets       assets.Store
	defaultModel string
	logger       *zap.Logger
	httpServer   *http.Server
}

// Options configures a Server. Assets and Logger are optional.
type Options struct {
	Assets       assets.Store
	DefaultModel string
	Logger       *zap.Logger
}

func New(gen Generator, opts Options) (*Server, error) {
	if gen == nil {
		return nil, errors.New("generator required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := opts.Assets
	if store == nil {
		store = assets.NewMemoryStore()
	}
	return &Server{
		gen:          gen,
		assets:       store,
		defaultModel: opts.DefaultModel,
		logger:       logger,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResp{Error: "not found"})
	})
	return chain(mux, s.withLogging, withRequestID, withCORS)
}

// ListenAndServe serves Routes on addr, accepting HTTP/2 without TLS.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(s.Routes(), &http2.Server{}),
	}
	s.logger.Info("starting web server", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// --- Handlers ---

type assetReq struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	TextContent string `json:"text_content"`
}

type generateReq struct {
	Prompt           string     `json:"prompt"`
	Assets           []assetReq `json:"assets"`
	AssetIDs         []string   `json:"assetIds"`
	StyleNotes       string     `json:"styleNotes"`
	CanvasContext    string     `json:"canvasContext"`
	CanvasImages     []string   `json:"canvasImages"`
	ToolsContext     string     `json:"toolsContext"`
	KnowledgeContext string     `json:"knowledgeContext"`
	StrategyContext  string     `json:"strategyContext"`
	ResearchContext  string     `json:"researchContext"`
	Model            string     `json:"model"`
	IsFirstMessage   bool       `json:"isFirstMessage"`
	GenerateImages   *bool      `json:"generateImages"`
}

type errorResp struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResp{Error: "method not allowed"})
		return
	}
	var body generateReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid JSON body: " + err.Error()})
		return
	}
	if strings.TrimSpace(body.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "prompt is required"})
		return
	}

	req, err := s.toRequest(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.gen.Generate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) toRequest(ctx context.Context, body generateReq) (generator.Request, error) {
	req := generator.Request{
		Prompt:           body.Prompt,
		StyleNotes:       body.StyleNotes,
		CanvasContext:    body.CanvasContext,
		KnowledgeContext: body.KnowledgeContext,
		StrategyContext:  body.StrategyContext,
		ResearchContext:  body.ResearchContext,
		ToolsContext:     body.ToolsContext,
		ReferenceImages:  body.CanvasImages,
		Model:            body.Model,
		IsFirstMessage:   body.IsFirstMessage,
		GenerateImages:   body.GenerateImages == nil || *body.GenerateImages,
	}
	if req.Model == "" {
		req.Model = s.defaultModel
	}
	for _, a := range body.Assets {
		req.Assets = append(req.Assets, generator.Asset{Name: a.Name, Type: a.Type, TextContent: a.TextContent})
	}
	if len(body.AssetIDs) > 0 {
		records, missing, err := assets.Resolve(ctx, s.assets, body.AssetIDs)
		if err != nil {
			return generator.Request{}, &generator.Error{Kind: generator.KindUpstream, Message: "asset lookup failed", Err: err}
		}
		if len(missing) > 0 {
			loggerFrom(ctx, s.logger).Warn("unknown asset ids skipped", zap.Strings("ids", missing))
		}
		for _, rec := range records {
			req.Assets = append(req.Assets, generator.Asset{Name: rec.Name, Type: rec.Kind, TextContent: rec.TextContent})
		}
	}
	return req, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := generator.KindOf(err)
	msg := err.Error()
	var pe *generator.Error
	if errors.As(err, &pe) {
		msg = pe.Message
	}
	loggerFrom(r.Context(), s.logger).Error("generation failed", zap.String("kind", string(kind)), zap.Error(err))
	writeJSON(w, generator.HTTPStatus(kind), errorResp{Error: msg, Kind: string(kind)})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
