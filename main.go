package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ad_creative_studio/assets"
	"ad_creative_studio/config"
	"ad_creative_studio/generator"
	"ad_creative_studio/server"
)

var (
	configPath string
	verbose    bool
	cfg        config.Config
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "creative-studio",
	Short:         "Generate ad creatives from a brief through AI gateways",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = buildLogger(cfg.Logging.Level, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP endpoint",
	RunE:  runServe,
}

var genOpts struct {
	prompt   string
	model    string
	style    string
	noImages bool
	first    bool
	mock     bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one brief through the pipeline and print the JSON response",
	RunE:  runGenerate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (JSON also accepted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "http listen address (overrides server.addr)")

	generateCmd.Flags().StringVarP(&genOpts.prompt, "prompt", "p", "", "creative brief")
	generateCmd.Flags().StringVarP(&genOpts.model, "model", "m", "", "model identifier")
	generateCmd.Flags().StringVar(&genOpts.style, "style", "", "style notes")
	generateCmd.Flags().BoolVar(&genOpts.noImages, "no-images", false, "skip image synthesis")
	generateCmd.Flags().BoolVar(&genOpts.first, "first", false, "treat as the first message of a conversation")
	generateCmd.Flags().BoolVar(&genOpts.mock, "mock", false, "use the offline mock model")
	_ = generateCmd.MarkFlagRequired("prompt")

	rootCmd.AddCommand(serveCmd, generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	agent, err := buildAgent(cfg, buildLLM(cfg, false), config.EnvSecrets{})
	if err != nil {
		return err
	}
	store, err := buildAssetStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	srv, err := server.New(agent, server.Options{
		Assets:       store,
		DefaultModel: cfg.Models.Default,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	listen := cfg.Server.Addr
	if serveAddr != "" {
		listen = serveAddr
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(listen) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	var secrets config.Secrets = config.EnvSecrets{}
	if genOpts.mock {
		secrets = config.MapSecrets{
			cfg.Gateways.Default.APIKeyEnv:   "mock",
			cfg.Gateways.Alternate.APIKeyEnv: "mock",
		}
	}
	agent, err := buildAgent(cfg, buildLLM(cfg, genOpts.mock), secrets)
	if err != nil {
		return err
	}
	out, err := agent.Generate(cmd.Context(), generator.Request{
		Prompt:         genOpts.prompt,
		StyleNotes:     genOpts.style,
		Model:          genOpts.model,
		IsFirstMessage: genOpts.first,
		GenerateImages: !genOpts.noImages,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func buildLogger(level string, debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if level != "" {
		l, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(l)
	}
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

func buildLLM(cfg config.Config, mock bool) generator.LLMClient {
	if mock {
		return generator.MockLLM{}
	}
	return generator.NewOpenAILLM(generator.LLMSettings{MaxRetries: cfg.Pipeline.MaxRetries}, &http.Client{Timeout: 2 * time.Minute})
}

func buildAgent(cfg config.Config, llm generator.LLMClient, secrets config.Secrets) (*generator.Agent, error) {
	timeout, err := cfg.ImageTimeout()
	if err != nil {
		return nil, err
	}
	router := generator.NewRouter(generator.RouterSettings{
		Default: generator.Gateway{
			BaseURL: cfg.Gateways.Default.BaseURL,
			APIKey:  cfg.Gateways.Default.APIKey(secrets),
			Headers: cfg.Gateways.Default.Headers,
		},
		Alternate: generator.Gateway{
			BaseURL: cfg.Gateways.Alternate.BaseURL,
			APIKey:  cfg.Gateways.Alternate.APIKey(secrets),
			Headers: cfg.Gateways.Alternate.Headers,
		},
		AlternatePrefix: cfg.Models.AlternatePrefix,
		DefaultModel:    cfg.Models.Default,
		ImageCapable:    cfg.Models.ImageCapable,
	})
	return generator.NewAgent(llm, generator.AgentSettings{
		Router: router,
		Images: generator.SynthSettings{
			Model:   cfg.Models.Image,
			Cap:     cfg.Pipeline.ImageCap,
			Timeout: timeout,
		},
		TitleMaxLen: cfg.Pipeline.TitleMaxLen,
		Logger:      logger,
	})
}

func buildAssetStore(ctx context.Context, cfg config.Config) (assets.Store, error) {
	if cfg.Assets.PostgresDSN == "" {
		return assets.NewMemoryStore(), nil
	}
	pg, err := assets.NewPostgresStore(ctx, cfg.Assets.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset store: %w", err)
	}
	logger.Info("asset store: postgres")
	return assets.NewCachedStore(pg, cfg.Assets.CacheSize)
}
