package main

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon"
	"github.com/m-mizutani/reckon/llm/claude"
	"github.com/m-mizutani/reckon/llm/gemini"
	"github.com/m-mizutani/reckon/llm/ollama"
	"github.com/m-mizutani/reckon/llm/openai"
	"github.com/m-mizutani/reckon/tool/calculator"
	"github.com/m-mizutani/reckon/tool/wikipedia"
	"github.com/urfave/cli/v3"
)

const (
	providerGroq   = "groq"
	providerOpenAI = "openai"
	providerClaude = "claude"
	providerGemini = "gemini"
	providerOllama = "ollama"
)

// config is the resolved CLI configuration. A TOML file gives defaults and flags set explicitly override them.
type config struct {
	Provider      string `toml:"provider"`
	Model         string `toml:"model"`
	APIKey        string `toml:"api_key"`
	BaseURL       string `toml:"base_url"`
	MaxIterations int    `toml:"max_iterations"`
	EarlyStopping string `toml:"early_stopping"`
	TraceDir      string `toml:"trace_dir"`
	OtelEndpoint  string `toml:"otel_endpoint"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`

	Wikipedia struct {
		Language string `toml:"language"`
		TopK     int    `toml:"top_k"`
		MaxChars int    `toml:"max_chars"`
	} `toml:"wikipedia"`
}

func defaultConfig() *config {
	return &config{
		Provider:      providerGroq,
		MaxIterations: reckon.DefaultIterationLimit,
		EarlyStopping: reckon.EarlyStopGenerate.String(),
		LogLevel:      "warn",
		LogFormat:     "text",
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Sources: cli.EnvVars("RECKON_CONFIG"),
			Usage:   "TOML config file",
		},
		&cli.StringFlag{
			Name:    "provider",
			Aliases: []string{"p"},
			Value:   providerGroq,
			Sources: cli.EnvVars("RECKON_PROVIDER"),
			Usage:   "Reasoning engine (groq, openai, claude, gemini, ollama)",
		},
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Sources: cli.EnvVars("RECKON_MODEL"),
			Usage:   "Model name (provider default if empty)",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Sources: cli.EnvVars("RECKON_API_KEY", "API_KEY"),
			Usage:   "API key of the provider",
		},
		&cli.StringFlag{
			Name:    "base-url",
			Sources: cli.EnvVars("RECKON_BASE_URL"),
			Usage:   "API base URL of the provider",
		},
		&cli.IntFlag{
			Name:    "max-iterations",
			Value:   reckon.DefaultIterationLimit,
			Sources: cli.EnvVars("RECKON_MAX_ITERATIONS"),
			Usage:   "Maximum reasoning steps per question",
		},
		&cli.StringFlag{
			Name:    "early-stopping",
			Value:   reckon.EarlyStopGenerate.String(),
			Sources: cli.EnvVars("RECKON_EARLY_STOPPING"),
			Usage:   "Answer strategy at the iteration limit (force, generate)",
		},
		&cli.StringFlag{
			Name:    "trace-dir",
			Sources: cli.EnvVars("RECKON_TRACE_DIR"),
			Usage:   "Directory to write run traces as JSON",
		},
		&cli.StringFlag{
			Name:    "otel-endpoint",
			Sources: cli.EnvVars("RECKON_OTEL_ENDPOINT"),
			Usage:   "OTLP/HTTP endpoint URL to export spans, e.g. http://localhost:4318",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "warn",
			Sources: cli.EnvVars("RECKON_LOG_LEVEL"),
			Usage:   "Log level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Sources: cli.EnvVars("RECKON_LOG_FORMAT"),
			Usage:   "Log format (text, json)",
		},
	}
}

// flagValues is the subset of the CLI state loadConfig reads. *cli.Command satisfies it.
type flagValues interface {
	IsSet(name string) bool
	String(name string) string
	Int(name string) int
}

func loadConfig(cmd flagValues) (*config, error) {
	cfg := defaultConfig()

	if path := cmd.String("config"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
		}
	}

	overrides := map[string]*string{
		"provider":       &cfg.Provider,
		"model":          &cfg.Model,
		"api-key":        &cfg.APIKey,
		"base-url":       &cfg.BaseURL,
		"early-stopping": &cfg.EarlyStopping,
		"trace-dir":      &cfg.TraceDir,
		"otel-endpoint":  &cfg.OtelEndpoint,
		"log-level":      &cfg.LogLevel,
		"log-format":     &cfg.LogFormat,
	}
	for name, dst := range overrides {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}
	if cmd.IsSet("max-iterations") {
		cfg.MaxIterations = cmd.Int("max-iterations")
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *config) validate() error {
	switch c.Provider {
	case providerGroq, providerOpenAI, providerClaude, providerGemini:
		if c.APIKey == "" {
			return goerr.Wrap(reckon.ErrConfigMissing, "API key is required", goerr.V("provider", c.Provider))
		}
	case providerOllama:
	default:
		return goerr.New("unknown provider", goerr.V("provider", c.Provider))
	}

	if c.MaxIterations <= 0 {
		return goerr.New("max iterations must be positive", goerr.V("max_iterations", c.MaxIterations))
	}
	if _, err := reckon.ParseEarlyStopping(c.EarlyStopping); err != nil {
		return err
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return goerr.New("unknown log format", goerr.V("format", c.LogFormat))
	}

	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, goerr.Wrap(err, "invalid log level", goerr.V("level", s))
	}
	return level, nil
}

func (c *config) newLogger(w io.Writer) *slog.Logger {
	level, _ := parseLogLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *config) newLLMClient(ctx context.Context) (reckon.LLMClient, error) {
	switch c.Provider {
	case providerGroq, providerOpenAI:
		var opts []openai.Option
		if c.Provider == providerGroq {
			opts = append(opts, openai.WithGroq())
		}
		if c.Model != "" {
			opts = append(opts, openai.WithModel(c.Model))
		}
		if c.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(c.BaseURL))
		}
		return openai.New(ctx, c.APIKey, opts...)

	case providerClaude:
		var opts []claude.Option
		if c.Model != "" {
			opts = append(opts, claude.WithModel(c.Model))
		}
		if c.BaseURL != "" {
			opts = append(opts, claude.WithBaseURL(c.BaseURL))
		}
		return claude.New(ctx, c.APIKey, opts...)

	case providerGemini:
		var opts []gemini.Option
		if c.Model != "" {
			opts = append(opts, gemini.WithModel(c.Model))
		}
		return gemini.New(ctx, c.APIKey, opts...)

	case providerOllama:
		var opts []ollama.Option
		if c.Model != "" {
			opts = append(opts, ollama.WithModel(c.Model))
		}
		if c.BaseURL != "" {
			opts = append(opts, ollama.WithBaseURL(c.BaseURL))
		}
		return ollama.New(ctx, opts...)
	}

	return nil, goerr.New("unknown provider", goerr.V("provider", c.Provider))
}

func (c *config) newTools() []reckon.Tool {
	var opts []wikipedia.Option
	if c.Wikipedia.Language != "" {
		opts = append(opts, wikipedia.WithLanguage(c.Wikipedia.Language))
	}
	if c.Wikipedia.TopK > 0 {
		opts = append(opts, wikipedia.WithTopK(c.Wikipedia.TopK))
	}
	if c.Wikipedia.MaxChars > 0 {
		opts = append(opts, wikipedia.WithMaxChars(c.Wikipedia.MaxChars))
	}

	return []reckon.Tool{
		wikipedia.New(opts...),
		calculator.New(),
	}
}

// agentOptions returns the options shared by every agent the command creates.
func (c *config) agentOptions(logger *slog.Logger) []reckon.Option {
	method, _ := reckon.ParseEarlyStopping(c.EarlyStopping)
	return []reckon.Option{
		reckon.WithTools(c.newTools()...),
		reckon.WithIterationLimit(c.MaxIterations),
		reckon.WithEarlyStopping(method),
		reckon.WithLogger(logger),
	}
}
