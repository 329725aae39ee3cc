package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-calendar/internal/calendar"
	"github.com/zombor/receipt-calendar/internal/ledger"
	"github.com/zombor/receipt-calendar/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env is fine; anything else is worth a warning
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Could not load .env", "error", err)
	}

	flags := ff.NewFlagSet("receipt-calendar")
	var (
		port           = flags.IntLong("port", 3001, "HTTP server port")
		providerType   = flags.StringLong("provider", "anthropic", "Extraction provider: 'anthropic', 'gemini' or 'ollama'")
		anthropicKey   = flags.StringLong("anthropic-key", "", "Anthropic API key (or set ANTHROPIC_API_KEY env var)")
		anthropicModel = flags.StringLong("anthropic-model", "claude-sonnet-4-20250514", "Anthropic model name")
		anthropicURL   = flags.StringLong("anthropic-url", "https://api.anthropic.com", "Anthropic API base URL")
		maxTokens      = flags.IntLong("max-tokens", 1024, "Maximum tokens in the model reply")
		geminiKey      = flags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = flags.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL      = flags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = flags.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl, llama3.2-vision)")
		ledgerType     = flags.StringLong("ledger", "bolt", "Expense ledger: 'bolt', 'redis' or 'memory'")
		dbPath         = flags.StringLong("db", "receipt-calendar.db", "Bolt ledger file path")
		redisAddr      = flags.StringLong("redis-addr", "localhost:6379", "Redis address for the redis ledger")
		redisPassword  = flags.StringLong("redis-password", "", "Redis password")
		redisDB        = flags.IntLong("redis-db", 0, "Redis database number")
		holidaysPath   = flags.StringLong("holidays", "", "YAML holiday list (defaults to the built-in US list)")
		extractTimeout = flags.DurationLong("extract-timeout", 60*time.Second, "Deadline for a single receipt extraction")
		logLevel       = flags.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		showVersion    = flags.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(flags, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_CALENDAR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(flags))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize ledger
	var store ledger.Store
	var err error
	switch *ledgerType {
	case "bolt":
		slog.Info("Initializing bolt ledger...", "path", *dbPath)
		store, err = ledger.NewBoltStore(*dbPath)
	case "redis":
		slog.Info("Initializing redis ledger...", "addr", *redisAddr, "db", *redisDB)
		store, err = ledger.NewRedisStore(ctx, ledger.RedisConfig{
			Addr:     *redisAddr,
			Password: *redisPassword,
			DB:       *redisDB,
		})
	case "memory":
		slog.Warn("Using in-memory ledger; expenses will not survive a restart")
		store = ledger.NewMemoryStore()
	default:
		slog.Error("Invalid ledger type", "type", *ledgerType, "valid", "bolt, redis or memory")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize ledger", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize holidays
	holidays := calendar.DefaultHolidayTable()
	if *holidaysPath != "" {
		holidays, err = calendar.LoadHolidays(*holidaysPath)
		if err != nil {
			slog.Error("Failed to load holidays", "path", *holidaysPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded holidays", "path", *holidaysPath, "count", holidays.Len())
	}

	// Initialize provider based on type
	var provider scanning.Provider
	switch *providerType {
	case "anthropic":
		apiKey := *anthropicKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			slog.Warn("No Anthropic API key; receipt extraction is disabled. Set --anthropic-key or ANTHROPIC_API_KEY")
			break
		}
		slog.Info("Initializing Anthropic provider...", "model", *anthropicModel)
		provider, err = scanning.NewAnthropic(scanning.AnthropicConfig{
			APIKey:    apiKey,
			Model:     *anthropicModel,
			MaxTokens: *maxTokens,
			BaseURL:   *anthropicURL,
		})
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Warn("No Gemini API key; receipt extraction is disabled. Set --gemini-key or GEMINI_API_KEY")
			break
		}
		slog.Info("Initializing Gemini provider...", "model", *geminiModel)
		provider, err = scanning.NewGemini(apiKey, *geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama provider...", "url", *ollamaURL, "model", *ollamaModel)
		provider, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
	default:
		slog.Error("Invalid provider type", "type", *providerType, "valid", "anthropic, gemini or ollama")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize provider", "provider", *providerType, "error", err)
		os.Exit(1)
	}

	var extractor calendar.Extractor
	if provider != nil {
		defer provider.Close()
		extractor = scanning.NewExtractor(provider)
	}

	service := calendar.NewService(store, holidays)
	server := calendar.NewServer(service, extractor, calendar.ServerConfig{
		Version:        version,
		ExtractTimeout: *extractTimeout,
	})

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if err := server.Start(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutting down...")
}
