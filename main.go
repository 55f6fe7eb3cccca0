package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"github.com/dskvich/ifood-info-bot/pkg/api"
	"github.com/dskvich/ifood-info-bot/pkg/api/handler"
	"github.com/dskvich/ifood-info-bot/pkg/auth"
	"github.com/dskvich/ifood-info-bot/pkg/domain"
	"github.com/dskvich/ifood-info-bot/pkg/groq"
	"github.com/dskvich/ifood-info-bot/pkg/logger"
	"github.com/dskvich/ifood-info-bot/pkg/moderation"
	"github.com/dskvich/ifood-info-bot/pkg/repository"
	"github.com/dskvich/ifood-info-bot/pkg/services"
	"github.com/dskvich/ifood-info-bot/pkg/tavily"
	"github.com/dskvich/ifood-info-bot/pkg/telegram"
	"github.com/dskvich/ifood-info-bot/pkg/themes"
	"github.com/dskvich/ifood-info-bot/pkg/workers"
)

type Config struct {
	TelegramBotToken               string  `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	TelegramAuthorizedUserIDs      []int64 `env:"TELEGRAM_AUTHORIZED_USER_IDS" envSeparator:" "`
	TelegramUpdateListenerPoolSize int     `env:"TELEGRAM_UPDATE_LISTENER_POOL_SIZE" envDefault:"10"`

	GroqAPIKey          string `env:"GROQ_API_KEY"`
	GroqBaseURL         string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel           string `env:"GROQ_MODEL" envDefault:"llama-3.1-8b-instant"`
	GroqModerationModel string `env:"GROQ_MODERATION_MODEL" envDefault:"llama-3.1-8b-instant"`
	CompletionMaxTokens int    `env:"COMPLETION_MAX_TOKENS" envDefault:"800"`

	TavilyAPIKey      string        `env:"TAVILY_API_KEY"`
	TavilyBaseURL     string        `env:"TAVILY_BASE_URL" envDefault:"https://api.tavily.com"`
	SearchMaxResults  int           `env:"SEARCH_MAX_RESULTS" envDefault:"5"`
	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"30s"`

	RateLimitMaxRetries  int           `env:"RATE_LIMIT_MAX_RETRIES" envDefault:"3"`
	RateLimitMaxWait     time.Duration `env:"RATE_LIMIT_MAX_WAIT" envDefault:"2m"`
	RateLimitRetryPolicy string        `env:"RATE_LIMIT_RETRY_POLICY" envDefault:"completion"`

	StorageDriver    string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	StoragePath      string `env:"STORAGE_PATH" envDefault:"ifood-info-bot.db"`
	ThemeCatalogPath string `env:"THEME_CATALOG_PATH"`

	Pacing services.Pacing

	HTTPAddr           string   `env:"HTTP_ADDR"`
	HTTPAllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`

	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogNoColor bool   `env:"LOG_NO_COLOR"`
}

type conversationStore interface {
	services.ConversationStore
	io.Closer
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("Shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

func runMain() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env file: %w", err)
	}

	cfg, err := parseConfig()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.WithLevel(cfg.LogLevel, cfg.LogNoColor))))

	store, err := newStore(cfg.StorageDriver, cfg.StoragePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Closing conversation store", logger.Err(err))
		}
	}()

	workerGroup, err := setupWorkers(cfg, store)
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		select {
		case s := <-sigCh:
			slog.Info("Shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return workerGroup.Start(ctx)
}

func parseConfig() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing env config: %w", err)
	}
	if _, err := retryPolicy(cfg.RateLimitRetryPolicy); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func retryPolicy(name string) (domain.RetryPolicy, error) {
	switch p := domain.RetryPolicy(name); p {
	case domain.RetryCompletion, domain.RetryFullTurn:
		return p, nil
	default:
		return "", fmt.Errorf("unknown rate limit retry policy %q", name)
	}
}

func newStore(driver, path string) (conversationStore, error) {
	switch driver {
	case "memory":
		return nopCloser{repository.NewMemoryStore()}, nil
	case "file":
		store, err := repository.NewFileStore(path)
		if err != nil {
			return nil, fmt.Errorf("creating file store: %w", err)
		}
		return nopCloser{store}, nil
	case "sqlite":
		store, err := repository.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

type nopCloser struct {
	services.ConversationStore
}

func (nopCloser) Close() error { return nil }

func setupWorkers(cfg Config, store services.ConversationStore) (workers.Group, error) {
	var workerGroup workers.Group

	catalog, err := themes.Load(cfg.ThemeCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading theme catalog: %w", err)
	}

	registry := services.NewRegistry(store, newSessionDeps(cfg, catalog), cfg.Pacing)

	telegramClient, err := telegram.NewClient(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("creating telegram client: %w", err)
	}
	authenticator := auth.NewAuthenticator(cfg.TelegramAuthorizedUserIDs)

	responseCh := make(chan domain.Response)

	conversationService := services.NewConversationService(registry, repository.NewChatStateRepository(), responseCh)
	telegramHandler := telegram.NewHandler(conversationService, responseCh)

	worker, err := workers.NewTelegramUpdateListener(
		telegramClient,
		authenticator,
		telegramHandler,
		responseCh,
		cfg.TelegramUpdateListenerPoolSize,
	)
	if err != nil {
		return nil, fmt.Errorf("creating telegram update listener: %w", err)
	}
	workerGroup = append(workerGroup, worker)

	if cfg.HTTPAddr != "" {
		workerGroup = append(workerGroup, workers.NewHTTPServer(cfg.HTTPAddr, newRouter(cfg, registry, catalog)))
	}

	return workerGroup, nil
}

func newSessionDeps(cfg Config, catalog services.ThemeCatalog) services.SessionDeps {
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	groqClient := groq.NewClient(cfg.GroqAPIKey, cfg.GroqModel,
		groq.WithBaseURL(cfg.GroqBaseURL),
		groq.WithHTTPClient(httpClient),
	)
	if !groqClient.IsConfigured() {
		slog.Warn("GROQ_API_KEY is not set, questions will be answered with a configuration notice")
	}

	tavilyClient := tavily.NewClient(cfg.TavilyAPIKey, cfg.TavilyBaseURL, cfg.HTTPClientTimeout)
	if !tavilyClient.IsConfigured() {
		slog.Warn("TAVILY_API_KEY is not set, web search will fail")
	}

	moderator := moderation.NewModerator(
		moderation.NewLocalFilter(moderation.DefaultRules()),
		moderation.NewRemoteClassifier(groqClient, cfg.GroqModerationModel),
	)

	// Validated by parseConfig.
	policy, _ := retryPolicy(cfg.RateLimitRetryPolicy)

	responderCfg := services.DefaultResponderConfig()
	responderCfg.Model = cfg.GroqModel
	responderCfg.MaxTokens = cfg.CompletionMaxTokens
	responderCfg.MaxResults = cfg.SearchMaxResults
	responderCfg.MaxRetries = cfg.RateLimitMaxRetries
	responderCfg.MaxTotalWait = cfg.RateLimitMaxWait
	responderCfg.RetryPolicy = policy

	return services.SessionDeps{
		Moderator:            moderator,
		Responder:            services.NewResponder(tavilyClient, groqClient, responderCfg),
		Catalog:              catalog,
		CompletionConfigured: groqClient.IsConfigured(),
	}
}

func newRouter(cfg Config, registry handler.SessionRegistry, catalog handler.ThemeCatalog) http.Handler {
	return api.NewRouter(
		handler.NewConversations(registry),
		handler.NewThemes(catalog),
		cfg.HTTPAllowedOrigins,
	)
}
