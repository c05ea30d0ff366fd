package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"parlance/services/chat-api/internal/config"
	"parlance/services/chat-api/internal/domain/chat"
	"parlance/services/chat-api/internal/domain/provider"
	"parlance/services/chat-api/internal/domain/research"
	"parlance/services/chat-api/internal/domain/usersettings"
	"parlance/services/chat-api/internal/infrastructure/auth"
	"parlance/services/chat-api/internal/infrastructure/database"
	"parlance/services/chat-api/internal/infrastructure/logger"
	"parlance/services/chat-api/internal/infrastructure/observability"
	anthropicadapter "parlance/services/chat-api/internal/infrastructure/providers/anthropic"
	geminiadapter "parlance/services/chat-api/internal/infrastructure/providers/gemini"
	openaiadapter "parlance/services/chat-api/internal/infrastructure/providers/openai"
	xaiadapter "parlance/services/chat-api/internal/infrastructure/providers/xai"
	conversationrepo "parlance/services/chat-api/internal/infrastructure/repository/conversation"
	settingsrepo "parlance/services/chat-api/internal/infrastructure/repository/usersettings"
	"parlance/services/chat-api/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HttpServer
	manager    *chat.Manager
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, manager *chat.Manager, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		manager:    manager,
		log:        log,
	}
}

// Start runs the HTTP listener and the session janitor until the context
// is cancelled.
func (a *Application) Start(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.httpServer.Run(groupCtx)
	})
	group.Go(func() error {
		err := a.manager.Run(groupCtx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	return group.Wait()
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	conversationRepository := conversationrepo.NewRepository(db)
	settingsRepository := settingsrepo.NewRepository(db)
	settingsService := usersettings.NewService(settingsRepository)

	gemini := geminiadapter.New()
	registry := newRegistry(cfg, settingsService, gemini)

	manager := chat.NewManager(
		conversationRepository,
		registry,
		log,
		chat.WithProviderTimeout(cfg.ProviderTimeout),
	)
	manager.SetSessionTTL(cfg.SessionTTL)

	researchService := research.NewService(gemini, registry)

	httpServer := httpserver.New(cfg, log, manager, settingsService, researchService, authValidator)
	app := NewApplication(httpServer, manager, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// newRegistry binds each selectable model to its adapter, settings key,
// and deployment default credential.
func newRegistry(cfg *config.Config, userKeys provider.CredentialSource, gemini *geminiadapter.Adapter) *provider.Registry {
	registry := provider.NewRegistry(userKeys)
	registry.Register(provider.ModelGeminiFlash, provider.Entry{
		Adapter:    gemini,
		KeyName:    usersettings.KeyGemini,
		DefaultKey: cfg.GeminiAPIKey,
		Variant:    "gemini-1.5-flash",
	})
	registry.Register(provider.ModelGPT4o, provider.Entry{
		Adapter:    openaiadapter.New(),
		KeyName:    usersettings.KeyOpenAI,
		DefaultKey: cfg.OpenAIAPIKey,
		Variant:    "gpt-4o",
	})
	registry.Register(provider.ModelClaudeOpus, provider.Entry{
		Adapter:    anthropicadapter.New(),
		KeyName:    usersettings.KeyAnthropic,
		DefaultKey: cfg.AnthropicAPIKey,
		Variant:    "claude-3-opus-20240229",
	})
	registry.Register(provider.ModelGrok, provider.Entry{
		Adapter:    xaiadapter.New(),
		KeyName:    usersettings.KeyGrok,
		DefaultKey: cfg.XAIAPIKey,
		Variant:    "grok-1",
	})
	return registry
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
