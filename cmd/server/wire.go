//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"parlance/services/chat-api/internal/config"
	"parlance/services/chat-api/internal/domain/chat"
	"parlance/services/chat-api/internal/domain/conversation"
	"parlance/services/chat-api/internal/domain/provider"
	"parlance/services/chat-api/internal/domain/research"
	"parlance/services/chat-api/internal/domain/usersettings"
	"parlance/services/chat-api/internal/infrastructure/auth"
	"parlance/services/chat-api/internal/infrastructure/database"
	geminiadapter "parlance/services/chat-api/internal/infrastructure/providers/gemini"
	"parlance/services/chat-api/internal/infrastructure/logger"
	conversationrepo "parlance/services/chat-api/internal/infrastructure/repository/conversation"
	settingsrepo "parlance/services/chat-api/internal/infrastructure/repository/usersettings"
	"parlance/services/chat-api/internal/interfaces/httpserver"
)

var chatSet = wire.NewSet(
	conversationrepo.NewRepository,
	wire.Bind(new(conversation.Repository), new(*conversationrepo.Repository)),
	settingsrepo.NewRepository,
	wire.Bind(new(usersettings.Repository), new(*settingsrepo.Repository)),
	usersettings.NewService,
	wire.Bind(new(provider.CredentialSource), new(*usersettings.Service)),
	geminiadapter.New,
	wire.Bind(new(research.GenerativeClient), new(*geminiadapter.Adapter)),
	newRegistry,
	wire.Bind(new(research.CredentialResolver), new(*provider.Registry)),
	newManager,
	research.NewService,
)

// BuildApplication demonstrates how to assemble the chat service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		chatSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newManager(cfg *config.Config, store conversation.Repository, registry *provider.Registry, log zerolog.Logger) *chat.Manager {
	manager := chat.NewManager(store, registry, log, chat.WithProviderTimeout(cfg.ProviderTimeout))
	manager.SetSessionTTL(cfg.SessionTTL)
	return manager
}
