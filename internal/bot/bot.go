// Package bot assembles the Telegram bot: transport, routing, middlewares
// and handler wiring.
package bot

import (
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/botmakerhq/hostbot/internal/bot/handlers"
	"github.com/botmakerhq/hostbot/internal/bot/keyboard"
	errors "github.com/botmakerhq/hostbot/internal/errors"
	"github.com/botmakerhq/hostbot/internal/files"
	"github.com/botmakerhq/hostbot/internal/idempotency"
	"github.com/botmakerhq/hostbot/internal/middleware"
	"github.com/botmakerhq/hostbot/internal/scan"
	"github.com/botmakerhq/hostbot/internal/session"
	"github.com/botmakerhq/hostbot/internal/webhook"
	"github.com/botmakerhq/hostbot/pkg/config"
)

// Bot wraps telebot.Bot with the application dependencies required for
// handling updates.
type Bot struct {
	telebot            *telebot.Bot
	log                *slog.Logger
	cfg                config.Config
	sessions           session.Manager
	store              files.Store
	orchestrator       *webhook.Orchestrator
	rateLimitMw        *middleware.RateLimitMiddleware
	router             *Router
	dispatcher         *Dispatcher
	keyboard           *keyboard.Builder
	errHandler         *errors.Handler
	idempotencyManager idempotency.Manager
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg config.Config,
	log *slog.Logger,
	sessions session.Manager,
	store files.Store,
	scanner *scan.Scanner,
	orchestrator *webhook.Orchestrator,
	idempotencyManager idempotency.Manager,
	rateLimitMw *middleware.RateLimitMiddleware,
) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}
	if cfg.Bot.APIURL != "" {
		settings.URL = cfg.Bot.APIURL
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Bot.Listen,
			Endpoint: &telebot.WebhookEndpoint{
				PublicURL: cfg.Bot.WebhookURL,
			},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: 10 * time.Second,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	kb := keyboard.NewBuilder(log)
	dispatcher := NewDispatcher(log)
	router := NewRouter(dispatcher, sessions, log)
	errHandler := errors.NewHandler(log, cfg.Sentry.Enabled)

	b := &Bot{
		telebot:            tb,
		log:                log,
		cfg:                cfg,
		sessions:           sessions,
		store:              store,
		orchestrator:       orchestrator,
		rateLimitMw:        rateLimitMw,
		router:             router,
		dispatcher:         dispatcher,
		keyboard:           kb,
		errHandler:         errHandler,
		idempotencyManager: idempotencyManager,
	}

	b.setupRouter(scanner)

	if b.rateLimitMw != nil {
		b.telebot.Use(b.rateLimitMw.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter(scanner *scan.Scanner) {
	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(middleware.Idempotency(b.idempotencyManager, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.log, b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Metrics)

	policy := files.Policy{
		AllowedExtensions: b.cfg.Storage.AllowedExtensions,
		ScanUploads:       b.cfg.Storage.ScanUploads,
		MaxFiles:          b.cfg.Storage.MaxFiles,
		MaxFileSize:       b.cfg.Storage.MaxFileSize,
	}
	publicBase := b.cfg.Storage.PublicBaseURL

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(b.sessions, b.keyboard, b.log))
	b.router.RegisterCommand(CommandList, handlers.NewListHandler(b.store, publicBase, policy.MaxFiles, b.log))
	b.router.RegisterCommand(CommandUpload, handlers.NewUploadPromptHandler(policy))
	b.router.RegisterCommand(CommandDelete, handlers.NewDeletePromptHandler(b.sessions, b.store, b.log))
	b.router.RegisterCommand(CommandWebhook,
		handlers.NewWorkflowPromptHandler(b.sessions, session.StateAwaitingWebhookToken, "register", b.log))
	b.router.RegisterCommand(CommandWebhookInfo,
		handlers.NewWorkflowPromptHandler(b.sessions, session.StateAwaitingInfoToken, "inspect", b.log))
	b.router.RegisterCommand(CommandDeleteWebhook,
		handlers.NewWorkflowPromptHandler(b.sessions, session.StateAwaitingDeleteHookToken, "disconnect", b.log))

	b.router.SetDocumentHandler(handlers.NewDocumentHandler(
		b.store, policy, scanner, b.telebot, publicBase, b.log))
	b.router.SetDefault(handlers.NewFallbackHandler())

	b.registerWorkflowSteps()
}

func (b *Bot) registerWorkflowSteps() {
	tempDir := b.cfg.Storage.TempDir

	b.dispatcher.RegisterStateHandler(session.StateAwaitingWebhookToken,
		handlers.NewTokenStepHandler(b.sessions, session.StateAwaitingWebhookFilename, b.log))
	b.dispatcher.RegisterStateHandler(session.StateAwaitingWebhookFilename,
		handlers.NewFilenameStepHandler(b.sessions, b.orchestrator.Register, "✅ Webhook registered.", tempDir, b.log))

	b.dispatcher.RegisterStateHandler(session.StateAwaitingInfoToken,
		handlers.NewTokenStepHandler(b.sessions, session.StateAwaitingInfoFilename, b.log))
	b.dispatcher.RegisterStateHandler(session.StateAwaitingInfoFilename,
		handlers.NewFilenameStepHandler(b.sessions, b.orchestrator.Query, "ℹ️ Current webhook registration:", tempDir, b.log))

	b.dispatcher.RegisterStateHandler(session.StateAwaitingDeleteHookToken,
		handlers.NewTokenStepHandler(b.sessions, session.StateAwaitingDeleteHookFilename, b.log))
	b.dispatcher.RegisterStateHandler(session.StateAwaitingDeleteHookFilename,
		handlers.NewFilenameStepHandler(b.sessions, b.orchestrator.Unregister, "✅ Webhook removed.", tempDir, b.log))

	b.dispatcher.RegisterStateHandler(session.StateAwaitingDeleteFilename,
		handlers.NewDeleteFilenameHandler(b.sessions, b.store, b.log))
}

func (b *Bot) registerTelebotHandlers() {
	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnDocument, b.router.Route)
}
