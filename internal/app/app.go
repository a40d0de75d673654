package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chimera/internal/common"
	"github.com/ternarybob/chimera/internal/handlers"
	"github.com/ternarybob/chimera/internal/interfaces"
	"github.com/ternarybob/chimera/internal/queue"
	"github.com/ternarybob/chimera/internal/services/events"
	"github.com/ternarybob/chimera/internal/services/notify"
	"github.com/ternarybob/chimera/internal/services/scheduler"
	"github.com/ternarybob/chimera/internal/storage/badger"
	"github.com/ternarybob/chimera/internal/upstream"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	ctx            context.Context
	cancelCtx      context.CancelFunc
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService interfaces.EventService

	// Upstream API client
	UpstreamClient interfaces.UpstreamClient

	// Queue engine
	QueueService interfaces.QueueService

	// Scheduled posting
	SchedulerService *scheduler.Service

	// HTTP handlers
	ChannelHandler      *handlers.ChannelHandler
	QueueHandler        *handlers.QueueHandler
	AssetHandler        *handlers.AssetHandler
	NotificationHandler *handlers.NotificationHandler
	StatusHandler       *handlers.StatusHandler
	WSHandler           *handlers.WebSocketHandler
}

// New creates and wires the application
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := a.initServices(); err != nil {
		cancel()
		return nil, err
	}

	a.initHandlers()

	return a, nil
}

// initServices initializes storage, events, upstream client and queue engine
func (a *App) initServices() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = storageManager

	a.EventService = events.NewService(a.Logger)

	a.UpstreamClient = upstream.NewClient(&a.Config.Upstream, a.Logger)

	notifier := notify.NewEventNotifier(a.EventService, a.Logger)
	confirmer := notify.RequestConfirmer{}

	a.QueueService = queue.NewStore(
		a.UpstreamClient,
		a.EventService,
		confirmer,
		notifier,
		a.Logger,
		queue.Options{
			PageSize:     a.Config.Queue.PageSize,
			PollInterval: a.Config.Queue.GetPollInterval(),
			PollAttempts: a.Config.Queue.PollAttempts,
		},
	)

	a.SchedulerService = scheduler.NewService(
		a.QueueService,
		a.StorageManager.ChannelStorage(),
		a.EventService,
		a.Logger,
	)

	return nil
}

// initHandlers initializes HTTP handlers
func (a *App) initHandlers() {
	a.ChannelHandler = handlers.NewChannelHandler(
		a.StorageManager.ChannelStorage(),
		a.QueueService,
		a.SchedulerService,
		a.Logger,
	)
	a.QueueHandler = handlers.NewQueueHandler(a.QueueService, a.Logger)
	a.AssetHandler = handlers.NewAssetHandler(a.QueueService, a.Logger)
	a.NotificationHandler = handlers.NewNotificationHandler(a.QueueService, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.StorageManager, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.Logger, &a.Config.WebSocket)
}

// Start begins background services
func (a *App) Start() error {
	if a.Config.Scheduler.Enabled {
		if err := a.SchedulerService.Start(a.ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		a.Logger.Info().Msg("Scheduler disabled by configuration")
	}
	return nil
}

// Close shuts down components in reverse dependency order
func (a *App) Close() error {
	a.Logger.Info().Msg("Shutting down application...")

	a.cancelCtx()

	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}

	if a.WSHandler != nil {
		a.WSHandler.Close()
	}

	if a.QueueService != nil {
		if err := a.QueueService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Queue service close failed")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Event service close failed")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage close failed")
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
