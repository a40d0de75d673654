package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chimera/internal/interfaces"
	"github.com/ternarybob/chimera/internal/models"
)

// channelEntry tracks one channel's registered cron schedule
type channelEntry struct {
	channelID string
	schedule  string
	cronID    cron.EntryID
	lastRun   *time.Time
	lastError string
}

// Service posts queued videos on per-channel cron schedules. On fire, the
// next postable asset (status processed) is sent through the same queue
// dispatcher path a manual post uses.
type Service struct {
	queue    interfaces.QueueService
	channels interfaces.ChannelStorage
	events   interfaces.EventService
	cron     *cron.Cron
	logger   arbor.ILogger

	mu      sync.Mutex
	entries map[string]*channelEntry
	running bool
}

// NewService creates a new scheduler service
func NewService(
	queue interfaces.QueueService,
	channels interfaces.ChannelStorage,
	eventService interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	return &Service{
		queue:    queue,
		channels: channels,
		events:   eventService,
		cron:     cron.New(),
		logger:   logger,
		entries:  make(map[string]*channelEntry),
	}
}

// ValidateSchedule checks a cron expression before it is stored
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// Start registers schedules for all stored channels and begins the cron loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.mu.Unlock()

	channels, err := s.channels.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("failed to load channels for scheduling: %w", err)
	}

	for _, channel := range channels {
		if channel.PostSchedule == "" {
			continue
		}
		if err := s.RegisterChannel(channel); err != nil {
			s.logger.Warn().
				Err(err).
				Str("channel_id", channel.ID).
				Msg("Failed to register channel schedule")
		}
	}

	s.cron.Start()

	s.logger.Info().
		Int("scheduled_channels", len(s.entries)).
		Msg("Scheduler started")

	return nil
}

// RegisterChannel adds or replaces the channel's posting schedule
func (s *Service) RegisterChannel(channel *models.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[channel.ID]; ok {
		s.cron.Remove(existing.cronID)
		delete(s.entries, channel.ID)
	}

	if channel.PostSchedule == "" {
		return nil
	}

	channelID := channel.ID
	cronID, err := s.cron.AddFunc(channel.PostSchedule, func() {
		s.firePost(channelID)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron entry: %w", err)
	}

	s.entries[channel.ID] = &channelEntry{
		channelID: channel.ID,
		schedule:  channel.PostSchedule,
		cronID:    cronID,
	}

	s.logger.Info().
		Str("channel_id", channel.ID).
		Str("schedule", channel.PostSchedule).
		Msg("Channel posting schedule registered")

	return nil
}

// UnregisterChannel removes the channel's posting schedule
func (s *Service) UnregisterChannel(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[channelID]; ok {
		s.cron.Remove(entry.cronID)
		delete(s.entries, channelID)
	}
}

// firePost posts the channel's next postable asset, if any
func (s *Service) firePost(channelID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	asset, ok := s.nextPostable(ctx, channelID)

	now := time.Now()
	s.mu.Lock()
	if entry, exists := s.entries[channelID]; exists {
		entry.lastRun = &now
	}
	s.mu.Unlock()

	if !ok {
		s.logger.Debug().
			Str("channel_id", channelID).
			Msg("Scheduled post fired with no postable asset")
		return
	}

	channel, err := s.channels.GetChannel(ctx, channelID)
	if err != nil {
		s.recordError(channelID, err)
		return
	}

	if err := s.queue.PostNow(ctx, channelID, asset.ID, &channel.PostDefaults); err != nil {
		s.recordError(channelID, err)
		return
	}

	s.logger.Info().
		Str("channel_id", channelID).
		Str("asset_id", asset.ID).
		Msg("Scheduled post fired")

	if s.events != nil {
		s.events.Publish(context.Background(), interfaces.Event{
			Type: interfaces.EventScheduledPostFired,
			Payload: map[string]interface{}{
				"channel_id": channelID,
				"asset_id":   asset.ID,
				"timestamp":  now.Format(time.RFC3339),
			},
		})
	}
}

// nextPostable returns the first processed asset in queue order
func (s *Service) nextPostable(ctx context.Context, channelID string) (models.Asset, bool) {
	view := s.queue.View(ctx, channelID)
	for _, asset := range view.Assets {
		if asset.Status == models.AssetStatusProcessed {
			return asset, true
		}
	}
	return models.Asset{}, false
}

// recordError stores the failure on the channel entry for status reporting
func (s *Service) recordError(channelID string, err error) {
	s.logger.Warn().
		Err(err).
		Str("channel_id", channelID).
		Msg("Scheduled post failed")

	s.mu.Lock()
	if entry, ok := s.entries[channelID]; ok {
		entry.lastError = err.Error()
	}
	s.mu.Unlock()
}

// Stop halts the cron loop, waiting for any running fire to finish
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info().Msg("Scheduler stopped")
}
