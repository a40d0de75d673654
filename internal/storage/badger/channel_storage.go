package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chimera/internal/interfaces"
	"github.com/ternarybob/chimera/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ChannelStorage implements the ChannelStorage interface for Badger
type ChannelStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChannelStorage creates a new ChannelStorage instance
func NewChannelStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChannelStorage {
	return &ChannelStorage{
		db:     db,
		logger: logger,
	}
}

// SaveChannel inserts or updates a channel record, preserving CreatedAt on
// update
func (s *ChannelStorage) SaveChannel(ctx context.Context, channel *models.Channel) error {
	if channel.ID == "" {
		return fmt.Errorf("channel ID is required")
	}

	now := time.Now()
	channel.UpdatedAt = now

	var existing models.Channel
	err := s.db.Store().Get(channel.ID, &existing)
	if err == nil {
		channel.CreatedAt = existing.CreatedAt
	} else if channel.CreatedAt.IsZero() {
		channel.CreatedAt = now
	}

	if err := s.db.Store().Upsert(channel.ID, channel); err != nil {
		return fmt.Errorf("failed to save channel: %w", err)
	}

	s.logger.Debug().
		Str("channel_id", channel.ID).
		Str("handle", channel.Handle).
		Msg("Channel saved")

	return nil
}

// GetChannel retrieves a channel by id
func (s *ChannelStorage) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	var channel models.Channel
	err := s.db.Store().Get(id, &channel)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return &channel, nil
}

// ListChannels returns all registered channels
func (s *ChannelStorage) ListChannels(ctx context.Context) ([]*models.Channel, error) {
	var channels []*models.Channel
	if err := s.db.Store().Find(&channels, nil); err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

// DeleteChannel removes a channel by id; no-op if absent
func (s *ChannelStorage) DeleteChannel(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, models.Channel{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}
