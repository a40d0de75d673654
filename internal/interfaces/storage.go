package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/chimera/internal/models"
)

// ErrChannelNotFound is returned when a channel id has no stored record
var ErrChannelNotFound = errors.New("channel not found")

// ChannelStorage persists the connected-channel registry
type ChannelStorage interface {
	SaveChannel(ctx context.Context, channel *models.Channel) error
	GetChannel(ctx context.Context, id string) (*models.Channel, error)
	ListChannels(ctx context.Context) ([]*models.Channel, error)
	DeleteChannel(ctx context.Context, id string) error
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	ChannelStorage() ChannelStorage
	Close() error
}
