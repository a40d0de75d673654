package interfaces

import (
	"context"

	"github.com/ternarybob/chimera/internal/models"
)

// ChannelView is the read-only projection of one channel's queue state
type ChannelView struct {
	ChannelID     string         `json:"channel_id"`
	Assets        []models.Asset `json:"assets"`
	IsLoading     bool           `json:"is_loading"`
	IsFullyLoaded bool           `json:"is_fully_loaded"`
	Error         string         `json:"error,omitempty"`
}

// QueueService is the asset queue engine: per-channel queue state, paginated
// fetching, optimistic mutations and post-status polling
type QueueService interface {
	// View returns the channel's current queue projection, triggering a
	// background fetch if nothing useful is cached yet
	View(ctx context.Context, channelID string) ChannelView

	// FetchAllAssets drains the channel's full collection page by page.
	// At most one full fetch runs per channel; concurrent calls are no-ops.
	FetchAllAssets(ctx context.Context, channelID string, isRefresh bool) error

	// RefreshQueue clears the channel's queue and schedules a fresh fetch
	RefreshQueue(channelID string)

	// UpdateTitle optimistically renames an asset, rolling back on failure
	UpdateTitle(ctx context.Context, channelID, assetID, title string) error

	// PostNow posts an asset after confirmation and arms the status poller
	PostNow(ctx context.Context, channelID, assetID string, settings *models.PostSettings) error

	// DeleteAsset removes an asset unless its status is locked
	DeleteAsset(ctx context.Context, channelID, assetID string) error

	// ReprocessAsset triggers server-side reprocessing and refreshes the queue
	ReprocessAsset(ctx context.Context, channelID, assetID string) error

	// ApplyStatusNotification feeds an externally pushed status change into
	// the queue, replacing any in-flight poll for the asset
	ApplyStatusNotification(channelID string, asset models.Asset)

	// IsActionInProgress reports whether the (operation, asset) pair has an
	// in-flight request
	IsActionInProgress(op, assetID string) bool

	// DropChannel removes a channel's queue state and stops its pollers
	DropChannel(channelID string)

	// Close stops all pollers and rejects further work
	Close() error
}

// Confirmer models the human-in-the-loop approval gate for destructive or
// irreversible actions. Implementations decide synchronously.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Notifier surfaces user-visible failure notices. Implementations must not
// block the mutation path indefinitely.
type Notifier interface {
	Failure(ctx context.Context, message string)
}
