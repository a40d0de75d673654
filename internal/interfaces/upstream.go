package interfaces

import (
	"context"
	"fmt"

	"github.com/ternarybob/chimera/internal/models"
)

// UpstreamClient is the consumed contract of the TikTok backend. The backend
// itself is an external collaborator; nothing here re-implements it.
type UpstreamClient interface {
	// ListAssets returns one page of a channel's assets in server order.
	// A page shorter than pageSize means the collection is exhausted.
	ListAssets(ctx context.Context, channelID string, page, pageSize int) ([]models.Asset, error)

	// PostAsset triggers posting of an asset with optional settings
	PostAsset(ctx context.Context, assetID string, settings *models.PostSettings) error

	// UpdateAsset applies partial fields (e.g., title) and returns the
	// updated server record
	UpdateAsset(ctx context.Context, assetID string, fields models.Asset) (models.Asset, error)

	// DeleteAssets removes assets by id. Batch-capable; the queue engine only
	// ever sends one id at a time.
	DeleteAssets(ctx context.Context, assetIDs []string) error

	// ReprocessAsset triggers server-side reprocessing; completion is not
	// awaited synchronously
	ReprocessAsset(ctx context.Context, assetID string) error

	// GetPostStatus returns the asset's current posting status
	GetPostStatus(ctx context.Context, assetID string) (models.AssetStatus, error)
}

// UpstreamError is a typed error decoded from an upstream failure response
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream error (status %d)", e.StatusCode)
}
