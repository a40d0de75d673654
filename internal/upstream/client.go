package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chimera/internal/common"
	"github.com/ternarybob/chimera/internal/interfaces"
	"github.com/ternarybob/chimera/internal/models"
	"golang.org/x/time/rate"
)

var _ interfaces.UpstreamClient = (*Client)(nil)

// Client talks to the TikTok backend REST API. Outbound calls share a rate
// limiter so bursts of queue activity do not trip upstream throttling.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// NewClient creates an upstream client from configuration
func NewClient(config *common.UpstreamConfig, logger arbor.ILogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		token:   config.Token,
		httpClient: &http.Client{
			Timeout: config.GetTimeout(),
		},
		limiter: rate.NewLimiter(rate.Every(config.GetRateLimit()), 1),
		logger:  logger,
	}
}

// errorResponse is the upstream failure envelope
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do issues one JSON request against the upstream API. A non-2xx response is
// decoded into a typed UpstreamError; out, when non-nil, receives the body.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upErr := &interfaces.UpstreamError{StatusCode: resp.StatusCode}
		var envelope errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil {
			if envelope.Error != "" {
				upErr.Message = envelope.Error
			} else {
				upErr.Message = envelope.Message
			}
		}
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("Upstream request failed")
		return upErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// listAssetsResponse is the asset list page envelope
type listAssetsResponse struct {
	Assets []models.Asset `json:"assets"`
}

// ListAssets returns one page of the channel's assets in server order
func (c *Client) ListAssets(ctx context.Context, channelID string, page, pageSize int) ([]models.Asset, error) {
	path := fmt.Sprintf("/api/v1/channels/%s/assets?page=%d&page_size=%d", channelID, page, pageSize)

	var resp listAssetsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Assets, nil
}

// PostAsset triggers posting of an asset with optional settings
func (c *Client) PostAsset(ctx context.Context, assetID string, settings *models.PostSettings) error {
	path := fmt.Sprintf("/api/v1/assets/%s/post", assetID)
	return c.do(ctx, http.MethodPost, path, settings, nil)
}

// updateAssetRequest carries only the mutable fields
type updateAssetRequest struct {
	Title string `json:"title,omitempty"`
}

// UpdateAsset applies partial fields and returns the updated server record
func (c *Client) UpdateAsset(ctx context.Context, assetID string, fields models.Asset) (models.Asset, error) {
	path := fmt.Sprintf("/api/v1/assets/%s", assetID)

	var updated models.Asset
	err := c.do(ctx, http.MethodPatch, path, updateAssetRequest{Title: fields.Title}, &updated)
	if err != nil {
		return models.Asset{}, err
	}
	return updated, nil
}

// deleteAssetsRequest is the batch delete payload
type deleteAssetsRequest struct {
	AssetIDs []string `json:"asset_ids"`
}

// DeleteAssets removes assets by id
func (c *Client) DeleteAssets(ctx context.Context, assetIDs []string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/assets/delete", deleteAssetsRequest{AssetIDs: assetIDs}, nil)
}

// ReprocessAsset triggers server-side reprocessing of an asset
func (c *Client) ReprocessAsset(ctx context.Context, assetID string) error {
	path := fmt.Sprintf("/api/v1/assets/%s/reprocess", assetID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// postStatusResponse is the post-status envelope
type postStatusResponse struct {
	Status models.AssetStatus `json:"status"`
}

// GetPostStatus returns the asset's current posting status
func (c *Client) GetPostStatus(ctx context.Context, assetID string) (models.AssetStatus, error) {
	path := fmt.Sprintf("/api/v1/assets/%s/post-status", assetID)

	var resp postStatusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
