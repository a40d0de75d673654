package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chimera/internal/interfaces"
	"github.com/ternarybob/chimera/internal/models"
)

// AssetHandler drives asset mutations through the queue dispatcher
type AssetHandler struct {
	queue  interfaces.QueueService
	logger arbor.ILogger
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(queue interfaces.QueueService, logger arbor.ILogger) *AssetHandler {
	return &AssetHandler{
		queue:  queue,
		logger: logger,
	}
}

// channelIDFrom extracts the owning channel from query or body field.
// Asset routes are keyed by asset ID alone; the queue engine needs the
// channel to locate the asset's queue entry.
func channelIDFrom(r *http.Request, bodyValue string) string {
	if id := strings.TrimSpace(r.URL.Query().Get("channel_id")); id != "" {
		return id
	}
	return strings.TrimSpace(bodyValue)
}

// PostAssetHandler handles POST /api/assets/{id}/post
func (h *AssetHandler) PostAssetHandler(w http.ResponseWriter, r *http.Request, assetID string) {
	var req struct {
		ChannelID string               `json:"channel_id"`
		Settings  *models.PostSettings `json:"settings,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	channelID := channelIDFrom(r, req.ChannelID)
	if channelID == "" {
		WriteError(w, http.StatusBadRequest, "channel_id is required")
		return
	}

	if err := h.queue.PostNow(r.Context(), channelID, assetID, req.Settings); err != nil {
		h.logger.Warn().Err(err).Str("asset_id", assetID).Msg("Post request failed")
		WriteError(w, http.StatusBadGateway, "Failed to post asset: "+err.Error())
		return
	}

	WriteSuccess(w, "Post submitted")
}

// UpdateAssetHandler handles PATCH /api/assets/{id}
func (h *AssetHandler) UpdateAssetHandler(w http.ResponseWriter, r *http.Request, assetID string) {
	var req struct {
		ChannelID string `json:"channel_id"`
		Title     string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	channelID := channelIDFrom(r, req.ChannelID)
	if channelID == "" {
		WriteError(w, http.StatusBadRequest, "channel_id is required")
		return
	}
	if req.Title == "" {
		WriteError(w, http.StatusBadRequest, "title is required")
		return
	}

	if err := h.queue.UpdateTitle(r.Context(), channelID, assetID, req.Title); err != nil {
		h.logger.Warn().Err(err).Str("asset_id", assetID).Msg("Title update failed")
		WriteError(w, http.StatusBadGateway, "Failed to update title: "+err.Error())
		return
	}

	WriteSuccess(w, "Title updated")
}

// DeleteAssetHandler handles DELETE /api/assets/{id}. Deleting an asset in a
// locked status (posting, deleting) is refused by the queue engine without
// touching the backend; that refusal still returns 200 with the queue state
// unchanged, mirroring the in-app notice flow.
func (h *AssetHandler) DeleteAssetHandler(w http.ResponseWriter, r *http.Request, assetID string) {
	channelID := channelIDFrom(r, "")
	if channelID == "" {
		WriteError(w, http.StatusBadRequest, "channel_id is required")
		return
	}

	if err := h.queue.DeleteAsset(r.Context(), channelID, assetID); err != nil {
		h.logger.Warn().Err(err).Str("asset_id", assetID).Msg("Delete request failed")
		WriteError(w, http.StatusBadGateway, "Failed to delete asset: "+err.Error())
		return
	}

	WriteSuccess(w, "Delete processed")
}

// ReprocessAssetHandler handles POST /api/assets/{id}/reprocess
func (h *AssetHandler) ReprocessAssetHandler(w http.ResponseWriter, r *http.Request, assetID string) {
	var req struct {
		ChannelID string `json:"channel_id"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	channelID := channelIDFrom(r, req.ChannelID)
	if channelID == "" {
		WriteError(w, http.StatusBadRequest, "channel_id is required")
		return
	}

	if err := h.queue.ReprocessAsset(r.Context(), channelID, assetID); err != nil {
		h.logger.Warn().Err(err).Str("asset_id", assetID).Msg("Reprocess request failed")
		WriteError(w, http.StatusBadGateway, "Failed to reprocess asset: "+err.Error())
		return
	}

	WriteSuccess(w, "Reprocess submitted")
}
