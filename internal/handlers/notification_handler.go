package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chimera/internal/common"
	"github.com/ternarybob/chimera/internal/interfaces"
	"github.com/ternarybob/chimera/internal/models"
)

// NotificationHandler ingests pushed status notifications from the upstream
// service. A pushed terminal status supersedes any in-flight poll for the
// same asset.
type NotificationHandler struct {
	queue  interfaces.QueueService
	logger arbor.ILogger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(queue interfaces.QueueService, logger arbor.ILogger) *NotificationHandler {
	return &NotificationHandler{
		queue:  queue,
		logger: logger,
	}
}

// StatusNotificationHandler handles POST /api/notifications/status
func (h *NotificationHandler) StatusNotificationHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		ChannelID  string             `json:"channel_id"`
		AssetID    string             `json:"asset_id"`
		Status     models.AssetStatus `json:"status"`
		FailReason string             `json:"fail_reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ChannelID == "" || req.AssetID == "" {
		WriteError(w, http.StatusBadRequest, "channel_id and asset_id are required")
		return
	}
	if !req.Status.IsValid() {
		WriteError(w, http.StatusBadRequest, "Unknown asset status: "+string(req.Status))
		return
	}

	h.queue.ApplyStatusNotification(req.ChannelID, models.Asset{
		ID:         req.AssetID,
		ChannelID:  req.ChannelID,
		Status:     req.Status,
		FailReason: req.FailReason,
	})

	notificationID := common.NewNotificationID()

	h.logger.Debug().
		Str("notification_id", notificationID).
		Str("channel_id", req.ChannelID).
		Str("asset_id", req.AssetID).
		Str("status", string(req.Status)).
		Msg("Status notification applied")

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":          "success",
		"notification_id": notificationID,
	})
}
