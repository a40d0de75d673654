package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chimera/internal/interfaces"
)

// QueueHandler exposes the per-channel queue projection
type QueueHandler struct {
	queue  interfaces.QueueService
	logger arbor.ILogger
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queue interfaces.QueueService, logger arbor.ILogger) *QueueHandler {
	return &QueueHandler{
		queue:  queue,
		logger: logger,
	}
}

// GetQueueHandler handles GET /api/channels/{id}/queue. Touching an unseen
// channel schedules its first full fetch in the background; the returned view
// reports is_loading=true for that case.
func (h *QueueHandler) GetQueueHandler(w http.ResponseWriter, r *http.Request, channelID string) {
	view := h.queue.View(r.Context(), channelID)
	WriteJSON(w, http.StatusOK, view)
}

// RefreshQueueHandler handles POST /api/channels/{id}/queue/refresh. The
// queue is cleared before this returns; the refetch runs in the background.
func (h *QueueHandler) RefreshQueueHandler(w http.ResponseWriter, r *http.Request, channelID string) {
	h.queue.RefreshQueue(channelID)

	h.logger.Debug().Str("channel_id", channelID).Msg("Queue refresh requested")

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":     "refreshing",
		"channel_id": channelID,
	})
}
