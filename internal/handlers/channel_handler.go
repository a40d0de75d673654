package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chimera/internal/common"
	"github.com/ternarybob/chimera/internal/interfaces"
	"github.com/ternarybob/chimera/internal/models"
	"github.com/ternarybob/chimera/internal/services/scheduler"
)

// ChannelHandler manages the connected-channel registry
type ChannelHandler struct {
	storage   interfaces.ChannelStorage
	queue     interfaces.QueueService
	scheduler *scheduler.Service
	validate  *validator.Validate
	logger    arbor.ILogger
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(
	storage interfaces.ChannelStorage,
	queue interfaces.QueueService,
	schedulerService *scheduler.Service,
	logger arbor.ILogger,
) *ChannelHandler {
	return &ChannelHandler{
		storage:   storage,
		queue:     queue,
		scheduler: schedulerService,
		validate:  validator.New(),
		logger:    logger,
	}
}

// ListChannelsHandler handles GET /api/channels
func (h *ChannelHandler) ListChannelsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	channels, err := h.storage.ListChannels(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list channels")
		WriteError(w, http.StatusInternalServerError, "Failed to list channels")
		return
	}
	if channels == nil {
		channels = []*models.Channel{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"channels": channels,
		"count":    len(channels),
	})
}

// CreateChannelHandler handles POST /api/channels
func (h *ChannelHandler) CreateChannelHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var channel models.Channel
	if err := json.NewDecoder(r.Body).Decode(&channel); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&channel); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid channel: "+err.Error())
		return
	}

	if err := scheduler.ValidateSchedule(channel.PostSchedule); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if channel.ID == "" {
		channel.ID = common.NewChannelID()
	}

	if err := h.storage.SaveChannel(r.Context(), &channel); err != nil {
		h.logger.Error().Err(err).Str("channel_id", channel.ID).Msg("Failed to save channel")
		WriteError(w, http.StatusInternalServerError, "Failed to save channel")
		return
	}

	if h.scheduler != nil {
		if err := h.scheduler.RegisterChannel(&channel); err != nil {
			h.logger.Warn().Err(err).Str("channel_id", channel.ID).Msg("Failed to register channel schedule")
		}
	}

	h.logger.Info().
		Str("channel_id", channel.ID).
		Str("handle", channel.Handle).
		Msg("Channel registered")

	WriteJSON(w, http.StatusCreated, &channel)
}

// GetChannelHandler handles GET /api/channels/{id}
func (h *ChannelHandler) GetChannelHandler(w http.ResponseWriter, r *http.Request, channelID string) {
	channel, err := h.storage.GetChannel(r.Context(), channelID)
	if err != nil {
		if errors.Is(err, interfaces.ErrChannelNotFound) {
			WriteError(w, http.StatusNotFound, "Channel not found")
			return
		}
		h.logger.Error().Err(err).Str("channel_id", channelID).Msg("Failed to get channel")
		WriteError(w, http.StatusInternalServerError, "Failed to get channel")
		return
	}

	WriteJSON(w, http.StatusOK, channel)
}

// DeleteChannelHandler handles DELETE /api/channels/{id}. Dropping a channel
// clears its queue state and stops its pollers.
func (h *ChannelHandler) DeleteChannelHandler(w http.ResponseWriter, r *http.Request, channelID string) {
	if err := h.storage.DeleteChannel(r.Context(), channelID); err != nil {
		h.logger.Error().Err(err).Str("channel_id", channelID).Msg("Failed to delete channel")
		WriteError(w, http.StatusInternalServerError, "Failed to delete channel")
		return
	}

	if h.scheduler != nil {
		h.scheduler.UnregisterChannel(channelID)
	}
	h.queue.DropChannel(channelID)

	h.logger.Info().Str("channel_id", channelID).Msg("Channel removed")

	WriteSuccess(w, "Channel removed")
}
