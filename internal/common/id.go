package common

import (
	"github.com/google/uuid"
)

// NewChannelID generates a unique channel ID with the "chan_" prefix
func NewChannelID() string {
	return "chan_" + uuid.New().String()
}

// NewNotificationID generates a unique notification ID with the "ntf_" prefix
func NewNotificationID() string {
	return "ntf_" + uuid.New().String()
}
