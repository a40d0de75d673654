package models

import (
	"time"
)

// Channel represents a connected TikTok account being managed. It is the
// partitioning key for the asset queue.
type Channel struct {
	ID           string       `json:"id" badgerhold:"key"`
	Name         string       `json:"name" validate:"required"`
	Handle       string       `json:"handle" validate:"required"` // e.g., "@brandaccount"
	PostSchedule string       `json:"post_schedule,omitempty"`    // Optional cron expression for scheduled posting
	PostDefaults PostSettings `json:"post_defaults"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// PostSettings carries the optional payload sent with a post request
type PostSettings struct {
	Caption         string `json:"caption,omitempty" validate:"max=2200"`
	PrivacyLevel    string `json:"privacy_level,omitempty" validate:"omitempty,oneof=public friends private"`
	DisableComments bool   `json:"disable_comments,omitempty"`
	DisableDuet     bool   `json:"disable_duet,omitempty"`
	DisableStitch   bool   `json:"disable_stitch,omitempty"`
}
