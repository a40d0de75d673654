package models

import (
	"time"
)

// AssetStatus represents the lifecycle state of an uploaded video asset.
// Happy path: uploaded -> processed -> posting -> posted.
// process_failed branches from uploaded/processed, posting_failed from posting.
// deleting is a transient state preceding removal.
type AssetStatus string

const (
	AssetStatusUploaded      AssetStatus = "uploaded"
	AssetStatusProcessed     AssetStatus = "processed"
	AssetStatusPosting       AssetStatus = "posting"
	AssetStatusPosted        AssetStatus = "posted"
	AssetStatusProcessFailed AssetStatus = "process_failed"
	AssetStatusPostingFailed AssetStatus = "posting_failed"
	AssetStatusDeleting      AssetStatus = "deleting"
)

// IsTerminal returns true for statuses from which no further automatic
// transition occurs.
func (s AssetStatus) IsTerminal() bool {
	return s == AssetStatusPosted || s == AssetStatusPostingFailed
}

// IsLocked returns true for statuses during which destructive actions
// (delete) are disallowed.
func (s AssetStatus) IsLocked() bool {
	return s == AssetStatusPosting || s == AssetStatusDeleting
}

// IsProcessable returns true if the asset is eligible for the reprocess
// action. Any status other than the locked ones qualifies.
func (s AssetStatus) IsProcessable() bool {
	return !s.IsLocked()
}

// IsFailed returns true for the failure branch statuses
func (s AssetStatus) IsFailed() bool {
	return s == AssetStatusProcessFailed || s == AssetStatusPostingFailed
}

// IsValid returns true if the status is a known value
func (s AssetStatus) IsValid() bool {
	switch s {
	case AssetStatusUploaded, AssetStatusProcessed, AssetStatusPosting,
		AssetStatusPosted, AssetStatusProcessFailed, AssetStatusPostingFailed,
		AssetStatusDeleting:
		return true
	}
	return false
}

// Asset represents an uploaded video item progressing through the
// upload -> process -> post lifecycle. The upstream record is authoritative;
// the queue holds a cached copy that may be optimistically mutated ahead of
// confirmation.
type Asset struct {
	ID           string      `json:"id"`
	ChannelID    string      `json:"channel_id"`
	Title        string      `json:"title"`
	Status       AssetStatus `json:"status"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	Duration     float64     `json:"duration,omitempty"`    // Seconds
	FailReason   string      `json:"fail_reason,omitempty"` // Present only in failed states
	CreatedAt    time.Time   `json:"created_at"`
}

// Merge applies the non-zero fields of patch over a, returning the merged
// record. Used by the queue upsert path so partial server responses do not
// wipe cached fields.
func (a Asset) Merge(patch Asset) Asset {
	merged := a
	if patch.ChannelID != "" {
		merged.ChannelID = patch.ChannelID
	}
	if patch.Title != "" {
		merged.Title = patch.Title
	}
	if patch.Status != "" {
		merged.Status = patch.Status
	}
	if patch.ThumbnailURL != "" {
		merged.ThumbnailURL = patch.ThumbnailURL
	}
	if patch.Duration != 0 {
		merged.Duration = patch.Duration
	}
	if patch.Status.IsFailed() {
		merged.FailReason = patch.FailReason
	} else if patch.Status != "" {
		// Leaving a failed state clears the stale reason
		merged.FailReason = ""
	}
	if !patch.CreatedAt.IsZero() {
		merged.CreatedAt = patch.CreatedAt
	}
	return merged
}

// WithStatus returns a copy of the asset with the given status
func (a Asset) WithStatus(status AssetStatus) Asset {
	a.Status = status
	if !status.IsFailed() {
		a.FailReason = ""
	}
	return a
}
