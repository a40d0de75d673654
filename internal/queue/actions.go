package queue

import (
	"github.com/ternarybob/chimera/internal/models"
)

// ActionType is the closed tag set for queue state transitions. The reducer
// treats unknown tags as no-ops so new action types can roll out without
// breaking older dispatch sites.
type ActionType int

const (
	actionUnknown ActionType = iota
	ActionFetchStart
	ActionFetchSuccess
	ActionFetchAppend
	ActionFetchComplete
	ActionFetchError
	ActionSetAsset
	ActionRemoveAsset
	ActionStart
	ActionEnd
	ActionClearQueue
)

// Action is the tagged-union carried through the reducer. Only the fields
// relevant to the Type are populated.
type Action struct {
	Type        ActionType
	ChannelID   string
	Assets      []models.Asset
	Asset       models.Asset
	AssetID     string
	FullyLoaded bool
	Err         string
	Key         string // "{op}-{assetID}" in-progress key
}

// FetchStart marks a channel fetch as outstanding, creating the channel
// entry if absent
func FetchStart(channelID string) Action {
	return Action{Type: ActionFetchStart, ChannelID: channelID}
}

// FetchSuccess replaces the channel's asset list with the first page
func FetchSuccess(channelID string, assets []models.Asset, fullyLoaded bool) Action {
	return Action{Type: ActionFetchSuccess, ChannelID: channelID, Assets: assets, FullyLoaded: fullyLoaded}
}

// FetchAppend appends a subsequent page, deduplicating by asset id
func FetchAppend(channelID string, assets []models.Asset) Action {
	return Action{Type: ActionFetchAppend, ChannelID: channelID, Assets: assets}
}

// FetchComplete marks the channel's collection as fully drained
func FetchComplete(channelID string) Action {
	return Action{Type: ActionFetchComplete, ChannelID: channelID}
}

// FetchError records a fetch failure without discarding already-fetched pages
func FetchError(channelID, message string) Action {
	return Action{Type: ActionFetchError, ChannelID: channelID, Err: message}
}

// SetAsset upserts an asset by id (replace-and-merge if present, append at
// the end of the list if not)
func SetAsset(channelID string, asset models.Asset) Action {
	return Action{Type: ActionSetAsset, ChannelID: channelID, Asset: asset}
}

// RemoveAsset filters an asset out by id; no-op if channel or asset absent
func RemoveAsset(channelID, assetID string) Action {
	return Action{Type: ActionRemoveAsset, ChannelID: channelID, AssetID: assetID}
}

// MarkActionStart adds an in-progress key to the dedup set
func MarkActionStart(key string) Action {
	return Action{Type: ActionStart, Key: key}
}

// MarkActionEnd removes an in-progress key from the dedup set
func MarkActionEnd(key string) Action {
	return Action{Type: ActionEnd, Key: key}
}

// ClearQueue deletes the channel's entry entirely, forcing a clean refetch
func ClearQueue(channelID string) Action {
	return Action{Type: ActionClearQueue, ChannelID: channelID}
}
