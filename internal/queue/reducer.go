package queue

import (
	"github.com/ternarybob/chimera/internal/models"
)

// ChannelQueue is the per-channel queue state. Assets keep server-return
// order: append-on-page, replace-on-refresh.
type ChannelQueue struct {
	Assets        []models.Asset
	IsLoading     bool
	IsFullyLoaded bool
	Page          int // Next page to request, 1-based
	Error         string
}

// State is the complete queue state: per-channel queues plus the in-progress
// action key set. All writes go through apply; nothing mutates it directly.
type State struct {
	Channels   map[string]*ChannelQueue
	InProgress map[string]struct{}
}

// newState returns an empty queue state
func newState() *State {
	return &State{
		Channels:   make(map[string]*ChannelQueue),
		InProgress: make(map[string]struct{}),
	}
}

// channel returns the channel entry, creating it lazily
func (st *State) channel(channelID string) *ChannelQueue {
	cq, ok := st.Channels[channelID]
	if !ok {
		cq = &ChannelQueue{Page: 1}
		st.Channels[channelID] = cq
	}
	return cq
}

// apply is the single state-transition point. It is synchronous and
// order-preserving; callers serialize through the store mutex so every
// action is applied atomically. Unknown action types are no-ops.
func apply(st *State, a Action) {
	switch a.Type {
	case ActionFetchStart:
		cq := st.channel(a.ChannelID)
		cq.IsLoading = true
		cq.Error = ""

	case ActionFetchSuccess:
		cq := st.channel(a.ChannelID)
		cq.Assets = append([]models.Asset(nil), a.Assets...)
		cq.IsLoading = false
		cq.IsFullyLoaded = a.FullyLoaded
		cq.Page = 2
		cq.Error = ""

	case ActionFetchAppend:
		cq := st.channel(a.ChannelID)
		seen := make(map[string]struct{}, len(cq.Assets))
		for _, asset := range cq.Assets {
			seen[asset.ID] = struct{}{}
		}
		for _, asset := range a.Assets {
			if _, dup := seen[asset.ID]; dup {
				continue
			}
			seen[asset.ID] = struct{}{}
			cq.Assets = append(cq.Assets, asset)
		}
		cq.IsLoading = true
		cq.Page++

	case ActionFetchComplete:
		cq := st.channel(a.ChannelID)
		cq.IsLoading = false
		cq.IsFullyLoaded = true

	case ActionFetchError:
		// Existing assets are preserved so partial data survives a failed page
		cq := st.channel(a.ChannelID)
		cq.IsLoading = false
		cq.Error = a.Err

	case ActionSetAsset:
		cq := st.channel(a.ChannelID)
		for i, asset := range cq.Assets {
			if asset.ID == a.Asset.ID {
				cq.Assets[i] = asset.Merge(a.Asset)
				return
			}
		}
		// Unknown id: append at the end of the list
		cq.Assets = append(cq.Assets, a.Asset)

	case ActionRemoveAsset:
		cq, ok := st.Channels[a.ChannelID]
		if !ok {
			return
		}
		for i, asset := range cq.Assets {
			if asset.ID == a.AssetID {
				cq.Assets = append(cq.Assets[:i], cq.Assets[i+1:]...)
				return
			}
		}

	case ActionStart:
		st.InProgress[a.Key] = struct{}{}

	case ActionEnd:
		delete(st.InProgress, a.Key)

	case ActionClearQueue:
		delete(st.Channels, a.ChannelID)
	}
}
