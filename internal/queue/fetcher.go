package queue

import (
	"context"
	"fmt"

	"github.com/ternarybob/chimera/internal/interfaces"
)

// beginFetch acquires the per-channel active-fetch guard. Returns false if a
// fetch for the channel is already running.
func (s *Store) beginFetch(channelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if _, active := s.activeFetches[channelID]; active {
		return false
	}
	s.activeFetches[channelID] = struct{}{}
	return true
}

// endFetch releases the active-fetch guard
func (s *Store) endFetch(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeFetches, channelID)
}

// FetchAllAssets drains the channel's full asset collection from upstream,
// page by page in strictly increasing order. Page 1 replaces the asset list,
// later pages append with id dedup, and a page shorter than the page size
// terminates the loop. Concurrent calls for the same channel are no-ops; the
// guard is released on every exit path.
func (s *Store) FetchAllAssets(ctx context.Context, channelID string, isRefresh bool) error {
	if !s.beginFetch(channelID) {
		s.logger.Debug().
			Str("channel_id", channelID).
			Msg("Fetch already active for channel, skipping")
		return nil
	}
	defer s.endFetch(channelID)

	s.logger.Debug().
		Str("channel_id", channelID).
		Bool("refresh", isRefresh).
		Msg("Starting full asset fetch")

	s.Dispatch(FetchStart(channelID))

	for page := 1; ; page++ {
		assets, err := s.upstream.ListAssets(ctx, channelID, page, s.pageSize)
		if err != nil {
			msg := fmt.Sprintf("failed to load assets (page %d): %v", page, err)
			s.logger.Warn().
				Err(err).
				Str("channel_id", channelID).
				Int("page", page).
				Msg("Asset page fetch failed")
			// Pages already dispatched stay cached; retry is manual
			s.Dispatch(FetchError(channelID, msg))
			return fmt.Errorf("fetch assets for channel %s: %w", channelID, err)
		}

		exhausted := len(assets) < s.pageSize

		if page == 1 {
			s.Dispatch(FetchSuccess(channelID, assets, exhausted))
		} else {
			s.Dispatch(FetchAppend(channelID, assets))
		}

		if exhausted {
			if page > 1 {
				s.Dispatch(FetchComplete(channelID))
			}
			s.logger.Debug().
				Str("channel_id", channelID).
				Int("pages", page).
				Msg("Asset fetch complete")
			return nil
		}
	}
}

// RefreshQueue clears the channel's queue and starts a fresh full fetch on a
// subsequent scheduling tick. The clear is dispatched synchronously before
// the goroutine is spawned, so no reader can observe stale assets mixed with
// the new fetch's start.
func (s *Store) RefreshQueue(channelID string) {
	s.Dispatch(ClearQueue(channelID))

	if s.events != nil {
		s.publish(interfaces.EventQueueRefreshed, map[string]interface{}{
			"channel_id": channelID,
		})
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.recoverGoroutine("refresh fetch")
		if err := s.FetchAllAssets(context.Background(), channelID, true); err != nil {
			s.logger.Warn().
				Err(err).
				Str("channel_id", channelID).
				Msg("Refresh fetch failed")
		}
	}()
}
