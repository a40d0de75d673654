package queue

import (
	"context"

	"github.com/ternarybob/chimera/internal/interfaces"
	"github.com/ternarybob/chimera/internal/models"
)

// View returns the channel's current queue projection. When nothing useful
// is cached (no assets, not loading, no error, not fully loaded) a full
// fetch is started in the background, making the fetch a derived effect of
// the view request rather than an imperative call from routing.
func (s *Store) View(ctx context.Context, channelID string) interfaces.ChannelView {
	s.mu.Lock()
	cq, ok := s.state.Channels[channelID]

	var view interfaces.ChannelView
	view.ChannelID = channelID
	needsFetch := false

	if !ok {
		needsFetch = !s.closed
	} else {
		view.Assets = append([]models.Asset(nil), cq.Assets...)
		view.IsLoading = cq.IsLoading
		view.IsFullyLoaded = cq.IsFullyLoaded
		view.Error = cq.Error
		needsFetch = !s.closed &&
			len(cq.Assets) == 0 && !cq.IsLoading && cq.Error == "" && !cq.IsFullyLoaded
	}
	s.mu.Unlock()

	if needsFetch {
		view.IsLoading = true
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.recoverGoroutine("view fetch")
			if err := s.FetchAllAssets(context.Background(), channelID, false); err != nil {
				s.logger.Warn().
					Err(err).
					Str("channel_id", channelID).
					Msg("View-triggered fetch failed")
			}
		}()
	}

	return view
}
