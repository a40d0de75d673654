package queue

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/chimera/internal/models"
)

// statusPoller tracks one asset's post-status polling loop. At most one
// poller exists per asset; arming replaces any prior instance.
type statusPoller struct {
	channelID string
	assetID   string
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// stop cancels the poller's loop. Safe to call more than once.
func (p *statusPoller) stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

// armPoller starts post-status polling for an asset. Triggered only by a
// successful post; an existing poller for the asset is cancelled first.
func (s *Store) armPoller(channelID, assetID string) {
	p := &statusPoller{
		channelID: channelID,
		assetID:   assetID,
		stopCh:    make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	prior := s.pollers[assetID]
	s.pollers[assetID] = p
	s.mu.Unlock()

	if prior != nil {
		prior.stop()
	}

	s.logger.Debug().
		Str("asset_id", assetID).
		Str("channel_id", channelID).
		Msg("Post-status poller armed")

	s.wg.Add(1)
	go s.runPoller(p)
}

// runPoller drives the poll loop: one status request per tick, attempt
// counter incremented on success and failure alike. Terminal statuses update
// the queue and disarm; transient poll errors are tolerated; exhausting the
// attempt cap disarms silently, leaving the asset at its last known status.
func (s *Store) runPoller(p *statusPoller) {
	defer s.wg.Done()
	defer s.recoverGoroutine("post-status poller")

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	attempts := 0

	for {
		select {
		case <-p.stopCh:
			return

		case <-ticker.C:
			attempts++

			status, err := s.upstream.GetPostStatus(context.Background(), p.assetID)
			if err != nil {
				s.logger.Debug().
					Err(err).
					Str("asset_id", p.assetID).
					Int("attempt", attempts).
					Msg("Post-status poll failed, will retry")
			} else if status.IsTerminal() {
				s.removePoller(p)
				s.Dispatch(SetAsset(p.channelID, models.Asset{ID: p.assetID, Status: status}))
				s.logger.Debug().
					Str("asset_id", p.assetID).
					Str("status", string(status)).
					Int("attempts", attempts).
					Msg("Post-status poll resolved")
				return
			}

			if attempts >= s.pollAttempts {
				// Silent timeout: the asset keeps whatever status it last had
				s.removePoller(p)
				s.logger.Warn().
					Str("asset_id", p.assetID).
					Int("attempts", attempts).
					Msg("Post-status poll attempts exhausted without terminal status")
				return
			}
		}
	}
}

// removePoller deletes the poller entry if it is still the active one
func (s *Store) removePoller(p *statusPoller) {
	s.mu.Lock()
	if current, ok := s.pollers[p.assetID]; ok && current == p {
		delete(s.pollers, p.assetID)
	}
	s.mu.Unlock()
	p.stop()
}

// StopPoller cancels any active poller for the asset regardless of attempt
// count or status. Used by the delete flow and channel teardown.
func (s *Store) StopPoller(assetID string) {
	s.mu.Lock()
	p := s.pollers[assetID]
	delete(s.pollers, assetID)
	s.mu.Unlock()

	if p != nil {
		p.stop()
	}
}

// ApplyStatusNotification feeds an externally pushed status change (e.g.
// from the notification channel) into the same upsert path as polling. A
// terminal status satisfies and replaces any in-flight poll for the asset.
func (s *Store) ApplyStatusNotification(channelID string, asset models.Asset) {
	s.Dispatch(SetAsset(channelID, asset))
	if asset.Status.IsTerminal() {
		s.StopPoller(asset.ID)
	}
}
