package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chimera/internal/common"
	"github.com/ternarybob/chimera/internal/interfaces"
	"github.com/ternarybob/chimera/internal/models"
)

var _ interfaces.QueueService = (*Store)(nil)

const (
	defaultPageSize     = 20
	defaultPollInterval = 5 * time.Second
	defaultPollAttempts = 6
)

// Options tunes the queue engine. Zero values fall back to production
// defaults (20-asset pages, 5s poll spacing, 6 poll attempts).
type Options struct {
	PageSize     int
	PollInterval time.Duration
	PollAttempts int
}

// Store is the asset queue engine coordinator. It owns the queue state (all
// writes flow through Dispatch into the reducer), the active-fetch guard set
// and the per-asset status pollers, so isolated instances can be created for
// testing and torn down cleanly.
type Store struct {
	mu    sync.Mutex
	state *State

	upstream interfaces.UpstreamClient
	events   interfaces.EventService
	confirm  interfaces.Confirmer
	notifier interfaces.Notifier
	logger   arbor.ILogger

	pageSize     int
	pollInterval time.Duration
	pollAttempts int

	// activeFetches guards against concurrent full-fetches per channel. It
	// lives outside the reducer state because the guard must be checked
	// before any channel entry exists.
	activeFetches map[string]struct{}
	pollers       map[string]*statusPoller // keyed by asset id
	closed        bool
	wg            sync.WaitGroup
}

// NewStore creates a queue store wired to the given collaborators
func NewStore(
	upstream interfaces.UpstreamClient,
	eventService interfaces.EventService,
	confirmer interfaces.Confirmer,
	notifier interfaces.Notifier,
	logger arbor.ILogger,
	opts Options,
) *Store {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = defaultPollAttempts
	}

	return &Store{
		state:         newState(),
		upstream:      upstream,
		events:        eventService,
		confirm:       confirmer,
		notifier:      notifier,
		logger:        logger,
		pageSize:      opts.PageSize,
		pollInterval:  opts.PollInterval,
		pollAttempts:  opts.PollAttempts,
		activeFetches: make(map[string]struct{}),
		pollers:       make(map[string]*statusPoller),
	}
}

// Dispatch applies an action to the queue state. Application is atomic with
// respect to other dispatches; derived events are published after the state
// settles so subscribers never observe a half-applied transition.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()

	var statusChanged bool
	var changedAsset models.Asset
	if a.Type == ActionSetAsset {
		prev, ok := s.assetLocked(a.ChannelID, a.Asset.ID)
		if !ok || (a.Asset.Status != "" && prev.Status != a.Asset.Status) {
			statusChanged = true
		}
	}

	apply(s.state, a)

	if statusChanged {
		if updated, ok := s.assetLocked(a.ChannelID, a.Asset.ID); ok {
			changedAsset = updated
		} else {
			statusChanged = false
		}
	}
	s.mu.Unlock()

	if s.events == nil {
		return
	}

	switch {
	case statusChanged:
		s.publish(interfaces.EventAssetStatusChanged, map[string]interface{}{
			"channel_id": a.ChannelID,
			"asset_id":   changedAsset.ID,
			"status":     string(changedAsset.Status),
			"title":      changedAsset.Title,
		})
	case a.Type == ActionFetchError:
		s.publish(interfaces.EventQueueFetchError, map[string]interface{}{
			"channel_id": a.ChannelID,
			"error":      a.Err,
		})
	}
}

// publish fires an event without blocking the dispatch path
func (s *Store) publish(eventType interfaces.EventType, payload map[string]interface{}) {
	payload["timestamp"] = time.Now().Format(time.RFC3339)
	if err := s.events.Publish(context.Background(), interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to publish queue event")
	}
}

// assetLocked looks up an asset snapshot; caller must hold s.mu
func (s *Store) assetLocked(channelID, assetID string) (models.Asset, bool) {
	cq, ok := s.state.Channels[channelID]
	if !ok {
		return models.Asset{}, false
	}
	for _, asset := range cq.Assets {
		if asset.ID == assetID {
			return asset, true
		}
	}
	return models.Asset{}, false
}

// AssetSnapshot returns a copy of the asset as currently cached
func (s *Store) AssetSnapshot(channelID, assetID string) (models.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assetLocked(channelID, assetID)
}

// IsActionInProgress reports whether the (operation, asset) pair has an
// in-flight request
func (s *Store) IsActionInProgress(op, assetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.InProgress[actionKey(op, assetID)]
	return ok
}

// DropChannel removes a channel's queue state and stops pollers for any of
// its assets. Used when a channel is disconnected from the registry.
func (s *Store) DropChannel(channelID string) {
	s.mu.Lock()
	var stopped []*statusPoller
	for assetID, p := range s.pollers {
		if p.channelID == channelID {
			stopped = append(stopped, p)
			delete(s.pollers, assetID)
		}
	}
	apply(s.state, ClearQueue(channelID))
	delete(s.activeFetches, channelID)
	s.mu.Unlock()

	for _, p := range stopped {
		p.stop()
	}
}

// Close stops all pollers and rejects further work. Blocks until poller
// goroutines have exited.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	pollers := make([]*statusPoller, 0, len(s.pollers))
	for _, p := range s.pollers {
		pollers = append(pollers, p)
	}
	s.pollers = make(map[string]*statusPoller)
	s.mu.Unlock()

	for _, p := range pollers {
		p.stop()
	}
	s.wg.Wait()

	s.logger.Info().Msg("Queue store closed")
	return nil
}

// recoverGoroutine captures a panic in one of the store's background
// goroutines and writes a crash file. The process keeps running; only that
// goroutine's work is lost.
func (s *Store) recoverGoroutine(scope string) {
	if r := recover(); r != nil {
		stackTrace := common.GetStackTrace()
		s.logger.Error().
			Str("panic", fmt.Sprintf("%v", r)).
			Str("scope", scope).
			Msg("FATAL: Queue goroutine panicked - writing crash file")
		common.WriteCrashFile(r, stackTrace)
	}
}

// isClosed reports whether Close has been called
func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
