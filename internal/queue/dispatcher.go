package queue

import (
	"context"
	"fmt"

	"github.com/ternarybob/chimera/internal/interfaces"
	"github.com/ternarybob/chimera/internal/models"
)

const (
	opUpdate    = "update"
	opPost      = "post"
	opDelete    = "delete"
	opReprocess = "reprocess"
)

// actionKey builds the composite dedup key for an (operation, asset) pair
func actionKey(op, assetID string) string {
	return op + "-" + assetID
}

// mutationSpec parameterizes the shared snapshot/optimistic/call/
// commit-or-restore skeleton so the four operations do not each repeat it
type mutationSpec struct {
	op            string
	channelID     string
	assetID       string
	confirmPrompt string // empty = no confirmation gate

	// optimistic applies the local change ahead of upstream confirmation;
	// restore undoes it from the pre-call snapshot. Both may be nil.
	optimistic func(snap models.Asset, cached bool)
	restore    func(snap models.Asset, cached bool)

	call      func(ctx context.Context) error
	onSuccess func(ctx context.Context)
}

// runMutation is the common action template: dedup guard, confirmation gate,
// snapshot, optimistic update, upstream call, commit-or-rollback, and the
// in-progress key always cleared. Failures never escape unhandled; they are
// surfaced through the notifier and returned for the transport layer.
func (s *Store) runMutation(ctx context.Context, spec mutationSpec) error {
	key := actionKey(spec.op, spec.assetID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("queue store is closed")
	}
	if _, inFlight := s.state.InProgress[key]; inFlight {
		s.mu.Unlock()
		s.logger.Debug().
			Str("action_key", key).
			Msg("Action already in flight, skipping")
		return nil
	}
	// The key is claimed under the same lock as the in-flight check, so two
	// concurrent calls for the same pair can never both reach upstream. The
	// claim covers the confirmation gate too: a duplicate request arriving
	// while the prompt is pending is a no-op.
	apply(s.state, MarkActionStart(key))
	s.mu.Unlock()

	defer s.Dispatch(MarkActionEnd(key))

	if spec.confirmPrompt != "" && !s.confirm.Confirm(ctx, spec.confirmPrompt) {
		// Declined confirmation is a normal early return, not an error
		s.logger.Debug().
			Str("action_key", key).
			Msg("Action declined by confirmation gate")
		return nil
	}

	snap, cached := s.AssetSnapshot(spec.channelID, spec.assetID)

	if spec.optimistic != nil {
		spec.optimistic(snap, cached)
	}

	if err := spec.call(ctx); err != nil {
		s.logger.Warn().
			Err(err).
			Str("action_key", key).
			Str("channel_id", spec.channelID).
			Msg("Asset action failed")

		if spec.restore != nil {
			spec.restore(snap, cached)
		}
		s.notifyFailure(ctx, spec.op, spec.channelID, spec.assetID, err)
		return fmt.Errorf("%s asset %s: %w", spec.op, spec.assetID, err)
	}

	if spec.onSuccess != nil {
		spec.onSuccess(ctx)
	}
	return nil
}

// notifyFailure surfaces a blocking user-visible failure notice and mirrors
// it onto the event bus for connected UI clients
func (s *Store) notifyFailure(ctx context.Context, op, channelID, assetID string, err error) {
	if s.notifier != nil {
		s.notifier.Failure(ctx, fmt.Sprintf("Failed to %s asset: %v", op, err))
	}
	if s.events != nil {
		s.publish(interfaces.EventActionFailed, map[string]interface{}{
			"operation":  op,
			"channel_id": channelID,
			"asset_id":   assetID,
			"error":      err.Error(),
		})
	}
}

// UpdateTitle renames an asset. The rename is applied optimistically before
// the upstream call and reverted from the snapshot if the call fails. No
// confirmation prompt.
func (s *Store) UpdateTitle(ctx context.Context, channelID, assetID, title string) error {
	return s.runMutation(ctx, mutationSpec{
		op:        opUpdate,
		channelID: channelID,
		assetID:   assetID,
		optimistic: func(snap models.Asset, cached bool) {
			s.Dispatch(SetAsset(channelID, models.Asset{ID: assetID, Title: title}))
		},
		restore: func(snap models.Asset, cached bool) {
			if cached {
				s.Dispatch(SetAsset(channelID, snap))
			} else {
				// The optimistic upsert appended a new entry; take it back out
				s.Dispatch(RemoveAsset(channelID, assetID))
			}
		},
		call: func(ctx context.Context) error {
			updated, err := s.upstream.UpdateAsset(ctx, assetID, models.Asset{Title: title})
			if err != nil {
				return err
			}
			// Server copy is authoritative on conflict
			s.Dispatch(SetAsset(channelID, updated))
			return nil
		},
	})
}

// PostNow posts an asset after the confirmation gate. The posting status is
// applied only after the upstream call succeeds (no optimistic status, so no
// rollback), and a successful post arms the status poller.
func (s *Store) PostNow(ctx context.Context, channelID, assetID string, settings *models.PostSettings) error {
	return s.runMutation(ctx, mutationSpec{
		op:            opPost,
		channelID:     channelID,
		assetID:       assetID,
		confirmPrompt: "Post this video to TikTok now?",
		call: func(ctx context.Context) error {
			return s.upstream.PostAsset(ctx, assetID, settings)
		},
		onSuccess: func(ctx context.Context) {
			s.Dispatch(SetAsset(channelID, models.Asset{ID: assetID, Status: models.AssetStatusPosting}))
			s.armPoller(channelID, assetID)
		},
	})
}

// DeleteAsset removes an asset. Blocked entirely while the asset is in a
// locked status (posting, deleting). Any active status poller is stopped
// before the optimistic removal; on failure the snapshot is re-inserted.
func (s *Store) DeleteAsset(ctx context.Context, channelID, assetID string) error {
	if snap, cached := s.AssetSnapshot(channelID, assetID); cached && snap.Status.IsLocked() {
		s.logger.Debug().
			Str("asset_id", assetID).
			Str("status", string(snap.Status)).
			Msg("Delete blocked for locked asset status")
		if s.notifier != nil {
			s.notifier.Failure(ctx, fmt.Sprintf("Cannot delete while the video is %s", snap.Status))
		}
		return nil
	}

	return s.runMutation(ctx, mutationSpec{
		op:            opDelete,
		channelID:     channelID,
		assetID:       assetID,
		confirmPrompt: "Delete this video? This cannot be undone.",
		optimistic: func(snap models.Asset, cached bool) {
			s.StopPoller(assetID)
			s.Dispatch(RemoveAsset(channelID, assetID))
		},
		restore: func(snap models.Asset, cached bool) {
			if cached {
				s.Dispatch(SetAsset(channelID, snap))
			}
		},
		call: func(ctx context.Context) error {
			return s.upstream.DeleteAssets(ctx, []string{assetID})
		},
	})
}

// ReprocessAsset triggers server-side reprocessing. No optimistic mutation:
// the resulting status recomputation is nontrivial, so on success the whole
// channel queue is refreshed instead of patching a single asset.
func (s *Store) ReprocessAsset(ctx context.Context, channelID, assetID string) error {
	if snap, cached := s.AssetSnapshot(channelID, assetID); cached && !snap.Status.IsProcessable() {
		if s.notifier != nil {
			s.notifier.Failure(ctx, fmt.Sprintf("Cannot reprocess while the video is %s", snap.Status))
		}
		return nil
	}

	return s.runMutation(ctx, mutationSpec{
		op:            opReprocess,
		channelID:     channelID,
		assetID:       assetID,
		confirmPrompt: "Reprocess this video?",
		call: func(ctx context.Context) error {
			return s.upstream.ReprocessAsset(ctx, assetID)
		},
		onSuccess: func(ctx context.Context) {
			s.RefreshQueue(channelID)
		},
	})
}
