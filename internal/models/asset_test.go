package models

import (
	"testing"
	"time"
)

func TestAssetStatus_IsTerminal(t *testing.T) {
	terminal := []AssetStatus{AssetStatusPosted, AssetStatusPostingFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s terminal", s)
		}
	}

	nonTerminal := []AssetStatus{
		AssetStatusUploaded, AssetStatusProcessed, AssetStatusPosting,
		AssetStatusProcessFailed, AssetStatusDeleting,
	}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("expected %s not terminal", s)
		}
	}
}

func TestAssetStatus_IsLocked(t *testing.T) {
	if !AssetStatusPosting.IsLocked() || !AssetStatusDeleting.IsLocked() {
		t.Error("expected posting and deleting locked")
	}
	for _, s := range []AssetStatus{
		AssetStatusUploaded, AssetStatusProcessed, AssetStatusPosted,
		AssetStatusProcessFailed, AssetStatusPostingFailed,
	} {
		if s.IsLocked() {
			t.Errorf("expected %s not locked", s)
		}
	}
}

func TestAssetStatus_IsProcessable(t *testing.T) {
	// Processable is the complement of locked
	all := []AssetStatus{
		AssetStatusUploaded, AssetStatusProcessed, AssetStatusPosting,
		AssetStatusPosted, AssetStatusProcessFailed, AssetStatusPostingFailed,
		AssetStatusDeleting,
	}
	for _, s := range all {
		if s.IsProcessable() == s.IsLocked() {
			t.Errorf("expected IsProcessable to invert IsLocked for %s", s)
		}
	}
}

func TestAssetStatus_IsValid(t *testing.T) {
	if !AssetStatusUploaded.IsValid() {
		t.Error("expected uploaded valid")
	}
	if AssetStatus("bogus").IsValid() {
		t.Error("expected unknown status invalid")
	}
	if AssetStatus("").IsValid() {
		t.Error("expected empty status invalid")
	}
}

func TestAsset_MergeKeepsUnsetFields(t *testing.T) {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	base := Asset{
		ID:           "a1",
		ChannelID:    "ch1",
		Title:        "Original",
		Status:       AssetStatusProcessed,
		ThumbnailURL: "http://t/1.jpg",
		Duration:     42.5,
		CreatedAt:    created,
	}

	merged := base.Merge(Asset{ID: "a1", Status: AssetStatusPosting})

	if merged.Title != "Original" {
		t.Errorf("expected title retained, got %q", merged.Title)
	}
	if merged.Status != AssetStatusPosting {
		t.Errorf("expected status overridden, got %s", merged.Status)
	}
	if merged.ThumbnailURL != base.ThumbnailURL || merged.Duration != base.Duration {
		t.Error("expected unset patch fields retained from base")
	}
	if !merged.CreatedAt.Equal(created) {
		t.Error("expected created timestamp retained")
	}
}

func TestAsset_MergeFailReasonLifecycle(t *testing.T) {
	base := Asset{ID: "a1", Status: AssetStatusPosting}

	failed := base.Merge(Asset{ID: "a1", Status: AssetStatusPostingFailed, FailReason: "copyright flag"})
	if failed.FailReason != "copyright flag" {
		t.Errorf("expected fail reason recorded, got %q", failed.FailReason)
	}

	// Leaving a failed state clears the stale reason
	recovered := failed.Merge(Asset{ID: "a1", Status: AssetStatusProcessed})
	if recovered.FailReason != "" {
		t.Errorf("expected fail reason cleared, got %q", recovered.FailReason)
	}

	// A patch with no status change does not touch the reason
	renamed := failed.Merge(Asset{ID: "a1", Title: "New title"})
	if renamed.FailReason != "copyright flag" {
		t.Errorf("expected fail reason untouched by title patch, got %q", renamed.FailReason)
	}
}

func TestAsset_WithStatus(t *testing.T) {
	a := Asset{ID: "a1", Status: AssetStatusProcessFailed, FailReason: "encode error"}

	posted := a.WithStatus(AssetStatusPosted)
	if posted.Status != AssetStatusPosted {
		t.Errorf("expected status set, got %s", posted.Status)
	}
	if posted.FailReason != "" {
		t.Error("expected fail reason cleared on non-failed status")
	}
	if a.Status != AssetStatusProcessFailed {
		t.Error("expected original untouched")
	}
}
