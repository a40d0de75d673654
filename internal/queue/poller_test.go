package queue

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/chimera/internal/common"
	"github.com/ternarybob/chimera/internal/models"
)

const testPollInterval = 5 * time.Millisecond

// postAndArm seeds the channel and runs a successful post so the poller arms
// through the production path
func postAndArm(t *testing.T, store *Store, channelID, assetID string) {
	t.Helper()
	seedChannel(store, channelID, testAsset(assetID, models.AssetStatusProcessed))
	if err := store.PostNow(context.Background(), channelID, assetID, nil); err != nil {
		t.Fatalf("post failed: %v", err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestPoller_StopsOnTerminalStatus(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	upstream := &mockUpstream{}
	upstream.statusFunc = func(ctx context.Context, assetID string) (models.AssetStatus, error) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		if polls < 3 {
			return models.AssetStatusPosting, nil
		}
		return models.AssetStatusPosted, nil
	}

	store, _, _ := newTestStore(upstream, Options{PollInterval: testPollInterval})
	defer store.Close()

	postAndArm(t, store, "ch1", "a1")

	waitFor(t, 2*time.Second, func() bool {
		asset, _ := store.AssetSnapshot("ch1", "a1")
		return asset.Status == models.AssetStatusPosted
	}, "timed out waiting for terminal status")

	// Let a few more intervals pass: the poller must be disarmed
	time.Sleep(10 * testPollInterval)

	mu.Lock()
	finalPolls := polls
	mu.Unlock()
	if finalPolls != 3 {
		t.Errorf("expected polling to stop at the terminal response (3 polls), got %d", finalPolls)
	}
	if pollerCount(store) != 0 {
		t.Error("expected poller disarmed after terminal status")
	}
}

func TestPoller_StopsOnPostingFailed(t *testing.T) {
	upstream := &mockUpstream{}
	upstream.statusFunc = func(ctx context.Context, assetID string) (models.AssetStatus, error) {
		return models.AssetStatusPostingFailed, nil
	}

	store, _, _ := newTestStore(upstream, Options{PollInterval: testPollInterval})
	defer store.Close()

	postAndArm(t, store, "ch1", "a1")

	waitFor(t, 2*time.Second, func() bool {
		asset, _ := store.AssetSnapshot("ch1", "a1")
		return asset.Status == models.AssetStatusPostingFailed
	}, "timed out waiting for posting_failed")

	if pollerCount(store) != 0 {
		t.Error("expected poller disarmed after posting_failed")
	}
}

func TestPoller_AttemptCapDisarmsSilently(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	upstream := &mockUpstream{}
	upstream.statusFunc = func(ctx context.Context, assetID string) (models.AssetStatus, error) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		return models.AssetStatusPosting, nil
	}

	store, _, notifier := newTestStore(upstream, Options{PollInterval: testPollInterval, PollAttempts: 6})
	defer store.Close()

	postAndArm(t, store, "ch1", "a1")

	waitFor(t, 2*time.Second, func() bool {
		return pollerCount(store) == 0
	}, "timed out waiting for attempt cap")

	// Extra intervals must not produce further polls
	time.Sleep(10 * testPollInterval)

	mu.Lock()
	finalPolls := polls
	mu.Unlock()
	if finalPolls != 6 {
		t.Errorf("expected exactly 6 poll attempts, got %d", finalPolls)
	}

	// Silent timeout: last known status kept, no user-facing notice
	asset, _ := store.AssetSnapshot("ch1", "a1")
	if asset.Status != models.AssetStatusPosting {
		t.Errorf("expected asset left at last known status, got %s", asset.Status)
	}
	if notifier.count() != 0 {
		t.Errorf("expected no failure notice on poll exhaustion, got %d", notifier.count())
	}
}

func TestPoller_ErrorsCountTowardCap(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	upstream := &mockUpstream{}
	upstream.statusFunc = func(ctx context.Context, assetID string) (models.AssetStatus, error) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		return "", errors.New("status endpoint flaky")
	}

	store, _, _ := newTestStore(upstream, Options{PollInterval: testPollInterval, PollAttempts: 4})
	defer store.Close()

	postAndArm(t, store, "ch1", "a1")

	waitFor(t, 2*time.Second, func() bool {
		return pollerCount(store) == 0
	}, "timed out waiting for attempt cap")

	time.Sleep(5 * testPollInterval)

	mu.Lock()
	finalPolls := polls
	mu.Unlock()
	if finalPolls != 4 {
		t.Errorf("expected 4 attempts including failed polls, got %d", finalPolls)
	}

	// Poll errors are tolerated: the asset stays at posting
	asset, _ := store.AssetSnapshot("ch1", "a1")
	if asset.Status != models.AssetStatusPosting {
		t.Errorf("expected posting retained through poll errors, got %s", asset.Status)
	}
}

func TestPoller_RearmReplacesPrior(t *testing.T) {
	upstream := &mockUpstream{}
	store, _, _ := newTestStore(upstream, Options{PollInterval: time.Hour})
	defer store.Close()

	postAndArm(t, store, "ch1", "a1")
	if pollerCount(store) != 1 {
		t.Fatalf("expected one poller, got %d", pollerCount(store))
	}

	// Posting again replaces the existing poller instead of stacking
	if err := store.PostNow(context.Background(), "ch1", "a1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pollerCount(store) != 1 {
		t.Errorf("expected rearm to keep a single poller, got %d", pollerCount(store))
	}
}

func TestStopPoller_CancelsPolling(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	upstream := &mockUpstream{}
	upstream.statusFunc = func(ctx context.Context, assetID string) (models.AssetStatus, error) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		return models.AssetStatusPosting, nil
	}

	store, _, _ := newTestStore(upstream, Options{PollInterval: testPollInterval})
	defer store.Close()

	postAndArm(t, store, "ch1", "a1")
	store.StopPoller("a1")

	mu.Lock()
	atStop := polls
	mu.Unlock()

	time.Sleep(10 * testPollInterval)

	mu.Lock()
	after := polls
	mu.Unlock()

	// At most one tick can race the stop
	if after > atStop+1 {
		t.Errorf("expected polling to cease after stop, went %d -> %d", atStop, after)
	}
	if pollerCount(store) != 0 {
		t.Error("expected poller deregistered")
	}
}

func TestApplyStatusNotification_TerminalStopsPoller(t *testing.T) {
	upstream := &mockUpstream{}
	store, _, _ := newTestStore(upstream, Options{PollInterval: time.Hour})
	defer store.Close()

	postAndArm(t, store, "ch1", "a1")

	store.ApplyStatusNotification("ch1", models.Asset{ID: "a1", Status: models.AssetStatusPosted})

	asset, _ := store.AssetSnapshot("ch1", "a1")
	if asset.Status != models.AssetStatusPosted {
		t.Errorf("expected pushed status applied, got %s", asset.Status)
	}
	if pollerCount(store) != 0 {
		t.Error("expected terminal notification to disarm the poller")
	}
}

func TestApplyStatusNotification_NonTerminalKeepsPoller(t *testing.T) {
	upstream := &mockUpstream{}
	store, _, _ := newTestStore(upstream, Options{PollInterval: time.Hour})
	defer store.Close()

	postAndArm(t, store, "ch1", "a1")

	store.ApplyStatusNotification("ch1", models.Asset{ID: "a1", Status: models.AssetStatusPosting})

	if pollerCount(store) != 1 {
		t.Error("expected non-terminal notification to leave the poller armed")
	}
}

func TestDropChannel_StopsChannelPollers(t *testing.T) {
	upstream := &mockUpstream{}
	store, _, _ := newTestStore(upstream, Options{PollInterval: time.Hour})
	defer store.Close()

	postAndArm(t, store, "ch1", "a1")
	postAndArm(t, store, "ch2", "b1")

	store.DropChannel("ch1")

	if pollerCount(store) != 1 {
		t.Errorf("expected only ch2's poller to survive, got %d", pollerCount(store))
	}
	if _, ok := channelSnapshot(store, "ch1"); ok {
		t.Error("expected ch1 queue state cleared")
	}
	if _, ok := channelSnapshot(store, "ch2"); !ok {
		t.Error("expected ch2 queue state untouched")
	}
}

func TestPoller_PanicWritesCrashFileWithoutKillingProcess(t *testing.T) {
	crashDir := t.TempDir()
	prevDir := common.CrashLogDir
	common.CrashLogDir = crashDir
	defer func() { common.CrashLogDir = prevDir }()

	upstream := &mockUpstream{}
	upstream.statusFunc = func(ctx context.Context, assetID string) (models.AssetStatus, error) {
		panic("status decode blew up")
	}

	store, _, _ := newTestStore(upstream, Options{PollInterval: testPollInterval})
	defer store.Close()

	postAndArm(t, store, "ch1", "a1")

	waitFor(t, 2*time.Second, func() bool {
		entries, err := os.ReadDir(crashDir)
		return err == nil && len(entries) > 0
	}, "timed out waiting for crash file")

	// Only the poller goroutine died; the store keeps serving
	if _, ok := store.AssetSnapshot("ch1", "a1"); !ok {
		t.Error("expected queue state intact after goroutine panic")
	}
}
