package queue

import (
	"testing"

	"github.com/ternarybob/chimera/internal/models"
)

func TestApply_FetchStart(t *testing.T) {
	st := newState()

	apply(st, FetchStart("ch1"))

	cq := st.Channels["ch1"]
	if cq == nil {
		t.Fatal("expected channel entry to be created")
	}
	if !cq.IsLoading {
		t.Error("expected IsLoading true after fetch start")
	}
	if cq.Page != 1 {
		t.Errorf("expected page 1 for new channel, got %d", cq.Page)
	}
}

func TestApply_FetchStartClearsError(t *testing.T) {
	st := newState()
	apply(st, FetchError("ch1", "network down"))

	apply(st, FetchStart("ch1"))

	if st.Channels["ch1"].Error != "" {
		t.Error("expected error cleared on new fetch start")
	}
}

func TestApply_FetchSuccessReplacesAssets(t *testing.T) {
	st := newState()
	apply(st, FetchSuccess("ch1", []models.Asset{testAsset("old1", models.AssetStatusProcessed)}, false))

	apply(st, FetchSuccess("ch1", []models.Asset{
		testAsset("new1", models.AssetStatusProcessed),
		testAsset("new2", models.AssetStatusUploaded),
	}, true))

	cq := st.Channels["ch1"]
	if len(cq.Assets) != 2 {
		t.Fatalf("expected 2 assets after replace, got %d", len(cq.Assets))
	}
	if cq.Assets[0].ID != "new1" || cq.Assets[1].ID != "new2" {
		t.Errorf("expected server order preserved, got %s, %s", cq.Assets[0].ID, cq.Assets[1].ID)
	}
	if cq.IsLoading {
		t.Error("expected IsLoading false after fetch success")
	}
	if !cq.IsFullyLoaded {
		t.Error("expected IsFullyLoaded carried from action")
	}
	if cq.Page != 2 {
		t.Errorf("expected next page 2, got %d", cq.Page)
	}
}

func TestApply_FetchAppendDeduplicatesByID(t *testing.T) {
	st := newState()
	apply(st, FetchSuccess("ch1", makePage("a", 0, 3), false))

	// Overlapping page: a2 already present
	apply(st, FetchAppend("ch1", []models.Asset{
		testAsset("a2", models.AssetStatusProcessed),
		testAsset("a3", models.AssetStatusProcessed),
		testAsset("a4", models.AssetStatusProcessed),
	}))

	cq := st.Channels["ch1"]
	if len(cq.Assets) != 5 {
		t.Fatalf("expected 5 unique assets, got %d", len(cq.Assets))
	}
	seen := make(map[string]int)
	for _, asset := range cq.Assets {
		seen[asset.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("asset %s appears %d times, expected exactly once", id, n)
		}
	}
	if !cq.IsLoading {
		t.Error("expected IsLoading to remain true while pages are still appending")
	}
}

func TestApply_FetchAppendIncrementsPage(t *testing.T) {
	st := newState()
	apply(st, FetchSuccess("ch1", makePage("a", 0, 20), false))
	apply(st, FetchAppend("ch1", makePage("b", 0, 20)))
	apply(st, FetchAppend("ch1", makePage("c", 0, 20)))

	if got := st.Channels["ch1"].Page; got != 4 {
		t.Errorf("expected next page 4 after three pages, got %d", got)
	}
}

func TestApply_FetchComplete(t *testing.T) {
	st := newState()
	apply(st, FetchSuccess("ch1", makePage("a", 0, 20), false))
	apply(st, FetchAppend("ch1", makePage("b", 0, 5)))

	apply(st, FetchComplete("ch1"))

	cq := st.Channels["ch1"]
	if cq.IsLoading {
		t.Error("expected IsLoading false after complete")
	}
	if !cq.IsFullyLoaded {
		t.Error("expected IsFullyLoaded true after complete")
	}
}

func TestApply_FetchErrorPreservesAssets(t *testing.T) {
	st := newState()
	apply(st, FetchSuccess("ch1", makePage("a", 0, 20), false))

	apply(st, FetchError("ch1", "page 2 failed"))

	cq := st.Channels["ch1"]
	if len(cq.Assets) != 20 {
		t.Errorf("expected partial assets retained after error, got %d", len(cq.Assets))
	}
	if cq.IsLoading {
		t.Error("expected IsLoading false after error")
	}
	if cq.Error != "page 2 failed" {
		t.Errorf("expected error recorded, got %q", cq.Error)
	}
	if cq.IsFullyLoaded {
		t.Error("expected IsFullyLoaded false after error")
	}
}

func TestApply_SetAssetMergesInPlace(t *testing.T) {
	st := newState()
	apply(st, FetchSuccess("ch1", []models.Asset{
		{ID: "a1", Title: "First", Status: models.AssetStatusProcessed, ThumbnailURL: "http://t/1.jpg"},
		{ID: "a2", Title: "Second", Status: models.AssetStatusUploaded},
	}, true))

	apply(st, SetAsset("ch1", models.Asset{ID: "a1", Status: models.AssetStatusPosting}))

	cq := st.Channels["ch1"]
	if cq.Assets[0].ID != "a1" {
		t.Fatal("expected asset position preserved on update")
	}
	if cq.Assets[0].Status != models.AssetStatusPosting {
		t.Errorf("expected status updated, got %s", cq.Assets[0].Status)
	}
	if cq.Assets[0].Title != "First" {
		t.Errorf("expected unspecified fields retained, got title %q", cq.Assets[0].Title)
	}
	if cq.Assets[0].ThumbnailURL != "http://t/1.jpg" {
		t.Error("expected thumbnail retained through partial update")
	}
}

func TestApply_SetAssetAppendsUnknownID(t *testing.T) {
	st := newState()
	apply(st, FetchSuccess("ch1", makePage("a", 0, 2), true))

	apply(st, SetAsset("ch1", testAsset("zz", models.AssetStatusUploaded)))

	cq := st.Channels["ch1"]
	if len(cq.Assets) != 3 {
		t.Fatalf("expected unknown asset appended, got %d assets", len(cq.Assets))
	}
	if cq.Assets[2].ID != "zz" {
		t.Errorf("expected new asset at the end of the list, got %s", cq.Assets[2].ID)
	}
}

func TestApply_RemoveAsset(t *testing.T) {
	st := newState()
	apply(st, FetchSuccess("ch1", makePage("a", 0, 3), true))

	apply(st, RemoveAsset("ch1", "a1"))

	cq := st.Channels["ch1"]
	if len(cq.Assets) != 2 {
		t.Fatalf("expected 2 assets after remove, got %d", len(cq.Assets))
	}
	for _, asset := range cq.Assets {
		if asset.ID == "a1" {
			t.Error("expected a1 removed")
		}
	}
}

func TestApply_RemoveAssetAbsentIsNoOp(t *testing.T) {
	st := newState()
	apply(st, FetchSuccess("ch1", makePage("a", 0, 2), true))

	apply(st, RemoveAsset("ch1", "missing"))
	apply(st, RemoveAsset("no-such-channel", "a0"))

	if len(st.Channels["ch1"].Assets) != 2 {
		t.Error("expected no-op remove to leave assets untouched")
	}
	if _, ok := st.Channels["no-such-channel"]; ok {
		t.Error("expected remove on unknown channel not to create an entry")
	}
}

func TestApply_ActionKeys(t *testing.T) {
	st := newState()

	apply(st, MarkActionStart("post-a1"))
	if _, ok := st.InProgress["post-a1"]; !ok {
		t.Fatal("expected key marked in progress")
	}

	apply(st, MarkActionEnd("post-a1"))
	if _, ok := st.InProgress["post-a1"]; ok {
		t.Fatal("expected key cleared")
	}
}

func TestApply_ClearQueue(t *testing.T) {
	st := newState()
	apply(st, FetchSuccess("ch1", makePage("a", 0, 5), true))

	apply(st, ClearQueue("ch1"))

	if _, ok := st.Channels["ch1"]; ok {
		t.Error("expected channel entry removed entirely")
	}
}

func TestApply_UnknownActionIsNoOp(t *testing.T) {
	st := newState()
	apply(st, FetchSuccess("ch1", makePage("a", 0, 2), true))

	apply(st, Action{Type: actionUnknown, ChannelID: "ch1"})
	apply(st, Action{Type: ActionType(99), ChannelID: "ch1"})

	if len(st.Channels["ch1"].Assets) != 2 {
		t.Error("expected unknown action to leave state untouched")
	}
}
