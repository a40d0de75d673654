package queue

import (
	"context"
	"strconv"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chimera/internal/models"
)

// mockUpstream implements interfaces.UpstreamClient for testing
type mockUpstream struct {
	mu sync.Mutex

	listFunc      func(ctx context.Context, channelID string, page, pageSize int) ([]models.Asset, error)
	postFunc      func(ctx context.Context, assetID string, settings *models.PostSettings) error
	updateFunc    func(ctx context.Context, assetID string, fields models.Asset) (models.Asset, error)
	deleteFunc    func(ctx context.Context, assetIDs []string) error
	reprocessFunc func(ctx context.Context, assetID string) error
	statusFunc    func(ctx context.Context, assetID string) (models.AssetStatus, error)

	listCalls      int
	postCalls      int
	updateCalls    int
	deleteCalls    int
	reprocessCalls int
	statusCalls    int
}

func (m *mockUpstream) ListAssets(ctx context.Context, channelID string, page, pageSize int) ([]models.Asset, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	if m.listFunc != nil {
		return m.listFunc(ctx, channelID, page, pageSize)
	}
	return nil, nil
}

func (m *mockUpstream) PostAsset(ctx context.Context, assetID string, settings *models.PostSettings) error {
	m.mu.Lock()
	m.postCalls++
	m.mu.Unlock()
	if m.postFunc != nil {
		return m.postFunc(ctx, assetID, settings)
	}
	return nil
}

func (m *mockUpstream) UpdateAsset(ctx context.Context, assetID string, fields models.Asset) (models.Asset, error) {
	m.mu.Lock()
	m.updateCalls++
	m.mu.Unlock()
	if m.updateFunc != nil {
		return m.updateFunc(ctx, assetID, fields)
	}
	return fields, nil
}

func (m *mockUpstream) DeleteAssets(ctx context.Context, assetIDs []string) error {
	m.mu.Lock()
	m.deleteCalls++
	m.mu.Unlock()
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, assetIDs)
	}
	return nil
}

func (m *mockUpstream) ReprocessAsset(ctx context.Context, assetID string) error {
	m.mu.Lock()
	m.reprocessCalls++
	m.mu.Unlock()
	if m.reprocessFunc != nil {
		return m.reprocessFunc(ctx, assetID)
	}
	return nil
}

func (m *mockUpstream) GetPostStatus(ctx context.Context, assetID string) (models.AssetStatus, error) {
	m.mu.Lock()
	m.statusCalls++
	m.mu.Unlock()
	if m.statusFunc != nil {
		return m.statusFunc(ctx, assetID)
	}
	return models.AssetStatusPosting, nil
}

func (m *mockUpstream) counts() (list, post, update, del, reprocess, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls, m.postCalls, m.updateCalls, m.deleteCalls, m.reprocessCalls, m.statusCalls
}

// mockConfirmer implements interfaces.Confirmer
type mockConfirmer struct {
	mu          sync.Mutex
	grant       bool
	prompts     []string
	confirmFunc func(ctx context.Context, prompt string) bool
}

func (c *mockConfirmer) Confirm(ctx context.Context, prompt string) bool {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	fn := c.confirmFunc
	grant := c.grant
	c.mu.Unlock()
	if fn != nil {
		return fn(ctx, prompt)
	}
	return grant
}

// mockNotifier implements interfaces.Notifier
type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *mockNotifier) Failure(ctx context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *mockNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func newTestStore(upstream *mockUpstream, opts Options) (*Store, *mockConfirmer, *mockNotifier) {
	confirmer := &mockConfirmer{grant: true}
	notifier := &mockNotifier{}
	store := NewStore(upstream, nil, confirmer, notifier, arbor.NewLogger(), opts)
	return store, confirmer, notifier
}

// channelSnapshot copies the channel queue state for assertions
func channelSnapshot(s *Store, channelID string) (ChannelQueue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cq, ok := s.state.Channels[channelID]
	if !ok {
		return ChannelQueue{}, false
	}
	snap := *cq
	snap.Assets = append([]models.Asset(nil), cq.Assets...)
	return snap, true
}

// pollerCount reports active poller registrations
func pollerCount(s *Store) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pollers)
}

func testAsset(id string, status models.AssetStatus) models.Asset {
	return models.Asset{
		ID:     id,
		Title:  "Video " + id,
		Status: status,
	}
}

func makePage(prefix string, start, count int) []models.Asset {
	assets := make([]models.Asset, 0, count)
	for i := 0; i < count; i++ {
		assets = append(assets, testAsset(prefix+strconv.Itoa(start+i), models.AssetStatusProcessed))
	}
	return assets
}
