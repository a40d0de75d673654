package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chimera/internal/common"
	"github.com/ternarybob/chimera/internal/interfaces"
	"github.com/ternarybob/chimera/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&common.UpstreamConfig{
		BaseURL:   server.URL,
		Token:     "test-token",
		Timeout:   "5s",
		RateLimit: "1ms",
	}, arbor.NewLogger())
}

func TestListAssets_RequestShape(t *testing.T) {
	var gotPath, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"assets": []models.Asset{
				{ID: "a1", Title: "First", Status: models.AssetStatusProcessed},
				{ID: "a2", Title: "Second", Status: models.AssetStatusUploaded},
			},
		})
	})

	assets, err := client.ListAssets(context.Background(), "ch1", 3, 20)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/channels/ch1/assets?page=3&page_size=20", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	require.Len(t, assets, 2)
	assert.Equal(t, "a1", assets[0].ID)
	assert.Equal(t, models.AssetStatusProcessed, assets[0].Status)
}

func TestListAssets_EmptyPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"assets": []models.Asset{}})
	})

	assets, err := client.ListAssets(context.Background(), "ch1", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestPostAsset_SendsSettings(t *testing.T) {
	var gotBody map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/assets/a1/post", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	err := client.PostAsset(context.Background(), "a1", &models.PostSettings{
		Caption:      "hello",
		PrivacyLevel: "public",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", gotBody["caption"])
}

func TestUpdateAsset_ReturnsServerRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(models.Asset{
			ID:     "a1",
			Title:  req["title"],
			Status: models.AssetStatusProcessed,
		})
	})

	updated, err := client.UpdateAsset(context.Background(), "a1", models.Asset{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, models.AssetStatusProcessed, updated.Status)
}

func TestDeleteAssets_BatchPayload(t *testing.T) {
	var gotIDs []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/assets/delete", r.URL.Path)
		var req struct {
			AssetIDs []string `json:"asset_ids"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotIDs = req.AssetIDs
		w.WriteHeader(http.StatusOK)
	})

	err := client.DeleteAssets(context.Background(), []string{"a1", "a2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, gotIDs)
}

func TestGetPostStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/assets/a1/post-status", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "posted"})
	})

	status, err := client.GetPostStatus(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusPosted, status)
}

func TestDo_NonOKDecodesUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "caption too long"})
	})

	err := client.PostAsset(context.Background(), "a1", nil)
	require.Error(t, err)

	var upErr *interfaces.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnprocessableEntity, upErr.StatusCode)
	assert.Contains(t, upErr.Message, "caption too long")
}

func TestDo_NonOKWithoutBodyStillTyped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListAssets(context.Background(), "ch1", 1, 20)
	require.Error(t, err)

	var upErr *interfaces.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusBadGateway, upErr.StatusCode)
}

func TestReprocessAsset(t *testing.T) {
	var called bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/assets/a1/reprocess", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	})

	require.NoError(t, client.ReprocessAsset(context.Background(), "a1"))
	assert.True(t, called)
}
