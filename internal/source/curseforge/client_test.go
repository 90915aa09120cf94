package curseforge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tmods/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SearchMods(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/mods/search", r.URL.Path)
		assert.Equal(t, "432", r.URL.Query().Get("gameId"))
		assert.Equal(t, "6", r.URL.Query().Get("classId"))
		assert.Equal(t, "jei", r.URL.Query().Get("searchFilter"))
		assert.Equal(t, "1.20.1", r.URL.Query().Get("gameVersion"))
		assert.Equal(t, "4", r.URL.Query().Get("modLoaderType"))
		assert.Equal(t, "20", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "tmods-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"data": [
				{
					"id": 238222,
					"gameId": 432,
					"name": "Just Enough Items (JEI)",
					"slug": "jei",
					"summary": "View Items and Recipes",
					"downloadCount": 150000000,
					"authors": [{"id": 1, "name": "mezz", "url": "https://curseforge.com/members/mezz"}],
					"logo": {"thumbnailUrl": "https://example.com/jei-thumb.png", "url": "https://example.com/jei.png"},
					"latestFiles": [],
					"dateModified": "2024-01-15T10:30:00Z"
				}
			],
			"pagination": {
				"index": 0,
				"pageSize": 20,
				"resultCount": 1,
				"totalCount": 1
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), "test-api-key", "tmods-test")
	client.baseURL = server.URL

	mods, pagination, err := client.SearchMods(context.Background(), SearchParams{
		ClassID:       ClassMods,
		Query:         "jei",
		GameVersion:   "1.20.1",
		ModLoaderType: "4",
	})
	require.NoError(t, err)
	require.Len(t, mods, 1)

	assert.Equal(t, 238222, mods[0].ID)
	assert.Equal(t, "Just Enough Items (JEI)", mods[0].Name)
	assert.Equal(t, "mezz", mods[0].Authors[0].Name)
	assert.Equal(t, "https://example.com/jei.png", mods[0].Logo.URL)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestClient_GetModFiles_Filters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/mods/238222/files", r.URL.Path)
		assert.Equal(t, "1.20.1", r.URL.Query().Get("gameVersion"))
		assert.Equal(t, "5", r.URL.Query().Get("modLoaderType"))
		_, _ = w.Write([]byte(`{"data": [{"id": 5101366, "modId": 238222, "fileName": "jei.jar"}], "pagination": {"totalCount": 1}}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), "key", "")
	client.baseURL = server.URL

	files, err := client.GetModFiles(context.Background(), 238222, "1.20.1", "5")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 5101366, files[0].ID)
}

func TestClient_GetFingerprintMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/fingerprints", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body FingerprintMatchesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []uint32{2824650221, 2213174766}, body.Fingerprints)

		_, _ = w.Write([]byte(`{"data": {"isCacheBuilt": true, "exactMatches": [{"id": 292908, "file": {"id": 4000, "modId": 292908}}], "exactFingerprints": [2824650221]}}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), "key", "")
	client.baseURL = server.URL

	matches, err := client.GetFingerprintMatches(context.Background(), []uint32{2824650221, 2213174766})
	require.NoError(t, err)
	require.Len(t, matches.ExactMatches, 1)
	assert.Equal(t, 292908, matches.ExactMatches[0].File.ModID)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		apiKey  string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, "key", domain.ErrAuthRequired},
		{"forbidden without key", http.StatusForbidden, "", domain.ErrAuthRequired},
		{"forbidden with key", http.StatusForbidden, "key", domain.ErrAuthRequired},
		{"not found", http.StatusNotFound, "key", domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(server.Client(), tt.apiKey, "")
			client.baseURL = server.URL

			_, err := client.GetMod(context.Background(), 1)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), "key", "")
	client.baseURL = server.URL

	_, err := client.GetMod(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error (status 502): upstream down")
}

func TestClient_IsAuthenticated(t *testing.T) {
	assert.False(t, NewClient(nil, "", "").IsAuthenticated())
	assert.True(t, NewClient(nil, "key", "").IsAuthenticated())
}

func TestClient_ValidateAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/games/432", r.URL.Path)
		if r.Header.Get("x-api-key") != "good-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":432,"name":"Minecraft"}}`))
	}))
	defer server.Close()

	good := NewClient(server.Client(), "good-key", "")
	good.baseURL = server.URL
	assert.NoError(t, good.ValidateAPIKey(context.Background()))

	bad := NewClient(server.Client(), "bad-key", "")
	bad.baseURL = server.URL
	assert.ErrorIs(t, bad.ValidateAPIKey(context.Background()), domain.ErrAuthRequired)

	assert.ErrorIs(t, NewClient(nil, "", "").ValidateAPIKey(context.Background()), domain.ErrAuthRequired)
}
