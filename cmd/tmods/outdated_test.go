package main

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"tmods/internal/core"
	"tmods/internal/domain"
	"tmods/internal/source/modrinth"
	"tmods/internal/storage/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serviceWithModrinth returns a service whose Modrinth catalog talks to mux
func serviceWithModrinth(t *testing.T, mux *http.ServeMux) (*core.Service, *httptest.Server) {
	t.Helper()
	useTempDirs(t)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	svc, err := initService()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, svc.Close())
	})

	mr := modrinth.New(server.Client(), "tmods-test", nil)
	mr.SetBaseURL(server.URL)
	svc.RegisterCatalog(mr)
	return svc, server
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestApplyUpdate_OverrideRecordsTargetMod(t *testing.T) {
	content := []byte("qsl jar")
	sum := sha1.Sum(content)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /project/qvIfYCYJ", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, modrinth.Project{ID: "qvIfYCYJ", Slug: "qsl", Title: "QFAPI/QSL"})
	})
	mux.HandleFunc("GET /project/qvIfYCYJ/members", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []modrinth.TeamMember{})
	})
	mux.HandleFunc("GET /files/qsl.jar", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	})
	svc, server := serviceWithModrinth(t, mux)

	modsDir := t.TempDir()
	oldPath := filepath.Join(modsDir, "fabric-api.jar")
	require.NoError(t, os.WriteFile(oldPath, []byte("fabric api"), 0644))

	fapi := domain.ModIdentity{Provider: domain.ProviderModrinth, ID: "P7dR8mSH", Slug: "fabric-api"}
	require.NoError(t, svc.DB().RecordDownload(&db.Download{Path: oldPath, Mod: fapi, VersionID: "fapi1"}))

	u := core.Update{
		Installed: core.InstalledMod{Mod: fapi, VersionID: "fapi1", Path: oldPath},
		Metadata: &domain.InstalledMetadata{
			Identity: fapi,
			UpdateVersion: &domain.Version{
				Provider:  domain.ProviderModrinth,
				ID:        "qsl9",
				ProjectID: "qvIfYCYJ",
				Files: []domain.VersionFile{{
					URL:      server.URL + "/files/qsl.jar",
					FileName: "qsl.jar",
					Primary:  true,
					Hashes:   map[domain.HashAlgo]string{domain.HashSHA1: hex.EncodeToString(sum[:])},
				}},
			},
		},
	}

	dest, err := applyUpdate(context.Background(), svc, u)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(modsDir, "qsl.jar"), dest)

	dl, err := svc.DB().GetDownload(dest)
	require.NoError(t, err)
	assert.Equal(t, domain.ModIdentity{Provider: domain.ProviderModrinth, ID: "qvIfYCYJ", Slug: "qsl"}, dl.Mod)
	assert.Equal(t, "qsl9", dl.VersionID)

	_, err = svc.DB().GetDownload(oldPath)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoFileExists(t, oldPath)
}

func TestUpdateIdentity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /project/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	svc, _ := serviceWithModrinth(t, mux)

	installed := domain.ModIdentity{Provider: domain.ProviderModrinth, ID: "AANobbMI", Slug: "sodium"}
	update := func(projectID string) core.Update {
		return core.Update{
			Installed: core.InstalledMod{Mod: installed},
			Metadata:  &domain.InstalledMetadata{UpdateVersion: &domain.Version{ID: "v2", ProjectID: projectID}},
		}
	}

	ctx := context.Background()
	assert.Equal(t, installed, updateIdentity(ctx, svc, update("AANobbMI")))
	assert.Equal(t, installed, updateIdentity(ctx, svc, update("")))
	assert.Equal(t, domain.ModIdentity{Provider: domain.ProviderModrinth, ID: "gone"}, updateIdentity(ctx, svc, update("gone")))
}

func TestFetchMod_StripsDirectoryFromFileName(t *testing.T) {
	content := []byte("sodium jar")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /project/AANobbMI/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []modrinth.Version{{
			ID:        "v1",
			ProjectID: "AANobbMI",
			Files: []modrinth.File{{
				URL:      "http://" + r.Host + "/files/sodium.jar",
				Filename: "../escaped.jar",
				Primary:  true,
			}},
		}})
	})
	mux.HandleFunc("GET /files/sodium.jar", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	})
	svc, _ := serviceWithModrinth(t, mux)

	root := t.TempDir()
	dir := filepath.Join(root, "mods")
	mod := domain.ModIdentity{Provider: domain.ProviderModrinth, ID: "AANobbMI"}

	path, _, err := fetchMod(context.Background(), svc, mod, domain.FabricLoader(), []string{"1.20.1"}, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escaped.jar"), path)
	assert.FileExists(t, path)
	assert.NoFileExists(t, filepath.Join(root, "escaped.jar"))
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"sodium-0.5.3.jar", "sodium-0.5.3.jar", false},
		{"../escaped.jar", "escaped.jar", false},
		{"/etc/mods/abs.jar", "abs.jar", false},
		{"nested/dir/mod.jar", "mod.jar", false},
		{"", "", true},
		{".", "", true},
		{"..", "", true},
		{"/", "", true},
		{"mods/..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := safeFileName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrDownloadFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
