package curseforge

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

	"tmods/internal/domain"
	"tmods/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ source.Catalog = (*CurseForge)(nil)

func newTestCurseForge(t *testing.T, mux *http.ServeMux) (*CurseForge, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cf := New(server.Client(), "test-key", "tmods-test", nil)
	cf.SetBaseURL(server.URL)
	return cf, server
}

func respond(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "pagination": Pagination{TotalCount: 57}})
}

func TestCurseForge_Identity(t *testing.T) {
	cf := New(nil, "", "", nil)
	assert.Equal(t, domain.ProviderCurseForge, cf.ID())
	assert.Equal(t, "CurseForge", cf.Name())
	assert.False(t, cf.IsAuthenticated())
}

func TestRelationType(t *testing.T) {
	tests := []struct {
		code int
		want domain.DependencyType
	}{
		{RelationEmbeddedLibrary, domain.DependencyEmbedded},
		{RelationInclude, domain.DependencyEmbedded},
		{RelationOptionalDependency, domain.DependencyOptional},
		{RelationRequiredDependency, domain.DependencyRequired},
		{RelationIncompatible, domain.DependencyIncompatible},
	}
	for _, tt := range tests {
		got, err := relationType(tt.code)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "code %d", tt.code)
	}

	_, err := relationType(RelationTool)
	assert.ErrorIs(t, err, domain.ErrUnsupportedRelation)
	_, err = relationType(99)
	assert.ErrorIs(t, err, domain.ErrUnsupportedRelation)
}

func TestFindVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/mods/292908/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.19.2", r.URL.Query().Get("gameVersion"))
		assert.Equal(t, "4", r.URL.Query().Get("modLoaderType"))
		respond(w, []File{{
			ID:          4001,
			ModID:       292908,
			DisplayName: "Illuminations 1.10.11",
			FileName:    "illuminations-1.10.11.jar",
			DownloadURL: "https://edge.forgecdn.net/files/4001/illuminations.jar",
			Hashes:      []FileHash{{Value: "abc", Algo: HashAlgoSHA1}, {Value: "def", Algo: HashAlgoMD5}},
		}, {ID: 3000, ModID: 292908}})
	})
	cf, _ := newTestCurseForge(t, mux)

	v, err := cf.FindVersion(context.Background(), "292908", domain.FabricLoader(), []string{"1.19.2", "1.19.1"})
	require.NoError(t, err)
	assert.Equal(t, "4001", v.ID)
	assert.Equal(t, "292908", v.ProjectID)
	assert.Equal(t, domain.ProviderCurseForge, v.Provider)
	require.Len(t, v.Files, 1)
	assert.Equal(t, "abc", v.Files[0].Hashes[domain.HashSHA1])
	assert.Equal(t, "def", v.Files[0].Hashes[domain.HashMD5])
}

func TestFindVersion_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/mods/1/files", func(w http.ResponseWriter, r *http.Request) {
		respond(w, []File{})
	})
	mux.HandleFunc("GET /v1/mods/2/files", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	cf, _ := newTestCurseForge(t, mux)

	for _, id := range []string{"1", "2", "not-a-number"} {
		_, err := cf.FindVersion(context.Background(), id, domain.FabricLoader(), []string{"1.20.1"})
		assert.ErrorIs(t, err, domain.ErrNotFound, "mod %s", id)
	}
}

func fabricAPIMux(latestFile int, compatible map[string][]File) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/mods/306612", func(w http.ResponseWriter, r *http.Request) {
		respond(w, Mod{
			ID:          306612,
			Name:        "Fabric Language Kotlin",
			Slug:        "fabric-language-kotlin",
			Summary:     "Kotlin for Fabric",
			Authors:     []Author{{Name: "modmuss50"}},
			Logo:        &ModAsset{URL: "https://example.com/flk.png"},
			LatestFiles: []File{{ID: latestFile}},
		})
	})
	mux.HandleFunc("GET /v1/mods/306612/files/100", func(w http.ResponseWriter, r *http.Request) {
		respond(w, File{ID: 100, ModID: 306612, Dependencies: []FileDependency{
			{ModID: 306612, RelationType: RelationRequiredDependency},
			{ModID: 308769, RelationType: RelationRequiredDependency},
			{ModID: 238222, FileID: 77, RelationType: RelationOptionalDependency},
		}})
	})
	for id, files := range compatible {
		mux.HandleFunc("GET /v1/mods/"+id+"/files", func(w http.ResponseWriter, r *http.Request) {
			respond(w, files)
		})
	}
	return mux
}

func TestGetInstalledMetadata_OverrideWins(t *testing.T) {
	mux := fabricAPIMux(100, map[string][]File{
		"720410": {{ID: 900, ModID: 720410}},
		"306612": {{ID: 100, ModID: 306612}},
	})
	cf, _ := newTestCurseForge(t, mux)

	md, err := cf.GetInstalledMetadata(context.Background(), "306612", "100", domain.QuiltLoader(), []string{"1.20.1"})
	require.NoError(t, err)
	require.NotNil(t, md.UpdateVersion)
	assert.Equal(t, "900", md.UpdateVersion.ID)
	assert.Equal(t, "720410", md.UpdateVersion.ProjectID, "override resolves the target mod")
}

func TestGetInstalledMetadata_Latest(t *testing.T) {
	mux := fabricAPIMux(100, nil)
	cf, _ := newTestCurseForge(t, mux)

	md, err := cf.GetInstalledMetadata(context.Background(), "306612", "100", domain.FabricLoader(), []string{"1.20.1"})
	require.NoError(t, err)

	assert.Nil(t, md.UpdateVersion)
	assert.Equal(t, "306612", md.Identity.ID)
	assert.Equal(t, "fabric-language-kotlin", md.Slug)
	assert.Equal(t, "100", md.Version)
	assert.Equal(t, "https://example.com/flk.png", md.Icon)
	assert.Equal(t, []string{"modmuss50"}, md.Authors)
	assert.Equal(t, []domain.Dependency{
		{ID: "308769", Type: domain.DependencyRequired},
		{ID: "238222", Version: "77", Type: domain.DependencyOptional},
	}, md.Dependencies)
}

func TestGetInstalledMetadata_NewerFile(t *testing.T) {
	mux := fabricAPIMux(200, map[string][]File{
		"306612": {{ID: 150, ModID: 306612}},
	})
	cf, _ := newTestCurseForge(t, mux)

	md, err := cf.GetInstalledMetadata(context.Background(), "306612", "100", domain.FabricLoader(), []string{"1.20.1"})
	require.NoError(t, err)
	require.NotNil(t, md.UpdateVersion)
	assert.Equal(t, "150", md.UpdateVersion.ID)
}

func TestGetInstalledMetadata_ToolRelationFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/mods/1", func(w http.ResponseWriter, r *http.Request) {
		respond(w, Mod{ID: 1, LatestFiles: []File{{ID: 10}}})
	})
	mux.HandleFunc("GET /v1/mods/1/files/10", func(w http.ResponseWriter, r *http.Request) {
		respond(w, File{ID: 10, ModID: 1, Dependencies: []FileDependency{{ModID: 2, RelationType: RelationTool}}})
	})
	cf, _ := newTestCurseForge(t, mux)

	_, err := cf.GetInstalledMetadata(context.Background(), "1", "10", domain.FabricLoader(), nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedRelation)
}

func TestSearch_SubstitutesOverride(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/mods/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("modLoaderType"))
		respond(w, []Mod{
			{ID: 308769, Name: "Fabric API", Slug: "fabric-api", Summary: "Core API", Authors: []Author{{Name: "modmuss50"}}},
			{ID: 238222, Name: "JEI", Slug: "jei", Summary: "Items", Authors: []Author{{Name: "mezz"}}},
		})
	})
	mux.HandleFunc("GET /v1/mods/634179/files", func(w http.ResponseWriter, r *http.Request) {
		respond(w, []File{{ID: 1, ModID: 634179}})
	})
	mux.HandleFunc("GET /v1/mods/634179", func(w http.ResponseWriter, r *http.Request) {
		respond(w, Mod{ID: 634179, Name: "QFAPI/QSL", Slug: "qsl", Summary: "Quilt libraries", Authors: []Author{{Name: "QuiltMC"}}})
	})
	cf, _ := newTestCurseForge(t, mux)

	result, err := cf.Search(context.Background(), "api", domain.QuiltLoader(), []string{"1.20.1"})
	require.NoError(t, err)

	assert.Equal(t, 57, result.Count)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "634179", result.Hits[0].Identity.ID)
	assert.Equal(t, "qsl", result.Hits[0].Slug)
	assert.Equal(t, "jei", result.Hits[1].Slug)
}

func TestSearch_KeepsHitWhenOverrideNotInstallable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/mods/search", func(w http.ResponseWriter, r *http.Request) {
		respond(w, []Mod{{ID: 308769, Name: "Fabric API", Slug: "fabric-api", Summary: "Core API"}})
	})
	mux.HandleFunc("GET /v1/mods/634179/files", func(w http.ResponseWriter, r *http.Request) {
		respond(w, []File{})
	})
	mux.HandleFunc("GET /v1/mods/634179", func(w http.ResponseWriter, r *http.Request) {
		t.Error("override target should not be fetched when it has no compatible file")
		respond(w, Mod{ID: 634179, Slug: "qsl"})
	})
	cf, _ := newTestCurseForge(t, mux)

	result, err := cf.Search(context.Background(), "api", domain.QuiltLoader(), []string{"1.20.1"})
	require.NoError(t, err)

	require.Len(t, result.Hits, 1)
	assert.Equal(t, "308769", result.Hits[0].Identity.ID)
	assert.Equal(t, "fabric-api", result.Hits[0].Slug)
	assert.Equal(t, "Fabric API", result.Hits[0].Name)
	assert.Equal(t, 57, result.Count)
}

func TestListDependencies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/mods/308769", func(w http.ResponseWriter, r *http.Request) {
		respond(w, Mod{ID: 308769, Slug: "fabric-api"})
	})
	mux.HandleFunc("GET /v1/mods/308769/files", func(w http.ResponseWriter, r *http.Request) {
		respond(w, []File{{ID: 555, ModID: 308769}})
	})
	mux.HandleFunc("GET /v1/mods/238222", func(w http.ResponseWriter, r *http.Request) {
		respond(w, Mod{ID: 238222, Slug: "jei"})
	})
	mux.HandleFunc("GET /v1/mods/238222/files/77", func(w http.ResponseWriter, r *http.Request) {
		respond(w, File{ID: 77, ModID: 238222})
	})
	mux.HandleFunc("GET /v1/mods/111/files", func(w http.ResponseWriter, r *http.Request) {
		respond(w, []File{})
	})
	cf, _ := newTestCurseForge(t, mux)

	native := &File{ID: 100, ModID: 306612, Dependencies: []FileDependency{
		{ModID: 308769, RelationType: RelationRequiredDependency},
		{ModID: 238222, FileID: 77, RelationType: RelationOptionalDependency},
		{ModID: 111, RelationType: RelationIncompatible},
		{ModID: 306612, RelationType: RelationRequiredDependency},
	}}
	mod := domain.ResolvedVersion{
		Identity: domain.ModIdentity{Provider: domain.ProviderCurseForge, ID: "306612", Slug: "fabric-language-kotlin"},
		Version:  &domain.Version{ID: "100", Raw: native},
	}

	deps, err := cf.ListDependencies(context.Background(), mod, domain.FabricLoader(), []string{"1.20.1"})
	require.NoError(t, err)
	require.Len(t, deps, 3)

	assert.Equal(t, "fabric-api", deps[0].Mod.Identity.Slug, "dependency slug comes from the dependency itself")
	assert.Equal(t, "555", deps[0].Mod.Version.ID)
	assert.Equal(t, domain.DependencyRequired, deps[0].Type)

	assert.Equal(t, "jei", deps[1].Mod.Identity.Slug)
	assert.Equal(t, "77", deps[1].Mod.Version.ID)

	assert.Equal(t, "111", deps[2].Mod.Identity.ID)
	assert.Nil(t, deps[2].Mod.Version)
	assert.Equal(t, domain.DependencyIncompatible, deps[2].Type)
}

func TestFileMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mod.jar")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/fingerprints", func(w http.ResponseWriter, r *http.Request) {
		var body FingerprintMatchesRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, []uint32{2824650221, 2213174766}, body.Fingerprints)
		respond(w, FingerprintMatches{ExactMatches: []FingerprintMatch{{ID: 292908, File: File{ID: 4001, ModID: 292908}}}})
	})
	mux.HandleFunc("GET /v1/mods/292908", func(w http.ResponseWriter, r *http.Request) {
		respond(w, Mod{ID: 292908, Name: "Illuminations", Slug: "illuminations", LatestFiles: []File{{ID: 4001}}})
	})
	cf, _ := newTestCurseForge(t, mux)

	md, err := cf.FileMetadata(context.Background(), path, domain.FabricLoader(), []string{"1.19.2"})
	require.NoError(t, err)
	assert.Equal(t, "292908", md.Identity.ID)
	assert.Equal(t, "4001", md.Version)
	assert.Equal(t, "illuminations", md.Slug)
}

func TestFileMetadata_NoMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mod.jar")
	require.NoError(t, os.WriteFile(path, []byte("unknown"), 0644))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/fingerprints", func(w http.ResponseWriter, r *http.Request) {
		respond(w, FingerprintMatches{})
	})
	cf, _ := newTestCurseForge(t, mux)

	_, err := cf.FileMetadata(context.Background(), path, domain.FabricLoader(), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDownload_ManualRequiresPopup(t *testing.T) {
	cf := New(nil, "key", "", nil)
	mod := domain.ResolvedVersion{
		Identity: domain.ModIdentity{Provider: domain.ProviderCurseForge, ID: "292908", Slug: "illuminations"},
		Version:  &domain.Version{ID: "4001", Files: []domain.VersionFile{{Primary: true}}},
	}

	err := cf.Download(context.Background(), mod, filepath.Join(t.TempDir(), "mod.jar"), nil)
	require.ErrorIs(t, err, domain.ErrPopupRequired)
	assert.Contains(t, err.Error(), "https://www.curseforge.com/minecraft/mc-mods/illuminations/download/4001")
}

func TestDownload_ManualWithPopup(t *testing.T) {
	content := []byte("manual jar")
	sum := sha1.Sum(content)

	cf := New(nil, "key", "", nil)
	mod := domain.ResolvedVersion{
		Identity: domain.ModIdentity{Provider: domain.ProviderCurseForge, ID: "292908", Slug: "illuminations"},
		Version: &domain.Version{ID: "4001", Files: []domain.VersionFile{{
			Primary: true,
			Hashes:  map[domain.HashAlgo]string{domain.HashSHA1: hex.EncodeToString(sum[:])},
		}}},
	}

	var opened string
	popup := func(ctx context.Context, url, dest string) error {
		opened = url
		return os.WriteFile(dest, content, 0644)
	}

	dest := filepath.Join(t.TempDir(), "mod.jar")
	require.NoError(t, cf.Download(context.Background(), mod, dest, popup))
	assert.Equal(t, "https://www.curseforge.com/minecraft/mc-mods/illuminations/download/4001", opened)
	assert.FileExists(t, dest)
}

func TestDownload_Direct(t *testing.T) {
	content := []byte("direct jar")
	sum := sha1.Sum(content)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /files/mod.jar", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	})
	cf, server := newTestCurseForge(t, mux)

	mod := domain.ResolvedVersion{Version: &domain.Version{ID: "1", Files: []domain.VersionFile{{
		URL:     server.URL + "/files/mod.jar",
		Primary: true,
		Hashes:  map[domain.HashAlgo]string{domain.HashSHA1: hex.EncodeToString(sum[:])},
	}}}}

	dest := filepath.Join(t.TempDir(), "mod.jar")
	require.NoError(t, cf.Download(context.Background(), mod, dest, nil))
	assert.FileExists(t, dest)
}

func TestDownload_ManualLooksUpMissingSlug(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/mods/292908", func(w http.ResponseWriter, r *http.Request) {
		respond(w, Mod{ID: 292908, Slug: "illuminations"})
	})
	cf, _ := newTestCurseForge(t, mux)

	mod := domain.ResolvedVersion{
		Identity: domain.ModIdentity{Provider: domain.ProviderCurseForge, ID: "292908"},
		Version:  &domain.Version{ID: "4001", Files: []domain.VersionFile{{Primary: true}}},
	}

	err := cf.Download(context.Background(), mod, filepath.Join(t.TempDir(), "mod.jar"), nil)
	require.ErrorIs(t, err, domain.ErrPopupRequired)
	assert.Contains(t, err.Error(), "https://www.curseforge.com/minecraft/mc-mods/illuminations/download/4001")
}

func TestDownload_ManualUsesOwningModSlug(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/mods/634179", func(w http.ResponseWriter, r *http.Request) {
		respond(w, Mod{ID: 634179, Slug: "qsl"})
	})
	cf, _ := newTestCurseForge(t, mux)

	mod := domain.ResolvedVersion{
		Identity: domain.ModIdentity{Provider: domain.ProviderCurseForge, ID: "308769", Slug: "fabric-api"},
		Version:  &domain.Version{ID: "5000", ProjectID: "634179", Files: []domain.VersionFile{{Primary: true}}},
	}

	var opened string
	popup := func(ctx context.Context, url, dest string) error {
		opened = url
		return os.WriteFile(dest, []byte("qsl"), 0644)
	}

	require.NoError(t, cf.Download(context.Background(), mod, filepath.Join(t.TempDir(), "qsl.jar"), popup))
	assert.Equal(t, "https://www.curseforge.com/minecraft/mc-mods/qsl/download/5000", opened)
}

func TestDownload_ManualSlugLookupFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/mods/292908", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	cf, _ := newTestCurseForge(t, mux)

	mod := domain.ResolvedVersion{
		Identity: domain.ModIdentity{Provider: domain.ProviderCurseForge, ID: "292908"},
		Version:  &domain.Version{ID: "4001", Files: []domain.VersionFile{{Primary: true}}},
	}

	popup := func(ctx context.Context, url, dest string) error {
		t.Errorf("popup opened with %q", url)
		return nil
	}

	err := cf.Download(context.Background(), mod, filepath.Join(t.TempDir(), "mod.jar"), popup)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrPopupRequired)
}
