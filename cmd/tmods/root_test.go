package main

import (
	"os"
	"path/filepath"
	"testing"

	"tmods/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempDirs points the global flags at fresh directories and resets them afterwards
func useTempDirs(t *testing.T) {
	t.Helper()
	configDir = t.TempDir()
	configFile = ""
	dataDir = t.TempDir()
	loaderName = ""
	gameVersions = nil
	jsonOutput = false
	t.Setenv("CURSEFORGE_API_KEY", "")
	t.Cleanup(func() {
		configDir, configFile, dataDir, loaderName, gameVersions = "", "", "", "", nil
	})
}

func TestInitService_RegistersModrinthOnly(t *testing.T) {
	useTempDirs(t)

	svc, err := initService()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, svc.Close())
	})

	assert.True(t, svc.Registry().Has(domain.ProviderModrinth))
	assert.False(t, svc.Registry().Has(domain.ProviderCurseForge), "curseforge needs an api key")
	assert.FileExists(t, filepath.Join(dataDir, "tmods.db"))
}

func TestInitService_CurseForgeFromEnv(t *testing.T) {
	useTempDirs(t)
	t.Setenv("CURSEFORGE_API_KEY", "env-key-123")

	svc, err := initService()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, svc.Close())
	})

	assert.True(t, svc.Registry().Has(domain.ProviderCurseForge))
}

func TestTarget_DefaultsFromConfig(t *testing.T) {
	useTempDirs(t)

	svc, err := initService()
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	loader, versions, err := target(svc)
	require.NoError(t, err)
	assert.Equal(t, "fabric", loader.Name)
	assert.Equal(t, []string{"1.20.1"}, versions)
}

func TestTarget_Flags(t *testing.T) {
	useTempDirs(t)
	loaderName = "Quilt"
	gameVersions = []string{"1.19.2", "1.19.3"}

	svc, err := initService()
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	loader, versions, err := target(svc)
	require.NoError(t, err)
	assert.Equal(t, "quilt", loader.Name)
	assert.Equal(t, []string{"1.19.2", "1.19.3"}, versions)
}

func TestTarget_UnknownLoader(t *testing.T) {
	useTempDirs(t)
	loaderName = "forge"

	svc, err := initService()
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	_, _, err = target(svc)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestTarget_ConfigFile(t *testing.T) {
	useTempDirs(t)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("loader: quilt\ngame_versions: [\"1.18.2\"]\n"), 0600))

	svc, err := initService()
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	loader, versions, err := target(svc)
	require.NoError(t, err)
	assert.Equal(t, "quilt", loader.Name)
	assert.Equal(t, []string{"1.18.2"}, versions)
}

func TestTarget_ExplicitConfigFile(t *testing.T) {
	useTempDirs(t)
	configFile = filepath.Join(t.TempDir(), "pack.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("game_versions: [\"1.20.4\"]\n"), 0600))

	svc, err := initService()
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	_, versions, err := target(svc)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.20.4"}, versions)
}

func TestParseModRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    domain.ModIdentity
		wantErr error
	}{
		{
			name:  "modrinth",
			input: "modrinth:AANobbMI",
			want:  domain.ModIdentity{Provider: domain.ProviderModrinth, ID: "AANobbMI"},
		},
		{
			name:  "curseforge with slug",
			input: "curseforge:238222:jei",
			want:  domain.ModIdentity{Provider: domain.ProviderCurseForge, ID: "238222", Slug: "jei"},
		},
		{
			name:    "unknown provider",
			input:   "planetminecraft:1",
			wantErr: domain.ErrInvalidProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseModRef(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"AANobbMI", "modrinth:", ""} {
		_, err := parseModRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestColorEnabled(t *testing.T) {
	noColor = false
	t.Setenv("NO_COLOR", "")
	assert.True(t, colorEnabled())
	assert.Equal(t, ansiGreen+"ok"+ansiReset, colorGreen("ok"))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, colorEnabled())
	assert.Equal(t, "ok", colorRed("ok"))
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"search", "info", "resolve", "deps", "download", "identify", "parse", "browse", "auth", "verify", "outdated", "config"} {
		assert.True(t, names[want], "missing command %s", want)
	}

	for _, flag := range []string{"config", "config-file", "data", "loader", "game-version", "verbose", "json", "no-color"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
}
