package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ModLoader describes how a loader ecosystem is addressed on each catalog.
// Values are constructed once per loader and treated as read-only.
type ModLoader struct {
	Name string

	// OverrideMods maps a catalog mod ID to the ID that should be installed
	// instead while this loader is active (e.g. Fabric API -> QSL on Quilt).
	OverrideMods map[string]string

	// ModrinthCategories lists loader tags to try, most specific first
	ModrinthCategories []string

	// CurseforgeCategory is the CurseForge modLoaderType value
	CurseforgeCategory string
}

// OverrideFor returns the replacement mod ID for id, if the loader defines one
func (l ModLoader) OverrideFor(id string) (string, bool) {
	target, ok := l.OverrideMods[id]
	if !ok || target == "" || target == id {
		return "", false
	}
	return target, true
}

// Clone returns a deep copy of the loader
func (l ModLoader) Clone() ModLoader {
	return ModLoader{
		Name:               l.Name,
		OverrideMods:       maps.Clone(l.OverrideMods),
		ModrinthCategories: slices.Clone(l.ModrinthCategories),
		CurseforgeCategory: l.CurseforgeCategory,
	}
}

// FabricLoader returns the Fabric loader definition
func FabricLoader() ModLoader {
	return ModLoader{
		Name:               "fabric",
		OverrideMods:       map[string]string{},
		ModrinthCategories: []string{"fabric"},
		CurseforgeCategory: "4",
	}
}

// QuiltLoader returns the Quilt loader definition. Quilt runs most Fabric mods,
// but ships its own forks of the Fabric core libraries.
func QuiltLoader() ModLoader {
	return ModLoader{
		Name: "quilt",
		OverrideMods: map[string]string{
			"P7dR8mSH": "qvIfYCYJ", // Fabric API -> QFAPI/QSL
			"308769":   "634179",   // Fabric API -> QFAPI/QSL
			"Ha28R6CL": "lwVhp9o5", // Fabric Language Kotlin -> QKL
			"306612":   "720410",   // Fabric Language Kotlin -> QKL
		},
		ModrinthCategories: []string{"quilt", "fabric"},
		CurseforgeCategory: "5",
	}
}

// BuiltinLoaders returns the loaders known without any configuration
func BuiltinLoaders() map[string]ModLoader {
	return map[string]ModLoader{
		"fabric": FabricLoader(),
		"quilt":  QuiltLoader(),
	}
}

// LoaderByName looks up a built-in loader
func LoaderByName(name string) (ModLoader, error) {
	loader, ok := BuiltinLoaders()[strings.ToLower(name)]
	if !ok {
		return ModLoader{}, fmt.Errorf("%w: unknown loader %q", ErrInvalidConfig, name)
	}
	return loader, nil
}
