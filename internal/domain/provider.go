package domain

import "fmt"

// Provider identifies the catalog a mod identity belongs to
type Provider string

const (
	ProviderModrinth   Provider = "modrinth"
	ProviderCurseForge Provider = "curseforge"
	ProviderCustom     Provider = "custom" // parsed from a local file, no catalog backing
)

// ParseProvider converts a user-supplied string to a Provider
func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidProvider, s)
	}
	return p, nil
}

// Valid reports whether p is one of the known providers
func (p Provider) Valid() bool {
	switch p {
	case ProviderModrinth, ProviderCurseForge, ProviderCustom:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable catalog name
func (p Provider) DisplayName() string {
	switch p {
	case ProviderModrinth:
		return "Modrinth"
	case ProviderCurseForge:
		return "CurseForge"
	case ProviderCustom:
		return "Local"
	default:
		return string(p)
	}
}
