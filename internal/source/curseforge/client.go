package curseforge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"tmods/internal/domain"
)

const (
	defaultBaseURL = "https://api.curseforge.com"
)

// Client wraps the CurseForge REST API v1
type Client struct {
	httpClient *http.Client
	apiKey     string
	userAgent  string
	baseURL    string
}

// NewClient creates a new CurseForge API client
func NewClient(httpClient *http.Client, apiKey, userAgent string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		userAgent:  userAgent,
		baseURL:    defaultBaseURL,
	}
}

// IsAuthenticated returns true if an API key is configured
func (c *Client) IsAuthenticated() bool {
	return c.apiKey != ""
}

// doRequest performs an HTTP request with authentication. A non-nil body is sent as JSON.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) (err error) {
	reqURL := c.baseURL + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing response body: %w", cerr)
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: CurseForge API key required", domain.ErrAuthRequired)
	}

	if resp.StatusCode == http.StatusForbidden {
		if c.apiKey == "" {
			return fmt.Errorf("%w: CurseForge API key required", domain.ErrAuthRequired)
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if len(msg) > 0 {
			return fmt.Errorf("%w: access denied (check API key): %s", domain.ErrAuthRequired, string(msg))
		}
		return fmt.Errorf("%w: access denied (check API key is valid)", domain.ErrAuthRequired)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}

	if resp.StatusCode != http.StatusOK {
		msg, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*1024)) // Limit error body to 10KB
		if readErr != nil {
			return fmt.Errorf("API error (status %d); reading body: %w", resp.StatusCode, readErr)
		}
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// SearchParams are the inputs of a mod search
type SearchParams struct {
	GameID        int
	ClassID       int
	Query         string
	GameVersion   string
	ModLoaderType string
	PageSize      int
	Index         int
}

// SearchMods searches for mods with the given parameters
func (c *Client) SearchMods(ctx context.Context, p SearchParams) ([]Mod, *Pagination, error) {
	if p.GameID == 0 {
		p.GameID = MinecraftGameID
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 50 {
		p.PageSize = 50 // API max
	}

	params := url.Values{}
	params.Set("gameId", strconv.Itoa(p.GameID))
	if p.ClassID > 0 {
		params.Set("classId", strconv.Itoa(p.ClassID))
	}
	params.Set("searchFilter", p.Query)
	if p.GameVersion != "" {
		params.Set("gameVersion", p.GameVersion)
	}
	if p.ModLoaderType != "" {
		params.Set("modLoaderType", p.ModLoaderType)
	}
	params.Set("pageSize", strconv.Itoa(p.PageSize))
	params.Set("index", strconv.Itoa(p.Index))

	path := "/v1/mods/search?" + params.Encode()

	var resp PaginatedResponse[[]Mod]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, nil, fmt.Errorf("searching mods: %w", err)
	}

	return resp.Data, &resp.Pagination, nil
}

// GetMod fetches a single mod by ID
func (c *Client) GetMod(ctx context.Context, modID int) (*Mod, error) {
	path := fmt.Sprintf("/v1/mods/%d", modID)

	var resp APIResponse[Mod]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting mod: %w", err)
	}
	return &resp.Data, nil
}

// GetModFiles fetches files for a mod, optionally filtered by game version and loader type
func (c *Client) GetModFiles(ctx context.Context, modID int, gameVersion, modLoaderType string) ([]File, error) {
	params := url.Values{}
	if gameVersion != "" {
		params.Set("gameVersion", gameVersion)
	}
	if modLoaderType != "" {
		params.Set("modLoaderType", modLoaderType)
	}

	path := fmt.Sprintf("/v1/mods/%d/files", modID)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp PaginatedResponse[[]File]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting mod files: %w", err)
	}
	return resp.Data, nil
}

// GetModFile fetches a specific file for a mod
func (c *Client) GetModFile(ctx context.Context, modID, fileID int) (*File, error) {
	path := fmt.Sprintf("/v1/mods/%d/files/%d", modID, fileID)

	var resp APIResponse[File]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting mod file: %w", err)
	}
	return &resp.Data, nil
}

// GetFingerprintMatches looks up files by their fingerprints
func (c *Client) GetFingerprintMatches(ctx context.Context, fingerprints []uint32) (*FingerprintMatches, error) {
	body := FingerprintMatchesRequest{Fingerprints: fingerprints}

	var resp APIResponse[FingerprintMatches]
	if err := c.doRequest(ctx, http.MethodPost, "/v1/fingerprints", body, &resp); err != nil {
		return nil, fmt.Errorf("matching fingerprints: %w", err)
	}
	return &resp.Data, nil
}

// ValidateAPIKey checks the configured key by fetching the Minecraft game record
func (c *Client) ValidateAPIKey(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: CurseForge API key required", domain.ErrAuthRequired)
	}

	path := fmt.Sprintf("/v1/games/%d", MinecraftGameID)
	var resp APIResponse[json.RawMessage]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return fmt.Errorf("validating api key: %w", err)
	}
	return nil
}
