package modrinth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"tmods/internal/domain"
	"tmods/internal/ratelimit"
)

const (
	defaultBaseURL = "https://api.modrinth.com/v2"
)

// Client wraps the Modrinth REST API v2. All requests go through the given
// Doer, which is normally a ratelimit.Queue.
type Client struct {
	doer      ratelimit.Doer
	userAgent string
	baseURL   string
}

// NewClient creates a new Modrinth API client
func NewClient(doer ratelimit.Doer, userAgent string) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		doer:      doer,
		userAgent: userAgent,
		baseURL:   defaultBaseURL,
	}
}

// doRequest performs a GET request and decodes the JSON response into result
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, result any) (err error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing response body: %w", cerr)
		}
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: modrinth rejected the request", domain.ErrAuthRequired)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	default:
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*1024))
		if readErr != nil {
			return fmt.Errorf("API error (status %d); reading body: %w", resp.StatusCode, readErr)
		}
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// GetProject fetches a project by ID or slug
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := c.doRequest(ctx, "/project/"+url.PathEscape(id), nil, &project); err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return &project, nil
}

// GetProjectMembers fetches the team members of a project
func (c *Client) GetProjectMembers(ctx context.Context, id string) ([]TeamMember, error) {
	var members []TeamMember
	if err := c.doRequest(ctx, "/project/"+url.PathEscape(id)+"/members", nil, &members); err != nil {
		return nil, fmt.Errorf("getting project members: %w", err)
	}
	return members, nil
}

// GetProjectVersions lists versions of a project filtered by loader tags and game versions.
// The filters are sent as JSON arrays, as the API expects.
func (c *Client) GetProjectVersions(ctx context.Context, id string, loaders, gameVersions []string) ([]Version, error) {
	query := url.Values{}
	if len(loaders) > 0 {
		query.Set("loaders", jsonArray(loaders))
	}
	if len(gameVersions) > 0 {
		query.Set("game_versions", jsonArray(gameVersions))
	}

	var versions []Version
	if err := c.doRequest(ctx, "/project/"+url.PathEscape(id)+"/version", query, &versions); err != nil {
		return nil, fmt.Errorf("getting project versions: %w", err)
	}
	return versions, nil
}

// GetVersion fetches a version by ID
func (c *Client) GetVersion(ctx context.Context, id string) (*Version, error) {
	var version Version
	if err := c.doRequest(ctx, "/version/"+url.PathEscape(id), nil, &version); err != nil {
		return nil, fmt.Errorf("getting version: %w", err)
	}
	return &version, nil
}

// GetVersionByHash looks up the version containing a file with the given sha1
func (c *Client) GetVersionByHash(ctx context.Context, sha1 string) (*Version, error) {
	query := url.Values{}
	query.Set("algorithm", "sha1")

	var version Version
	if err := c.doRequest(ctx, "/version_file/"+url.PathEscape(sha1), query, &version); err != nil {
		return nil, fmt.Errorf("getting version by hash: %w", err)
	}
	return &version, nil
}

// SearchParams are the inputs of a project search
type SearchParams struct {
	Query  string
	Facets [][]string // outer slice is AND, inner slices are OR
	Index  string
	Offset int
	Limit  int
}

// Search runs a project search
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	if params.Index == "" {
		params.Index = "relevance"
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	query := url.Values{}
	query.Set("query", params.Query)
	query.Set("index", params.Index)
	query.Set("offset", strconv.Itoa(params.Offset))
	query.Set("limit", strconv.Itoa(params.Limit))
	var groups [][]string
	for _, g := range params.Facets {
		if len(g) > 0 {
			groups = append(groups, g)
		}
	}
	if len(groups) > 0 {
		facets, err := json.Marshal(groups)
		if err != nil {
			return nil, fmt.Errorf("encoding facets: %w", err)
		}
		query.Set("facets", string(facets))
	}

	var resp SearchResponse
	if err := c.doRequest(ctx, "/search", query, &resp); err != nil {
		return nil, fmt.Errorf("searching projects: %w", err)
	}
	return &resp, nil
}

// Facet builds an OR group matching any of values for the given facet name
func Facet(name string, values ...string) []string {
	group := make([]string, 0, len(values))
	for _, v := range values {
		group = append(group, name+":"+v)
	}
	return group
}

func jsonArray(values []string) string {
	b, _ := json.Marshal(values)
	return string(b)
}
