package searchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
)

const DefaultTimeout = 20 * time.Second

// Client fetches crew facets from a remote crewboard API.
type Client struct {
	httpClient *http.Client
	server     string
	token      string
}

func New(server, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		server:     strings.TrimRight(server, "/"),
		token:      token,
	}
}

func (c *Client) FetchCrewFacet(ctx context.Context, query domain.CrewFacetQuery) (domain.CrewFacetPage, error) {
	var page domain.CrewFacetPage
	if err := c.Do(ctx, http.MethodPost, "/api/crew/facet", query, &page); err != nil {
		return domain.CrewFacetPage{}, err
	}
	return page, nil
}

// Filters returns the filter configuration served by the remote side.
func (c *Client) Filters(ctx context.Context) (domain.FilterConfiguration, error) {
	var cfg domain.FilterConfiguration
	if err := c.Do(ctx, http.MethodGet, "/api/filters", nil, &cfg); err != nil {
		return domain.FilterConfiguration{}, err
	}
	return cfg, nil
}

// Do sends in as JSON to path and decodes the response into out. A 401
// answer is reported as domain.ErrUnauthorized.
func (c *Client) Do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("search api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
