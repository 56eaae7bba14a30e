// Package notion provides a Notion API client for querying and writing
// database pages.
package notion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/vineelsai26/ghnotion/internal/logger"
)

const (
	apiBaseURL = "https://api.notion.com"
	apiVersion = "2022-06-28"

	// maxRetries bounds the retry budget for rate-limited requests.
	maxRetries = 3
	// baseRetryDelay is the starting delay for exponential backoff when
	// the server does not send Retry-After.
	baseRetryDelay = time.Second
	// maxRetryDelay caps the backoff delay.
	maxRetryDelay = 30 * time.Second
)

// Page is a handle to a Notion database page.
type Page struct {
	ID string `json:"id"`
}

// Client is a Notion API client.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// New creates a new Notion API client with the given integration token.
func New(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    apiBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithBaseURL creates a Notion API client with a custom base URL (for testing).
func NewWithBaseURL(token, baseURL string) *Client {
	return &Client{
		token:      token,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type urlFilter struct {
	Equals string `json:"equals"`
}

type propertyFilter struct {
	Property string    `json:"property"`
	URL      urlFilter `json:"url"`
}

type queryRequest struct {
	Filter propertyFilter `json:"filter"`
}

type queryResponse struct {
	Results []Page `json:"results"`
}

// parent identifies the database a new page belongs to.
type parent struct {
	DatabaseID string `json:"database_id"`
}

type createPageRequest struct {
	Parent     parent     `json:"parent"`
	Properties Properties `json:"properties"`
}

type updatePageRequest struct {
	Properties Properties `json:"properties"`
}

// QueryByURL returns the pages in a database whose URL property equals url.
func (c *Client) QueryByURL(databaseID, url string) ([]Page, error) {
	reqURL := fmt.Sprintf("%s/v1/databases/%s/query", c.baseURL, databaseID)

	payload := queryRequest{
		Filter: propertyFilter{
			Property: "URL",
			URL:      urlFilter{Equals: url},
		},
	}

	var result queryResponse
	if err := c.do(http.MethodPost, reqURL, payload, &result); err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}

	return result.Results, nil
}

// CreatePage creates a new page in a database with the given properties.
func (c *Client) CreatePage(databaseID string, props Properties) (*Page, error) {
	reqURL := fmt.Sprintf("%s/v1/pages", c.baseURL)

	payload := createPageRequest{
		Parent:     parent{DatabaseID: databaseID},
		Properties: props,
	}

	var page Page
	if err := c.do(http.MethodPost, reqURL, payload, &page); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &page, nil
}

// UpdatePage replaces the given properties on an existing page.
func (c *Client) UpdatePage(pageID string, props Properties) (*Page, error) {
	reqURL := fmt.Sprintf("%s/v1/pages/%s", c.baseURL, pageID)

	payload := updatePageRequest{Properties: props}

	var page Page
	if err := c.do(http.MethodPatch, reqURL, payload, &page); err != nil {
		return nil, fmt.Errorf("failed to update page: %w", err)
	}

	return &page, nil
}

// do sends a JSON request, retrying rate-limited responses with bounded
// backoff, and decodes the JSON response into result.
func (c *Client) do(method, url string, payload, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := c.doRequest(method, url, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Notion API error: %s - %s", resp.Status, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) doRequest(method, url string, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequest(method, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", apiVersion)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		delay := retryDelay(resp, attempt)
		resp.Body.Close()
		logger.Warn("notion: rate limited, retrying in %s (attempt %d/%d)", delay, attempt+1, maxRetries)
		time.Sleep(delay)
	}
}

// retryDelay computes the backoff delay for the given attempt. Notion sends
// Retry-After on 429 responses; it takes precedence over the exponential
// schedule.
func retryDelay(resp *http.Response, attempt int) time.Duration {
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.ParseFloat(ra, 64); err == nil && secs >= 0 {
			d := time.Duration(secs * float64(time.Second))
			if d > maxRetryDelay {
				return maxRetryDelay
			}
			return d
		}
	}

	delay := baseRetryDelay << uint(attempt)
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}
