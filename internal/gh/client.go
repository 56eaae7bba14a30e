// Package gh provides a GitHub API client for listing repositories and issues.
package gh

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vineelsai26/ghnotion/internal/logger"
)

const (
	apiBaseURL = "https://api.github.com"

	// maxRetries bounds the retry budget for rate-limited requests.
	maxRetries = 3
	// baseRetryDelay is the starting delay for exponential backoff.
	baseRetryDelay = 2 * time.Second
	// maxRetryDelay caps the backoff delay.
	maxRetryDelay = 30 * time.Second
)

// User represents a GitHub account referenced by an issue.
type User struct {
	Login      string `json:"login"`
	AvatarURL  string `json:"avatar_url"`
	GravatarID string `json:"gravatar_id"`
	HTMLURL    string `json:"html_url"`
}

// Repository represents a repository owned by a user or organization.
type Repository struct {
	FullName string `json:"full_name"`
}

// Issue represents a raw issue or pull request record.
// The issues endpoint returns both; pull requests are distinguished by
// their html_url containing /pull/ instead of /issues/.
type Issue struct {
	Title     string  `json:"title"`
	Number    int     `json:"number"`
	HTMLURL   string  `json:"html_url"`
	Body      *string `json:"body"`
	State     string  `json:"state"`
	User      User    `json:"user"`
	Assignees []User  `json:"assignees"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// Client is a GitHub API client.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// ghHostsConfig represents the structure of ~/.config/gh/hosts.yml
type ghHostsConfig map[string]ghHost

type ghHost struct {
	OAuthToken string `yaml:"oauth_token"`
	User       string `yaml:"user"`
}

// New creates a new GitHub API client with the given token.
func New(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    apiBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithBaseURL creates a GitHub API client with a custom base URL (for testing).
func NewWithBaseURL(token, baseURL string) *Client {
	return &Client{
		token:      token,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetToken attempts to get a GitHub token from various sources:
// 1. Run `gh auth token` command (gh CLI with keyring storage)
// 2. Read from ~/.config/gh/hosts.yml (older gh CLI format)
// 3. GITHUB_TOKEN environment variable
func GetToken() (string, error) {
	if token, err := getTokenFromGhCLI(); err == nil && token != "" {
		return token, nil
	}

	if token, err := getTokenFromGhConfig(); err == nil && token != "" {
		return token, nil
	}

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	return "", fmt.Errorf("no GitHub token found: install gh CLI and run 'gh auth login', or set GITHUB_TOKEN env var")
}

// getTokenFromGhCLI runs `gh auth token` to get the token from the gh CLI.
func getTokenFromGhCLI() (string, error) {
	cmd := exec.Command("gh", "auth", "token")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("gh auth token failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// getTokenFromGhConfig reads the token from ~/.config/gh/hosts.yml.
func getTokenFromGhConfig() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".config", "gh", "hosts.yml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to read gh config: %w", err)
	}

	var config ghHostsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return "", fmt.Errorf("failed to parse gh config: %w", err)
	}

	if host, ok := config["github.com"]; ok {
		if host.OAuthToken != "" {
			return host.OAuthToken, nil
		}
	}

	return "", fmt.Errorf("no oauth_token found in gh config")
}

// doRequest performs an authenticated GET request, retrying rate-limited
// responses with bounded exponential backoff. The caller owns the response
// body on success.
func (c *Client) doRequest(url string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}

		if !isRateLimited(resp) || attempt >= maxRetries {
			return resp, nil
		}

		delay := retryDelay(resp, attempt)
		resp.Body.Close()
		logger.Warn("gh: rate limited on %s, retrying in %s (attempt %d/%d)", url, delay, attempt+1, maxRetries)
		time.Sleep(delay)
	}
}

// isRateLimited reports whether the response signals primary or secondary
// rate limiting. GitHub uses 403 with an exhausted quota for the primary
// limit and 429 for the secondary limit.
func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0"
}

// retryDelay computes the backoff delay for the given attempt, preferring
// the server's Retry-After header when present.
func retryDelay(resp *http.Response, attempt int) time.Duration {
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
			d := time.Duration(secs) * time.Second
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

// get fetches url and decodes the JSON response into v.
func (c *Client) get(url string, v interface{}) error {
	resp, err := c.doRequest(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	checkRateLimit(resp)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GitHub API error: %s - %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// checkRateLimit logs rate limit information from response headers.
func checkRateLimit(resp *http.Response) {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	reset := resp.Header.Get("X-RateLimit-Reset")

	if remaining == "0" && reset != "" {
		resetTime, err := strconv.ParseInt(reset, 10, 64)
		if err == nil {
			resetAt := time.Unix(resetTime, 0)
			logger.Warn("gh: API rate limit exhausted, resets at %s", resetAt.Format(time.RFC3339))
		}
	}
}

// ListUserRepos fetches the repositories owned by a user.
// Returns a single page at the API's default page size; accounts with more
// repositories than one page are truncated.
func (c *Client) ListUserRepos(username string) ([]Repository, error) {
	url := fmt.Sprintf("%s/users/%s/repos", c.baseURL, username)

	var repos []Repository
	if err := c.get(url, &repos); err != nil {
		return nil, fmt.Errorf("failed to list repos for user %s: %w", username, err)
	}

	return repos, nil
}

// ListOrgRepos fetches the repositories owned by an organization.
// Returns a single page at the API's default page size.
func (c *Client) ListOrgRepos(org string) ([]Repository, error) {
	url := fmt.Sprintf("%s/orgs/%s/repos", c.baseURL, org)

	var repos []Repository
	if err := c.get(url, &repos); err != nil {
		return nil, fmt.Errorf("failed to list repos for org %s: %w", org, err)
	}

	return repos, nil
}

// ListIssues fetches issues and pull requests for a repository in all
// states. Returns a single page of up to 100 items.
func (c *Client) ListIssues(owner, repo string) ([]Issue, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues?state=all&per_page=100", c.baseURL, owner, repo)

	var issues []Issue
	if err := c.get(url, &issues); err != nil {
		return nil, fmt.Errorf("failed to list issues for %s/%s: %w", owner, repo, err)
	}

	return issues, nil
}
