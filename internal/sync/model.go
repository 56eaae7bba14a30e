// Package sync implements the reconciliation pipeline between GitHub
// issues and a Notion database.
package sync

import (
	"fmt"
	"strings"

	"github.com/vineelsai26/ghnotion/internal/gh"
)

// Actor is a GitHub account referenced by an issue.
type Actor struct {
	Login      string
	AvatarURL  string
	GravatarID string
	ProfileURL string
}

// Issue is the canonical record produced by the collector. Its URL is the
// sole external identity: every run maps the same source item to the same
// destination row through it. Records are value objects rebuilt fresh each
// run and never mutated.
type Issue struct {
	Title     string
	Number    int
	URL       string
	Body      *string // nil when the source body is null
	CreatedAt string  // RFC 3339, passed through from the source
	UpdatedAt string
	CreatedBy Actor
	Assignees []Actor
	Repo      string // "owner/name"
	Closed    bool
}

// Kind classifies an issue structurally from its URL: the issues endpoint
// returns pull requests too, and their URLs use /pull/ instead of /issues/.
func (i Issue) Kind() string {
	if strings.Contains(i.URL, "/issues/") {
		return "Issue"
	}
	return "Pull Request"
}

// newActor narrows a raw user payload to the four tracked fields.
func newActor(u gh.User) Actor {
	return Actor{
		Login:      u.Login,
		AvatarURL:  u.AvatarURL,
		GravatarID: u.GravatarID,
		ProfileURL: u.HTMLURL,
	}
}

// normalizeIssue converts a raw record into a canonical Issue.
// Records missing their url or title are malformed and rejected; the
// caller skips them individually.
func normalizeIssue(repo string, raw gh.Issue) (Issue, error) {
	if raw.HTMLURL == "" {
		return Issue{}, fmt.Errorf("record #%d in %s has no html_url", raw.Number, repo)
	}
	if raw.Title == "" {
		return Issue{}, fmt.Errorf("record %s has no title", raw.HTMLURL)
	}

	assignees := make([]Actor, len(raw.Assignees))
	for i, a := range raw.Assignees {
		assignees[i] = newActor(a)
	}

	return Issue{
		Title:     raw.Title,
		Number:    raw.Number,
		URL:       raw.HTMLURL,
		Body:      raw.Body,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
		CreatedBy: newActor(raw.User),
		Assignees: assignees,
		Repo:      repo,
		Closed:    raw.State != "open",
	}, nil
}

// parseRepo splits "owner/repo" into owner and repo name.
func parseRepo(repo string) (string, string, error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo format %q: must be owner/repo", repo)
	}
	return parts[0], parts[1], nil
}
