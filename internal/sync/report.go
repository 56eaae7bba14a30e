package sync

import (
	"fmt"
	"strings"
	"time"
)

// IssueFailure records an issue whose destination query or write failed.
type IssueFailure struct {
	URL string
	Err error
}

// Report aggregates the per-unit results of one reconciliation pass.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	ReposScanned   int
	IssuesFound    int
	Created        int
	Updated        int
	SkippedRecords int

	FailedRepos  []RepoFailure
	FailedIssues []IssueFailure
}

// Ok reports whether the pass completed without any per-unit failure.
func (r *Report) Ok() bool {
	return len(r.FailedRepos) == 0 && len(r.FailedIssues) == 0 && r.SkippedRecords == 0
}

// Duration returns the elapsed wall time of the pass.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary returns a one-line human-readable result.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d repos, %d issues: %d created, %d updated",
		r.ReposScanned, r.IssuesFound, r.Created, r.Updated)
	if len(r.FailedRepos) > 0 {
		s += fmt.Sprintf(", %d repos failed", len(r.FailedRepos))
	}
	if len(r.FailedIssues) > 0 {
		s += fmt.Sprintf(", %d issues failed", len(r.FailedIssues))
	}
	if r.SkippedRecords > 0 {
		s += fmt.Sprintf(", %d records skipped", r.SkippedRecords)
	}
	return s
}

// Details returns an itemized multi-line description of every failure,
// or an empty string if there were none.
func (r *Report) Details() string {
	if len(r.FailedRepos) == 0 && len(r.FailedIssues) == 0 {
		return ""
	}

	var b strings.Builder
	for _, f := range r.FailedRepos {
		fmt.Fprintf(&b, "repo %s: %v\n", f.Repo, f.Err)
	}
	for _, f := range r.FailedIssues {
		fmt.Fprintf(&b, "issue %s: %v\n", f.URL, f.Err)
	}
	return strings.TrimRight(b.String(), "\n")
}
