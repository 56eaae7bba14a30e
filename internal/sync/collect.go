package sync

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vineelsai26/ghnotion/internal/gh"
	"github.com/vineelsai26/ghnotion/internal/logger"
)

// IssueLister fetches one page of issues and pull requests for a repository.
type IssueLister interface {
	ListIssues(owner, repo string) ([]gh.Issue, error)
}

// RepoFailure records a repository whose issue page could not be fetched.
type RepoFailure struct {
	Repo string
	Err  error
}

// CollectIssues fetches and normalizes issues across repositories using a
// bounded worker pool. A repository that fails to fetch is skipped and
// reported rather than aborting the run; malformed records are skipped
// individually and counted. The returned issues preserve repository input
// order regardless of worker scheduling.
func CollectIssues(lister IssueLister, repos []string, concurrency int) ([]Issue, []RepoFailure, int) {
	if concurrency < 1 {
		concurrency = 1
	}

	// Each worker writes only its own index, so no shared accumulator is
	// needed; results are merged in order after the pool drains.
	perRepo := make([][]Issue, len(repos))
	perRepoSkipped := make([]int, len(repos))
	perRepoErr := make([]error, len(repos))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, repo := range repos {
		i, repo := i, repo
		g.Go(func() error {
			issues, skipped, err := collectRepo(lister, repo)
			perRepo[i] = issues
			perRepoSkipped[i] = skipped
			perRepoErr[i] = err
			return nil
		})
	}
	g.Wait()

	var all []Issue
	var failures []RepoFailure
	skipped := 0
	for i, repo := range repos {
		if perRepoErr[i] != nil {
			failures = append(failures, RepoFailure{Repo: repo, Err: perRepoErr[i]})
			continue
		}
		all = append(all, perRepo[i]...)
		skipped += perRepoSkipped[i]
	}

	logger.Debug("sync: collected %d issues from %d repos (%d failed, %d records skipped)",
		len(all), len(repos), len(failures), skipped)
	return all, failures, skipped
}

// collectRepo fetches one repository's issue page and normalizes each
// record. Returns the normalized issues and the count of malformed records
// skipped.
func collectRepo(lister IssueLister, repo string) ([]Issue, int, error) {
	owner, name, err := parseRepo(repo)
	if err != nil {
		return nil, 0, err
	}

	raw, err := lister.ListIssues(owner, name)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to collect %s: %w", repo, err)
	}

	issues := make([]Issue, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		issue, err := normalizeIssue(repo, r)
		if err != nil {
			logger.Warn("sync: skipping malformed record in %s: %v", repo, err)
			skipped++
			continue
		}
		issues = append(issues, issue)
	}

	return issues, skipped, nil
}
