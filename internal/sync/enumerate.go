package sync

import (
	"fmt"

	"github.com/vineelsai26/ghnotion/internal/gh"
	"github.com/vineelsai26/ghnotion/internal/logger"
)

// RepoLister lists the repositories owned by user and organization accounts.
type RepoLister interface {
	ListUserRepos(username string) ([]gh.Repository, error)
	ListOrgRepos(org string) ([]gh.Repository, error)
}

// EnumerateRepos resolves the deduplicated union of repositories owned by
// the user and each organization, user repos first, then organizations in
// input order. Each lookup returns a single page at the API's default page
// size; accounts with more repositories are truncated.
//
// Any failed lookup aborts the whole enumeration: collecting issues from a
// subset of repos and treating it as a complete pass would silently
// under-populate the destination.
func EnumerateRepos(lister RepoLister, user string, orgs []string) ([]string, error) {
	var repos []string
	seen := make(map[string]bool)

	add := func(rs []gh.Repository) {
		for _, r := range rs {
			if r.FullName == "" || seen[r.FullName] {
				continue
			}
			seen[r.FullName] = true
			repos = append(repos, r.FullName)
		}
	}

	userRepos, err := lister.ListUserRepos(user)
	if err != nil {
		return nil, fmt.Errorf("discovery failed for user %s: %w", user, err)
	}
	add(userRepos)

	for _, org := range orgs {
		orgRepos, err := lister.ListOrgRepos(org)
		if err != nil {
			return nil, fmt.Errorf("discovery failed for org %s: %w", org, err)
		}
		add(orgRepos)
	}

	logger.Debug("sync: enumerated %d repos across %s and %d orgs", len(repos), user, len(orgs))
	return repos, nil
}
