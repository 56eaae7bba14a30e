package sync

import (
	"fmt"

	"github.com/vineelsai26/ghnotion/internal/gh"
	"github.com/vineelsai26/ghnotion/internal/notion"
)

// fakeSource is a test double for the Source interface.
type fakeSource struct {
	userRepos map[string][]gh.Repository
	orgRepos  map[string][]gh.Repository
	issues    map[string][]gh.Issue

	failUsers map[string]bool
	failOrgs  map[string]bool
	failRepos map[string]bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		userRepos: make(map[string][]gh.Repository),
		orgRepos:  make(map[string][]gh.Repository),
		issues:    make(map[string][]gh.Issue),
		failUsers: make(map[string]bool),
		failOrgs:  make(map[string]bool),
		failRepos: make(map[string]bool),
	}
}

func (f *fakeSource) ListUserRepos(username string) ([]gh.Repository, error) {
	if f.failUsers[username] {
		return nil, fmt.Errorf("user %s lookup failed", username)
	}
	return f.userRepos[username], nil
}

func (f *fakeSource) ListOrgRepos(org string) ([]gh.Repository, error) {
	if f.failOrgs[org] {
		return nil, fmt.Errorf("org %s lookup failed", org)
	}
	return f.orgRepos[org], nil
}

func (f *fakeSource) ListIssues(owner, repo string) ([]gh.Issue, error) {
	full := owner + "/" + repo
	if f.failRepos[full] {
		return nil, fmt.Errorf("fetch failed for %s", full)
	}
	return f.issues[full], nil
}

func repos(fullNames ...string) []gh.Repository {
	rs := make([]gh.Repository, len(fullNames))
	for i, n := range fullNames {
		rs[i] = gh.Repository{FullName: n}
	}
	return rs
}

// fakeStore is a test double for the Store interface built from function
// fields, so individual tests can script failures.
type fakeStore struct {
	queryByURL func(databaseID, url string) ([]notion.Page, error)
	createPage func(databaseID string, props notion.Properties) (*notion.Page, error)
	updatePage func(pageID string, props notion.Properties) (*notion.Page, error)
}

func (f *fakeStore) QueryByURL(databaseID, url string) ([]notion.Page, error) {
	return f.queryByURL(databaseID, url)
}

func (f *fakeStore) CreatePage(databaseID string, props notion.Properties) (*notion.Page, error) {
	return f.createPage(databaseID, props)
}

func (f *fakeStore) UpdatePage(pageID string, props notion.Properties) (*notion.Page, error) {
	return f.updatePage(pageID, props)
}

func strptr(s string) *string {
	return &s
}
