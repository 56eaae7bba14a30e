// Package integration exercises the full pipeline: mock GitHub API ->
// collector -> reconciliation engine -> mock Notion API -> history store.
package integration

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/vineelsai26/ghnotion/internal/gh"
	"github.com/vineelsai26/ghnotion/internal/history"
	"github.com/vineelsai26/ghnotion/internal/notion"
	"github.com/vineelsai26/ghnotion/internal/sync"
)

func seedGitHub(mockGH *gh.MockServer, widgetState string) {
	body := "Crash on start"
	mockGH.SetUserRepos("alice", "alice/widget")
	mockGH.SetOrgRepos("acme", "acme/tool")

	mockGH.SetIssues("alice/widget",
		gh.Issue{
			Title:     "Bug",
			Number:    5,
			HTMLURL:   "https://github.com/alice/widget/issues/5",
			Body:      &body,
			State:     widgetState,
			User:      gh.User{Login: "alice", HTMLURL: "https://github.com/alice"},
			CreatedAt: "2023-01-15T10:00:00Z",
			UpdatedAt: "2023-01-16T10:00:00Z",
		},
		gh.Issue{
			Title:     "Add dark mode",
			Number:    6,
			HTMLURL:   "https://github.com/alice/widget/pull/6",
			Body:      nil,
			State:     "open",
			User:      gh.User{Login: "bob"},
			CreatedAt: "2023-02-01T08:00:00Z",
			UpdatedAt: "2023-02-01T09:00:00Z",
		},
	)
	mockGH.SetIssues("acme/tool",
		gh.Issue{
			Title:     "Flaky test",
			Number:    12,
			HTMLURL:   "https://github.com/acme/tool/issues/12",
			State:     "closed",
			User:      gh.User{Login: "carol"},
			CreatedAt: "2023-03-01T08:00:00Z",
			UpdatedAt: "2023-03-02T08:00:00Z",
		},
	)
}

func newEngine(mockGH *gh.MockServer, mockNotion *notion.MockServer, orgs []string) *sync.Engine {
	source := gh.NewWithBaseURL("test-token", mockGH.URL)
	store := notion.NewWithBaseURL("test-token", mockNotion.URL)
	return sync.NewEngine(source, store, sync.Config{
		User:        "alice",
		Orgs:        orgs,
		DatabaseID:  "db-1",
		Concurrency: 4,
	})
}

func TestEndToEnd_FullPass(t *testing.T) {
	mockGH := gh.NewMockServer()
	defer mockGH.Close()
	mockNotion := notion.NewMockServer()
	defer mockNotion.Close()

	seedGitHub(mockGH, "open")

	report, err := newEngine(mockGH, mockNotion, []string{"acme"}).Run()
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	if report.ReposScanned != 2 {
		t.Errorf("ReposScanned = %d, want 2", report.ReposScanned)
	}
	if report.IssuesFound != 3 {
		t.Errorf("IssuesFound = %d, want 3", report.IssuesFound)
	}
	if report.Created != 3 || report.Updated != 0 {
		t.Errorf("created/updated = %d/%d, want 3/0", report.Created, report.Updated)
	}
	if !report.Ok() {
		t.Fatalf("report should be clean: %s", report.Details())
	}

	// The issue row.
	page := mockNotion.PageByURL("https://github.com/alice/widget/issues/5")
	if page == nil {
		t.Fatal("missing row for issue 5")
	}
	if got := page.Properties["Name"].PlainText(); got != "Bug" {
		t.Errorf("Name = %q", got)
	}
	if tags := page.Properties["Tags"].MultiSelect; len(tags) != 1 || tags[0].Name != "Issue" {
		t.Errorf("Tags = %+v, want [Issue]", tags)
	}
	if sel := page.Properties["ORG"].Select; sel == nil || sel.Name != "alice" {
		t.Errorf("ORG = %+v, want alice", sel)
	}
	if got := page.Properties["Description"].PlainText(); got != "Crash on start" {
		t.Errorf("Description = %q", got)
	}

	// The pull request row: classified by URL shape, null body mapped to
	// an empty description.
	page = mockNotion.PageByURL("https://github.com/alice/widget/pull/6")
	if page == nil {
		t.Fatal("missing row for pull request 6")
	}
	if tags := page.Properties["Tags"].MultiSelect; len(tags) != 1 || tags[0].Name != "Pull Request" {
		t.Errorf("Tags = %+v, want [Pull Request]", tags)
	}
	if got := page.Properties["Description"].PlainText(); got != "" {
		t.Errorf("Description for null body = %q, want empty", got)
	}

	// The closed org issue row.
	page = mockNotion.PageByURL("https://github.com/acme/tool/issues/12")
	if page == nil {
		t.Fatal("missing row for issue 12")
	}
	if cb := page.Properties["Status"].Checkbox; cb == nil || *cb != true {
		t.Errorf("Status = %v, want true for closed issue", cb)
	}
}

func TestEndToEnd_SecondRunUpdates(t *testing.T) {
	mockGH := gh.NewMockServer()
	defer mockGH.Close()
	mockNotion := notion.NewMockServer()
	defer mockNotion.Close()

	seedGitHub(mockGH, "open")
	if _, err := newEngine(mockGH, mockNotion, []string{"acme"}).Run(); err != nil {
		t.Fatalf("first Run() unexpected error: %v", err)
	}

	// Close the issue at the source, then run again.
	mockGH.Reset()
	seedGitHub(mockGH, "closed")

	report, err := newEngine(mockGH, mockNotion, []string{"acme"}).Run()
	if err != nil {
		t.Fatalf("second Run() unexpected error: %v", err)
	}

	if report.Created != 0 || report.Updated != 3 {
		t.Errorf("second run created/updated = %d/%d, want 0/3", report.Created, report.Updated)
	}
	if got := len(mockNotion.Pages()); got != 3 {
		t.Fatalf("expected 3 rows after two runs, got %d", got)
	}

	page := mockNotion.PageByURL("https://github.com/alice/widget/issues/5")
	if cb := page.Properties["Status"].Checkbox; cb == nil || *cb != true {
		t.Errorf("Status after close = %v, want true", cb)
	}
}

func TestEndToEnd_FailedRepoIsReportedNotFatal(t *testing.T) {
	mockGH := gh.NewMockServer()
	defer mockGH.Close()
	mockNotion := notion.NewMockServer()
	defer mockNotion.Close()

	seedGitHub(mockGH, "open")
	// An org repo whose issue page is not served: listing succeeds,
	// collection 404s.
	mockGH.SetOrgRepos("acme", "acme/tool", "acme/ghost")

	report, err := newEngine(mockGH, mockNotion, []string{"acme"}).Run()
	if err != nil {
		t.Fatalf("Run() must not abort on a failed repo: %v", err)
	}

	if len(report.FailedRepos) != 1 || report.FailedRepos[0].Repo != "acme/ghost" {
		t.Fatalf("expected acme/ghost to fail, got %+v", report.FailedRepos)
	}
	if report.Created != 3 {
		t.Errorf("healthy repos should still sync, created = %d", report.Created)
	}
	if !strings.Contains(report.Details(), "acme/ghost") {
		t.Errorf("details should itemize the failed repo: %q", report.Details())
	}
}

func TestEndToEnd_DiscoveryFailureAbortsRun(t *testing.T) {
	mockGH := gh.NewMockServer()
	defer mockGH.Close()
	mockNotion := notion.NewMockServer()
	defer mockNotion.Close()

	seedGitHub(mockGH, "open")

	// The org lookup 404s, so the whole run aborts before any write.
	_, err := newEngine(mockGH, mockNotion, []string{"ghost-org"}).Run()
	if err == nil {
		t.Fatal("Run() expected error for unknown org, got nil")
	}
	if got := len(mockNotion.Pages()); got != 0 {
		t.Errorf("no rows must exist after an aborted run, got %d", got)
	}
}

func TestEndToEnd_ReportPersistence(t *testing.T) {
	mockGH := gh.NewMockServer()
	defer mockGH.Close()
	mockNotion := notion.NewMockServer()
	defer mockNotion.Close()

	seedGitHub(mockGH, "open")

	report, err := newEngine(mockGH, mockNotion, []string{"acme"}).Run()
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	db, err := history.InitDB(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("InitDB() unexpected error: %v", err)
	}
	defer db.Close()

	if err := db.SaveReport(report); err != nil {
		t.Fatalf("SaveReport() unexpected error: %v", err)
	}

	runs, err := db.RecentRuns(1)
	if err != nil {
		t.Fatalf("RecentRuns() unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 stored run, got %d", len(runs))
	}
	if runs[0].ID != report.RunID {
		t.Errorf("stored id %q, want %q", runs[0].ID, report.RunID)
	}
	if runs[0].Created != 3 {
		t.Errorf("stored created = %d, want 3", runs[0].Created)
	}
}
