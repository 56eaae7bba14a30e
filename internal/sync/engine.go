package sync

import (
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vineelsai26/ghnotion/internal/logger"
	"github.com/vineelsai26/ghnotion/internal/notion"
)

// defaultConcurrency bounds in-flight requests per stage, staying well
// under both APIs' rate limits.
const defaultConcurrency = 8

// Source is the source-control capability consumed by the engine.
type Source interface {
	RepoLister
	IssueLister
}

// Store is the destination database capability consumed by the engine.
type Store interface {
	QueryByURL(databaseID, url string) ([]notion.Page, error)
	CreatePage(databaseID string, props notion.Properties) (*notion.Page, error)
	UpdatePage(pageID string, props notion.Properties) (*notion.Page, error)
}

// Action describes what a reconciliation did with a destination row.
type Action string

const (
	// ActionCreated means a new destination row was created.
	ActionCreated Action = "created"
	// ActionUpdated means an existing destination row was updated.
	ActionUpdated Action = "updated"
)

// Config holds the engine's run parameters.
type Config struct {
	User        string   // user account whose repos are scanned
	Orgs        []string // organization accounts, scanned in order
	DatabaseID  string   // destination Notion database
	Concurrency int      // worker pool size per stage; defaults to 8
}

// Engine reconciles GitHub issues into a Notion database, one row per
// canonical URL.
type Engine struct {
	source Source
	store  Store
	cfg    Config
	locks  keyedMutex
}

// NewEngine creates a reconciliation engine.
func NewEngine(source Source, store Store, cfg Config) *Engine {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Engine{
		source: source,
		store:  store,
		cfg:    cfg,
	}
}

// Reconcile upserts one canonical issue into the destination database.
// The query-then-write sequence for a URL is a critical section: a keyed
// mutex serializes concurrent upserts of the same URL so they can never
// race into creating duplicate rows.
func (e *Engine) Reconcile(issue Issue) (Action, error) {
	unlock := e.locks.lock(issue.URL)
	defer unlock()

	pages, err := e.store.QueryByURL(e.cfg.DatabaseID, issue.URL)
	if err != nil {
		return "", fmt.Errorf("query failed for %s: %w", issue.URL, err)
	}

	props := MapProperties(issue)

	if len(pages) > 0 {
		// The URL is unique by construction but the store does not
		// enforce it. Act on the first match and log the anomaly.
		if len(pages) > 1 {
			logger.Warn("sync: %d rows share URL %s, updating the first", len(pages), issue.URL)
		}
		if _, err := e.store.UpdatePage(pages[0].ID, props); err != nil {
			return "", fmt.Errorf("update failed for %s: %w", issue.URL, err)
		}
		logger.Debug("sync: updated %s", issue.URL)
		return ActionUpdated, nil
	}

	if _, err := e.store.CreatePage(e.cfg.DatabaseID, props); err != nil {
		return "", fmt.Errorf("create failed for %s: %w", issue.URL, err)
	}
	logger.Debug("sync: created %s", issue.URL)
	return ActionCreated, nil
}

// Run performs one full reconciliation pass: enumerate repositories,
// collect the complete canonical issue set into memory, then reconcile
// every issue. A discovery failure is fatal; collection and reconciliation
// failures are recorded per unit in the report and do not abort the run.
func (e *Engine) Run() (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	repos, err := EnumerateRepos(e.source, e.cfg.User, e.cfg.Orgs)
	if err != nil {
		return nil, err
	}
	report.ReposScanned = len(repos)

	issues, repoFailures, skipped := CollectIssues(e.source, repos, e.cfg.Concurrency)
	report.FailedRepos = repoFailures
	report.SkippedRecords = skipped
	report.IssuesFound = len(issues)

	results := make([]error, len(issues))
	actions := make([]Action, len(issues))

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i, issue := range issues {
		i, issue := i, issue
		g.Go(func() error {
			actions[i], results[i] = e.Reconcile(issue)
			return nil
		})
	}
	g.Wait()

	for i, issue := range issues {
		switch {
		case results[i] != nil:
			logger.Error("sync: %v", results[i])
			report.FailedIssues = append(report.FailedIssues, IssueFailure{URL: issue.URL, Err: results[i]})
		case actions[i] == ActionCreated:
			report.Created++
		case actions[i] == ActionUpdated:
			report.Updated++
		}
	}

	report.FinishedAt = time.Now().UTC()
	logger.Info("sync: %s", report.Summary())
	return report, nil
}

// keyedMutex serializes critical sections per string key.
type keyedMutex struct {
	mu    gosync.Mutex
	locks map[string]*gosync.Mutex
}

// lock acquires the mutex for key, creating it on first use, and returns
// the unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*gosync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &gosync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
