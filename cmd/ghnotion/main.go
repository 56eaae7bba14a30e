// Package main provides the CLI entrypoint for ghnotion.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vineelsai26/ghnotion/internal/config"
	"github.com/vineelsai26/ghnotion/internal/gh"
	"github.com/vineelsai26/ghnotion/internal/history"
	"github.com/vineelsai26/ghnotion/internal/logger"
	"github.com/vineelsai26/ghnotion/internal/notion"
	"github.com/vineelsai26/ghnotion/internal/sync"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ghnotion",
	Short: "Sync GitHub issues and pull requests into a Notion database",
	Long: `ghnotion discovers issues and pull requests across your repositories
and the repositories of configured organizations, and reconciles each
into a row of a Notion database, keyed by the item's URL.`,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a full reconciliation pass",
	Long: `Enumerate repositories, collect all issues and pull requests, and
upsert one Notion row per item. Each pass is a complete, idempotent
reconciliation: re-running against an unchanged source only updates
existing rows.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent run reports",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var (
	flagConfig      string
	flagLogLevel    string
	flagLogFile     string
	flagConcurrency int
	flagNoHistory   bool
	flagLimit       int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.config/ghnotion/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also write logs to this file")

	syncCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "override the worker pool size")
	syncCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "do not record the run report")

	historyCmd.Flags().IntVar(&flagLimit, "limit", 10, "number of runs to show")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(historyCmd)
}

func setupLogging() error {
	level, err := logger.ParseLevel(flagLogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	if flagLogFile != "" {
		if err := logger.SetLogFile(flagLogFile); err != nil {
			return err
		}
	}
	return nil
}

func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.DefaultPath()
}

func runSync(cmd *cobra.Command, args []string) error {
	if err := setupLogging(); err != nil {
		return err
	}
	defer logger.Close()

	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if flagConcurrency > 0 {
		cfg.Concurrency = flagConcurrency
	}

	token, err := gh.GetToken()
	if err != nil {
		return fmt.Errorf("failed to get GitHub token: %w\nRun 'gh auth login' to authenticate", err)
	}

	engine := sync.NewEngine(gh.New(token), notion.New(cfg.NotionToken), sync.Config{
		User:        cfg.User,
		Orgs:        cfg.Orgs,
		DatabaseID:  cfg.DatabaseID,
		Concurrency: cfg.Concurrency,
	})

	report, err := engine.Run()
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Println(report.Summary())
	if details := report.Details(); details != "" {
		fmt.Fprintln(os.Stderr, details)
	}

	if !flagNoHistory {
		if err := saveReport(cfg.HistoryPath, report); err != nil {
			logger.Warn("failed to record run report: %v", err)
		}
	}

	fmt.Println("Done")
	return nil
}

func saveReport(path string, report *sync.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := history.InitDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.SaveReport(report)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := setupLogging(); err != nil {
		return err
	}
	defer logger.Close()

	// The history path comes from the config when one exists; otherwise
	// fall back to the default location.
	historyPath := ""
	if path, err := configPath(); err == nil {
		if cfg, err := config.Load(path); err == nil {
			historyPath = cfg.HistoryPath
		}
	}
	if historyPath == "" {
		path, err := config.DefaultHistoryPath()
		if err != nil {
			return err
		}
		historyPath = path
	}

	if _, err := os.Stat(historyPath); os.IsNotExist(err) {
		fmt.Println("no runs recorded yet")
		return nil
	}

	db, err := history.InitDB(historyPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer db.Close()

	runs, err := db.RecentRuns(flagLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded yet")
		return nil
	}

	for _, run := range runs {
		fmt.Println(formatRun(run))
		if run.FailureCount > 0 {
			failures, err := db.Failures(run.ID)
			if err != nil {
				return fmt.Errorf("failed to read failures: %w", err)
			}
			for _, f := range failures {
				fmt.Printf("    %s %s: %s\n", f.Stage, f.Unit, f.Error)
			}
		}
	}

	return nil
}

// formatRun renders one run as a single line.
func formatRun(run history.Run) string {
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	line := fmt.Sprintf("%s  %s  %d repos, %d issues: %d created, %d updated",
		id, humanize.Time(run.StartedAt),
		run.ReposScanned, run.IssuesFound, run.Created, run.Updated)
	if run.SkippedRecords > 0 {
		line += fmt.Sprintf(", %d skipped", run.SkippedRecords)
	}
	if run.FailureCount > 0 {
		line += fmt.Sprintf(", %d failures", run.FailureCount)
	}
	return line
}
