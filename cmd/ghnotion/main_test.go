package main

import (
	"strings"
	"testing"
	"time"

	"github.com/vineelsai26/ghnotion/internal/history"
)

func TestFormatRun(t *testing.T) {
	run := history.Run{
		ID:           "0d8f7c9a-1234-5678-9abc-def012345678",
		StartedAt:    time.Now().Add(-2 * time.Hour),
		ReposScanned: 3,
		IssuesFound:  12,
		Created:      2,
		Updated:      10,
	}

	line := formatRun(run)

	if !strings.HasPrefix(line, "0d8f7c9a") {
		t.Errorf("line should start with the short run id, got %q", line)
	}
	if !strings.Contains(line, "3 repos, 12 issues: 2 created, 10 updated") {
		t.Errorf("line should contain the counters, got %q", line)
	}
	if strings.Contains(line, "failures") {
		t.Errorf("line should not mention failures when there are none, got %q", line)
	}
	if strings.Contains(line, "skipped") {
		t.Errorf("line should not mention skipped records when there are none, got %q", line)
	}
}

func TestFormatRun_WithFailures(t *testing.T) {
	run := history.Run{
		ID:             "0d8f7c9a-1234-5678-9abc-def012345678",
		StartedAt:      time.Now().Add(-time.Minute),
		ReposScanned:   1,
		IssuesFound:    5,
		Created:        3,
		SkippedRecords: 1,
		FailureCount:   2,
	}

	line := formatRun(run)

	if !strings.Contains(line, "2 failures") {
		t.Errorf("line should mention the failure count, got %q", line)
	}
	if !strings.Contains(line, "1 skipped") {
		t.Errorf("line should mention skipped records, got %q", line)
	}
}

func TestFormatRun_ShortID(t *testing.T) {
	run := history.Run{ID: "abc", StartedAt: time.Now()}

	line := formatRun(run)
	if !strings.HasPrefix(line, "abc") {
		t.Errorf("short ids should be used as-is, got %q", line)
	}
}
