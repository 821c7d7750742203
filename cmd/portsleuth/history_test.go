package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/portsleuth/portsleuth/internal/history"
	"github.com/portsleuth/portsleuth/internal/model"
)

// seedHistory saves one report into a fresh database directory.
func seedHistory(t *testing.T, dbDir string) *model.ScanReport {
	t.Helper()

	db, err := history.Open(dbDir, history.DefaultOptions())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer db.Close()

	started := time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)
	saved := &model.ScanReport{
		ScanID:       model.NewScanID("seed.example.com", 1, 100, started),
		Target:       "seed.example.com",
		ResolvedAddr: "198.51.100.4",
		StartPort:    1,
		EndPort:      100,
		DateScanned:  started,
		Elapsed:      time.Second,
		Outcomes: []model.PortOutcome{
			{Port: 22, Status: model.StatusOpen,
				Service: &model.ServiceInfo{Service: model.ServiceSSH}},
		},
		OpenCount: 1,
	}
	if err := db.SaveReport(context.Background(), saved); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	return saved
}

// TestHistoryListCmd tests the history list subcommand.
func TestHistoryListCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists saved scans", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		saved := seedHistory(t, dbDir)

		var buf bytes.Buffer
		cmd := NewHistoryCmd()
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{"list", "--db-dir", dbDir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, saved.ScanID) {
			t.Errorf("expected scan ID in listing, got:\n%s", output)
		}
		if !strings.Contains(output, "seed.example.com") {
			t.Errorf("expected target in listing, got:\n%s", output)
		}
	})

	t.Run("empty database prints notice", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewHistoryCmd()
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{"list", "--db-dir", t.TempDir()})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "No saved scans") {
			t.Errorf("expected empty notice, got:\n%s", buf.String())
		}
	})
}

// TestHistoryShowCmd tests the history show subcommand.
func TestHistoryShowCmd(t *testing.T) {
	t.Parallel()

	t.Run("shows a saved report", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		saved := seedHistory(t, dbDir)

		var buf bytes.Buffer
		cmd := NewHistoryCmd()
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{"show", saved.ScanID, "--db-dir", dbDir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "seed.example.com") {
			t.Errorf("expected target in report, got:\n%s", output)
		}
		if !strings.Contains(output, "22") {
			t.Errorf("expected open port in report, got:\n%s", output)
		}
	})

	t.Run("unknown scan ID fails", func(t *testing.T) {
		t.Parallel()

		cmd := NewHistoryCmd()
		cmd.SetOut(bytes.NewBuffer(nil))
		cmd.SetErr(bytes.NewBuffer(nil))
		cmd.SetArgs([]string{"show", "does-not-exist", "--db-dir", t.TempDir()})

		if err := cmd.Execute(); err == nil {
			t.Fatal("expected error for unknown scan ID")
		}
	})
}
