package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/localshelf/internal"
	"github.com/starford/localshelf/internal/apperr"
	"github.com/starford/localshelf/internal/convert"
	"github.com/starford/localshelf/internal/models"
)

// sandbox points configuration, knowledge base and home at a temp dir.
func sandbox(t *testing.T) (kb, cfgFile string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv(internal.EnvConfigDir, filepath.Join(dir, "config"))
	t.Setenv(internal.EnvSkipInit, "1")
	kb = filepath.Join(dir, "kb")
	t.Setenv(internal.EnvKnowledgeBase, kb)
	t.Setenv(internal.EnvInbox, filepath.Join(dir, "inbox"))
	t.Setenv("LOCAL_SHELF_CONFIG_FILE", "")
	os.Unsetenv("LOCAL_SHELF_CONFIG_FILE")
	return kb, filepath.Join(dir, "config", "config.yaml")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newRootCommand(&out).Run(context.Background(), append([]string{"local_shelf"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStowRows(t *testing.T) {
	report := &models.StowReport{
		Moved:  []models.Relocation{{Source: "/in/a.md", Destination: "/kb/pages/a.md"}},
		Failed: []models.Failure{{Source: "/in/b.md", Err: apperr.ErrNotFound}},
	}
	rows := stowRows(report)
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "moved" || rows[0][2] != "/kb/pages/a.md" {
		t.Errorf("moved row = %v", rows[0])
	}
	if rows[1][0] != "failed" || rows[1][2] != apperr.ErrNotFound.Error() {
		t.Errorf("failed row = %v", rows[1])
	}
}

func TestWriteStowReport_Empty(t *testing.T) {
	var out bytes.Buffer
	writeStowReport(&out, &models.StowReport{})
	if !strings.Contains(out.String(), "No Markdown files") {
		t.Errorf("output = %q", out.String())
	}
}

func TestConvertRows(t *testing.T) {
	report := &convert.Report{
		Converted: []convert.Result{{Source: "a.md", Output: "a.epub"}},
		Failed:    []convert.Result{{Source: "b.md", Err: errors.New("exit status 1")}},
	}
	rows := convertRows(report)
	if len(rows) != 2 || rows[0][2] != "a.epub" || rows[1][2] != "exit status 1" {
		t.Errorf("rows = %v", rows)
	}
}

func TestParseDay(t *testing.T) {
	today := time.Date(2024, 3, 15, 9, 0, 0, 0, time.Local)
	got, err := parseDay("", today)
	if err != nil || !got.Equal(today) {
		t.Errorf("empty date = %v, %v", got, err)
	}
	got, err = parseDay("2024-02-29", today)
	if err != nil {
		t.Fatal(err)
	}
	if got.Format("2006_01_02") != "2024_02_29" {
		t.Errorf("got %v", got)
	}
	if _, err := parseDay("15/03/2024", today); !errors.Is(err, apperr.ErrFormatting) {
		t.Errorf("err = %v, want ErrFormatting", err)
	}
}

func TestHistoryRows_ShortensBatchID(t *testing.T) {
	rows := historyRows([]models.Relocation{{
		BatchID:     "0f8fad5b-d9cb-469f-a165-70867728950e",
		Source:      "/in/a.md",
		Destination: "/kb/pages/a.md",
		MovedAt:     time.Date(2024, 3, 15, 9, 5, 0, 0, time.Local),
	}})
	if rows[0][0] != "2024-03-15 09:05" || rows[0][1] != "0f8fad5b" {
		t.Errorf("row = %v", rows[0])
	}
}

func TestStowCommand_MovesAndJournals(t *testing.T) {
	kb, cfgFile := sandbox(t)
	inbox := filepath.Join(t.TempDir(), "drop")
	writeFile(t, filepath.Join(inbox, "alpha.md"), "# Alpha\n")
	writeFile(t, filepath.Join(inbox, "notes.txt"), "skip")

	out, err := run(t, "--config", cfgFile, "stow", inbox)
	if err != nil {
		t.Fatalf("stow: %v", err)
	}
	if !strings.Contains(out, "moved") || !strings.Contains(out, "Journal:") {
		t.Errorf("output = %s", out)
	}
	if _, err := os.Stat(filepath.Join(kb, "pages", "alpha.md")); err != nil {
		t.Errorf("page not moved: %v", err)
	}
	if _, err := os.Stat(filepath.Join(inbox, "notes.txt")); err != nil {
		t.Errorf("non-markdown file touched: %v", err)
	}
	journalFile := filepath.Join(kb, "journals", time.Now().Format("2006_01_02")+".md")
	data, err := os.ReadFile(journalFile)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if !strings.Contains(string(data), "[[alpha]]") {
		t.Errorf("journal = %q", data)
	}
}

func TestStowCommand_SingleFile(t *testing.T) {
	kb, cfgFile := sandbox(t)
	src := filepath.Join(t.TempDir(), "one.md")
	writeFile(t, src, "one")

	if _, err := run(t, "--config", cfgFile, "stow", src); err != nil {
		t.Fatalf("stow: %v", err)
	}
	if _, err := os.Stat(filepath.Join(kb, "pages", "one.md")); err != nil {
		t.Errorf("page not moved: %v", err)
	}
}

func TestStowCommand_EmptyInbox(t *testing.T) {
	_, cfgFile := sandbox(t)
	out, err := run(t, "--config", cfgFile, "stow")
	if err != nil {
		t.Fatalf("stow: %v", err)
	}
	if !strings.Contains(out, "No Markdown files") {
		t.Errorf("output = %q", out)
	}
}

func TestStowCommand_MissingDirectory(t *testing.T) {
	_, cfgFile := sandbox(t)
	missing := filepath.Join(t.TempDir(), "nonexistent", "directory")

	out, err := run(t, "--config", cfgFile, "stow", missing)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "Directory "+missing+" does not exist") {
		t.Errorf("error should name the directory: %v", err)
	}
	if strings.Contains(out, "No Markdown files") {
		t.Errorf("missing directory reported as empty: %q", out)
	}
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	_, cfgFile := sandbox(t)
	if _, err := run(t, "--config", cfgFile, "search"); err == nil {
		t.Fatal("expected error without a query")
	}
}

func TestHistoryCommand_AfterStow(t *testing.T) {
	_, cfgFile := sandbox(t)
	inbox := filepath.Join(t.TempDir(), "drop")
	writeFile(t, filepath.Join(inbox, "beta.md"), "beta")
	if _, err := run(t, "--config", cfgFile, "stow", inbox); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", cfgFile, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "beta.md") {
		t.Errorf("output = %s", out)
	}
}

func TestJournalCommand_NoJournal(t *testing.T) {
	_, cfgFile := sandbox(t)
	out, err := run(t, "--config", cfgFile, "journal", "--date", "2001-01-01")
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if !strings.Contains(out, "No journal for 2001-01-01") {
		t.Errorf("output = %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	_, cfgFile := sandbox(t)

	out, err := run(t, "--config", cfgFile, "config", "init")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Wrote") {
		t.Errorf("init output = %q", out)
	}
	if _, err := os.Stat(cfgFile); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	newKB := filepath.Join(t.TempDir(), "library")
	if _, err := run(t, "--config", cfgFile, "config", "set-path", newKB); err != nil {
		t.Fatalf("set-path: %v", err)
	}
	if info, err := os.Stat(newKB); err != nil || !info.IsDir() {
		t.Errorf("knowledge base not created: %v", err)
	}

	os.Unsetenv(internal.EnvKnowledgeBase)
	out, err = run(t, "--config", cfgFile, "config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, newKB) {
		t.Errorf("show output missing new path:\n%s", out)
	}
}
