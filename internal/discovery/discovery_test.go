package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMarkdown(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.md"))
	touch(t, filepath.Join(dir, "A.MD"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "README"))
	if err := os.Mkdir(filepath.Join(dir, "folder.md"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Markdown(dir)
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	want := []string{filepath.Join(dir, "A.MD"), filepath.Join(dir, "b.md")}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMarkdown_FollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	elsewhere := t.TempDir()
	target := filepath.Join(elsewhere, "real.md")
	touch(t, target)
	if err := os.Symlink(target, filepath.Join(dir, "linked.md")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(elsewhere, filepath.Join(dir, "dirlink.md")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(elsewhere, "gone.md"), filepath.Join(dir, "dangling.md")); err != nil {
		t.Fatal(err)
	}

	got, err := Markdown(dir)
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if len(got) != 1 || got[0] != filepath.Join(dir, "linked.md") {
		t.Errorf("got %v, want only linked.md", got)
	}
}

func TestMarkdown_MissingDir(t *testing.T) {
	got, err := Markdown(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no files, got %v", got)
	}
}

func TestMarkdown_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.md")
	touch(t, file)
	if _, err := Markdown(file); err == nil {
		t.Fatal("expected error for non-directory")
	}
}

func TestFilterMarkdown(t *testing.T) {
	got := FilterMarkdown([]string{"z.md", "a.txt", "m.Md", "noext", "x.markdown"})
	if len(got) != 2 || got[0] != "m.Md" || got[1] != "z.md" {
		t.Errorf("got %v", got)
	}
	if len(FilterMarkdown(nil)) != 0 {
		t.Error("empty input should give empty output")
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cases := map[string]string{
		"~/Downloads":   filepath.Join(home, "Downloads"),
		"~":             home,
		"/abs/path":     "/abs/path",
		"relative/path": "relative/path",
	}
	for in, want := range cases {
		got, err := ExpandHome(in)
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ExpandHome(%q) = %q, want %q", in, got, want)
		}
	}
}
