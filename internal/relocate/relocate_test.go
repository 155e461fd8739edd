package relocate

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/starford/localshelf/internal/apperr"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func assertGone(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected %s to be gone, stat err = %v", path, err)
	}
}

// crossVolume makes every rename fail so the copy path is exercised.
func crossVolume(r *Relocator) {
	r.rename = func(_, _ string) error { return errors.New("invalid cross-device link") }
}

func TestRelocate_IntoEmptyRoot(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "kb")
	src := filepath.Join(dir, "inbox", "article.md")
	writeFile(t, src, "hello")

	dest, err := New().Relocate(src, root)
	if err != nil {
		t.Fatalf("Relocate: %v", err)
	}
	want := filepath.Join(root, "pages", "article.md")
	if dest != want {
		t.Errorf("dest = %q, want %q", dest, want)
	}
	if got := readFile(t, dest); got != "hello" {
		t.Errorf("content = %q", got)
	}
	assertGone(t, src)
}

func TestRelocate_CreatesPagesDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "test.md")
	writeFile(t, src, "test content")

	pages := filepath.Join(dir, "pages")
	if _, err := os.Stat(pages); err == nil {
		t.Fatal("pages should not exist yet")
	}
	if _, err := New().Relocate(src, dir); err != nil {
		t.Fatalf("Relocate: %v", err)
	}
	info, err := os.Stat(pages)
	if err != nil || !info.IsDir() {
		t.Fatalf("pages dir missing: %v", err)
	}
}

func TestRelocate_CollisionKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "kb")
	existing := filepath.Join(root, "pages", "article.md")
	writeFile(t, existing, "old")
	src := filepath.Join(dir, "article.md")
	writeFile(t, src, "hello")

	dest, err := New().Relocate(src, root)
	if err != nil {
		t.Fatalf("Relocate: %v", err)
	}
	if dest == existing {
		t.Fatal("collision overwrote existing page")
	}
	pattern := regexp.MustCompile(`^article_[0-9a-f]{16}\.md$`)
	if !pattern.MatchString(filepath.Base(dest)) {
		t.Errorf("unexpected collision name %q", filepath.Base(dest))
	}
	if got := readFile(t, dest); got != "hello" {
		t.Errorf("new content = %q", got)
	}
	if got := readFile(t, existing); got != "old" {
		t.Errorf("existing content = %q", got)
	}
	assertGone(t, src)
}

func TestRelocate_RepeatedCollisionsAreDistinct(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "kb")
	writeFile(t, filepath.Join(root, "pages", "note.md"), "0")

	// A frozen clock forces the numeric disambiguator.
	frozen := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	r := New(WithClock(func() time.Time { return frozen }))

	seen := map[string]bool{filepath.Join(root, "pages", "note.md"): true}
	for i := 1; i <= 4; i++ {
		src := filepath.Join(dir, "note.md")
		writeFile(t, src, strings.Repeat("x", i))
		dest, err := r.Relocate(src, root)
		if err != nil {
			t.Fatalf("Relocate #%d: %v", i, err)
		}
		if seen[dest] {
			t.Fatalf("name %q reused", dest)
		}
		seen[dest] = true
	}

	token := timeToken(frozen.UnixNano())
	for _, name := range []string{
		"note_" + token + ".md",
		"note_" + token + "_1.md",
		"note_" + token + "_2.md",
		"note_" + token + "_3.md",
	} {
		if !seen[filepath.Join(root, "pages", name)] {
			t.Errorf("expected %s to be produced", name)
		}
	}
}

func TestRelocate_SourceNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := New().Relocate(filepath.Join(dir, "missing.md"), dir)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "missing.md") {
		t.Errorf("error should name the path: %v", err)
	}
	assertGone(t, filepath.Join(dir, "pages"))
}

func TestRelocate_DirectorySourceRejected(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "folder.md")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := New().Relocate(src, filepath.Join(dir, "kb"))
	if !errors.Is(err, apperr.ErrMove) {
		t.Fatalf("err = %v, want ErrMove", err)
	}
}

func TestRelocate_PagesDirCreationFailure(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the root should be blocks MkdirAll.
	root := filepath.Join(dir, "kb")
	writeFile(t, root, "not a dir")
	src := filepath.Join(dir, "a.md")
	writeFile(t, src, "a")

	_, err := New().Relocate(src, root)
	if !errors.Is(err, apperr.ErrDirectoryCreation) {
		t.Fatalf("err = %v, want ErrDirectoryCreation", err)
	}
	if got := readFile(t, src); got != "a" {
		t.Errorf("source modified: %q", got)
	}
}

func TestRelocate_CrossVolumeFallback(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "inbox", "far.md")
	writeFile(t, src, "# Far\n\nacross volumes")

	r := New()
	crossVolume(r)
	dest, err := r.Relocate(src, filepath.Join(dir, "kb"))
	if err != nil {
		t.Fatalf("Relocate: %v", err)
	}
	if got := readFile(t, dest); got != "# Far\n\nacross volumes" {
		t.Errorf("content = %q", got)
	}
	assertGone(t, src)
}

func TestRelocate_IntegrityFailureKeepsSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "big.md")
	writeFile(t, src, "complete content")

	r := New()
	crossVolume(r)
	r.copy = func(_, dst string) (int64, error) {
		return 4, os.WriteFile(dst, []byte("comp"), 0o644)
	}

	root := filepath.Join(dir, "kb")
	_, err := r.Relocate(src, root)
	if !errors.Is(err, apperr.ErrIntegrityCheck) {
		t.Fatalf("err = %v, want ErrIntegrityCheck", err)
	}
	if got := readFile(t, src); got != "complete content" {
		t.Errorf("source changed: %q", got)
	}
	assertGone(t, filepath.Join(root, "pages", "big.md"))
}

func TestRelocate_CopyFailureKeepsSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.md")
	writeFile(t, src, "data")

	r := New()
	crossVolume(r)
	r.copy = func(_, _ string) (int64, error) { return 0, errors.New("disk full") }

	_, err := r.Relocate(src, filepath.Join(dir, "kb"))
	if !errors.Is(err, apperr.ErrMove) {
		t.Fatalf("err = %v, want ErrMove", err)
	}
	if got := readFile(t, src); got != "data" {
		t.Errorf("source changed: %q", got)
	}
}

func TestRelocate_SourceRemovalFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dup.md")
	writeFile(t, src, "twice")

	r := New()
	crossVolume(r)
	r.remove = func(string) error { return errors.New("permission denied") }

	root := filepath.Join(dir, "kb")
	_, err := r.Relocate(src, root)
	if !errors.Is(err, ErrSourceRetained) || !IsRetained(err) {
		t.Fatalf("err = %v, want ErrSourceRetained", err)
	}
	if !errors.Is(err, apperr.ErrMove) {
		t.Errorf("retained error should be a move failure: %v", err)
	}
	if got := readFile(t, filepath.Join(root, "pages", "dup.md")); got != "twice" {
		t.Errorf("copy content = %q", got)
	}
	if got := readFile(t, src); got != "twice" {
		t.Errorf("source content = %q", got)
	}
}

func TestResolveDestination_NoCollision(t *testing.T) {
	dir := t.TempDir()
	got, err := New().ResolveDestination(dir, "test.md")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "test.md") {
		t.Errorf("got %q", got)
	}
}

func TestResolveDestination_Exhausted(t *testing.T) {
	dir := t.TempDir()
	frozen := time.Unix(1700000000, 42)
	token := timeToken(frozen.UnixNano())

	writeFile(t, filepath.Join(dir, "x.md"), "")
	writeFile(t, filepath.Join(dir, "x_"+token+".md"), "")
	for n := 1; n <= MaxAttempts; n++ {
		name := "x_" + token + "_" + strconv.Itoa(n) + ".md"
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	r := New(WithClock(func() time.Time { return frozen }))
	_, err := r.ResolveDestination(dir, "x.md")
	if !errors.Is(err, ErrNamesExhausted) {
		t.Fatalf("err = %v, want ErrNamesExhausted", err)
	}
	if !errors.Is(err, apperr.ErrMove) {
		t.Errorf("exhaustion should be a move failure: %v", err)
	}
}

func TestResolveDestination_NoExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README"), "")
	got, err := New().ResolveDestination(dir, "README")
	if err != nil {
		t.Fatal(err)
	}
	if !regexp.MustCompile(`^README_[0-9a-f]{16}$`).MatchString(filepath.Base(got)) {
		t.Errorf("got %q", filepath.Base(got))
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in, stem, ext string
	}{
		{"article.md", "article", ".md"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{"README", "README", ""},
		{".hidden", "", ".hidden"},
	}
	for _, c := range cases {
		stem, ext := SplitName(c.in)
		if stem != c.stem || ext != c.ext {
			t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)", c.in, stem, ext, c.stem, c.ext)
		}
	}
}

func TestTimeToken_FixedWidth(t *testing.T) {
	for _, n := range []int64{0, 1, 1 << 40, time.Now().UnixNano()} {
		if tok := timeToken(n); len(tok) != 16 {
			t.Errorf("timeToken(%d) = %q, want 16 hex digits", n, tok)
		}
	}
	if timeToken(1) == timeToken(2) {
		t.Error("adjacent timestamps should hash differently")
	}
}
