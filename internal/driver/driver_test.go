package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"promptlint/internal/config"
	"promptlint/internal/diag"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func defaultOptions() Options {
	return Options{Flow: true, Config: config.Default()}
}

func TestLintFileClean(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.json", `{"text":"all (good)"}`)

	res, err := LintFile(path, defaultOptions())
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}
	if res.Bag.Len() != 0 || res.Malformed {
		t.Fatalf("clean file produced diagnostics: %+v", res.Bag.Items())
	}
}

func TestLintFileDirty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.json", `{"text":"Hello (world"}`)

	res, err := LintFile(path, defaultOptions())
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}
	if !res.HasErrors() {
		t.Fatalf("dirty file produced no errors: %+v", res.Bag.Items())
	}
	if res.Bag.Items()[0].Code != diag.LintUnclosedOpen {
		t.Fatalf("diagnostic = %+v", res.Bag.Items()[0])
	}
}

func TestLintFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.json", `{"text": oops}`)

	res, err := LintFile(path, defaultOptions())
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}
	if !res.Malformed {
		t.Fatal("malformed input not flagged")
	}
	if got := res.Bag.Items()[0].Code; got != diag.IOMalformedInput {
		t.Fatalf("diagnostic code = %v, want IOMalformedInput", got)
	}
}

func TestLintFileMissing(t *testing.T) {
	res, err := LintFile(filepath.Join(t.TempDir(), "absent.json"), defaultOptions())
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}
	if !res.Malformed || res.Bag.Items()[0].Code != diag.IOLoadFileError {
		t.Fatalf("missing file result = %+v", res.Bag.Items())
	}
}

func TestLintFileFixWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.json", `{"text":"Hello (world"}`)

	opts := defaultOptions()
	opts.Fix = true
	opts.Write = true
	res, err := LintFile(path, opts)
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}
	if res.HasErrors() {
		t.Fatalf("repairable file still has errors: %+v", res.Bag.Items())
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "{\n  \"text\": \"Hello (world)\"\n}\n"
	if string(after) != want {
		t.Fatalf("written file = %q, want %q", after, want)
	}

	// Re-linting the repaired file is a no-op.
	again, err := LintFile(path, opts)
	if err != nil {
		t.Fatalf("second LintFile error: %v", err)
	}
	if again.Bag.Len() != 0 {
		t.Fatalf("repaired file still dirty: %+v", again.Bag.Items())
	}
}

func TestLintBytes(t *testing.T) {
	res, err := LintBytes("<stdin>", []byte(`{"a":"b) oops"}`), defaultOptions())
	if err != nil {
		t.Fatalf("LintBytes error: %v", err)
	}
	if !res.HasErrors() {
		t.Fatal("expected errors from stdin document")
	}
}

func TestLintBytesNormalizesInput(t *testing.T) {
	// A BOM-prefixed CRLF document must lint from stdin exactly as it would
	// from disk.
	data := []byte("\xef\xbb\xbf{\r\n  \"text\": \"fine\"\r\n}\r\n")
	res, err := LintBytes("<stdin>", data, defaultOptions())
	if err != nil {
		t.Fatalf("LintBytes error: %v", err)
	}
	if res.Malformed {
		t.Fatalf("normalized input flagged malformed: %+v", res.Bag.Items())
	}
	if res.Bag.Len() != 0 {
		t.Fatalf("clean input produced diagnostics: %+v", res.Bag.Items())
	}
}

func TestLintDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"t":"fine"}`)
	writeFile(t, dir, "sub/b.json", `{"t":"broken ("}`)
	writeFile(t, dir, "ignore.txt", "not json (")
	writeFile(t, dir, ".hidden/c.json", `{"t":"(skipped"}`)

	var mu sync.Mutex
	var events []Event
	results, err := LintDir(context.Background(), dir, defaultOptions(), func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("LintDir error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// Deterministic order: a.json before sub/b.json.
	if filepath.Base(results[0].Path) != "a.json" || filepath.Base(results[1].Path) != "b.json" {
		t.Fatalf("result order = %s, %s", results[0].Path, results[1].Path)
	}
	if results[0].HasErrors() || !results[1].HasErrors() {
		t.Fatalf("verdicts wrong: a=%v b=%v", results[0].HasErrors(), results[1].HasErrors())
	}
	if len(events) != 2 {
		t.Fatalf("got %d progress events, want 2", len(events))
	}
}

func TestLintDirCache(t *testing.T) {
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)

	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"t":"clean"}`)

	opts := defaultOptions()
	opts.EnableCache = true

	first, err := LintDir(context.Background(), dir, opts, nil)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first[0].FromCache {
		t.Fatal("first run should not hit the cache")
	}

	second, err := LintDir(context.Background(), dir, opts, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second[0].FromCache {
		t.Fatal("second run should hit the cache")
	}

	// A policy change invalidates the verdict.
	narrowed := opts
	narrowed.Fields = []string{"t"}
	third, err := LintDir(context.Background(), dir, narrowed, nil)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third[0].FromCache {
		t.Fatal("policy change should miss the cache")
	}

	// Verdicts under different policies coexist: going back to the original
	// options must still hit.
	fourth, err := LintDir(context.Background(), dir, opts, nil)
	if err != nil {
		t.Fatalf("fourth run: %v", err)
	}
	if !fourth[0].FromCache {
		t.Fatal("original policy verdict was evicted by the other policy")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c, err := OpenDiskCache("promptlint-test")
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}

	content := Digest{1, 2, 3}
	policyA := Digest{7}
	policyB := Digest{8}
	in := &cachePayload{Schema: cacheSchemaVersion, Path: "x.json", ContentHash: content, PolicyHash: policyA, Clean: true}
	if err := c.Put(content, policyA, in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var out cachePayload
	hit, err := c.Get(content, policyA, &out)
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}
	if out.Path != "x.json" || !out.Clean {
		t.Fatalf("payload = %+v", out)
	}

	if hit, _ := c.Get(Digest{9}, policyA, &out); hit {
		t.Fatal("unexpected hit for unknown content")
	}
	if hit, _ := c.Get(content, policyB, &out); hit {
		t.Fatal("unexpected hit for a different policy")
	}

	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if hit, _ := c.Get(content, policyA, &out); hit {
		t.Fatal("cache survived DropAll")
	}
}
