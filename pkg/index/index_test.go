package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
	"github.com/snowball-lang/reky/pkg/vcs"
)

// writeEntry stores a catalog document under dir.
func writeEntry(t *testing.T, dir, name, content string) {
	t.Helper()
	pkgs := filepath.Join(dir, packagesDir)
	if err := os.MkdirAll(pkgs, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pkgs, name+".json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEnsureFetchedClonesWhenMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "packages")
	rec := &vcs.Recorder{}
	x := New(dir, "", rec, nil)

	if err := x.EnsureFetched(context.Background()); err != nil {
		t.Fatalf("EnsureFetched: %v", err)
	}
	if rec.Count("clone") != 1 || rec.Count("pull") != 0 {
		t.Fatalf("calls = %v, want one clone", rec.Calls)
	}
	got := strings.Join(rec.Calls[0], " ")
	if !strings.Contains(got, DefaultURL) || vcs.CloneDest(rec.Calls[0]) != dir {
		t.Errorf("clone args = %q", got)
	}
}

func TestEnsureFetchedPullsWhenPresent(t *testing.T) {
	dir := t.TempDir()
	rec := &vcs.Recorder{}
	x := New(dir, "https://example.com/idx.git", rec, nil)

	if err := x.EnsureFetched(context.Background()); err != nil {
		t.Fatalf("EnsureFetched: %v", err)
	}
	if rec.Count("pull") != 1 || rec.Count("clone") != 0 {
		t.Errorf("calls = %v, want one pull", rec.Calls)
	}
}

func TestEnsureFetchedOnce(t *testing.T) {
	rec := &vcs.Recorder{}
	x := New(t.TempDir(), "", rec, nil)
	ctx := context.Background()

	for range 3 {
		if err := x.EnsureFetched(ctx); err != nil {
			t.Fatalf("EnsureFetched: %v", err)
		}
	}
	if len(rec.Calls) != 1 {
		t.Errorf("got %d VCS calls, want 1", len(rec.Calls))
	}
	if !x.Fetched() {
		t.Error("Fetched() = false after EnsureFetched")
	}
}

func TestEnsureFetchedError(t *testing.T) {
	rec := &vcs.Recorder{Hook: func([]string) error {
		return rekyerrors.New(rekyerrors.ErrCodeVCS, "git pull")
	}}
	x := New(t.TempDir(), "", rec, nil)

	err := x.EnsureFetched(context.Background())
	if !rekyerrors.Is(err, rekyerrors.ErrCodeVCS) {
		t.Errorf("EnsureFetched error = %v, want VCS_FAILED", err)
	}
}

func TestLookup(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "json", `{"versions": ["1.0.0", "1.2.0"], "download_url": "https://example.com/json.git"}`)
	x := New(dir, "", &vcs.Recorder{}, nil)

	e, ok, err := x.Lookup("json")
	if err != nil || !ok {
		t.Fatalf("Lookup(json) = %v, %v, %v", e, ok, err)
	}
	if e.Name != "json" || e.DownloadURL != "https://example.com/json.git" {
		t.Errorf("entry = %+v", e)
	}
	if !e.HasVersion("1.2.0") {
		t.Error("HasVersion(1.2.0) = false")
	}
	if e.HasVersion("1.2") {
		t.Error("HasVersion must match exactly")
	}
}

func TestLookupMissing(t *testing.T) {
	x := New(t.TempDir(), "", &vcs.Recorder{}, nil)
	e, ok, err := x.Lookup("nope")
	if err != nil || ok || e != nil {
		t.Errorf("Lookup(nope) = %v, %v, %v; want nil, false, nil", e, ok, err)
	}
}

func TestLookupMalformed(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "bad", `{"versions": [`)
	x := New(dir, "", &vcs.Recorder{}, nil)

	_, _, err := x.Lookup("bad")
	if !rekyerrors.Is(err, rekyerrors.ErrCodeMalformedCatalog) {
		t.Errorf("Lookup(bad) error = %v, want MALFORMED_CATALOG", err)
	}
}

func TestLookupRejectsTraversal(t *testing.T) {
	x := New(t.TempDir(), "", &vcs.Recorder{}, nil)
	if _, _, err := x.Lookup("../secret"); err == nil {
		t.Error("Lookup should reject path traversal")
	}
}

func TestNames(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "zlib", `{}`)
	writeEntry(t, dir, "json", `{}`)
	if err := os.WriteFile(filepath.Join(dir, packagesDir, "README.md"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	names, err := New(dir, "", &vcs.Recorder{}, nil).Names()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, ",") != "json,zlib" {
		t.Errorf("Names() = %v", names)
	}
}
