package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
	"github.com/snowball-lang/reky/pkg/install"
	"github.com/snowball-lang/reky/pkg/observability"
)

// fakeGit is a git stand-in: clone creates the destination, everything else
// succeeds without output.
const fakeGit = `#!/bin/sh
for last; do :; done
if [ "$1" = "clone" ]; then mkdir -p "$last"; fi
exit 0
`

// testEnv isolates config, home and git for one test.
type testEnv struct {
	home string
	git  string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	e := &testEnv{
		home: filepath.Join(dir, "home"),
		git:  filepath.Join(dir, "git"),
	}
	if err := os.WriteFile(e.git, []byte(fakeGit), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("SNOWBALL_HOME", e.home)
	t.Setenv("REKY_GIT", e.git)
	t.Setenv("REKY_INDEX_URL", "")
	t.Cleanup(observability.Reset)

	e.addPackage(t, "json", `{"versions": ["1.0", "1.2"], "download_url": "https://example.com/json.git"}`)
	return e
}

func (e *testEnv) addPackage(t *testing.T, name, doc string) {
	t.Helper()
	dir := filepath.Join(e.home, "packages", "pkgs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newProject(t *testing.T, manifest string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "app")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sn.reky"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// execute runs the CLI with args and returns what commands wrote to their
// output stream.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	setupEnv(t)
	proj := newProject(t, "json == 1.2\n")

	if _, err := execute(t, "resolve", "-w", proj); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(proj, ".sn", ".reky_cache"))
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	if string(data) != "json == 1.2\n" {
		t.Errorf("cache = %q", data)
	}

	deps := filepath.Join(proj, ".sn", "deps")
	if _, err := os.Stat(filepath.Join(deps, install.HashName("json"))); err != nil {
		t.Errorf("package dir missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(deps, install.HashName("json")+".name")); err != nil {
		t.Errorf("sidecar missing: %v", err)
	}

	out, err := execute(t, "cache", "show", "-w", proj)
	if err != nil {
		t.Fatalf("cache show: %v", err)
	}
	if out != "json == 1.2\n" {
		t.Errorf("cache show = %q", out)
	}
}

func TestResolveDryRun(t *testing.T) {
	setupEnv(t)
	proj := newProject(t, "json == 1.0\n")

	if _, err := execute(t, "resolve", "--dry-run", "-w", proj); err != nil {
		t.Fatalf("resolve --dry-run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(proj, ".sn")); !os.IsNotExist(err) {
		t.Error("dry run should not write workspace state")
	}
}

func TestResolveConflictCommand(t *testing.T) {
	setupEnv(t)
	one := newProject(t, "json == 1.0\n")
	two := newProject(t, "json == 1.2\n")

	_, err := execute(t, "resolve", "-w", one, one, two)
	if !rekyerrors.Is(err, rekyerrors.ErrCodeVersionConflict) {
		t.Fatalf("resolve error = %v, want VERSION_CONFLICT", err)
	}
}

func TestResolveUnknownPackage(t *testing.T) {
	setupEnv(t)
	proj := newProject(t, "ghost == 1.0\n")

	_, err := execute(t, "resolve", "-w", proj)
	if !rekyerrors.Is(err, rekyerrors.ErrCodePackageNotFound) {
		t.Fatalf("resolve error = %v, want PACKAGE_NOT_FOUND", err)
	}
}

func TestGraphCommand(t *testing.T) {
	setupEnv(t)
	proj := newProject(t, "json == 1.0\n")

	out, err := execute(t, "graph", "-w", proj)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if !strings.Contains(out, `"app" -> "json" [arrowhead = diamond];`) {
		t.Errorf("graph output:\n%s", out)
	}

	dotPath := filepath.Join(t.TempDir(), "deps.dot")
	if _, err := execute(t, "graph", "-w", proj, "-o", dotPath); err != nil {
		t.Fatalf("graph -o: %v", err)
	}
	data, err := os.ReadFile(dotPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("DOT file = %q", data)
	}

	out, err = execute(t, "graph", "-w", proj, "--format", "json")
	if err != nil {
		t.Fatalf("graph --format json: %v", err)
	}
	if !strings.Contains(out, `"from": "app"`) {
		t.Errorf("JSON output:\n%s", out)
	}

	if _, err := execute(t, "graph", "-w", proj, "--format", "png"); !rekyerrors.Is(err, rekyerrors.ErrCodeInvalidInput) {
		t.Errorf("graph --format png error = %v, want INVALID_INPUT", err)
	}
}

func TestCacheCommands(t *testing.T) {
	setupEnv(t)
	proj := newProject(t, "json == 1.0\n")

	out, err := execute(t, "cache", "path", "-w", proj)
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if strings.TrimSpace(out) != filepath.Join(proj, ".sn", ".reky_cache") {
		t.Errorf("cache path = %q", out)
	}

	if _, err := execute(t, "resolve", "-w", proj); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := execute(t, "cache", "clear", "-w", proj); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, err := os.Stat(filepath.Join(proj, ".sn", "deps")); !os.IsNotExist(err) {
		t.Error("deps dir should be removed")
	}
	if _, err := os.Stat(filepath.Join(proj, ".sn", ".reky_cache")); !os.IsNotExist(err) {
		t.Error("cache file should be removed")
	}
}

func TestIndexCommands(t *testing.T) {
	e := setupEnv(t)
	e.addPackage(t, "http", `{"versions": ["0.4.1"], "download_url": "https://example.com/http.git"}`)

	out, err := execute(t, "index", "list")
	if err != nil {
		t.Fatalf("index list: %v", err)
	}
	if out != "http\njson\n" {
		t.Errorf("index list = %q", out)
	}

	if _, err := execute(t, "index", "show", "json"); err != nil {
		t.Errorf("index show json: %v", err)
	}
	_, err = execute(t, "index", "show", "ghost")
	if !rekyerrors.Is(err, rekyerrors.ErrCodePackageNotFound) {
		t.Errorf("index show ghost error = %v, want PACKAGE_NOT_FOUND", err)
	}

	if _, err := execute(t, "index", "update"); err != nil {
		t.Errorf("index update: %v", err)
	}
}

func TestHashCommand(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "hash", "json")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if strings.TrimSpace(out) != install.HashName("json") {
		t.Errorf("hash = %q", out)
	}

	if _, err := execute(t, "hash", "../evil"); !rekyerrors.Is(err, rekyerrors.ErrCodeInvalidPackage) {
		t.Errorf("hash ../evil error = %v, want INVALID_PACKAGE", err)
	}
}

func TestBadConfig(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "reky.toml")
	if err := os.WriteFile(path, []byte(`colour = "blue"`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "--config", path, "hash", "json")
	if !rekyerrors.Is(err, rekyerrors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out, "reky") {
		t.Error("bash completion should mention the command name")
	}
}
