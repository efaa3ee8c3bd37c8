package install

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
	"github.com/snowball-lang/reky/pkg/index"
	"github.com/snowball-lang/reky/pkg/vcs"
)

// fakeCatalog serves entries from memory.
type fakeCatalog map[string]*index.Entry

func (c fakeCatalog) Lookup(name string) (*index.Entry, bool, error) {
	e, ok := c[name]
	return e, ok, nil
}

// cloner returns a recorder that creates the clone destination.
func cloner() *vcs.Recorder {
	return &vcs.Recorder{Hook: func(args []string) error {
		if dest := vcs.CloneDest(args); dest != "" {
			return os.MkdirAll(dest, 0o755)
		}
		return nil
	}}
}

func newTestInstaller(t *testing.T, rec *vcs.Recorder) *Installer {
	t.Helper()
	catalog := fakeCatalog{
		"json": {Name: "json", Versions: []string{"1.0", "1.2"}, DownloadURL: "https://example.com/json.git"},
	}
	return New(filepath.Join(t.TempDir(), "deps"), catalog, rec, nil)
}

func TestHashNameStable(t *testing.T) {
	h1 := HashName("json")
	h2 := HashName("json")
	if h1 != h2 {
		t.Error("HashName should be deterministic")
	}
	if HashName("xml") == h1 {
		t.Error("different names should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}

func TestInstall(t *testing.T) {
	rec := cloner()
	inst := newTestInstaller(t, rec)

	if inst.IsInstalled("json", "1.2") {
		t.Fatal("IsInstalled before Install")
	}
	if err := inst.Install(context.Background(), "json", "1.2"); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if rec.Count("clone") != 1 {
		t.Fatalf("calls = %v, want one clone", rec.Calls)
	}
	args := strings.Join(rec.Calls[0], " ")
	for _, want := range []string{"--branch 1.2", "--depth 1", "advice.detachedHead=false", "https://example.com/json.git", inst.Dir("json")} {
		if !strings.Contains(args, want) {
			t.Errorf("clone args %q missing %q", args, want)
		}
	}

	if !inst.IsInstalled("json", "1.2") {
		t.Error("IsInstalled after Install = false")
	}
	if got := inst.RecoverName(HashName("json")); got != "json" {
		t.Errorf("RecoverName() = %q, want json", got)
	}
	sc, err := inst.ReadSidecar(HashName("json"))
	if err != nil {
		t.Fatalf("ReadSidecar: %v", err)
	}
	if sc.Version != "1.2" || sc.URL != "https://example.com/json.git" {
		t.Errorf("sidecar = %+v", sc)
	}
}

func TestInstallPackageNotFound(t *testing.T) {
	rec := cloner()
	inst := newTestInstaller(t, rec)

	err := inst.Install(context.Background(), "missing", "1.0")
	if !rekyerrors.Is(err, rekyerrors.ErrCodePackageNotFound) {
		t.Errorf("Install error = %v, want PACKAGE_NOT_FOUND", err)
	}
	if len(rec.Calls) != 0 {
		t.Errorf("no VCS call expected, got %v", rec.Calls)
	}
}

func TestInstallVersionNotFound(t *testing.T) {
	rec := cloner()
	inst := newTestInstaller(t, rec)

	err := inst.Install(context.Background(), "json", "9.9")
	if !rekyerrors.Is(err, rekyerrors.ErrCodeVersionNotFound) {
		t.Errorf("Install error = %v, want VERSION_NOT_FOUND", err)
	}
	if len(rec.Calls) != 0 {
		t.Errorf("no VCS call expected, got %v", rec.Calls)
	}
}

func TestInstallCloneFailureCleansUp(t *testing.T) {
	boom := rekyerrors.New(rekyerrors.ErrCodeVCS, "git clone")
	rec := &vcs.Recorder{Hook: func(args []string) error {
		dest := vcs.CloneDest(args)
		if err := os.MkdirAll(filepath.Join(dest, "partial"), 0o755); err != nil {
			return err
		}
		return boom
	}}
	inst := newTestInstaller(t, rec)

	err := inst.Install(context.Background(), "json", "1.0")
	if !errors.Is(err, boom) {
		t.Fatalf("Install error = %v, want %v", err, boom)
	}
	if _, statErr := os.Stat(inst.Dir("json")); !os.IsNotExist(statErr) {
		t.Error("partial clone directory should be removed")
	}
	if _, statErr := os.Stat(inst.Dir("json") + sidecarExt); !os.IsNotExist(statErr) {
		t.Error("no sidecar should be written for a failed clone")
	}
}

func TestInstallSidecarFailureCleansUp(t *testing.T) {
	inst := newTestInstaller(t, cloner())
	// A directory at the sidecar path makes the write fail.
	if err := os.MkdirAll(inst.sidecarPath("json"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := inst.Install(context.Background(), "json", "1.0"); err == nil {
		t.Fatal("Install should fail when the sidecar cannot be written")
	}
	if _, err := os.Stat(inst.Dir("json")); !os.IsNotExist(err) {
		t.Error("clone directory should be removed")
	}
	if inst.IsInstalled("json", "1.2") {
		t.Error("package without a sidecar should not count as installed")
	}
}

func TestIsInstalledDetectsStale(t *testing.T) {
	rec := cloner()
	inst := newTestInstaller(t, rec)
	ctx := context.Background()

	if err := inst.Install(ctx, "json", "1.0"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if inst.IsInstalled("json", "1.2") {
		t.Error("install of 1.0 should be stale for 1.2")
	}

	if err := inst.Install(ctx, "json", "1.2"); err != nil {
		t.Fatalf("reinstall: %v", err)
	}
	if !inst.IsInstalled("json", "1.2") {
		t.Error("IsInstalled after reinstall = false")
	}
	if rec.Count("clone") != 2 {
		t.Errorf("clone count = %d, want 2", rec.Count("clone"))
	}
}

func TestLegacySidecar(t *testing.T) {
	inst := newTestInstaller(t, cloner())
	if err := os.MkdirAll(inst.Dir("json"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(inst.Dir("json")+sidecarExt, []byte("json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := inst.RecoverName(HashName("json")); got != "json" {
		t.Errorf("RecoverName() = %q, want json", got)
	}
	if !inst.IsInstalled("json", "1.0") {
		t.Error("legacy sidecar without version should count as installed")
	}
}

func TestRecoverNameUnknown(t *testing.T) {
	inst := newTestInstaller(t, cloner())
	if got := inst.RecoverName("myproject"); got != "myproject" {
		t.Errorf("RecoverName() = %q, want input unchanged", got)
	}
}
