package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"runnerdb/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckStoreLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runnerdb.lock")

	if result := CheckStoreLock(path); !result.Passed {
		t.Fatalf("expected free lock to pass, got: %s", result.Detail)
	}

	holder := flock.New(path)
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("hold lock: locked=%v err=%v", locked, err)
	}
	defer holder.Unlock()

	if result := CheckStoreLock(path); result.Passed {
		t.Fatal("expected held lock to fail")
	}
}

func TestRunAll(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ExportDir = filepath.Join(base, "exports")

	results := RunAll(&cfg)
	if !Failed(results) {
		t.Fatal("expected failures before directories exist")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results = RunAll(&cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if Failed(results) {
		t.Fatalf("expected all checks to pass, got %+v", results)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatalf("expected nil results, got %+v", results)
	}
}
