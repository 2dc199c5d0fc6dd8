package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voicescribe/internal/enginelock"
	"voicescribe/internal/testsupport"
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

func TestCheckCreatableDirectory(t *testing.T) {
	base := t.TempDir()

	result := CheckCreatableDirectory("work", filepath.Join(base, "a", "b"))
	if !result.Passed || !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("expected creatable pass, got %+v", result)
	}

	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result = CheckCreatableDirectory("work", filepath.Join(blocker, "child"))
	if result.Passed {
		t.Fatalf("expected failure beneath a regular file, got %+v", result)
	}
}

func TestCheckEngineLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "engine.lock")

	if result := CheckEngineLock(path); !result.Passed || !strings.Contains(result.Detail, "free") {
		t.Fatalf("expected free lock, got %+v", result)
	}

	release, err := enginelock.Acquire(context.Background(), path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()
	if result := CheckEngineLock(path); !result.Passed || !strings.Contains(result.Detail, "held") {
		t.Fatalf("expected held lock, got %+v", result)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEngineScript("exit 0"))
	cfg.Probe.Binary = "clearly-not-present-ffprobe"

	statuses := CheckSystemDeps(cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Available || statuses[0].Optional {
		t.Fatalf("expected required engine to be available, got %+v", statuses[0])
	}
	if statuses[1].Available || !statuses[1].Optional {
		t.Fatalf("expected optional missing ffprobe, got %+v", statuses[1])
	}
}

func TestRunAllRespectsFeatureToggles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Dir = ""

	results := RunAll(cfg)
	if len(results) != 1 || results[0].Name != "Work directory" {
		t.Fatalf("expected only the work directory check, got %+v", results)
	}

	cfg.Logging.Dir = filepath.Join(testsupport.BaseDir(cfg), "logs")
	cfg.History.Enabled = true
	cfg.Engine.LockFile = filepath.Join(testsupport.BaseDir(cfg), "engine.lock")
	results = RunAll(cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 checks, got %+v", results)
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
