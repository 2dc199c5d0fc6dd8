package enginelock

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "engine.lock")

	release, err := Acquire(context.Background(), path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	held, err := Held(path)
	if err != nil {
		t.Fatalf("Held: %v", err)
	}
	if !held {
		t.Fatal("expected lock to be held")
	}

	release()
	release()

	held, err = Held(path)
	if err != nil {
		t.Fatalf("Held after release: %v", err)
	}
	if held {
		t.Fatal("expected lock to be free after release")
	}
}

func TestAcquireWaitsForHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.lock")
	release, err := Acquire(context.Background(), path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*RetryDelay)
	defer cancel()
	_, err = Acquire(ctx, path)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while held, got %v", err)
	}

	go func() {
		time.Sleep(RetryDelay)
		release()
	}()
	second, err := Acquire(context.Background(), path)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	second()
}

func TestAcquireRequiresPath(t *testing.T) {
	if _, err := Acquire(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestHeldMissingFile(t *testing.T) {
	held, err := Held(filepath.Join(t.TempDir(), "absent.lock"))
	if err != nil || held {
		t.Fatalf("Held(absent) = %v, %v", held, err)
	}
}
