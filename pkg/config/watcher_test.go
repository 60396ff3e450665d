package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatcher_ReloadsValidChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "llmgateway.yaml")
	write := func(content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("gateway:\n  max_retries: 1\n")

	w, err := NewWatcher(path, 20*time.Millisecond, discardLogger())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	reloads := make(chan *Config, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, func(cfg *Config) { reloads <- cfg }) }()

	waitFor := func(retries int) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		tick := time.NewTicker(100 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case cfg := <-reloads:
				if cfg.Gateway.MaxRetries == retries {
					return
				}
				if cfg.Gateway.MaxRetries != 3 && cfg.Gateway.MaxRetries != 5 {
					t.Fatalf("unexpected reload with max_retries %d", cfg.Gateway.MaxRetries)
				}
			case <-tick.C:
				// The watch may not be registered yet; keep touching the file.
				write(fmt.Sprintf("gateway:\n  max_retries: %d\n", retries))
			case <-deadline:
				t.Fatalf("no reload with max_retries %d", retries)
			}
		}
	}

	waitFor(3)

	// An invalid file is skipped and the next valid one still applies.
	write("gateway:\n  max_retries: 99\n")
	time.Sleep(100 * time.Millisecond)
	waitFor(5)

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after Stop")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "llmgateway.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, 10*time.Millisecond, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Watch(ctx, func(*Config) { calls.Add(1) })

	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		other := filepath.Join(dir, fmt.Sprintf("other-%d.yaml", i))
		if err := os.WriteFile(other, []byte("{}\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(200 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("reloads = %d, want 0", got)
	}
}

func TestNewWatcher_RequiresPath(t *testing.T) {
	if _, err := NewWatcher("", 0, nil); err == nil {
		t.Error("NewWatcher(\"\") succeeded")
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}

	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("calls after Stop = %d, want 1", got)
	}
}
