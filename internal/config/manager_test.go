package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatchReloadPublishes(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", minimalYAML)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := m.Subscribe(2)
	defer m.Unsubscribe(sub)

	watchDone := make(chan error, 1)
	go func() { watchDone <- m.Watch(ctx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	updated := minimalYAML + `
global_check_interval: 600
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-sub:
		if cfg.GlobalCheckInterval != 600 {
			t.Fatalf("GlobalCheckInterval = %d, want 600", cfg.GlobalCheckInterval)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no config published after file change")
	}

	if got := m.Get(); got.GlobalCheckInterval != 600 {
		t.Fatalf("committed GlobalCheckInterval = %d, want 600", got.GlobalCheckInterval)
	}

	cancel()
	if err := <-watchDone; err != nil {
		t.Fatalf("Watch returned %v", err)
	}
}

func TestWatchRejectsInvalidReload(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", minimalYAML)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Watch(ctx) }()
	time.Sleep(100 * time.Millisecond)

	// Invalid: interval below the minimum must not replace the committed config.
	if err := os.WriteFile(path, []byte(minimalYAML+"\nglobal_check_interval: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(600 * time.Millisecond)

	if got := m.Get(); got.GlobalCheckInterval != 300 {
		t.Fatalf("committed GlobalCheckInterval = %d, want previous 300", got.GlobalCheckInterval)
	}
}
