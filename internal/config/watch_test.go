package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[trainer]\nmax-hold-ms = 60\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan FileConfig, 4)
	if err := Watch(ctx, path, func(cfg FileConfig) { changes <- cfg }, nil); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("[trainer]\nmax-hold-ms = 90\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	select {
	case cfg := <-changes:
		if cfg.Trainer.MaxHoldMs == nil || *cfg.Trainer.MaxHoldMs != 90 {
			t.Fatalf("unexpected reloaded config: %+v", cfg.Trainer)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("expected config reload")
	}
}

func TestWatchReportsBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errs := make(chan error, 4)
	if err := Watch(ctx, path, func(FileConfig) {}, func(err error) { errs <- err }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("[trainer]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	select {
	case err := <-errs:
		if err == nil {
			t.Fatalf("expected reload error")
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("expected reload error")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "config.toml")
	if err := Watch(context.Background(), path, func(FileConfig) {}, nil); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
