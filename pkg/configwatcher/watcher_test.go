package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"interview_prep_backend/internal/config"
)

func TestWatchConfigReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	write := func(mode string) {
		body := "server:\n  mode: " + mode + "\nstorage:\n  type: s3\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("debug")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *config.Config, 1)
	go WatchConfig(ctx, dir, func(cfg *config.Config) {
		select {
		case got <- cfg:
		default:
		}
	})

	time.Sleep(100 * time.Millisecond)
	write("release-candidate")

	select {
	case cfg := <-got:
		if cfg.Server.Mode != "release-candidate" {
			t.Fatalf("reloaded mode: %q", cfg.Server.Mode)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
