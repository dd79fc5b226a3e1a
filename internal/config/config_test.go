package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigAppliesUnitsAndDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
storage:
  type: s3
jwt:
  secret: short
  expire_hours: 2
session:
  ttl_minutes: 30
ai:
  timeout_seconds: 5
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.JWT.ExpireTime != 2*time.Hour {
		t.Fatalf("jwt expire: got %v", cfg.JWT.ExpireTime)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Fatalf("session ttl: got %v", cfg.Session.TTL)
	}
	if cfg.AI.Timeout != 5*time.Second {
		t.Fatalf("ai timeout: got %v", cfg.AI.Timeout)
	}
	if cfg.AI.MaxAttempts != 3 {
		t.Fatalf("ai max attempts default: got %d", cfg.AI.MaxAttempts)
	}
	if cfg.Gamification.LevelStep != 500 || cfg.Gamification.XPPerTest != 10 || cfg.Gamification.XPPerAnalysis != 5 {
		t.Fatalf("gamification defaults: %+v", cfg.Gamification)
	}
	if cfg.Session.Store != "memory" {
		t.Fatalf("session store default: got %q", cfg.Session.Store)
	}
}

func TestLoadConfigRejectsShortSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
storage:
  type: s3
jwt:
  secret: too-short
`)

	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected error for short jwt secret in release mode")
	}
}

func TestValidateRejectsUnknownSessionStore(t *testing.T) {
	cfg := &Config{
		Session:      SessionConfig{Store: "memcached"},
		Gamification: GamificationConfig{LevelStep: 500},
		AI:           AIConfig{MaxAttempts: 1},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown session store to be rejected")
	}
}

func TestValidateRejectsNonPositiveXP(t *testing.T) {
	cfg := &Config{
		Session:      SessionConfig{Store: "memory"},
		Gamification: GamificationConfig{LevelStep: 500, XPPerTest: 10, XPPerAnalysis: 0, XPPerProjectStep: 20},
		AI:           AIConfig{MaxAttempts: 1},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected zero xp_per_analysis to be rejected")
	}
}
