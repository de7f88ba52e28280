package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("expected default worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.SyncWaitTimeout() != 20*time.Second {
		t.Errorf("expected default sync wait 20s, got %s", cfg.SyncWaitTimeout())
	}
	if cfg.QueueIdleBackoff() != 10*time.Millisecond {
		t.Errorf("expected default idle backoff 10ms, got %s", cfg.QueueIdleBackoff())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("WORKER_COUNT", "12")
	t.Setenv("SYNC_WAIT_TIMEOUT_MS", "500")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.WorkerCount != 12 {
		t.Errorf("expected worker count 12, got %d", cfg.WorkerCount)
	}
	if cfg.SyncWaitTimeout() != 500*time.Millisecond {
		t.Errorf("expected sync wait 500ms, got %s", cfg.SyncWaitTimeout())
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.ServerPort)
	}
}

func TestLoadRejectsNonPositiveWorkerCount(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("WORKER_COUNT", "0")
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected an error for WORKER_COUNT=0")
	}
}
