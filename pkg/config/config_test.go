package config

import (
    "os"
    "path/filepath"
    "testing"
)

func TestDefaults(t *testing.T) {
    if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
        t.Fatal("missing explicit config file did not error")
    }

    cfg, err := Load("")
    if err != nil {
        t.Fatalf("load defaults: %v", err)
    }
    if cfg.Field.Width != 512 || cfg.Field.Height != 512 {
        t.Fatalf("default grid %dx%d", cfg.Field.Width, cfg.Field.Height)
    }
    if cfg.Channel.Transport != "tcp" {
        t.Fatalf("default transport %q", cfg.Channel.Transport)
    }
    if cfg.Channel.MinSendIntervalMS != 33 || cfg.Channel.PollIntervalMS != 5 {
        t.Fatalf("default intervals: %+v", cfg.Channel)
    }
}

func TestLoadFromFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "framelink.yaml")
    content := `
app_name: custom
log:
  level: debug
channel:
  transport: mem
  min_send_interval_ms: 10
field:
  width: 64
  height: 32
  workers: 4
  duration_s: 2.5
`
    if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
        t.Fatalf("write: %v", err)
    }
    cfg, err := Load(path)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if cfg.AppName != "custom" || cfg.Log.Level != "debug" {
        t.Fatalf("cfg = %+v", cfg)
    }
    if cfg.Channel.Transport != "mem" || cfg.Channel.MinSendIntervalMS != 10 {
        t.Fatalf("channel = %+v", cfg.Channel)
    }
    if cfg.Field.Width != 64 || cfg.Field.Height != 32 || cfg.Field.Workers != 4 || cfg.Field.DurationS != 2.5 {
        t.Fatalf("field = %+v", cfg.Field)
    }
    // Unset keys keep their defaults.
    if cfg.Channel.PollIntervalMS != 5 {
        t.Fatalf("poll interval = %d", cfg.Channel.PollIntervalMS)
    }
}

func TestValidation(t *testing.T) {
    cases := []struct {
        name    string
        content string
    }{
        {"bad log level", "log:\n  level: verbose\n"},
        {"bad transport", "channel:\n  transport: carrier-pigeon\n"},
        {"bad dimensions", "field:\n  width: 0\n"},
    }
    for _, tc := range cases {
        path := filepath.Join(t.TempDir(), "framelink.yaml")
        if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
            t.Fatalf("write: %v", err)
        }
        if _, err := Load(path); err == nil {
            t.Errorf("%s: accepted", tc.name)
        }
    }
}

func TestEnvOverride(t *testing.T) {
    t.Setenv("FRAMELINK_LOG_LEVEL", "warn")
    cfg, err := Load("")
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if cfg.Log.Level != "warn" {
        t.Fatalf("log level = %q", cfg.Log.Level)
    }
}
