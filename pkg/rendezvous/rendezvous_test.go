package rendezvous

import (
    "errors"
    "os"
    "path/filepath"
    "testing"
)

func TestFileBrokerLifecycle(t *testing.T) {
    path := filepath.Join(t.TempDir(), "endpoint.txt")
    b := NewFileBroker(path)

    if _, err := b.Discover(); !errors.Is(err, ErrNoDescriptor) {
        t.Fatalf("discover before publish: %v", err)
    }

    if err := b.Publish("127.0.0.1:4567"); err != nil {
        t.Fatalf("publish: %v", err)
    }
    addr, err := b.Discover()
    if err != nil {
        t.Fatalf("discover: %v", err)
    }
    if addr != "127.0.0.1:4567" {
        t.Fatalf("addr = %q", addr)
    }

    if err := b.Clear(); err != nil {
        t.Fatalf("clear: %v", err)
    }
    if _, err := b.Discover(); !errors.Is(err, ErrNoDescriptor) {
        t.Fatalf("discover after clear: %v", err)
    }
    if err := b.Clear(); err != nil {
        t.Fatalf("second clear: %v", err)
    }
}

func TestFileBrokerEmptyDescriptor(t *testing.T) {
    path := filepath.Join(t.TempDir(), "endpoint.txt")
    if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
        t.Fatalf("write: %v", err)
    }
    b := NewFileBroker(path)
    if _, err := b.Discover(); !errors.Is(err, ErrNoDescriptor) {
        t.Fatalf("discover on empty file: %v", err)
    }
}

func TestFileBrokerTrimsDescriptor(t *testing.T) {
    path := filepath.Join(t.TempDir(), "endpoint.txt")
    b := NewFileBroker(path)
    if err := b.Publish("  [::1]:9000"); err != nil {
        t.Fatalf("publish: %v", err)
    }
    addr, err := b.Discover()
    if err != nil {
        t.Fatalf("discover: %v", err)
    }
    if addr != "[::1]:9000" {
        t.Fatalf("addr = %q", addr)
    }
}

func TestFileBrokerDefaultPath(t *testing.T) {
    b := NewFileBroker("")
    if b.Path() == "" {
        t.Fatal("empty default path")
    }
}

func TestMemBroker(t *testing.T) {
    b := NewMemBroker()
    if _, err := b.Discover(); !errors.Is(err, ErrNoDescriptor) {
        t.Fatalf("discover before publish: %v", err)
    }
    if err := b.Publish("slot"); err != nil {
        t.Fatalf("publish: %v", err)
    }
    addr, err := b.Discover()
    if err != nil || addr != "slot" {
        t.Fatalf("discover: %q, %v", addr, err)
    }
    if err := b.Clear(); err != nil {
        t.Fatalf("clear: %v", err)
    }
    if _, err := b.Discover(); !errors.Is(err, ErrNoDescriptor) {
        t.Fatalf("discover after clear: %v", err)
    }
}
