package rendezvous

import (
    "errors"
    "io/fs"
    "os"
    "path/filepath"
    "runtime"
    "strings"
)

// FileBroker stores the endpoint descriptor as a single line of UTF-8 text
// in a well-known file.
type FileBroker struct {
    path string
}

// DefaultPath returns the per-platform descriptor location.
func DefaultPath() string {
    if runtime.GOOS == "windows" {
        return `C:/framelink-endpoint.txt`
    }
    return "/tmp/framelink-endpoint.txt"
}

// NewFileBroker builds a broker over the given path, or the platform
// default when path is empty.
func NewFileBroker(path string) *FileBroker {
    if path == "" {
        path = DefaultPath()
    }
    return &FileBroker{path: path}
}

// Path returns the descriptor file location.
func (b *FileBroker) Path() string { return b.path }

func (b *FileBroker) Publish(addr string) error {
    if dir := filepath.Dir(b.path); dir != "." {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return err
        }
    }
    return os.WriteFile(b.path, []byte(addr+"\n"), 0o644)
}

func (b *FileBroker) Discover() (string, error) {
    data, err := os.ReadFile(b.path)
    if err != nil {
        if errors.Is(err, fs.ErrNotExist) {
            return "", ErrNoDescriptor
        }
        return "", err
    }
    addr := strings.TrimSpace(string(data))
    if addr == "" {
        return "", ErrNoDescriptor
    }
    return addr, nil
}

func (b *FileBroker) Clear() error {
    err := os.Remove(b.path)
    if err != nil && !errors.Is(err, fs.ErrNotExist) {
        return err
    }
    return nil
}
