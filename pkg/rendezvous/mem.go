package rendezvous

import "sync"

// MemBroker keeps the descriptor in memory. Used by tests and by runs where
// compute and viewer share a process.
type MemBroker struct {
    mu   sync.Mutex
    addr string
    set  bool
}

func NewMemBroker() *MemBroker { return &MemBroker{} }

func (b *MemBroker) Publish(addr string) error {
    b.mu.Lock(); defer b.mu.Unlock()
    b.addr, b.set = addr, true
    return nil
}

func (b *MemBroker) Discover() (string, error) {
    b.mu.Lock(); defer b.mu.Unlock()
    if !b.set {
        return "", ErrNoDescriptor
    }
    return b.addr, nil
}

func (b *MemBroker) Clear() error {
    b.mu.Lock(); defer b.mu.Unlock()
    b.addr, b.set = "", false
    return nil
}
