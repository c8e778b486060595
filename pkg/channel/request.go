package channel

import "sync"

// RequestKind tags an in-flight asynchronous operation.
type RequestKind int

const (
    KindSend RequestKind = iota
    KindRecv
    KindQuitProbe
)

func (k RequestKind) String() string {
    switch k {
    case KindSend:
        return "send"
    case KindRecv:
        return "recv"
    case KindQuitProbe:
        return "quit-probe"
    default:
        return "unknown"
    }
}

// Request represents one in-flight asynchronous channel operation. It is
// created on post and resolves exactly once, either by completion or by
// cancellation. A cancel racing the underlying transfer's natural
// completion is not an error: whichever side wins, the request resolves
// and the loser's outcome is discarded.
type Request struct {
    kind RequestKind

    mu        sync.Mutex
    finished  bool
    cancelled bool
    err       error
    done      chan struct{}
}

func newRequest(kind RequestKind) *Request {
    return &Request{kind: kind, done: make(chan struct{})}
}

// Kind reports what operation this request tracks.
func (r *Request) Kind() RequestKind { return r.kind }

// complete resolves the request with the operation's outcome. A no-op if
// the request already resolved (completed or cancelled).
func (r *Request) complete(err error) {
    r.mu.Lock(); defer r.mu.Unlock()
    if r.finished {
        return
    }
    r.finished = true
    r.err = err
    close(r.done)
}

// commit runs fn and resolves the request with its result, unless the
// request was cancelled first. fn runs under the request lock, so a
// cancelled request's target buffer is never written.
func (r *Request) commit(fn func() error) {
    r.mu.Lock(); defer r.mu.Unlock()
    if r.finished {
        return
    }
    r.err = fn()
    r.finished = true
    close(r.done)
}

// Cancel resolves the request as cancelled. Safe to call at any point,
// including when the operation is on the verge of natural completion; in
// that race the data is treated as accepted and discarded.
func (r *Request) Cancel() {
    r.mu.Lock(); defer r.mu.Unlock()
    if r.finished {
        return
    }
    r.finished = true
    r.cancelled = true
    close(r.done)
}

// Cancelled reports whether the request resolved by cancellation.
func (r *Request) Cancelled() bool {
    r.mu.Lock(); defer r.mu.Unlock()
    return r.cancelled
}

// Test performs a non-blocking completion check.
func (r *Request) Test() (done bool, err error) {
    select {
    case <-r.done:
    default:
        return false, nil
    }
    r.mu.Lock(); defer r.mu.Unlock()
    return true, r.err
}

// Wait blocks until the request resolves and returns its outcome.
func (r *Request) Wait() error {
    <-r.done
    r.mu.Lock(); defer r.mu.Unlock()
    return r.err
}
