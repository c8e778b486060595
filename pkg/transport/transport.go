// Package transport abstracts the duplex byte channel between the compute
// leader and the viewer. Each backend frames messages with a u32 LE length
// prefix; wire-level message semantics live in pkg/wire.
package transport

import (
    "context"
    "net"
)

// Kind identifies the link type.
type Kind int

const (
    KindUnknown Kind = iota
    KindTCP
    KindQUIC
    KindMem
)

func (k Kind) String() string {
    switch k {
    case KindTCP:
        return "tcp"
    case KindQUIC:
        return "quic"
    case KindMem:
        return "mem"
    default:
        return "unknown"
    }
}

// Conn is one duplex channel. The send and receive directions operate
// concurrently; exactly one reader and one writer goroutine are expected.
type Conn interface {
    // SendBytes sends one message frame as opaque bytes.
    SendBytes([]byte) error
    // RecvBytes receives the next message frame and returns its bytes.
    RecvBytes() ([]byte, error)
    LocalAddr() net.Addr
    RemoteAddr() net.Addr
    Close() error
}

// Listener accepts inbound connections for a published endpoint.
type Listener interface {
    // Accept blocks until an inbound connection is available or ctx is done.
    Accept(ctx context.Context) (Conn, error)
    // Addr returns the local listening address, the endpoint descriptor body.
    Addr() net.Addr
    // Close stops the listener and unblocks Accept.
    Close() error
}

// Transport provides dialing/listening for a specific link kind.
type Transport interface {
    Kind() Kind
    // Listen starts accepting inbound connections on address.
    Listen(ctx context.Context, address string) (Listener, error)
    // Dial creates an outbound connection to a published address.
    Dial(ctx context.Context, address string) (Conn, error)
}
