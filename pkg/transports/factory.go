// Package transports builds concrete transport backends from configuration.
package transports

import (
    "fmt"

    "framelink/pkg/transport"
    "framelink/pkg/transport/mem"
    "framelink/pkg/transport/quic"
    "framelink/pkg/transport/tcp"
)

// New returns the transport for the configured kind. The mem transport is
// in-process only: both endpoints must share the same process (tests,
// embedded runs).
func New(kind string) (transport.Transport, error) {
    switch kind {
    case "tcp":
        return tcp.New(), nil
    case "quic":
        return quic.New()
    case "mem":
        return mem.New(), nil
    default:
        return nil, fmt.Errorf("transports: unknown kind %q", kind)
    }
}
