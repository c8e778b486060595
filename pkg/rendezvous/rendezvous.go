// Package rendezvous publishes and discovers the one-shot endpoint
// descriptor through which the viewer learns how to reach the compute
// leader. Backends are interchangeable: a shared file for separate
// processes, an in-memory map for tests and single-process runs.
package rendezvous

import "errors"

// ErrNoDescriptor is returned by Discover when nothing has been published.
// The caller is expected to stay disconnected, not to retry.
var ErrNoDescriptor = errors.New("rendezvous: no endpoint descriptor")

// Broker publishes and discovers a single opaque endpoint-address string.
// Exactly one producer/consumer pair is supported per broker location;
// concurrent publishers are undefined behavior.
type Broker interface {
    // Publish writes the descriptor, overwriting any prior one.
    Publish(addr string) error
    // Discover reads the descriptor once. Absence is ErrNoDescriptor.
    Discover() (string, error)
    // Clear removes a published descriptor. Safe to call when none exists.
    Clear() error
}
