// Package consumer polls the channel on an independent cooperative tick
// and exposes the newest complete frame. Staleness is handled with a
// cancel-and-replace policy: when a fresh data notification arrives while
// a receive is still pending, the pending one is dropped. Recency beats
// completeness for visualization.
package consumer

import (
    "context"
    "fmt"
    "time"

    "github.com/benbjohnson/clock"
    "go.uber.org/zap"

    "framelink/pkg/channel"
    "framelink/pkg/field"
    "framelink/pkg/wire"
)

// Receipt tracks one posted receive.
type Receipt interface {
    Test() (done bool, err error)
    Cancel()
    Wait() error
}

// Channel is the slice of the channel manager the consumer polls.
type Channel interface {
    Probe() (channel.Notification, bool)
    PostReceive(channel.Notification, *field.Frame) Receipt
    RecvQuit(channel.Notification) error
    SendQuit() error
    DrainPending() int
    Disconnect()
}

// WrapManager adapts a channel.Manager to the Channel interface.
func WrapManager(m *channel.Manager) Channel { return managerChannel{m} }

type managerChannel struct{ m *channel.Manager }

func (c managerChannel) Probe() (channel.Notification, bool) { return c.m.Probe() }
func (c managerChannel) PostReceive(n channel.Notification, dst *field.Frame) Receipt {
    return c.m.PostReceive(n, dst)
}
func (c managerChannel) RecvQuit(n channel.Notification) error { return c.m.RecvQuit(n) }
func (c managerChannel) SendQuit() error                       { return c.m.SendQuit() }
func (c managerChannel) DrainPending() int                     { return c.m.DrainPending() }
func (c managerChannel) Disconnect()                           { c.m.Disconnect() }

// Options configure a Consumer.
type Options struct {
    Width        int
    Height       int
    PollInterval time.Duration
    // StatusInterval is how often Run invokes OnStatus. Zero disables
    // status reporting.
    StatusInterval time.Duration
    Clock          clock.Clock
    Log            *zap.Logger
    // OnFrame is invoked with the presentation copy each time a newer
    // complete frame is available.
    OnFrame func(*field.Frame)
    // OnStatus receives a counter snapshot every StatusInterval during Run.
    OnStatus func(Stats)
}

// Stats is a snapshot of the consumer's counters.
type Stats struct {
    Ticks     int
    Received  int
    Skipped   int
    MinSample int16
    MaxSample int16
}

// Consumer runs single-threaded and cooperative: every tick performs only
// non-blocking probes and tests, so the host timer loop is never stalled.
type Consumer struct {
    ch          Channel
    connected   bool
    interval    time.Duration
    statusEvery time.Duration
    clk         clock.Clock
    log         *zap.Logger
    onFrame     func(*field.Frame)
    onStatus    func(Stats)

    // incoming is the single live receive buffer, owned by the channel
    // between post and completion. present is the copy handed to callers.
    incoming *field.Frame
    present  *field.Frame
    pending  Receipt

    ticks    int
    received int
    skipped  int
    minS     int16
    maxS     int16
}

// New builds a Consumer. A nil Channel starts it disconnected: it still
// ticks but performs no channel operations.
func New(ch Channel, opts Options) *Consumer {
    if opts.PollInterval <= 0 {
        opts.PollInterval = 5 * time.Millisecond
    }
    if opts.Clock == nil {
        opts.Clock = clock.New()
    }
    if opts.Log == nil {
        opts.Log = zap.NewNop()
    }
    return &Consumer{
        ch:          ch,
        connected:   ch != nil,
        interval:    opts.PollInterval,
        statusEvery: opts.StatusInterval,
        clk:         opts.Clock,
        log:         opts.Log,
        onFrame:     opts.OnFrame,
        onStatus:    opts.OnStatus,
        incoming:    field.NewFrame(opts.Width, opts.Height),
        present:     field.NewFrame(opts.Width, opts.Height),
    }
}

// Connected reports whether the consumer still polls a live channel.
func (c *Consumer) Connected() bool { return c.connected }

// Latest returns the presentation copy of the newest complete frame.
func (c *Consumer) Latest() *field.Frame { return c.present }

// Stats returns a snapshot of the counters.
func (c *Consumer) Stats() Stats {
    return Stats{Ticks: c.ticks, Received: c.received, Skipped: c.skipped, MinSample: c.minS, MaxSample: c.maxS}
}

// Tick performs one bounded poll cycle: drain pending notifications with
// non-blocking probes, then present the receive that completed since the
// last tick, if any. The loop always terminates within the tick.
func (c *Consumer) Tick() error {
    c.ticks++
    if !c.connected {
        return nil
    }

    for {
        n, ok := c.ch.Probe()
        if !ok {
            break
        }
        switch n.Type() {
        case wire.MsgDataFrame:
            if c.pending != nil {
                if done, _ := c.pending.Test(); !done {
                    // Stale transfer: drop it in favor of the newer frame.
                    c.pending.Cancel()
                    c.skipped++
                }
            }
            c.pending = c.ch.PostReceive(n, c.incoming)
        case wire.MsgControlQuit:
            if err := c.ch.RecvQuit(n); err != nil {
                c.teardown()
                return err
            }
            c.log.Info("received quit message, disconnecting")
            c.teardown()
            return nil // stop polling for this tick
        default:
            c.teardown()
            return fmt.Errorf("%w: unexpected message type %d", wire.ErrProtocol, n.Type())
        }
    }

    if c.pending != nil {
        done, err := c.pending.Test()
        if done {
            c.pending = nil
            if err != nil {
                c.teardown()
                return err
            }
            c.received++
            c.present.CopyFrom(c.incoming)
            c.trackRange()
            if c.onFrame != nil {
                c.onFrame(c.present)
            }
        }
    }
    return nil
}

func (c *Consumer) teardown() {
    c.ch.Disconnect()
    c.connected = false
    c.pending = nil
}

func (c *Consumer) trackRange() {
    for _, s := range c.present.Samples {
        if s < c.minS {
            c.minS = s
        } else if s > c.maxS {
            c.maxS = s
        }
    }
}

// Run ticks on the poll interval until ctx is cancelled or a tick fails,
// reporting counters through OnStatus on the configured interval. On
// cancellation it performs the quit handshake before returning.
func (c *Consumer) Run(ctx context.Context) error {
    ticker := c.clk.Ticker(c.interval)
    defer ticker.Stop()
    lastStatus := c.clk.Now()
    for {
        select {
        case <-ctx.Done():
            c.Shutdown()
            return nil
        case <-ticker.C:
            if err := c.Tick(); err != nil {
                return err
            }
            if c.onStatus != nil && c.statusEvery > 0 {
                if now := c.clk.Now(); now.Sub(lastStatus) >= c.statusEvery {
                    c.onStatus(c.Stats())
                    lastStatus = now
                }
            }
        }
    }
}

// Shutdown performs the consumer-initiated quit handshake: transmit the
// quit marker, receive any already-queued messages so none block peer
// teardown, then release the handle.
func (c *Consumer) Shutdown() {
    if c.ch == nil {
        return
    }
    if c.connected {
        c.log.Info("sending quit message")
        if err := c.ch.SendQuit(); err != nil {
            c.log.Warn("quit message not delivered", zap.Error(err))
        }
        c.ch.DrainPending()
    }
    c.teardown()
}
