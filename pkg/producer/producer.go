// Package producer drives the compute side: one frame per tick through the
// collective assemble step, pushed to the channel leader-side with a
// minimum inter-send interval. The compute loop never blocks except at the
// channel's single-slot backpressure point inside Send.
package producer

import (
    "context"
    "errors"
    "time"

    "github.com/benbjohnson/clock"
    "go.uber.org/zap"

    "framelink/pkg/channel"
    "framelink/pkg/field"
)

// ErrAborted reports a liveness-probe failure. The transport is assumed
// corrupted; the whole producer group should terminate rather than run on.
var ErrAborted = errors.New("producer: channel aborted")

// DefaultSendInterval caps streaming at ~30 frames per time unit, enough
// for visualization.
const DefaultSendInterval = 33333 * time.Microsecond

// Channel is the slice of the channel manager the producer drives.
type Channel interface {
    Send(*field.Frame) error
    CheckLiveness() channel.Liveness
    SendQuit() error
    DrainPending() int
    Disconnect()
}

// Options configure a Producer.
type Options struct {
    Group *field.Group
    // Channel may be nil: the producer then runs standalone, computing
    // frames without streaming them.
    Channel         Channel
    MinSendInterval time.Duration
    Duration        time.Duration
    Clock           clock.Clock
    Log             *zap.Logger
}

// Stats summarizes a finished run.
type Stats struct {
    Elapsed    time.Duration
    Ticks      int
    SentFrames int
    TickRate   float64
    SendRate   float64
}

// Producer owns the compute/send loop. It is single-goroutine: only the
// leader touches the channel, so there are no multi-writer races by
// construction.
type Producer struct {
    group     *field.Group
    ch        Channel
    interval  time.Duration
    duration  time.Duration
    clk       clock.Clock
    log       *zap.Logger
    connected bool

    start    time.Time
    lastSend time.Time
    ticks    int
    sent     int
}

// New builds a Producer. A nil Channel means standalone operation.
func New(opts Options) *Producer {
    if opts.MinSendInterval <= 0 {
        opts.MinSendInterval = DefaultSendInterval
    }
    if opts.Duration <= 0 {
        opts.Duration = 15 * time.Second
    }
    if opts.Clock == nil {
        opts.Clock = clock.New()
    }
    if opts.Log == nil {
        opts.Log = zap.NewNop()
    }
    return &Producer{
        group:     opts.Group,
        ch:        opts.Channel,
        interval:  opts.MinSendInterval,
        duration:  opts.Duration,
        clk:       opts.Clock,
        log:       opts.Log,
        connected: opts.Channel != nil,
    }
}

// Connected reports whether the producer still streams to a peer.
func (p *Producer) Connected() bool { return p.connected }

// SentFrames reports how many frames were handed to the channel.
func (p *Producer) SentFrames() int { return p.sent }

// Ticks reports how many compute cycles ran.
func (p *Producer) Ticks() int { return p.ticks }

// Tick runs one compute cycle at the given time: assemble a complete frame
// on the leader, then stream it if the channel is connected and the
// minimum inter-send interval has elapsed since the last send.
func (p *Producer) Tick(ctx context.Context, now time.Time) error {
    if p.start.IsZero() {
        p.start = now
        p.lastSend = now
    }
    elapsed := now.Sub(p.start).Seconds()
    frame, err := p.group.Assemble(ctx, elapsed)
    if err != nil {
        return err
    }
    p.ticks++

    if now.Sub(p.lastSend) <= p.interval {
        return nil
    }
    p.lastSend = now
    if p.ch == nil || !p.connected {
        return nil
    }

    switch p.ch.CheckLiveness() {
    case channel.Dead:
        p.connected = false
        return ErrAborted
    case channel.QuitReceived:
        p.log.Info("peer disconnected, streaming stopped")
        p.connected = false
        return nil
    }

    // Send blocks on the previous in-flight transfer, then re-checks the
    // handle before posting; a quit processed during that wait surfaces
    // as ErrChannelDead here.
    if err := p.ch.Send(frame); err != nil {
        if errors.Is(err, channel.ErrChannelDead) {
            p.connected = false
            return nil
        }
        return err
    }
    p.sent++
    return nil
}

// Run ticks until the configured duration elapses or ctx is cancelled,
// then reports run statistics. The loop is deliberately unpaced: compute
// itself is the work, exactly one frame per iteration.
func (p *Producer) Run(ctx context.Context) (Stats, error) {
    start := p.clk.Now()
    end := start.Add(p.duration)
    var runErr error
    for {
        now := p.clk.Now()
        if !now.Before(end) || ctx.Err() != nil {
            break
        }
        if err := p.Tick(ctx, now); err != nil {
            runErr = err
            break
        }
    }
    stats := p.Stats(p.clk.Now())
    p.log.Info("run finished",
        zap.Duration("elapsed", stats.Elapsed),
        zap.Int("ticks", stats.Ticks),
        zap.Int("sent_frames", stats.SentFrames),
        zap.Float64("tick_rate", stats.TickRate),
        zap.Float64("send_rate", stats.SendRate))
    return stats, runErr
}

// Stats computes run statistics as of now.
func (p *Producer) Stats(now time.Time) Stats {
    s := Stats{Ticks: p.ticks, SentFrames: p.sent}
    if p.start.IsZero() {
        return s
    }
    s.Elapsed = now.Sub(p.start)
    if secs := s.Elapsed.Seconds(); secs > 0 {
        s.TickRate = float64(p.ticks) / secs
        s.SendRate = float64(p.sent) / secs
    }
    return s
}

// Shutdown performs the cooperative quit handshake when still connected:
// send the quit marker, drain queued notifications, release the handle.
// After Shutdown no further sends are issued on this handle.
func (p *Producer) Shutdown() {
    if p.ch == nil {
        return
    }
    if p.connected && p.ch.CheckLiveness() == channel.Alive {
        if err := p.ch.SendQuit(); err == nil {
            p.ch.DrainPending()
        } else {
            p.log.Warn("quit message not delivered", zap.Error(err))
        }
    }
    p.connected = false
    p.ch.Disconnect()
}
