// Package channel owns the connection lifecycle between the compute leader
// and the viewer: rendezvous connect/accept, the single-slot asynchronous
// send/receive pipeline, liveness probing and the cooperative quit
// handshake. All I/O with the peer goes through one Manager.
package channel

import (
    "context"
    "errors"
    "fmt"
    "sync"

    "go.uber.org/zap"

    "framelink/pkg/field"
    "framelink/pkg/rendezvous"
    "framelink/pkg/transport"
    "framelink/pkg/wire"
)

// ErrChannelDead is returned by operations that require a Connected channel.
var ErrChannelDead = errors.New("channel: not connected")

// State of the connection handle. Transitions are monotonic: once Closed,
// only a fresh rendezvous (Publish or Connect) produces a usable handle.
type State int

const (
    Unconnected State = iota
    Listening
    Connected
    Disconnecting
    Closed
)

func (s State) String() string {
    switch s {
    case Unconnected:
        return "unconnected"
    case Listening:
        return "listening"
    case Connected:
        return "connected"
    case Disconnecting:
        return "disconnecting"
    case Closed:
        return "closed"
    default:
        return "invalid"
    }
}

// Liveness is the outcome of a liveness check.
type Liveness int

const (
    Alive Liveness = iota
    QuitReceived
    Dead
)

func (l Liveness) String() string {
    switch l {
    case Alive:
        return "alive"
    case QuitReceived:
        return "quit-received"
    case Dead:
        return "dead"
    default:
        return "invalid"
    }
}

// Notification is one incoming envelope pending on the channel.
type Notification struct {
    Env wire.Envelope
}

// Type returns the wire message type of the notification.
func (n Notification) Type() uint8 { return n.Env.Header.Type }

// Options configure a Manager. Transport and Broker are injected so file,
// TCP, QUIC and in-memory backends are interchangeable.
type Options struct {
    Transport  transport.Transport
    Broker     rendezvous.Broker
    ListenAddr string
    Width      int
    Height     int
    Log        *zap.Logger
}

// Manager owns one connection handle and its request slots. At most one
// send, one receive and one quit-probe request are outstanding at any time.
// The producer leader and the consumer loop are each single goroutines by
// construction; Manager methods are safe against the internal receive loop
// but Send must not be called concurrently with itself.
type Manager struct {
    tr         transport.Transport
    broker     rendezvous.Broker
    listenAddr string
    width      int
    height     int
    log        *zap.Logger

    mu       sync.Mutex
    state    State
    conn     transport.Conn
    listener transport.Listener
    notify   chan Notification
    connDone chan struct{}
    recvErr  error
    quitSeen bool

    sendReq  *Request
    recvReq  *Request
    probeReq *Request
}

// New builds a Manager in the Unconnected state.
func New(opts Options) *Manager {
    log := opts.Log
    if log == nil {
        log = zap.NewNop()
    }
    return &Manager{
        tr:         opts.Transport,
        broker:     opts.Broker,
        listenAddr: opts.ListenAddr,
        width:      opts.Width,
        height:     opts.Height,
        log:        log,
    }
}

// State returns the current connection state.
func (m *Manager) State() State {
    m.mu.Lock(); defer m.mu.Unlock()
    return m.state
}

// Publish opens a connectable endpoint, writes its descriptor through the
// broker and blocks until exactly one peer connects. The wait is unbounded
// by design; only ctx cancellation (external termination) interrupts it.
// The endpoint is one-shot: the listener closes after the first accept.
func (m *Manager) Publish(ctx context.Context) error {
    m.mu.Lock()
    if m.state != Unconnected && m.state != Closed {
        s := m.state
        m.mu.Unlock()
        return fmt.Errorf("channel: publish in state %s", s)
    }
    m.mu.Unlock()

    ln, err := m.tr.Listen(ctx, m.listenAddr)
    if err != nil {
        return fmt.Errorf("open endpoint: %w", err)
    }
    if err := m.broker.Publish(ln.Addr().String()); err != nil {
        _ = ln.Close()
        return fmt.Errorf("publish descriptor: %w", err)
    }
    m.mu.Lock()
    m.listener = ln
    m.state = Listening
    m.mu.Unlock()
    m.log.Info("endpoint published, waiting for peer", zap.String("addr", ln.Addr().String()))

    conn, err := ln.Accept(ctx)
    _ = ln.Close()
    _ = m.broker.Clear()
    m.mu.Lock()
    m.listener = nil
    m.mu.Unlock()
    if err != nil {
        m.setState(Closed)
        return fmt.Errorf("accept peer: %w", err)
    }
    if err := m.helloAccept(conn); err != nil {
        _ = conn.Close()
        m.setState(Closed)
        return err
    }
    m.attach(conn)
    return nil
}

// Connect discovers the published descriptor and dials it. Discovery
// happens once; absence or failure leaves the handle Unconnected with no
// retry.
func (m *Manager) Connect(ctx context.Context) error {
    m.mu.Lock()
    if m.state != Unconnected && m.state != Closed {
        s := m.state
        m.mu.Unlock()
        return fmt.Errorf("channel: connect in state %s", s)
    }
    m.mu.Unlock()

    addr, err := m.broker.Discover()
    if err != nil {
        return fmt.Errorf("discover endpoint: %w", err)
    }
    conn, err := m.tr.Dial(ctx, addr)
    if err != nil {
        return fmt.Errorf("connect %s: %w", addr, err)
    }
    if err := m.helloConnect(conn); err != nil {
        _ = conn.Close()
        m.setState(Closed)
        return err
    }
    m.attach(conn)
    return nil
}

// helloConnect runs the dialer side of the post-connect parameter check.
func (m *Manager) helloConnect(conn transport.Conn) error {
    if err := m.sendHello(conn); err != nil {
        return fmt.Errorf("send hello: %w", err)
    }
    if err := m.recvHello(conn); err != nil {
        return err
    }
    return nil
}

// helloAccept runs the acceptor side: read the dialer's hello first.
func (m *Manager) helloAccept(conn transport.Conn) error {
    if err := m.recvHello(conn); err != nil {
        return err
    }
    if err := m.sendHello(conn); err != nil {
        return fmt.Errorf("send hello: %w", err)
    }
    return nil
}

func (m *Manager) sendHello(conn transport.Conn) error {
    env, err := wire.HelloEnvelope(m.width, m.height, field.Scale)
    if err != nil {
        return err
    }
    b, err := env.EncodeFrame()
    if err != nil {
        return err
    }
    return conn.SendBytes(b)
}

func (m *Manager) recvHello(conn transport.Conn) error {
    b, err := conn.RecvBytes()
    if err != nil {
        return fmt.Errorf("recv hello: %w", err)
    }
    var env wire.Envelope
    if err := env.DecodeFrame(b); err != nil {
        return fmt.Errorf("recv hello: %w", err)
    }
    return wire.VerifyHello(&env, m.width, m.height, field.Scale)
}

func (m *Manager) setState(s State) {
    m.mu.Lock(); defer m.mu.Unlock()
    m.state = s
}

// attach installs a freshly established connection and starts its receive
// loop. Any residue from a previous handle is discarded.
func (m *Manager) attach(conn transport.Conn) {
    m.mu.Lock()
    m.conn = conn
    m.state = Connected
    m.quitSeen = false
    m.recvErr = nil
    m.sendReq, m.recvReq, m.probeReq = nil, nil, nil
    notify := make(chan Notification, 64)
    done := make(chan struct{})
    m.notify = notify
    m.connDone = done
    m.mu.Unlock()
    go m.recvLoop(conn, notify, done)
    m.log.Info("channel connected", zap.String("remote", conn.RemoteAddr().String()))
}

// recvLoop reads envelopes off the wire and queues them as notifications.
// A quit marker completes the posted liveness probe instead of queuing when
// one is outstanding. The loop exits on the first transport error, which
// fails the probe: a failed probe is fatal for the connection.
func (m *Manager) recvLoop(conn transport.Conn, notify chan<- Notification, done <-chan struct{}) {
    defer close(notify)
    for {
        b, err := conn.RecvBytes()
        if err != nil {
            m.failRecv(conn, err)
            return
        }
        var env wire.Envelope
        if err := env.DecodeFrame(b); err != nil {
            m.failRecv(conn, err)
            return
        }

        m.mu.Lock()
        if m.conn != conn { // superseded handle, drop and exit
            m.mu.Unlock()
            return
        }
        if env.Header.Type == wire.MsgControlQuit {
            m.quitSeen = true
            if m.probeReq != nil {
                m.probeReq.complete(nil)
                m.mu.Unlock()
                continue
            }
        }
        m.mu.Unlock()

        // Blocks when the queue is full; backpressure propagates to the
        // wire instead of dropping silently. done unblocks teardown.
        select {
        case notify <- Notification{Env: env}:
        case <-done:
            return
        }
    }
}

// failRecv records a transport failure for the current handle and fails
// any posted liveness probe.
func (m *Manager) failRecv(conn transport.Conn, err error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if m.conn != conn {
        return
    }
    m.recvErr = err
    if m.probeReq != nil {
        m.probeReq.complete(err)
    }
}

// Send posts an asynchronous transfer of frame and returns once posted.
// If the previous send is still in flight, Send blocks until it completes;
// this is the single intended backpressure point in the producer's tick.
// The frame is encoded into a private buffer before Send returns, so the
// caller may overwrite it on the next cycle while the transfer is still in
// flight. Send is not safe for concurrent use with itself; the producer
// leader is the only sender by construction.
func (m *Manager) Send(f *field.Frame) error {
    m.mu.Lock()
    prev := m.sendReq
    m.mu.Unlock()
    if prev != nil {
        _ = prev.Wait() // at most one outstanding send per handle
    }

    m.mu.Lock(); defer m.mu.Unlock()
    if m.state != Connected {
        return ErrChannelDead
    }
    env := wire.DataEnvelope(f)
    b, err := env.EncodeFrame()
    if err != nil {
        return err
    }
    req := newRequest(KindSend)
    conn := m.conn
    m.sendReq = req
    go func() { req.complete(conn.SendBytes(b)) }()
    return nil
}

// CheckLiveness probes for an incoming quit marker without blocking. The
// first call after connect posts the probe and optimistically reports
// Alive: a request that was just posted cannot yet be complete. Subsequent
// calls test the posted probe. A completed probe means the peer asked to
// disconnect; a failed probe means the transport is unusable and the
// handle closes immediately with no graceful drain.
func (m *Manager) CheckLiveness() Liveness {
    m.mu.Lock()
    if m.state != Connected {
        m.mu.Unlock()
        return Dead
    }
    if m.probeReq == nil {
        req := newRequest(KindQuitProbe)
        m.probeReq = req
        if m.quitSeen {
            req.complete(nil)
        } else if m.recvErr != nil {
            req.complete(m.recvErr)
        }
        m.mu.Unlock()
        return Alive
    }
    done, err := m.probeReq.Test()
    if !done {
        m.mu.Unlock()
        return Alive
    }
    m.probeReq = nil
    if err != nil {
        m.abortLocked(err)
        m.mu.Unlock()
        return Dead
    }
    m.mu.Unlock()
    m.log.Info("received quit message from peer")
    m.Disconnect()
    return QuitReceived
}

// abortLocked tears the handle down without draining. Used when the
// transport itself failed; the wider process group is expected to
// terminate rather than continue on a corrupted channel.
func (m *Manager) abortLocked(err error) {
    m.log.Error("liveness probe failed, aborting channel", zap.Error(err))
    m.state = Closed
    if m.conn != nil {
        _ = m.conn.Close()
        m.conn = nil
    }
    if m.connDone != nil {
        close(m.connDone)
        m.connDone = nil
    }
}

// SendQuit transmits the quit marker with a synchronous, small, fixed-size
// send, so it cannot be reordered behind the pipelined data send. Valid
// only when Connected. After SendQuit returns, the caller must
// DrainPending before Disconnect so no unread message blocks peer teardown.
func (m *Manager) SendQuit() error {
    m.mu.Lock()
    prev := m.sendReq
    m.mu.Unlock()
    if prev != nil {
        _ = prev.Wait()
    }

    m.mu.Lock()
    if m.state != Connected {
        m.mu.Unlock()
        return ErrChannelDead
    }
    conn := m.conn
    m.mu.Unlock()

    env := wire.QuitEnvelope()
    b, err := env.EncodeFrame()
    if err != nil {
        return err
    }
    m.log.Info("sending quit message")
    return conn.SendBytes(b)
}

// Probe performs a non-blocking check for a pending notification.
func (m *Manager) Probe() (Notification, bool) {
    m.mu.Lock()
    notify := m.notify
    m.mu.Unlock()
    if notify == nil {
        return Notification{}, false
    }
    select {
    case n, ok := <-notify:
        if !ok {
            return Notification{}, false
        }
        return n, true
    default:
        return Notification{}, false
    }
}

// PostReceive posts an asynchronous receive of a data notification into
// dst and returns immediately. dst belongs to the channel until the
// request resolves; a cancelled request never writes dst, so a fresh
// receive may be posted into the same buffer right away.
func (m *Manager) PostReceive(n Notification, dst *field.Frame) *Request {
    req := newRequest(KindRecv)
    m.mu.Lock()
    m.recvReq = req
    m.mu.Unlock()
    go func() {
        req.commit(func() error {
            return wire.DecodeData(&n.Env, dst)
        })
    }()
    return req
}

// RecvQuit synchronously consumes a quit notification's control payload.
func (m *Manager) RecvQuit(n Notification) error {
    if n.Type() != wire.MsgControlQuit {
        return fmt.Errorf("%w: expected quit, got type %d", wire.ErrProtocol, n.Type())
    }
    return nil
}

// DrainPending consumes and discards already-queued notifications with a
// non-blocking probe-and-receive loop. Returns the number drained.
func (m *Manager) DrainPending() int {
    drained := 0
    for {
        if _, ok := m.Probe(); !ok {
            return drained
        }
        drained++
    }
}

// Disconnect cancels any outstanding requests, then releases the
// connection handle and the published endpoint resource. Cancellation
// precedes release. Idempotent; a no-op when already Closed or never
// connected.
func (m *Manager) Disconnect() {
    m.mu.Lock()
    if m.state == Closed || m.state == Unconnected {
        m.mu.Unlock()
        return
    }
    m.state = Disconnecting
    for _, r := range []*Request{m.sendReq, m.recvReq, m.probeReq} {
        if r != nil {
            r.Cancel()
        }
    }
    m.sendReq, m.recvReq, m.probeReq = nil, nil, nil
    conn, ln := m.conn, m.listener
    m.conn, m.listener = nil, nil
    if m.connDone != nil {
        close(m.connDone)
        m.connDone = nil
    }
    m.state = Closed
    m.mu.Unlock()

    if conn != nil {
        _ = conn.Close()
    }
    if ln != nil {
        _ = ln.Close()
    }
    _ = m.broker.Clear()
    m.log.Info("channel disconnected")
}
