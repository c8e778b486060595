package mem

import (
    "context"
    "encoding/binary"
    "errors"
    "io"
    "net"
    "sync"

    "framelink/pkg/transport"
)

// Transport is an in-process transport using net.Pipe. Useful for tests and
// for running compute and viewer inside one process.
type Transport struct {
    mu        sync.Mutex
    listeners map[string]*listener
}

func New() *Transport { return &Transport{listeners: make(map[string]*listener)} }

func (t *Transport) Kind() transport.Kind { return transport.KindMem }

func (t *Transport) Listen(ctx context.Context, name string) (transport.Listener, error) {
    t.mu.Lock(); defer t.mu.Unlock()
    if _, ok := t.listeners[name]; ok {
        return nil, errors.New("mem: listener already exists")
    }
    l := &listener{name: name, newCh: make(chan *conn, 1), closeCh: make(chan struct{})}
    l.onClose = func() { t.mu.Lock(); delete(t.listeners, name); t.mu.Unlock() }
    t.listeners[name] = l
    go func() { <-ctx.Done(); _ = l.Close() }()
    return l, nil
}

func (t *Transport) Dial(ctx context.Context, name string) (transport.Conn, error) {
    t.mu.Lock(); l := t.listeners[name]; t.mu.Unlock()
    if l == nil { return nil, errors.New("mem: no such listener") }
    c1, c2 := net.Pipe()
    srv := &conn{c: c1}
    cli := &conn{c: c2}
    select {
    case l.newCh <- srv:
    case <-l.closeCh:
        _ = srv.Close(); _ = cli.Close()
        return nil, errors.New("mem: listener closed")
    case <-ctx.Done():
        _ = srv.Close(); _ = cli.Close()
        return nil, ctx.Err()
    }
    return cli, nil
}

type listener struct {
    name      string
    newCh     chan *conn
    closeCh   chan struct{}
    closeOnce sync.Once
    onClose   func()
}

func (l *listener) Addr() net.Addr { return memAddr(l.name) }

func (l *listener) Accept(ctx context.Context) (transport.Conn, error) {
    select {
    case <-ctx.Done():
        return nil, ctx.Err()
    case <-l.closeCh:
        return nil, errors.New("mem listener closed")
    case c := <-l.newCh:
        return c, nil
    }
}

func (l *listener) Close() error {
    l.closeOnce.Do(func() {
        close(l.closeCh)
        if l.onClose != nil { l.onClose() }
    })
    return nil
}

type memAddr string

func (a memAddr) Network() string { return "mem" }
func (a memAddr) String() string  { return string(a) }

type conn struct {
    wmu sync.Mutex
    c   net.Conn
}

func (s *conn) LocalAddr() net.Addr  { return s.c.LocalAddr() }
func (s *conn) RemoteAddr() net.Addr { return s.c.RemoteAddr() }
func (s *conn) Close() error         { return s.c.Close() }

// Stream methods: length-prefixed frames (u32 LE). net.Pipe is unbuffered,
// so SendBytes does not return before the peer has read the whole frame.
func (s *conn) SendBytes(b []byte) error {
    s.wmu.Lock(); defer s.wmu.Unlock()
    var lenbuf [4]byte
    binary.LittleEndian.PutUint32(lenbuf[:], uint32(len(b)))
    if _, err := s.c.Write(lenbuf[:]); err != nil { return err }
    _, err := s.c.Write(b)
    return err
}

func (s *conn) RecvBytes() ([]byte, error) {
    var lenbuf [4]byte
    if _, err := io.ReadFull(s.c, lenbuf[:]); err != nil { return nil, err }
    n := int(binary.LittleEndian.Uint32(lenbuf[:]))
    if n < 0 || n > (1<<24) { return nil, errors.New("invalid frame size") }
    buf := make([]byte, n)
    if _, err := io.ReadFull(s.c, buf); err != nil { return nil, err }
    return buf, nil
}
