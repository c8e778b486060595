package tcp

import (
    "bytes"
    "context"
    "testing"
    "time"
)

func TestRoundtrip(t *testing.T) {
    tr := New()
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    l, err := tr.Listen(ctx, "127.0.0.1:0")
    if err != nil { t.Fatalf("listen: %v", err) }
    defer l.Close()

    // A frame bigger than the bufio buffers, to cover flush behaviour.
    big := make([]byte, 512*1024)
    for i := range big {
        big[i] = byte(i * 7)
    }

    serverErr := make(chan error, 1)
    go func() {
        s, err := l.Accept(ctx)
        if err != nil { serverErr <- err; return }
        defer s.Close()
        b, err := s.RecvBytes()
        if err != nil { serverErr <- err; return }
        serverErr <- s.SendBytes(b) // echo
    }()

    c, err := tr.Dial(ctx, l.Addr().String())
    if err != nil { t.Fatalf("dial: %v", err) }
    defer c.Close()
    if err := c.SendBytes(big); err != nil { t.Fatalf("send: %v", err) }
    got, err := c.RecvBytes()
    if err != nil { t.Fatalf("recv: %v", err) }
    if !bytes.Equal(got, big) { t.Fatal("echoed frame differs") }

    if err := <-serverErr; err != nil { t.Fatalf("server: %v", err) }
}

func TestDialRefused(t *testing.T) {
    tr := New()
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    l, err := tr.Listen(ctx, "127.0.0.1:0")
    if err != nil { t.Fatalf("listen: %v", err) }
    addr := l.Addr().String()
    _ = l.Close()
    if _, err := tr.Dial(ctx, addr); err == nil {
        t.Fatal("dial to closed listener succeeded")
    }
}

func TestAcceptAfterClose(t *testing.T) {
    tr := New()
    ctx := context.Background()
    l, err := tr.Listen(ctx, "127.0.0.1:0")
    if err != nil { t.Fatalf("listen: %v", err) }
    _ = l.Close()
    if _, err := l.Accept(ctx); err == nil {
        t.Fatal("accept on closed listener succeeded")
    }
}
