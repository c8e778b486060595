package mem

import (
    "bytes"
    "context"
    "fmt"
    "testing"
    "time"
)

func TestRoundtrip(t *testing.T) {
    tr := New()
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    l, err := tr.Listen(ctx, "pair")
    if err != nil { t.Fatalf("listen: %v", err) }
    defer l.Close()

    clientErr := make(chan error, 1)
    go func() {
        c, err := tr.Dial(ctx, "pair")
        if err != nil { clientErr <- err; return }
        defer c.Close()
        if err := c.SendBytes([]byte("ping")); err != nil { clientErr <- err; return }
        b, err := c.RecvBytes()
        if err != nil { clientErr <- err; return }
        if !bytes.Equal(b, []byte("pong")) { clientErr <- fmt.Errorf("unexpected payload %q", b); return }
        clientErr <- nil
    }()

    s, err := l.Accept(ctx)
    if err != nil { t.Fatalf("accept: %v", err) }
    defer s.Close()
    b, err := s.RecvBytes()
    if err != nil { t.Fatalf("recv: %v", err) }
    if !bytes.Equal(b, []byte("ping")) { t.Fatalf("got %q", b) }
    if err := s.SendBytes([]byte("pong")); err != nil { t.Fatalf("send: %v", err) }

    if err := <-clientErr; err != nil { t.Fatalf("client: %v", err) }
}

func TestDialUnknownName(t *testing.T) {
    tr := New()
    if _, err := tr.Dial(context.Background(), "nowhere"); err == nil {
        t.Fatal("dial to unknown name succeeded")
    }
}

func TestDuplicateListen(t *testing.T) {
    tr := New()
    ctx := context.Background()
    l, err := tr.Listen(ctx, "slot")
    if err != nil { t.Fatalf("listen: %v", err) }
    if _, err := tr.Listen(ctx, "slot"); err == nil {
        t.Fatal("duplicate listen succeeded")
    }
    _ = l.Close()
    // The name is free again after close.
    l2, err := tr.Listen(ctx, "slot")
    if err != nil { t.Fatalf("listen after close: %v", err) }
    _ = l2.Close()
}

func TestDialAfterClose(t *testing.T) {
    tr := New()
    l, err := tr.Listen(context.Background(), "slot")
    if err != nil { t.Fatalf("listen: %v", err) }
    _ = l.Close()
    if _, err := tr.Dial(context.Background(), "slot"); err == nil {
        t.Fatal("dial to closed listener succeeded")
    }
}
