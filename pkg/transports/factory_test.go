package transports

import (
    "testing"

    "framelink/pkg/transport"
)

func TestNew(t *testing.T) {
    cases := []struct {
        name string
        kind transport.Kind
    }{
        {"tcp", transport.KindTCP},
        {"quic", transport.KindQUIC},
        {"mem", transport.KindMem},
    }
    for _, tc := range cases {
        tr, err := New(tc.name)
        if err != nil {
            t.Fatalf("%s: %v", tc.name, err)
        }
        if tr.Kind() != tc.kind {
            t.Fatalf("%s: kind = %v", tc.name, tr.Kind())
        }
    }
    if _, err := New("smoke-signal"); err == nil {
        t.Fatal("unknown transport accepted")
    }
}
