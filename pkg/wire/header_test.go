package wire

import "testing"

func TestHeaderRoundtrip(t *testing.T) {
    var h Header
    h.Version = 1
    h.Type = MsgDataFrame
    h.Flags = FlagAck
    h.Width = 512
    h.Height = 512
    h.PayloadLen = 524288

    b, err := h.MarshalBinary()
    if err != nil { t.Fatalf("marshal: %v", err) }
    if len(b) != headerSize { t.Fatalf("header size = %d", len(b)) }

    var h2 Header
    if err := h2.UnmarshalBinary(b); err != nil { t.Fatalf("unmarshal: %v", err) }

    if h2 != h {
        t.Fatalf("headers differ: %#v vs %#v", h2, h)
    }
}

func TestHeaderBadMagic(t *testing.T) {
    b := make([]byte, headerSize)
    var h Header
    if err := h.UnmarshalBinary(b); err == nil {
        t.Fatal("expected bad magic error")
    }
}

func TestHeaderShort(t *testing.T) {
    var h Header
    if err := h.UnmarshalBinary(make([]byte, headerSize-1)); err == nil {
        t.Fatal("expected short header error")
    }
}
