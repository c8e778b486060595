package wire

import (
    "errors"
    "testing"

    "framelink/pkg/field"
)

func testFrame(w, h int) *field.Frame {
    f := field.NewFrame(w, h)
    for i := range f.Samples {
        f.Samples[i] = int16(i*31 - 17)
    }
    return f
}

func TestDataFrameRoundtrip(t *testing.T) {
    src := testFrame(16, 8)
    env := DataEnvelope(src)
    b, err := env.EncodeFrame()
    if err != nil { t.Fatalf("encode: %v", err) }

    var got Envelope
    if err := got.DecodeFrame(b); err != nil { t.Fatalf("decode: %v", err) }
    if got.Header.Type != MsgDataFrame {
        t.Fatalf("type = %d", got.Header.Type)
    }
    dst := field.NewFrame(16, 8)
    if err := DecodeData(&got, dst); err != nil { t.Fatalf("decode data: %v", err) }
    for i := range src.Samples {
        if dst.Samples[i] != src.Samples[i] {
            t.Fatalf("sample %d: got %d want %d", i, dst.Samples[i], src.Samples[i])
        }
    }
}

func TestDecodeDataDimensionMismatch(t *testing.T) {
    env := DataEnvelope(testFrame(16, 8))
    dst := field.NewFrame(8, 8)
    err := DecodeData(&env, dst)
    if !errors.Is(err, ErrProtocol) {
        t.Fatalf("expected protocol violation, got %v", err)
    }
}

func TestDecodeDataWrongType(t *testing.T) {
    env := QuitEnvelope()
    if err := DecodeData(&env, field.NewFrame(4, 4)); !errors.Is(err, ErrProtocol) {
        t.Fatal("expected protocol violation for quit envelope")
    }
}

func TestQuitEnvelope(t *testing.T) {
    env := QuitEnvelope()
    b, err := env.EncodeFrame()
    if err != nil { t.Fatalf("encode: %v", err) }
    var got Envelope
    if err := got.DecodeFrame(b); err != nil { t.Fatalf("decode: %v", err) }
    if got.Header.Type != MsgControlQuit || len(got.Payload) != 4 {
        t.Fatalf("unexpected quit envelope: %#v", got.Header)
    }
}

func TestHelloVerify(t *testing.T) {
    env, err := HelloEnvelope(512, 512, field.Scale)
    if err != nil { t.Fatalf("hello: %v", err) }
    b, err := env.EncodeFrame()
    if err != nil { t.Fatalf("encode: %v", err) }
    var got Envelope
    if err := got.DecodeFrame(b); err != nil { t.Fatalf("decode: %v", err) }

    if err := VerifyHello(&got, 512, 512, field.Scale); err != nil {
        t.Fatalf("verify: %v", err)
    }
    if err := VerifyHello(&got, 256, 512, field.Scale); !errors.Is(err, ErrProtocol) {
        t.Fatalf("expected dimension mismatch, got %v", err)
    }
    if err := VerifyHello(&got, 512, 512, 1.0); !errors.Is(err, ErrProtocol) {
        t.Fatalf("expected scale mismatch, got %v", err)
    }
}
