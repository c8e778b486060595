package wire

import (
    "fmt"

    cbor "github.com/fxamacker/cbor/v2"
)

// Hello is exchanged once right after connect. It carries the channel
// parameters both sides must already agree on; a mismatch fails the
// connect. This verifies the out-of-band agreement, it does not negotiate.
type Hello struct {
    Version uint32  `cbor:"ver"`
    Width   uint16  `cbor:"w"`
    Height  uint16  `cbor:"h"`
    Scale   float64 `cbor:"scale"`
}

var helloEnc cbor.EncMode

func init() {
    em, err := cbor.CanonicalEncOptions().EncMode()
    if err != nil { panic(err) }
    helloEnc = em
}

// HelloEnvelope packs a Hello for the given frame dimensions.
func HelloEnvelope(w, h int, scale float64) (Envelope, error) {
    payload, err := helloEnc.Marshal(Hello{Version: Version, Width: uint16(w), Height: uint16(h), Scale: scale})
    if err != nil {
        return Envelope{}, err
    }
    return Envelope{Header: Header{Type: MsgHello}, Payload: payload}, nil
}

// VerifyHello decodes a MsgHello envelope and checks it against the local
// channel parameters.
func VerifyHello(e *Envelope, w, h int, scale float64) error {
    if e.Header.Type != MsgHello {
        return fmt.Errorf("%w: expected hello, got type %d", ErrProtocol, e.Header.Type)
    }
    var hello Hello
    if err := cbor.Unmarshal(e.Payload, &hello); err != nil {
        return fmt.Errorf("%w: undecodable hello: %v", ErrProtocol, err)
    }
    if hello.Version != Version {
        return fmt.Errorf("%w: wire version %d, want %d", ErrProtocol, hello.Version, Version)
    }
    if int(hello.Width) != w || int(hello.Height) != h {
        return fmt.Errorf("%w: peer channel is %dx%d, local is %dx%d",
            ErrProtocol, hello.Width, hello.Height, w, h)
    }
    if hello.Scale != scale {
        return fmt.Errorf("%w: peer scale %g, local %g", ErrProtocol, hello.Scale, scale)
    }
    return nil
}
