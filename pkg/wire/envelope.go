package wire

import (
    "encoding/binary"
    "errors"
    "fmt"
    "io"

    "framelink/pkg/field"
)

// ErrProtocol marks an incoming envelope that matches no expected kind.
// Receiving one is a protocol violation and fatal for the connection.
var ErrProtocol = errors.New("wire: protocol violation")

// Envelope is a header + payload wrapper for a single channel transfer.
type Envelope struct {
    Header  Header
    Payload []byte
}

// EncodeFrame returns header+payload as a single byte slice.
func (e *Envelope) EncodeFrame() ([]byte, error) {
    e.Header.Version = Version
    e.Header.PayloadLen = uint32(len(e.Payload))
    hb, err := e.Header.MarshalBinary()
    if err != nil { return nil, err }
    out := make([]byte, headerSize+len(e.Payload))
    copy(out, hb)
    copy(out[headerSize:], e.Payload)
    return out, nil
}

// DecodeFrame parses a single envelope from buf.
func (e *Envelope) DecodeFrame(buf []byte) error {
    if len(buf) < headerSize {
        return io.ErrUnexpectedEOF
    }
    if err := e.Header.UnmarshalBinary(buf[:headerSize]); err != nil {
        return err
    }
    need := int(e.Header.PayloadLen)
    if headerSize+need > len(buf) {
        return io.ErrUnexpectedEOF
    }
    e.Payload = append(e.Payload[:0], buf[headerSize:headerSize+need]...)
    return nil
}

// DataEnvelope packs a frame into a MsgDataFrame envelope. Samples are
// int16 little-endian, row-major.
func DataEnvelope(f *field.Frame) Envelope {
    payload := make([]byte, 2*len(f.Samples))
    for i, s := range f.Samples {
        binary.LittleEndian.PutUint16(payload[2*i:], uint16(s))
    }
    return Envelope{
        Header:  Header{Type: MsgDataFrame, Width: uint16(f.Width), Height: uint16(f.Height)},
        Payload: payload,
    }
}

// DecodeData unpacks a MsgDataFrame envelope into dst. The envelope must
// carry exactly dst's dimensions; anything else violates the fixed-dimension
// contract of the channel.
func DecodeData(e *Envelope, dst *field.Frame) error {
    if e.Header.Type != MsgDataFrame {
        return fmt.Errorf("%w: type %d is not a data frame", ErrProtocol, e.Header.Type)
    }
    if int(e.Header.Width) != dst.Width || int(e.Header.Height) != dst.Height {
        return fmt.Errorf("%w: got %dx%d frame, channel is %dx%d",
            ErrProtocol, e.Header.Width, e.Header.Height, dst.Width, dst.Height)
    }
    if len(e.Payload) != 2*len(dst.Samples) {
        return fmt.Errorf("%w: payload %d bytes, want %d", ErrProtocol, len(e.Payload), 2*len(dst.Samples))
    }
    for i := range dst.Samples {
        dst.Samples[i] = int16(binary.LittleEndian.Uint16(e.Payload[2*i:]))
    }
    return nil
}

// QuitEnvelope builds the small fixed-size MsgControlQuit envelope.
func QuitEnvelope() Envelope {
    payload := make([]byte, 4)
    binary.LittleEndian.PutUint32(payload, QuitMarker)
    return Envelope{Header: Header{Type: MsgControlQuit}, Payload: payload}
}
