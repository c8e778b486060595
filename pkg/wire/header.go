// Package wire defines the tag-discriminated messages exchanged over an
// established channel: data frames, the quit marker and the post-connect
// hello. Framing (length prefixes) belongs to the transport; wire only
// deals in whole envelopes.
package wire

import (
    "encoding/binary"
    "errors"
)

// Fixed header layout (16 bytes) for fast parsing over any channel.
// All integer fields are little-endian.
//
//  0 ..1   Magic   'F''L' (0x4c46)
//  2       Version u8
//  3       Type    u8
//  4 ..7   Flags   u32
//  8 ..9   Width   u16
//  10..11  Height  u16
//  12..15  PayloadLen u32
const (
    headerSize = 16
    magicWord  = uint16(0x4c46) // 'F''L'

    // Version of the wire layout.
    Version = 1
)

// Header describes metadata for an envelope. Width/Height carry the frame
// dimensions for data frames and are zero for control messages.
type Header struct {
    Version    uint8
    Type       uint8
    Flags      uint32
    Width      uint16
    Height     uint16
    PayloadLen uint32
}

// MarshalBinary encodes the header to a 16-byte buffer.
func (h *Header) MarshalBinary() ([]byte, error) {
    buf := make([]byte, headerSize)
    binary.LittleEndian.PutUint16(buf[0:2], magicWord)
    buf[2] = h.Version
    buf[3] = h.Type
    binary.LittleEndian.PutUint32(buf[4:8], h.Flags)
    binary.LittleEndian.PutUint16(buf[8:10], h.Width)
    binary.LittleEndian.PutUint16(buf[10:12], h.Height)
    binary.LittleEndian.PutUint32(buf[12:16], h.PayloadLen)
    return buf, nil
}

// UnmarshalBinary decodes the header from a 16-byte buffer.
func (h *Header) UnmarshalBinary(buf []byte) error {
    if len(buf) < headerSize {
        return errors.New("short header")
    }
    if binary.LittleEndian.Uint16(buf[0:2]) != magicWord {
        return errors.New("bad magic")
    }
    h.Version = buf[2]
    h.Type = buf[3]
    h.Flags = binary.LittleEndian.Uint32(buf[4:8])
    h.Width = binary.LittleEndian.Uint16(buf[8:10])
    h.Height = binary.LittleEndian.Uint16(buf[10:12])
    h.PayloadLen = binary.LittleEndian.Uint32(buf[12:16])
    return nil
}
