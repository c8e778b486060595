package wire

// Message types (fits in uint8)
const (
    MsgUnknown uint8 = iota
    MsgHello         // channel parameter check after connect
    MsgDataFrame     // one full frame of int16 samples
    MsgControlQuit   // disconnect marker
)

// QuitMarker is the u32 payload of a MsgControlQuit envelope. The value is
// a marker, not interpreted beyond "disconnect now".
const QuitMarker uint32 = 1

// Flags bitmask (uint32); reserved for future use, kept for header layout
// stability.
const (
    FlagAck uint32 = 1 << 0
)
