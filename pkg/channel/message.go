// Package channel implements the binary framing of the node's channel
// protocol.
//
// Every frame starts with a 42-byte header:
//
//	offset  size  field
//	0       4     total length, big-endian, header included
//	4       2     message type, big-endian
//	6       32    correlation id, ASCII hex
//	38      4     reserved, zero on send
//
// followed by the payload.
package channel

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// HeaderLen is the fixed size of a frame header.
const HeaderLen = 42

const idLen = 32

// MessageType identifies the payload of a frame.
type MessageType uint16

const (
	TypeRPCRequest             MessageType = 0x0012
	TypeClientRegisterEventLog MessageType = 0x0015
	TypeAMOPClientTopics       MessageType = 0x0032
	TypeBlockNotify            MessageType = 0x1001
	TypeEventLogPush           MessageType = 0x1002
)

func (t MessageType) String() string {
	switch t {
	case TypeRPCRequest:
		return "RpcRequest"
	case TypeClientRegisterEventLog:
		return "ClientRegisterEventLog"
	case TypeAMOPClientTopics:
		return "AMOPClientTopics"
	case TypeBlockNotify:
		return "BlockNotify"
	case TypeEventLogPush:
		return "EventLogPush"
	default:
		return fmt.Sprintf("MessageType(0x%04x)", uint16(t))
	}
}

// ErrMalformedFrame is returned for frames whose header or length field is
// inconsistent with the bytes received.
var ErrMalformedFrame = errors.New("malformed channel frame")

// Message is one decoded frame.
type Message struct {
	Type     MessageType
	ID       string
	Reserved uint32
	Data     []byte
}

// NewMessage wraps data in a frame of type t with a fresh correlation id.
func NewMessage(t MessageType, data []byte) *Message {
	return &Message{
		Type: t,
		ID:   NewID(),
		Data: data,
	}
}

// NewID returns a random 32 character hex identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Len is the value written to the length field.
func (m *Message) Len() int {
	return HeaderLen + len(m.Data)
}

// Encode renders m as header followed by payload. An id of the wrong length
// is replaced with a fresh one.
func (m *Message) Encode() []byte {
	if len(m.ID) != idLen {
		m.ID = NewID()
	}

	buf := make([]byte, m.Len())
	binary.BigEndian.PutUint32(buf[0:4], uint32(m.Len()))
	binary.BigEndian.PutUint16(buf[4:6], uint16(m.Type))
	copy(buf[6:38], m.ID)
	binary.BigEndian.PutUint32(buf[38:42], m.Reserved)
	copy(buf[HeaderLen:], m.Data)
	return buf
}

// Encode is a shorthand for NewMessage(t, data).Encode().
func Encode(t MessageType, data []byte) []byte {
	return NewMessage(t, data).Encode()
}

// Decode parses a complete frame.
func Decode(raw []byte) (*Message, error) {
	if len(raw) < HeaderLen {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformedFrame, len(raw))
	}
	length := binary.BigEndian.Uint32(raw[0:4])
	if int(length) != len(raw) {
		return nil, fmt.Errorf("%w: length field %d, got %d bytes", ErrMalformedFrame, length, len(raw))
	}

	data := make([]byte, len(raw)-HeaderLen)
	copy(data, raw[HeaderLen:])
	return &Message{
		Type:     MessageType(binary.BigEndian.Uint16(raw[4:6])),
		ID:       string(raw[6:38]),
		Reserved: binary.BigEndian.Uint32(raw[38:42]),
		Data:     data,
	}, nil
}

// ReadMessage reads exactly one frame from r: four bytes of length first,
// then the remaining length-4 bytes. Partial reads are reassembled.
func ReadMessage(r io.Reader) (*Message, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, errors.Wrap(err, "read frame length")
	}

	length := binary.BigEndian.Uint32(prefix[:])
	if length < HeaderLen {
		return nil, fmt.Errorf("%w: length field %d is shorter than the header", ErrMalformedFrame, length)
	}

	raw := make([]byte, length)
	copy(raw, prefix[:])
	if _, err := io.ReadFull(r, raw[4:]); err != nil {
		return nil, errors.Wrap(err, "read frame body")
	}
	return Decode(raw)
}

// WriteMessage writes the whole frame to w.
func WriteMessage(w io.Writer, m *Message) error {
	raw := m.Encode()
	n, err := w.Write(raw)
	if err != nil {
		return errors.Wrap(err, "write frame")
	}
	if n != len(raw) {
		return errors.Wrap(io.ErrShortWrite, "write frame")
	}
	return nil
}
