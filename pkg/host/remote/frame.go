package remote

import (
	"io"

	"github.com/vango-dev/arbor/internal/errors"
)

// MaxPayloadSize is the largest frame payload accepted (4MB).
const MaxPayloadSize = 4 << 20

// FrameType identifies the content of a frame.
type FrameType uint8

const (
	FrameInit    FrameType = 0x00 // Server → Client session setup
	FramePatches FrameType = 0x01 // Server → Client patch batch
	FrameEvent   FrameType = 0x02 // Client → Server event
	FrameError   FrameType = 0x03 // Either direction
)

// String returns the frame type name.
func (ft FrameType) String() string {
	switch ft {
	case FrameInit:
		return "Init"
	case FramePatches:
		return "Patches"
	case FrameEvent:
		return "Event"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Frame is a typed payload.
type Frame struct {
	Type    FrameType
	Payload []byte
}

// Encode returns the wire form of f.
func (f *Frame) Encode() []byte {
	e := NewEncoder()
	e.WriteByte(byte(f.Type))
	e.WriteUvarint(uint64(len(f.Payload)))
	e.buf = append(e.buf, f.Payload...)
	return e.Bytes()
}

// DecodeFrame decodes a complete frame.
func DecodeFrame(data []byte) (*Frame, error) {
	d := NewDecoder(data)
	ft, err := d.ReadByte()
	if err != nil {
		return nil, errors.New("E042").Wrap(err)
	}
	length, err := d.ReadUvarint()
	if err != nil {
		return nil, errors.New("E042").Wrap(err)
	}
	if length > MaxPayloadSize {
		return nil, errors.New("E042").WithDetailf("payload of %d bytes exceeds %d", length, MaxPayloadSize)
	}
	if length != uint64(d.Remaining()) {
		return nil, errors.New("E042").Wrap(io.ErrUnexpectedEOF)
	}
	payload := make([]byte, length)
	copy(payload, data[d.pos:])
	return &Frame{Type: FrameType(ft), Payload: payload}, nil
}

// Init is the first frame of a session.
type Init struct {
	RootID    int
	SessionID string
}

// Event is a client interaction with a node.
type Event struct {
	Node  int
	Name  string
	Value string
}

// InitFrame encodes an Init frame.
func InitFrame(init Init) *Frame {
	e := NewEncoder()
	e.WriteUvarint(uint64(init.RootID))
	e.WriteString(init.SessionID)
	return &Frame{Type: FrameInit, Payload: e.Bytes()}
}

// PatchFrame encodes a patch batch frame.
func PatchFrame(patches []Patch) *Frame {
	e := NewEncoder()
	EncodePatches(e, patches)
	return &Frame{Type: FramePatches, Payload: e.Bytes()}
}

// EventFrame encodes an event frame.
func EventFrame(ev Event) *Frame {
	e := NewEncoder()
	e.WriteUvarint(uint64(ev.Node))
	e.WriteString(ev.Name)
	e.WriteString(ev.Value)
	return &Frame{Type: FrameEvent, Payload: e.Bytes()}
}

// ErrorFrame encodes an error frame.
func ErrorFrame(code, message string) *Frame {
	e := NewEncoder()
	e.WriteString(code)
	e.WriteString(message)
	return &Frame{Type: FrameError, Payload: e.Bytes()}
}

// DecodeInit decodes the payload of an Init frame.
func DecodeInit(payload []byte) (Init, error) {
	var init Init
	d := NewDecoder(payload)
	var err error
	if init.RootID, err = d.ReadInt(); err != nil {
		return init, errors.New("E042").Wrap(err)
	}
	if init.SessionID, err = d.ReadString(); err != nil {
		return init, errors.New("E042").Wrap(err)
	}
	return init, nil
}

// DecodeEvent decodes the payload of an Event frame.
func DecodeEvent(payload []byte) (Event, error) {
	var ev Event
	d := NewDecoder(payload)
	var err error
	if ev.Node, err = d.ReadInt(); err != nil {
		return ev, errors.New("E042").Wrap(err)
	}
	if ev.Name, err = d.ReadString(); err != nil {
		return ev, errors.New("E042").Wrap(err)
	}
	if ev.Value, err = d.ReadString(); err != nil {
		return ev, errors.New("E042").Wrap(err)
	}
	return ev, nil
}

// DecodePatchFrame decodes the payload of a Patches frame.
func DecodePatchFrame(payload []byte) ([]Patch, error) {
	patches, err := DecodePatches(NewDecoder(payload))
	if err != nil {
		if errors.HasCode(err, "E042") {
			return nil, err
		}
		return nil, errors.New("E042").Wrap(err)
	}
	return patches, nil
}

// DecodeError decodes the payload of an Error frame.
func DecodeError(payload []byte) (code, message string, err error) {
	d := NewDecoder(payload)
	if code, err = d.ReadString(); err != nil {
		return "", "", errors.New("E042").Wrap(err)
	}
	if message, err = d.ReadString(); err != nil {
		return "", "", errors.New("E042").Wrap(err)
	}
	return code, message, nil
}
