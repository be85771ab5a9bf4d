package remote

import (
	"fmt"

	"github.com/vango-dev/arbor/internal/errors"
)

// PatchOp identifies a patch operation.
type PatchOp uint8

const (
	OpCreateLeaf    PatchOp = 0x01 // Node, Name=tag, Value=namespace
	OpCreateText    PatchOp = 0x02 // Node, Value=content
	OpCreateComment PatchOp = 0x03 // Node, Value=content
	OpSetText       PatchOp = 0x04 // Node, Value=content
	OpSetClass      PatchOp = 0x05 // Node, Value=class ("" removes)
	OpSetStyle      PatchOp = 0x06 // Node, Name=property, Value ("" removes)
	OpSetAttr       PatchOp = 0x07 // Node, Name=attribute, Value ("" removes)
	OpSetEvent      PatchOp = 0x08 // Node, Name=event, Flag=attached
	OpInsert        PatchOp = 0x09 // Node, Parent, Before (0 appends)
	OpRemove        PatchOp = 0x0A // Node
)

var opNames = map[PatchOp]string{
	OpCreateLeaf:    "CreateLeaf",
	OpCreateText:    "CreateText",
	OpCreateComment: "CreateComment",
	OpSetText:       "SetText",
	OpSetClass:      "SetClass",
	OpSetStyle:      "SetStyle",
	OpSetAttr:       "SetAttr",
	OpSetEvent:      "SetEvent",
	OpInsert:        "Insert",
	OpRemove:        "Remove",
}

// String returns the operation name.
func (op PatchOp) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(0x%02x)", uint8(op))
}

// Patch is one host change. Node, Parent and Before are node IDs.
type Patch struct {
	Op     PatchOp
	Node   int
	Parent int
	Before int
	Name   string
	Value  string
	Flag   bool
}

func (p Patch) String() string {
	switch p.Op {
	case OpInsert:
		return fmt.Sprintf("Insert #%d into #%d before #%d", p.Node, p.Parent, p.Before)
	case OpRemove:
		return fmt.Sprintf("Remove #%d", p.Node)
	case OpSetEvent:
		return fmt.Sprintf("SetEvent #%d %s=%t", p.Node, p.Name, p.Flag)
	case OpCreateLeaf, OpSetStyle, OpSetAttr:
		return fmt.Sprintf("%s #%d %s %q", p.Op, p.Node, p.Name, p.Value)
	default:
		return fmt.Sprintf("%s #%d %q", p.Op, p.Node, p.Value)
	}
}

// EncodePatches appends a patch batch to e.
func EncodePatches(e *Encoder, patches []Patch) {
	e.WriteUvarint(uint64(len(patches)))
	for _, p := range patches {
		e.WriteByte(byte(p.Op))
		e.WriteUvarint(uint64(p.Node))
		switch p.Op {
		case OpCreateLeaf, OpSetStyle, OpSetAttr:
			e.WriteString(p.Name)
			e.WriteString(p.Value)
		case OpCreateText, OpCreateComment, OpSetText, OpSetClass:
			e.WriteString(p.Value)
		case OpSetEvent:
			e.WriteString(p.Name)
			e.WriteBool(p.Flag)
		case OpInsert:
			e.WriteUvarint(uint64(p.Parent))
			e.WriteUvarint(uint64(p.Before))
		}
	}
}

// DecodePatches reads a patch batch written by EncodePatches.
func DecodePatches(d *Decoder) ([]Patch, error) {
	count, err := d.ReadCount()
	if err != nil {
		return nil, err
	}
	patches := make([]Patch, 0, count)
	for i := 0; i < count; i++ {
		p, err := decodePatch(d)
		if err != nil {
			return nil, fmt.Errorf("patch %d: %w", i, err)
		}
		patches = append(patches, p)
	}
	return patches, nil
}

func decodePatch(d *Decoder) (Patch, error) {
	var p Patch
	op, err := d.ReadByte()
	if err != nil {
		return p, err
	}
	p.Op = PatchOp(op)
	if p.Node, err = d.ReadInt(); err != nil {
		return p, err
	}

	switch p.Op {
	case OpCreateLeaf, OpSetStyle, OpSetAttr:
		if p.Name, err = d.ReadString(); err != nil {
			return p, err
		}
		p.Value, err = d.ReadString()
	case OpCreateText, OpCreateComment, OpSetText, OpSetClass:
		p.Value, err = d.ReadString()
	case OpSetEvent:
		if p.Name, err = d.ReadString(); err != nil {
			return p, err
		}
		p.Flag, err = d.ReadBool()
	case OpInsert:
		if p.Parent, err = d.ReadInt(); err != nil {
			return p, err
		}
		p.Before, err = d.ReadInt()
	case OpRemove:
	default:
		return p, errors.New("E042").WithDetailf("unknown patch op 0x%02x", op)
	}
	return p, err
}
