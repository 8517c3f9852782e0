// Package cell packs and unpacks Tor link-layer cells.
//
// Every cell starts with a circuit ID, 2 or 4 bytes depending on the link
// protocol version, and a one-byte command. Fixed-size kinds follow that with
// a FixedPayloadLen payload, variable-size kinds with a 2-byte length and that
// many payload bytes. All integers are big-endian.
package cell

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Cell is a decoded cell. The implementations are *PaddingCell,
// *VersionsCell, *VPaddingCell, *CertsCell and *AuthChallengeCell.
type Cell interface {
	Kind() Kind
	// Header returns the cell's circuit ID and command.
	Header() Header
	// Pack encodes the cell for linkVersion using the default codec.
	Pack(linkVersion uint16) ([]byte, error)

	payload() ([]byte, error)
}

func mustKind(cmd Command) Kind {
	k, ok := kindsByValue[cmd]
	if !ok {
		panic(fmt.Sprintf("cell: command %d missing from catalog", cmd))
	}
	return k
}

// PaddingCell is a fixed-size PADDING cell.
type PaddingCell struct {
	CircID  uint32
	Payload []byte
}

// PackPadding encodes a PADDING cell. The payload must be exactly
// FixedPayloadLen bytes.
func PackPadding(linkVersion uint16, payload []byte) ([]byte, error) {
	return (&PaddingCell{Payload: payload}).Pack(linkVersion)
}

func (c *PaddingCell) Kind() Kind { return mustKind(CmdPadding) }

func (c *PaddingCell) Pack(linkVersion uint16) ([]byte, error) {
	return defaultCodec.Pack(c, linkVersion)
}

func (c *PaddingCell) Header() Header           { return Header{c.CircID, CmdPadding} }
func (c *PaddingCell) payload() ([]byte, error) { return c.Payload, nil }

func unpackPadding(circID uint32, payload []byte) (Cell, error) {
	return &PaddingCell{CircID: circID, Payload: payload}, nil
}

// VersionsCell lists the link protocol versions its sender supports, in the
// sender's order.
type VersionsCell struct {
	CircID   uint32
	Versions []uint16
}

// PackVersions encodes a VERSIONS cell. VERSIONS cells are sent before a
// link protocol is agreed on, so they always use a 2-byte circuit ID.
func PackVersions(versions []uint16) ([]byte, error) {
	return (&VersionsCell{Versions: versions}).Pack(0)
}

func (c *VersionsCell) Kind() Kind { return mustKind(CmdVersions) }

func (c *VersionsCell) Pack(linkVersion uint16) ([]byte, error) {
	return defaultCodec.Pack(c, linkVersion)
}

func (c *VersionsCell) Header() Header { return Header{c.CircID, CmdVersions} }

func (c *VersionsCell) payload() ([]byte, error) {
	b := cryptobyte.NewBuilder(make([]byte, 0, 2*len(c.Versions)))
	for _, v := range c.Versions {
		b.AddUint16(v)
	}
	return b.Bytes()
}

func unpackVersions(circID uint32, payload []byte) (Cell, error) {
	if len(payload)%2 != 0 {
		return nil, fmt.Errorf("VERSIONS cell should have an even payload length, but had %d bytes: %w",
			len(payload), ErrMalformedPayload)
	}

	s := cryptobyte.String(payload)
	versions := make([]uint16, 0, len(payload)/2)
	for !s.Empty() {
		var v uint16
		s.ReadUint16(&v)
		versions = append(versions, v)
	}
	return &VersionsCell{CircID: circID, Versions: versions}, nil
}

// AnySize tells PackVPadding and NewVPaddingCell to take the size from the
// payload.
const AnySize = -1

// VPaddingCell is variable-length padding. Its payload carries no meaning.
type VPaddingCell struct {
	CircID  uint32
	Payload []byte
}

// NewVPaddingCell builds a VPADDING cell from a size, a payload, or both.
// A nil payload with a size gives that many zero bytes. A non-nil payload
// whose length differs from size is rejected with ErrConflictingArguments.
func NewVPaddingCell(size int, payload []byte) (*VPaddingCell, error) {
	switch {
	case size == AnySize:
		payload = bytes.Clone(payload)
	case size < 0:
		return nil, fmt.Errorf("VPADDING cell size can't be negative, but was %d: %w", size, ErrMalformedPayload)
	case size > MaxVarPayloadLen:
		return nil, fmt.Errorf("VPADDING cell size of %d bytes exceeds the %d byte limit: %w",
			size, MaxVarPayloadLen, ErrMalformedPayload)
	case payload == nil:
		payload = make([]byte, size)
	case len(payload) != size:
		return nil, fmt.Errorf("VPADDING caller specified both a size of %d bytes and a payload of %d bytes: %w",
			size, len(payload), ErrConflictingArguments)
	default:
		payload = bytes.Clone(payload)
	}
	if payload == nil {
		payload = []byte{}
	}
	return &VPaddingCell{Payload: payload}, nil
}

// PackVPadding encodes a VPADDING cell, see NewVPaddingCell for how size and
// payload combine.
func PackVPadding(linkVersion uint16, size int, payload []byte) ([]byte, error) {
	c, err := NewVPaddingCell(size, payload)
	if err != nil {
		return nil, err
	}
	return c.Pack(linkVersion)
}

func (c *VPaddingCell) Kind() Kind { return mustKind(CmdVPadding) }

func (c *VPaddingCell) Pack(linkVersion uint16) ([]byte, error) {
	return defaultCodec.Pack(c, linkVersion)
}

func (c *VPaddingCell) Header() Header           { return Header{c.CircID, CmdVPadding} }
func (c *VPaddingCell) payload() ([]byte, error) { return c.Payload, nil }

func unpackVPadding(circID uint32, payload []byte) (Cell, error) {
	return &VPaddingCell{CircID: circID, Payload: payload}, nil
}
