package cell

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// DefaultWideCircIDVersion is the first link protocol version that uses
// 4-byte circuit IDs. Earlier versions use 2 bytes.
const DefaultWideCircIDVersion = 4

// Header is the prefix shared by every cell.
type Header struct {
	CircID  uint32
	Command Command
}

// CircIDLen returns the circuit ID width in bytes for linkVersion under the
// default codec.
func CircIDLen(linkVersion uint16) int {
	return defaultCodec.CircIDLen(linkVersion)
}

// HeaderLen returns the header size, circuit ID plus command, for linkVersion.
func HeaderLen(linkVersion uint16) int {
	return defaultCodec.CircIDLen(linkVersion) + 1
}

// ReadHeader decodes the header at the start of b, returning it with the
// number of bytes it occupied.
func ReadHeader(b []byte, linkVersion uint16) (Header, int, error) {
	return defaultCodec.ReadHeader(b, linkVersion)
}

// AppendHeader appends the encoding of h to b.
func AppendHeader(b []byte, h Header, linkVersion uint16) ([]byte, error) {
	return defaultCodec.AppendHeader(b, h, linkVersion)
}

func (c *Codec) CircIDLen(linkVersion uint16) int {
	if linkVersion < c.wideCircIDVersion() {
		return 2
	}
	return 4
}

func (c *Codec) ReadHeader(b []byte, linkVersion uint16) (Header, int, error) {
	s := cryptobyte.String(b)
	h, err := c.readHeader(&s, linkVersion)
	if err != nil {
		return Header{}, 0, err
	}
	return h, len(b) - len(s), nil
}

func (c *Codec) AppendHeader(b []byte, h Header, linkVersion uint16) ([]byte, error) {
	bb := cryptobyte.NewBuilder(b)
	if err := c.addHeader(bb, h, linkVersion); err != nil {
		return nil, err
	}
	return bb.Bytes()
}

func (c *Codec) readHeader(s *cryptobyte.String, linkVersion uint16) (Header, error) {
	want := c.CircIDLen(linkVersion) + 1
	if len(*s) < want {
		return Header{}, fmt.Errorf("cell header should be %d bytes for link protocol %d, but only had %d: %w",
			want, linkVersion, len(*s), ErrTruncated)
	}

	var h Header
	if want == 3 {
		var id uint16
		s.ReadUint16(&id)
		h.CircID = uint32(id)
	} else {
		s.ReadUint32(&h.CircID)
	}
	var cmd uint8
	s.ReadUint8(&cmd)
	h.Command = Command(cmd)
	return h, nil
}

func (c *Codec) addHeader(b *cryptobyte.Builder, h Header, linkVersion uint16) error {
	if c.CircIDLen(linkVersion) == 2 {
		if h.CircID > 0xFFFF {
			return fmt.Errorf("circuit ID %d doesn't fit in 2 bytes for link protocol %d: %w",
				h.CircID, linkVersion, ErrConflictingArguments)
		}
		b.AddUint16(uint16(h.CircID))
	} else {
		b.AddUint32(h.CircID)
	}
	b.AddUint8(uint8(h.Command))
	return nil
}
