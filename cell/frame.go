package cell

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

const (
	// FixedPayloadLen is the payload size of every fixed-size cell.
	FixedPayloadLen = 509
	// MaxVarPayloadLen is the largest payload a 2-byte length field can declare.
	MaxVarPayloadLen = 0xFFFF
)

// addFrame appends the payload framed for k: verbatim for fixed-size kinds,
// behind a 2-byte length for variable-size ones.
func (c *Codec) addFrame(b *cryptobyte.Builder, k Kind, payload []byte) error {
	if k.FixedSize {
		if len(payload) != FixedPayloadLen {
			return fmt.Errorf("%s cell payload should be %d bytes, but was %d: %w",
				k.Name, FixedPayloadLen, len(payload), ErrMalformedPayload)
		}
		b.AddBytes(payload)
		return nil
	}

	if limit := c.maxVarPayloadLen(); len(payload) > limit {
		return fmt.Errorf("%s cell payload of %d bytes exceeds the %d byte limit: %w",
			k.Name, len(payload), limit, ErrMalformedPayload)
	}
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(payload)
	})
	return nil
}

// readFrame consumes the payload of a k cell from s. The returned slice is a
// copy and does not alias the input.
func (c *Codec) readFrame(s *cryptobyte.String, k Kind) ([]byte, error) {
	var payload []byte
	if k.FixedSize {
		if !s.ReadBytes(&payload, FixedPayloadLen) {
			return nil, fmt.Errorf("%s cell should have a payload of %d bytes, but only had %d: %w",
				k.Name, FixedPayloadLen, len(*s), ErrTruncated)
		}
		return bytes.Clone(payload), nil
	}

	var n uint16
	if !s.ReadUint16(&n) {
		return nil, fmt.Errorf("%s cell should have a 2 byte payload length, but only had %d: %w",
			k.Name, len(*s), ErrTruncated)
	}
	if limit := c.maxVarPayloadLen(); int(n) > limit {
		return nil, fmt.Errorf("%s cell payload of %d bytes exceeds the %d byte limit: %w",
			k.Name, n, limit, ErrMalformedPayload)
	}
	if !s.ReadBytes(&payload, int(n)) {
		return nil, fmt.Errorf("%s cell should have a payload of %d bytes, but only had %d: %w",
			k.Name, n, len(*s), ErrTruncated)
	}
	return bytes.Clone(payload), nil
}
