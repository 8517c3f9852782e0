package cell

import (
	"fmt"
	"log/slog"

	"golang.org/x/crypto/cryptobyte"
)

// Codec packs and unpacks cells. The zero value is ready to use and holds no
// mutable state, so one Codec may be shared between goroutines.
type Codec struct {
	// WideCircIDVersion is the first link protocol version with 4-byte
	// circuit IDs. Zero means DefaultWideCircIDVersion.
	WideCircIDVersion uint16

	// MaxVarPayloadLen caps variable-length payloads on both pack and
	// unpack. Zero means only the 2-byte length field limits them.
	MaxVarPayloadLen int

	// Logger receives debug output from UnpackAll. Nil means slog.Default().
	Logger *slog.Logger
}

var defaultCodec = &Codec{}

func (c *Codec) wideCircIDVersion() uint16 {
	if c.WideCircIDVersion == 0 {
		return DefaultWideCircIDVersion
	}
	return c.WideCircIDVersion
}

func (c *Codec) maxVarPayloadLen() int {
	if c.MaxVarPayloadLen <= 0 || c.MaxVarPayloadLen > MaxVarPayloadLen {
		return MaxVarPayloadLen
	}
	return c.MaxVarPayloadLen
}

func (c *Codec) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

type decodeFunc func(circID uint32, payload []byte) (Cell, error)

// decoders holds the kinds that can be unpacked. Anything else in the
// catalog is recognized but fails with ErrNotImplemented.
var decoders = map[Command]decodeFunc{
	CmdPadding:       unpackPadding,
	CmdVersions:      unpackVersions,
	CmdVPadding:      unpackVPadding,
	CmdCerts:         unpackCerts,
	CmdAuthChallenge: unpackAuthChallenge,
}

// Unpack decodes the first cell in b using the default codec. It returns the
// cell and the number of bytes it occupied, so a stream of concatenated cells
// can be walked by advancing past each one.
func Unpack(b []byte, linkVersion uint16) (Cell, int, error) {
	return defaultCodec.Unpack(b, linkVersion)
}

// UnpackAll splits a stream of concatenated cells using the default codec.
func UnpackAll(b []byte, linkVersion uint16) ([]Cell, int, error) {
	return defaultCodec.UnpackAll(b, linkVersion)
}

func (c *Codec) Unpack(b []byte, linkVersion uint16) (Cell, int, error) {
	s := cryptobyte.String(b)
	h, err := c.readHeader(&s, linkVersion)
	if err != nil {
		return nil, 0, err
	}
	k, err := KindByValue(int(h.Command))
	if err != nil {
		return nil, 0, err
	}
	payload, err := c.readFrame(&s, k)
	if err != nil {
		return nil, 0, err
	}

	decode, ok := decoders[k.Command]
	if !ok {
		return nil, 0, fmt.Errorf("unpacking not yet implemented for %s cells: %w", k.Name, ErrNotImplemented)
	}
	cl, err := decode(h.CircID, payload)
	if err != nil {
		return nil, 0, err
	}
	return cl, len(b) - len(s), nil
}

// Pack encodes cl for linkVersion.
func (c *Codec) Pack(cl Cell, linkVersion uint16) ([]byte, error) {
	payload, err := cl.payload()
	if err != nil {
		return nil, err
	}

	b := cryptobyte.NewBuilder(make([]byte, 0, c.CircIDLen(linkVersion)+3+len(payload)))
	if err := c.addHeader(b, cl.Header(), linkVersion); err != nil {
		return nil, err
	}
	if err := c.addFrame(b, cl.Kind(), payload); err != nil {
		return nil, err
	}
	return b.Bytes()
}
