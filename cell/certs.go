package cell

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// CertType identifies the kind of certificate in a CERTS cell.
type CertType uint8

// Certificate types, tor-spec section 4.2.
const (
	CertTypeLink                CertType = 1 // link key signed by RSA identity
	CertTypeIdentity            CertType = 2 // self-signed RSA identity
	CertTypeAuthenticate        CertType = 3 // RSA AUTHENTICATE key
	CertTypeEd25519Signing      CertType = 4 // Ed25519 signing key, signed by identity
	CertTypeLinkCert            CertType = 5 // TLS link cert, signed by signing key
	CertTypeEd25519Authenticate CertType = 6 // Ed25519 AUTHENTICATE key
	CertTypeEd25519Identity     CertType = 7 // Ed25519 identity, cross-signed by RSA identity
)

var certTypeNames = map[CertType]string{
	CertTypeLink:                "LINK",
	CertTypeIdentity:            "IDENTITY",
	CertTypeAuthenticate:        "AUTHENTICATE",
	CertTypeEd25519Signing:      "ED25519_SIGNING",
	CertTypeLinkCert:            "LINK_CERT",
	CertTypeEd25519Authenticate: "ED25519_AUTHENTICATE",
	CertTypeEd25519Identity:     "ED25519_IDENTITY",
}

func (t CertType) String() string {
	if s, ok := certTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
}

// Certificate is one entry of a CERTS cell. Value is opaque to this package.
type Certificate struct {
	Type  CertType
	Value []byte
}

// CertsCell carries the certificates a relay presents during the link
// handshake, in the order they were sent.
type CertsCell struct {
	CircID       uint32
	Certificates []Certificate
}

// PackCerts encodes a CERTS cell.
func PackCerts(linkVersion uint16, certs []Certificate) ([]byte, error) {
	return (&CertsCell{Certificates: certs}).Pack(linkVersion)
}

func (c *CertsCell) Kind() Kind { return mustKind(CmdCerts) }

func (c *CertsCell) Pack(linkVersion uint16) ([]byte, error) {
	return defaultCodec.Pack(c, linkVersion)
}

func (c *CertsCell) Header() Header { return Header{c.CircID, CmdCerts} }

func (c *CertsCell) payload() ([]byte, error) {
	if len(c.Certificates) > 0xFF {
		return nil, fmt.Errorf("CERTS cell can hold at most 255 certificates, but was given %d: %w",
			len(c.Certificates), ErrMalformedPayload)
	}

	b := cryptobyte.NewBuilder(nil)
	b.AddUint8(uint8(len(c.Certificates)))
	for i, cert := range c.Certificates {
		if len(cert.Value) > 0xFFFF {
			return nil, fmt.Errorf("CERTS cell certificate %d is %d bytes, but at most 65535 fit: %w",
				i, len(cert.Value), ErrMalformedPayload)
		}
		b.AddUint8(uint8(cert.Type))
		b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
			b.AddBytes(cert.Value)
		})
	}
	return b.Bytes()
}

// unpackCerts reads the declared number of certificates. Bytes after the last
// one are ignored.
func unpackCerts(circID uint32, payload []byte) (Cell, error) {
	s := cryptobyte.String(payload)
	var count uint8
	if !s.ReadUint8(&count) {
		return nil, fmt.Errorf("CERTS cell should have a payload of at least 1 byte, but was empty: %w", ErrTruncated)
	}

	certs := make([]Certificate, 0, count)
	for len(certs) < int(count) {
		if s.Empty() {
			return nil, fmt.Errorf("CERTS cell indicates it should have %d certificates, but only contained %d: %w",
				count, len(certs), ErrTruncated)
		}
		if len(s) < 3 {
			return nil, fmt.Errorf("CERTS cell should have a 3 byte certificate header, but only had %d remaining: %w",
				len(s), ErrTruncated)
		}

		var typ uint8
		var size uint16
		s.ReadUint8(&typ)
		s.ReadUint16(&size)

		var value []byte
		if !s.ReadBytes(&value, int(size)) {
			return nil, fmt.Errorf("CERTS cell should have a certificate with %d bytes, but only had %d remaining: %w",
				size, len(s), ErrTruncated)
		}
		certs = append(certs, Certificate{Type: CertType(typ), Value: value})
	}
	return &CertsCell{CircID: circID, Certificates: certs}, nil
}
