package cell

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// ChallengeLen is the size of the random challenge in an AUTH_CHALLENGE cell.
const ChallengeLen = 32

// AuthMethod is an authentication method a responder offers in AUTH_CHALLENGE.
type AuthMethod uint16

const (
	AuthMethodRSASHA256TLSSecret   AuthMethod = 1
	AuthMethodEd25519SHA256RFC5705 AuthMethod = 3
)

func (m AuthMethod) String() string {
	switch m {
	case AuthMethodRSASHA256TLSSecret:
		return "RSA_SHA256_TLSSECRET"
	case AuthMethodEd25519SHA256RFC5705:
		return "ED25519_SHA256_RFC5705"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint16(m))
	}
}

// AuthChallengeCell is sent by a responder to offer the initiator a way to
// authenticate.
type AuthChallengeCell struct {
	CircID    uint32
	Challenge [ChallengeLen]byte
	Methods   []AuthMethod
}

// PackAuthChallenge encodes an AUTH_CHALLENGE cell. The challenge must be
// exactly ChallengeLen bytes.
func PackAuthChallenge(linkVersion uint16, methods []AuthMethod, challenge []byte) ([]byte, error) {
	if len(challenge) != ChallengeLen {
		return nil, fmt.Errorf("AUTH_CHALLENGE challenge should be %d bytes, but was %d: %w",
			ChallengeLen, len(challenge), ErrMalformedPayload)
	}
	c := &AuthChallengeCell{Methods: methods}
	copy(c.Challenge[:], challenge)
	return c.Pack(linkVersion)
}

func (c *AuthChallengeCell) Kind() Kind { return mustKind(CmdAuthChallenge) }

func (c *AuthChallengeCell) Pack(linkVersion uint16) ([]byte, error) {
	return defaultCodec.Pack(c, linkVersion)
}

func (c *AuthChallengeCell) Header() Header { return Header{c.CircID, CmdAuthChallenge} }

func (c *AuthChallengeCell) payload() ([]byte, error) {
	if len(c.Methods) > 0xFFFF {
		return nil, fmt.Errorf("AUTH_CHALLENGE cell can hold at most 65535 methods, but was given %d: %w",
			len(c.Methods), ErrMalformedPayload)
	}

	b := cryptobyte.NewBuilder(make([]byte, 0, ChallengeLen+2+2*len(c.Methods)))
	b.AddBytes(c.Challenge[:])
	b.AddUint16(uint16(len(c.Methods)))
	for _, m := range c.Methods {
		b.AddUint16(uint16(m))
	}
	return b.Bytes()
}

func unpackAuthChallenge(circID uint32, payload []byte) (Cell, error) {
	if len(payload) < ChallengeLen+2 {
		return nil, fmt.Errorf("AUTH_CHALLENGE cell should have a payload of %d bytes, but only had %d: %w",
			ChallengeLen+2, len(payload), ErrTruncated)
	}

	c := &AuthChallengeCell{CircID: circID}
	s := cryptobyte.String(payload)
	s.CopyBytes(c.Challenge[:])

	var count uint16
	s.ReadUint16(&count)
	if len(s) < 2*int(count) {
		return nil, fmt.Errorf("AUTH_CHALLENGE should have %d methods, but only had %d bytes for it: %w",
			count, len(s), ErrTruncated)
	}

	c.Methods = make([]AuthMethod, count)
	for i := range c.Methods {
		var m uint16
		s.ReadUint16(&m)
		c.Methods[i] = AuthMethod(m)
	}
	return c, nil
}
