package link

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/cvsouth/tor-cell/cell"
)

var testChallenge = bytes.Repeat([]byte{0x5A}, cell.ChallengeLen)

func mustPack(b []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return b
}

func netinfoCell(t *testing.T, version uint16) []byte {
	t.Helper()
	b, err := cell.AppendHeader(nil, cell.Header{Command: cell.CmdNetInfo}, version)
	if err != nil {
		t.Fatal(err)
	}
	return append(b, make([]byte, cell.FixedPayloadLen)...)
}

// buildResponderStream returns a responder's handshake as it arrives on the
// wire, up to but not including NETINFO.
func buildResponderStream(t *testing.T, versions []uint16, version uint16) []byte {
	t.Helper()
	return slices.Concat(
		mustPack(cell.PackVersions(versions)),
		mustPack(cell.PackVPadding(version, 3, nil)),
		mustPack(cell.PackCerts(version, []cell.Certificate{
			{Type: cell.CertTypeEd25519Signing, Value: []byte("signing cert")},
			{Type: cell.CertTypeLinkCert, Value: []byte("link cert")},
		})),
		mustPack(cell.PackPadding(version, make([]byte, cell.FixedPayloadLen))),
		mustPack(cell.PackAuthChallenge(version,
			[]cell.AuthMethod{cell.AuthMethodRSASHA256TLSSecret, cell.AuthMethodEd25519SHA256RFC5705}, testChallenge)),
	)
}

func TestNegotiateVersion(t *testing.T) {
	tests := []struct {
		theirs []uint16
		want   uint16
	}{
		{[]uint16{3, 4, 5}, 5},
		{[]uint16{5, 4}, 5},
		{[]uint16{1, 2, 3, 4}, 4},
	}
	for _, tt := range tests {
		got, err := NegotiateVersion([]uint16{4, 5}, tt.theirs)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Fatalf("NegotiateVersion(%v): got %d, want %d", tt.theirs, got, tt.want)
		}
	}

	if _, err := NegotiateVersion([]uint16{4, 5}, []uint16{1, 2, 3}); !errors.Is(err, ErrNoCommonVersion) {
		t.Fatalf("expected ErrNoCommonVersion, got %v", err)
	}
	if _, err := NegotiateVersion([]uint16{4, 5}, nil); !errors.Is(err, ErrNoCommonVersion) {
		t.Fatalf("expected ErrNoCommonVersion, got %v", err)
	}
}

func TestParsePreamble(t *testing.T) {
	preamble := buildResponderStream(t, []uint16{3, 4, 5}, 5)
	stream := slices.Concat(preamble, netinfoCell(t, 5))

	p, offset, err := ParsePreamble(stream, nil, newTestLogger())
	if err != nil {
		t.Fatal(err)
	}
	if offset != len(preamble) {
		t.Fatalf("offset: got %d, want %d", offset, len(preamble))
	}
	if p.Version != 5 {
		t.Fatalf("version: got %d, want 5", p.Version)
	}
	if !slices.Equal(p.Versions, []uint16{3, 4, 5}) {
		t.Fatalf("versions: got %v", p.Versions)
	}
	if len(p.Certs.Certificates) != 2 {
		t.Fatalf("got %d certificates", len(p.Certs.Certificates))
	}
	if !bytes.Equal(p.AuthChallenge.Challenge[:], testChallenge) {
		t.Fatal("challenge mismatch")
	}
	if len(p.AuthChallenge.Methods) != 2 || p.AuthChallenge.Methods[1] != cell.AuthMethodEd25519SHA256RFC5705 {
		t.Fatalf("methods: got %v", p.AuthChallenge.Methods)
	}

	// The rest of the stream is the responder's NETINFO, which the codec
	// recognizes but does not decode.
	_, _, err = cell.Unpack(stream[offset:], p.Version)
	if !errors.Is(err, cell.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented for NETINFO, got %v", err)
	}
}

func TestParsePreambleNarrowCircIDs(t *testing.T) {
	stream := buildResponderStream(t, []uint16{2, 3}, 3)
	p, offset, err := ParsePreamble(stream, []uint16{1, 2, 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Version != 3 || offset != len(stream) {
		t.Fatalf("version %d, offset %d of %d", p.Version, offset, len(stream))
	}
}

func TestParsePreambleNoCommonVersion(t *testing.T) {
	stream := buildResponderStream(t, []uint16{1, 2, 3}, 3)
	if _, _, err := ParsePreamble(stream, nil, nil); !errors.Is(err, ErrNoCommonVersion) {
		t.Fatalf("expected ErrNoCommonVersion, got %v", err)
	}
}

func TestParsePreambleUnexpectedCell(t *testing.T) {
	// Responder skips CERTS.
	stream := slices.Concat(
		mustPack(cell.PackVersions([]uint16{4})),
		mustPack(cell.PackAuthChallenge(4, nil, testChallenge)),
	)
	_, _, err := ParsePreamble(stream, nil, nil)
	if !errors.Is(err, ErrUnexpectedCell) {
		t.Fatalf("expected ErrUnexpectedCell, got %v", err)
	}

	// First cell isn't VERSIONS.
	stream = mustPack(cell.PackVPadding(0, cell.AnySize, []byte{0x01}))
	_, _, err = ParsePreamble(stream, nil, nil)
	if !errors.Is(err, ErrUnexpectedCell) {
		t.Fatalf("expected ErrUnexpectedCell, got %v", err)
	}
}

func TestParsePreambleTruncated(t *testing.T) {
	stream := buildResponderStream(t, []uint16{4, 5}, 5)
	_, _, err := ParsePreamble(stream[:len(stream)-1], nil, nil)
	if !errors.Is(err, cell.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestParsePreambleTooMuchPadding(t *testing.T) {
	pad := mustPack(cell.PackVPadding(4, 0, nil))
	stream := mustPack(cell.PackVersions([]uint16{4}))
	for i := 0; i < maxPaddingCells+1; i++ {
		stream = append(stream, pad...)
	}
	_, _, err := ParsePreamble(stream, nil, nil)
	if !errors.Is(err, ErrTooMuchPadding) {
		t.Fatalf("expected ErrTooMuchPadding, got %v", err)
	}
}
