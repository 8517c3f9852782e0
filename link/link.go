// Package link interprets the cells a responder sends at the start of a Tor
// link handshake. It works on bytes already read from the connection and does
// no I/O of its own.
package link

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cvsouth/tor-cell/cell"
)

// SupportedVersions are the link protocol versions offered by default.
var SupportedVersions = []uint16{4, 5}

var (
	ErrNoCommonVersion   = errors.New("no common link protocol version")
	ErrUnexpectedCell    = errors.New("unexpected cell")
	ErrTooMuchPadding    = errors.New("too much padding")
	ErrDuplicateCertType = errors.New("duplicate certificate type")
)

// maxPaddingCells bounds how many PADDING/VPADDING cells are skipped while
// waiting for the next handshake cell.
const maxPaddingCells = 100

// Preamble holds the responder cells that precede its NETINFO.
type Preamble struct {
	// Versions is the responder's VERSIONS list in the order it was sent.
	Versions []uint16

	// Version is the negotiated link protocol version.
	Version uint16

	Certs         *cell.CertsCell
	AuthChallenge *cell.AuthChallengeCell
}

// NegotiateVersion returns the highest version present in both lists.
func NegotiateVersion(ours, theirs []uint16) (uint16, error) {
	supported := make(map[uint16]bool, len(ours))
	for _, v := range ours {
		supported[v] = true
	}
	var best uint16
	for _, v := range theirs {
		if supported[v] && v > best {
			best = v
		}
	}
	if best == 0 {
		return 0, fmt.Errorf("we offered %v, responder offered %v: %w", ours, theirs, ErrNoCommonVersion)
	}
	return best, nil
}

// ParsePreamble reads VERSIONS, CERTS and AUTH_CHALLENGE from the start of b,
// negotiating the link version against ours (SupportedVersions if empty).
// It returns the preamble and the offset of the first byte after
// AUTH_CHALLENGE, where the responder's NETINFO normally begins.
func ParsePreamble(b []byte, ours []uint16, logger *slog.Logger) (*Preamble, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(ours) == 0 {
		ours = SupportedVersions
	}

	// VERSIONS always uses 2-byte circuit IDs.
	c, n, err := cell.Unpack(b, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("read VERSIONS: %w", err)
	}
	versionsCell, ok := c.(*cell.VersionsCell)
	if !ok {
		return nil, 0, fmt.Errorf("expected VERSIONS, got %s: %w", c.Kind(), ErrUnexpectedCell)
	}
	logger.Debug("received VERSIONS", "versions", versionsCell.Versions)

	negotiated, err := NegotiateVersion(ours, versionsCell.Versions)
	if err != nil {
		return nil, 0, err
	}
	logger.Debug("version negotiated", "version", negotiated)

	p := &Preamble{Versions: versionsCell.Versions, Version: negotiated}
	offset := n

	c, n, err = readExpectedCell(b[offset:], negotiated, cell.CmdCerts, logger)
	if err != nil {
		return nil, 0, fmt.Errorf("read CERTS: %w", err)
	}
	offset += n
	p.Certs = c.(*cell.CertsCell)
	if err := checkCerts(p.Certs, logger); err != nil {
		return nil, 0, fmt.Errorf("check CERTS: %w", err)
	}

	c, n, err = readExpectedCell(b[offset:], negotiated, cell.CmdAuthChallenge, logger)
	if err != nil {
		return nil, 0, fmt.Errorf("read AUTH_CHALLENGE: %w", err)
	}
	offset += n
	p.AuthChallenge = c.(*cell.AuthChallengeCell)
	logger.Debug("received AUTH_CHALLENGE", "methods", p.AuthChallenge.Methods)

	return p, offset, nil
}

// readExpectedCell skips PADDING/VPADDING cells until it reaches the expected
// command, returning that cell and the bytes consumed including padding.
func readExpectedCell(b []byte, version uint16, expected cell.Command, logger *slog.Logger) (cell.Cell, int, error) {
	offset := 0
	for i := 0; i < maxPaddingCells; i++ {
		h, _, err := cell.ReadHeader(b[offset:], version)
		if err != nil {
			return nil, 0, err
		}
		if h.Command != expected && h.Command != cell.CmdPadding && h.Command != cell.CmdVPadding {
			return nil, 0, fmt.Errorf("expected %s, got %s: %w", expected, h.Command, ErrUnexpectedCell)
		}

		c, n, err := cell.Unpack(b[offset:], version)
		if err != nil {
			return nil, 0, err
		}
		offset += n
		if h.Command == expected {
			return c, offset, nil
		}
		logger.Debug("skipping padding cell", "command", h.Command, "size", n)
	}
	return nil, 0, fmt.Errorf("more than %d padding cells before %s: %w", maxPaddingCells, expected, ErrTooMuchPadding)
}
