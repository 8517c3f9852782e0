package link

import (
	"fmt"
	"log/slog"

	"github.com/cvsouth/tor-cell/cell"
)

// checkCerts rejects a CERTS cell that lists more than one certificate of
// the same type. Certificate contents are not inspected.
func checkCerts(c *cell.CertsCell, logger *slog.Logger) error {
	logger.Debug("certs cell", "n_certs", len(c.Certificates))

	seen := make(map[cell.CertType]int, len(c.Certificates))
	for i, cert := range c.Certificates {
		logger.Debug("cert entry", "index", i, "type", cert.Type, "len", len(cert.Value))
		if first, dup := seen[cert.Type]; dup {
			return fmt.Errorf("certificates %d and %d are both %s: %w", first, i, cert.Type, ErrDuplicateCertType)
		}
		seen[cert.Type] = i
	}
	return nil
}

// Cert returns the responder's certificate of type t, if it sent one.
func (p *Preamble) Cert(t cell.CertType) (cell.Certificate, bool) {
	if p.Certs == nil {
		return cell.Certificate{}, false
	}
	for _, cert := range p.Certs.Certificates {
		if cert.Type == t {
			return cert, true
		}
	}
	return cell.Certificate{}, false
}
