package transport

import (
	"fmt"
	"net"
	"os"

	"github.com/tjfoc/gmsm/gmtls"
	"github.com/tjfoc/gmsm/x509"
)

func nationalHandshake(conf Config) (func(*net.Dialer, string) (net.Conn, error), error) {
	caPEM, err := os.ReadFile(conf.CACert)
	if err != nil {
		return nil, fmt.Errorf("read ca cert: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no certificate found in %s", conf.CACert)
	}

	sign, err := gmtls.LoadX509KeyPair(conf.SignCert, conf.SignKey)
	if err != nil {
		return nil, fmt.Errorf("load sign key pair: %w", err)
	}
	enc, err := gmtls.LoadX509KeyPair(conf.EncCert, conf.EncKey)
	if err != nil {
		return nil, fmt.Errorf("load enc key pair: %w", err)
	}

	tlsConf := &gmtls.Config{
		GMSupport:    gmtls.NewGMSupport(),
		Certificates: []gmtls.Certificate{sign, enc},
		// Node certificates are not issued for a host name; the chain is
		// checked against the CA in VerifyPeerCertificate instead.
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: verifyNationalChain(pool),
	}

	return func(dialer *net.Dialer, addr string) (net.Conn, error) {
		return gmtls.DialWithDialer(dialer, "tcp", addr, tlsConf)
	}, nil
}

func verifyNationalChain(roots *x509.CertPool) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("tls: node presented no certificate")
		}
		certs := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("tls: parse node certificate: %w", err)
			}
			certs = append(certs, cert)
		}

		intermediates := x509.NewCertPool()
		for _, cert := range certs[1:] {
			intermediates.AddCert(cert)
		}
		_, err := certs[0].Verify(x509.VerifyOptions{
			Roots:         roots,
			Intermediates: intermediates,
			KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
		})
		return err
	}
}
