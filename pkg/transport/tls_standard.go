package transport

import (
	"fmt"
	"net"
	"os"

	fiscotls "github.com/FISCO-BCOS/crypto/tls"
	fiscox509 "github.com/FISCO-BCOS/crypto/x509"
)

// standardHandshake loads secp256k1 material, which the standard library
// TLS stack cannot parse.
func standardHandshake(conf Config) (func(*net.Dialer, string) (net.Conn, error), error) {
	caPEM, err := os.ReadFile(conf.CACert)
	if err != nil {
		return nil, fmt.Errorf("read ca cert: %w", err)
	}
	pool := fiscox509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no certificate found in %s", conf.CACert)
	}

	sign, err := fiscotls.LoadX509KeyPair(conf.SignCert, conf.SignKey)
	if err != nil {
		return nil, fmt.Errorf("load sign key pair: %w", err)
	}

	tlsConf := &fiscotls.Config{
		Certificates:     []fiscotls.Certificate{sign},
		MinVersion:       fiscotls.VersionTLS12,
		MaxVersion:       fiscotls.VersionTLS12,
		CurvePreferences: []fiscotls.CurveID{fiscotls.CurveSecp256k1, fiscotls.CurveP256},
		// Node certificates are not issued for a host name; the chain is
		// checked against the CA in VerifyPeerCertificate instead.
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: verifyStandardChain(pool),
	}

	return func(dialer *net.Dialer, addr string) (net.Conn, error) {
		return fiscotls.DialWithDialer(dialer, "tcp", addr, tlsConf)
	}, nil
}

func verifyStandardChain(roots *fiscox509.CertPool) func([][]byte, [][]*fiscox509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*fiscox509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("tls: node presented no certificate")
		}
		certs := make([]*fiscox509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			cert, err := fiscox509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("tls: parse node certificate: %w", err)
			}
			certs = append(certs, cert)
		}

		intermediates := fiscox509.NewCertPool()
		for _, cert := range certs[1:] {
			intermediates.AddCert(cert)
		}
		_, err := certs[0].Verify(fiscox509.VerifyOptions{
			Roots:         roots,
			Intermediates: intermediates,
			KeyUsages:     []fiscox509.ExtKeyUsage{fiscox509.ExtKeyUsageAny},
		})
		return err
	}
}
