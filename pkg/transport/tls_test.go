package transport_test

import (
	"context"
	"crypto/rand"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	fiscotls "github.com/FISCO-BCOS/crypto/tls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tjfoc/gmsm/gmtls"
	"github.com/tjfoc/gmsm/sm2"
	"github.com/tjfoc/gmsm/x509"

	"github.com/chainkit-labs/bcos-sdk/pkg/transport"
)

// secp256k1 material issued by openssl: ca.crt signs node.* and sdk.*,
// other_ca.crt signs nothing.
var standardCerts = filepath.Join("testdata", "standard")

// serveEcho accepts one session, reads four bytes and writes them back.
func serveEcho(ln net.Listener) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	buf := make([]byte, 4)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return
	}
	conn.Write(buf)
}

func listenerPort(t *testing.T, ln net.Listener) int {
	t.Helper()
	addr, ok := ln.Addr().(*net.TCPAddr)
	require.True(t, ok)
	return addr.Port
}

func assertEcho(t *testing.T, d transport.Dialer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := d.Dial(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
}

func startStandardNode(t *testing.T) net.Listener {
	t.Helper()
	nodeCert, err := fiscotls.LoadX509KeyPair(filepath.Join(standardCerts, "node.crt"), filepath.Join(standardCerts, "node.key"))
	require.NoError(t, err)

	ln, err := fiscotls.Listen("tcp", "127.0.0.1:0", &fiscotls.Config{
		Certificates:     []fiscotls.Certificate{nodeCert},
		ClientAuth:       fiscotls.RequireAnyClientCert,
		MinVersion:       fiscotls.VersionTLS12,
		MaxVersion:       fiscotls.VersionTLS12,
		CurvePreferences: []fiscotls.CurveID{fiscotls.CurveSecp256k1, fiscotls.CurveP256},
	})
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return ln
}

func TestTLSDialerStandardHandshake(t *testing.T) {
	ln := startStandardNode(t)
	go serveEcho(ln)

	d, err := transport.NewTLSDialer(transport.Config{
		Host:     "127.0.0.1",
		Port:     listenerPort(t, ln),
		Timeout:  5 * time.Second,
		CACert:   filepath.Join(standardCerts, "ca.crt"),
		SignCert: filepath.Join(standardCerts, "sdk.crt"),
		SignKey:  filepath.Join(standardCerts, "sdk.key"),
	})
	require.NoError(t, err)
	assertEcho(t, d)
}

func TestTLSDialerStandardRejectsForeignNode(t *testing.T) {
	ln := startStandardNode(t)
	go serveEcho(ln)

	d, err := transport.NewTLSDialer(transport.Config{
		Host:     "127.0.0.1",
		Port:     listenerPort(t, ln),
		Timeout:  5 * time.Second,
		CACert:   filepath.Join(standardCerts, "other_ca.crt"),
		SignCert: filepath.Join(standardCerts, "sdk.crt"),
		SignKey:  filepath.Join(standardCerts, "sdk.key"),
	})
	require.NoError(t, err)

	_, err = d.Dial(context.Background())
	require.Error(t, err)
	assert.Equal(t, transport.KindConnect, transport.KindOf(err))
}

type nationalPair struct {
	cert, key string
}

// issueNational writes an SM2 certificate signed by ca (self-signed when ca
// is nil) and returns its files.
func issueNational(t *testing.T, dir, name string, serial int64, ca *x509.Certificate, caKey *sm2.PrivateKey, usage x509.KeyUsage) (nationalPair, *x509.Certificate, *sm2.PrivateKey) {
	t.Helper()
	key, err := sm2.GenerateKey(rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: name, Organization: []string{"fisco-bcos"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              usage,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		SignatureAlgorithm:    x509.SM2WithSM3,
	}
	parent, signer := ca, caKey
	if ca == nil {
		tmpl.IsCA = true
		tmpl.KeyUsage |= x509.KeyUsageCertSign
		tmpl.ExtKeyUsage = nil
		parent, signer = tmpl, key
	}

	certPEM, err := x509.CreateCertificateToPem(tmpl, parent, &key.PublicKey, signer)
	require.NoError(t, err)
	keyPEM, err := x509.WritePrivateKeyToPem(key, nil)
	require.NoError(t, err)

	pair := nationalPair{cert: filepath.Join(dir, name+".crt"), key: filepath.Join(dir, name+".key")}
	require.NoError(t, os.WriteFile(pair.cert, certPEM, 0o600))
	require.NoError(t, os.WriteFile(pair.key, keyPEM, 0o600))

	cert, err := x509.ReadCertificateFromPem(certPEM)
	require.NoError(t, err)
	return pair, cert, key
}

func TestTLSDialerNationalHandshake(t *testing.T) {
	dir := t.TempDir()
	signUsage := x509.KeyUsageDigitalSignature
	encUsage := x509.KeyUsageKeyEncipherment | x509.KeyUsageDataEncipherment | x509.KeyUsageKeyAgreement

	caPair, ca, caKey := issueNational(t, dir, "ca", 1, nil, nil, x509.KeyUsageDigitalSignature)
	nodeSign, _, _ := issueNational(t, dir, "node_sign", 2, ca, caKey, signUsage)
	nodeEnc, _, _ := issueNational(t, dir, "node_enc", 3, ca, caKey, encUsage)
	sdkSign, _, _ := issueNational(t, dir, "sdk_sign", 4, ca, caKey, signUsage)
	sdkEnc, _, _ := issueNational(t, dir, "sdk_enc", 5, ca, caKey, encUsage)

	signCert, err := gmtls.LoadX509KeyPair(nodeSign.cert, nodeSign.key)
	require.NoError(t, err)
	encCert, err := gmtls.LoadX509KeyPair(nodeEnc.cert, nodeEnc.key)
	require.NoError(t, err)

	ln, err := gmtls.Listen("tcp", "127.0.0.1:0", &gmtls.Config{
		GMSupport:    gmtls.NewGMSupport(),
		Certificates: []gmtls.Certificate{signCert, encCert},
	})
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go serveEcho(ln)

	d, err := transport.NewTLSDialer(transport.Config{
		Host:     "127.0.0.1",
		Port:     listenerPort(t, ln),
		Timeout:  5 * time.Second,
		National: true,
		CACert:   caPair.cert,
		SignCert: sdkSign.cert,
		SignKey:  sdkSign.key,
		EncCert:  sdkEnc.cert,
		EncKey:   sdkEnc.key,
	})
	require.NoError(t, err)
	assertEcho(t, d)
}

func TestTLSDialerNationalNeedsEncPair(t *testing.T) {
	dir := t.TempDir()
	caPair, ca, caKey := issueNational(t, dir, "ca", 1, nil, nil, x509.KeyUsageDigitalSignature)
	sdkSign, _, _ := issueNational(t, dir, "sdk_sign", 2, ca, caKey, x509.KeyUsageDigitalSignature)

	_, err := transport.NewTLSDialer(transport.Config{
		Host:     "127.0.0.1",
		Port:     20200,
		National: true,
		CACert:   caPair.cert,
		SignCert: sdkSign.cert,
		SignKey:  sdkSign.key,
		EncCert:  filepath.Join(dir, "missing.crt"),
		EncKey:   filepath.Join(dir, "missing.key"),
	})
	require.Error(t, err)
	assert.Equal(t, transport.KindConfig, transport.KindOf(err))
}
