package sign

import (
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// SEC1 "EC PRIVATE KEY" header up to the key octet string.
	ecPrivateKeyPrefix = "30740201010420"
	// PKCS#8 header of an SM2 key up to the key octet string.
	sm2PrivateKeyPrefix = "308187020100301306072a8648ce3d020106082a811ccf5501822d046d306b0201010420"
	// Hex length of a PKCS#8 secp256k1 header.
	pkcs8PrefixLen = 66
	keyHexLen      = 64
)

var (
	ErrNoPEMBlock          = errors.New("no PEM block found")
	ErrUnsupportedKeyShape = errors.New("expected `EC PRIVATE KEY` or `PRIVATE KEY`")
)

// ParsePrivateKeyPEM extracts the raw 32-byte private key from PEM data by
// locating it at a fixed offset of the DER body.
func ParsePrivateKeyPEM(data []byte, t CryptoType) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEMBlock
	}
	der := hex.EncodeToString(block.Bytes)

	var offset int
	switch {
	case t == CryptoNational && strings.HasPrefix(der, sm2PrivateKeyPrefix):
		offset = len(sm2PrivateKeyPrefix)
	case t == CryptoNational:
		return nil, ErrUnsupportedKeyShape
	case strings.HasPrefix(der, ecPrivateKeyPrefix):
		offset = len(ecPrivateKeyPrefix)
	default:
		offset = pkcs8PrefixLen
	}

	if len(der) < offset+keyHexLen {
		return nil, fmt.Errorf("%w: DER body too short", ErrUnsupportedKeyShape)
	}
	return hex.DecodeString(der[offset : offset+keyHexLen])
}

// LoadSigner reads a PEM key file and builds the Signer for t.
func LoadSigner(path string, t CryptoType) (Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	key, err := ParsePrivateKeyPEM(data, t)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key file %s: %w", path, err)
	}
	return NewSigner(t, key)
}
