package sign

import (
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tjfoc/gmsm/sm3"
)

var ErrUnknownCryptoType = errors.New("unknown crypto type")

// CryptoType selects a curve and hash family.
type CryptoType uint8

const (
	// CryptoStandard is secp256k1 with keccak-256.
	CryptoStandard CryptoType = iota
	// CryptoNational is SM2 with SM3.
	CryptoNational
)

// CryptoTypeFor maps the sm_crypto config flag to a CryptoType.
func CryptoTypeFor(smCrypto bool) CryptoType {
	if smCrypto {
		return CryptoNational
	}
	return CryptoStandard
}

func (t CryptoType) String() string {
	switch t {
	case CryptoStandard:
		return "standard"
	case CryptoNational:
		return "national"
	default:
		return "unknown"
	}
}

// Hash digests the concatenation of data with the family's 256-bit hash.
func (t CryptoType) Hash(data ...[]byte) []byte {
	if t == CryptoNational {
		h := sm3.New()
		for _, d := range data {
			h.Write(d)
		}
		return h.Sum(nil)
	}
	return crypto.Keccak256(data...)
}
