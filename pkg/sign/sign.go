// Package sign derives chain accounts from private keys and signs digests
// under either crypto family the node supports.
//
// The standard family hashes with keccak-256 and signs with recoverable
// secp256k1 signatures. The national family hashes with SM3 and signs with
// SM2; since SM2 has no recovery id, its signatures carry the signer's public
// key in the V slot instead.
package sign

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Signer holds a private key and signs 32-byte digests with it.
type Signer interface {
	CryptoType() CryptoType
	PublicKey() PublicKey
	// Address is the low 20 bytes of Hash(PublicKey().Bytes()).
	Address() common.Address
	Sign(hash []byte) (Signature, error)
}

// PublicKey is the public half of a Signer.
type PublicKey interface {
	// Bytes returns the 64-byte X||Y encoding without the 0x04 marker.
	Bytes() []byte
	Address() common.Address
	Verify(hash []byte, sig Signature) bool
}

// Signature is a transaction signature. R and S are fixed 32-byte values.
// V is already in its wire form: the minimal big-endian encoding of
// recovery id + 27 for the standard family, or the 64-byte public key for
// the national family.
type Signature struct {
	V []byte
	R [32]byte
	S [32]byte
}

// Type reports the family a signature belongs to from the shape of V.
func (s Signature) Type() CryptoType {
	if len(s.V) == publicKeyLen {
		return CryptoNational
	}
	return CryptoStandard
}

// RecoveryV returns V as an integer for standard signatures.
func (s Signature) RecoveryV() uint64 {
	return new(big.Int).SetBytes(s.V).Uint64()
}

func (s Signature) String() string {
	return fmt.Sprintf("{v: %s, r: %s, s: %s}", hexutil.Encode(s.V), hexutil.Encode(s.R[:]), hexutil.Encode(s.S[:]))
}

const publicKeyLen = 64

// addressOf hashes an uncompressed public key, dropping a leading 0x04.
func addressOf(t CryptoType, pub []byte) common.Address {
	if len(pub) == publicKeyLen+1 && pub[0] == 0x04 {
		pub = pub[1:]
	}
	return common.BytesToAddress(t.Hash(pub)[12:])
}

// NewSigner builds the Signer for t from a raw 32-byte private key.
func NewSigner(t CryptoType, privateKey []byte) (Signer, error) {
	switch t {
	case CryptoStandard:
		return NewStandardSigner(privateKey)
	case CryptoNational:
		return NewNationalSigner(privateKey)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCryptoType, t)
	}
}
