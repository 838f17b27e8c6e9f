package sign

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	_ Signer    = (*StandardSigner)(nil)
	_ PublicKey = StandardPublicKey{}
)

// StandardPublicKey is a secp256k1 public key.
type StandardPublicKey struct{ *ecdsa.PublicKey }

func (p StandardPublicKey) Bytes() []byte {
	return ethcrypto.FromECDSAPub(p.PublicKey)[1:]
}

func (p StandardPublicKey) Address() common.Address {
	return ethcrypto.PubkeyToAddress(*p.PublicKey)
}

// Verify checks r||s against the key. V is not consulted.
func (p StandardPublicKey) Verify(hash []byte, sig Signature) bool {
	rs := make([]byte, 0, 64)
	rs = append(rs, sig.R[:]...)
	rs = append(rs, sig.S[:]...)
	return ethcrypto.VerifySignature(ethcrypto.FromECDSAPub(p.PublicKey), hash, rs)
}

// StandardSigner signs with secp256k1.
type StandardSigner struct {
	privateKey *ecdsa.PrivateKey
	publicKey  StandardPublicKey
}

func NewStandardSigner(privateKey []byte) (*StandardSigner, error) {
	key, err := ethcrypto.ToECDSA(privateKey)
	if err != nil {
		return nil, fmt.Errorf("could not parse secp256k1 private key: %w", err)
	}
	return &StandardSigner{
		privateKey: key,
		publicKey:  StandardPublicKey{&key.PublicKey},
	}, nil
}

func (s *StandardSigner) CryptoType() CryptoType  { return CryptoStandard }
func (s *StandardSigner) PublicKey() PublicKey    { return s.publicKey }
func (s *StandardSigner) Address() common.Address { return s.publicKey.Address() }

// Sign produces a deterministic (RFC 6979) recoverable signature over hash.
func (s *StandardSigner) Sign(hash []byte) (Signature, error) {
	raw, err := ethcrypto.Sign(hash, s.privateKey)
	if err != nil {
		return Signature{}, err
	}

	var sig Signature
	copy(sig.R[:], raw[:32])
	copy(sig.S[:], raw[32:64])
	sig.V = []byte{encodeRecoveryID(raw[64])}
	return sig, nil
}

// encodeRecoveryID applies the legacy +27 offset; id 4 is kept as is.
func encodeRecoveryID(id byte) byte {
	if id == 4 {
		return 4
	}
	return id + 27
}
