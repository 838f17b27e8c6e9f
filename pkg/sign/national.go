package sign

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tjfoc/gmsm/sm2"
)

var (
	_ Signer    = (*NationalSigner)(nil)
	_ PublicKey = NationalPublicKey{}
)

var errInvalidSM2Key = errors.New("invalid sm2 private key")

// NationalPublicKey is an SM2 public key.
type NationalPublicKey struct{ *sm2.PublicKey }

func (p NationalPublicKey) Bytes() []byte {
	out := make([]byte, publicKeyLen)
	p.X.FillBytes(out[:32])
	p.Y.FillBytes(out[32:])
	return out
}

func (p NationalPublicKey) Address() common.Address {
	return addressOf(CryptoNational, p.Bytes())
}

// Verify checks r and s with the default SM2 user id.
func (p NationalPublicKey) Verify(hash []byte, sig Signature) bool {
	r := new(big.Int).SetBytes(sig.R[:])
	s := new(big.Int).SetBytes(sig.S[:])
	return sm2.Sm2Verify(p.PublicKey, hash, nil, r, s)
}

// NationalSigner signs with SM2.
type NationalSigner struct {
	privateKey *sm2.PrivateKey
	publicKey  NationalPublicKey
}

func NewNationalSigner(privateKey []byte) (*NationalSigner, error) {
	curve := sm2.P256Sm2()
	d := new(big.Int).SetBytes(privateKey)
	if len(privateKey) != 32 || d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, errInvalidSM2Key
	}

	key := new(sm2.PrivateKey)
	key.Curve = curve
	key.D = d
	key.X, key.Y = curve.ScalarBaseMult(privateKey)
	return &NationalSigner{
		privateKey: key,
		publicKey:  NationalPublicKey{&key.PublicKey},
	}, nil
}

func (s *NationalSigner) CryptoType() CryptoType  { return CryptoNational }
func (s *NationalSigner) PublicKey() PublicKey    { return s.publicKey }
func (s *NationalSigner) Address() common.Address { return s.publicKey.Address() }

// Sign signs hash with the default user id. V carries the public key.
func (s *NationalSigner) Sign(hash []byte) (Signature, error) {
	r, ss, err := sm2.Sm2Sign(s.privateKey, hash, nil, rand.Reader)
	if err != nil {
		return Signature{}, err
	}

	var sig Signature
	r.FillBytes(sig.R[:])
	ss.FillBytes(sig.S[:])
	sig.V = s.publicKey.Bytes()
	return sig, nil
}
