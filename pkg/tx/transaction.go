// Package tx builds, signs and encodes chain transactions.
//
// A transaction is a 10-field RLP list. Signing appends v, r and s to form
// the 13-field list the node accepts through sendRawTransaction.
package tx

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/uuid"

	"github.com/chainkit-labs/bcos-sdk/pkg/sign"
)

const (
	DefaultGasPrice = 300000000
	DefaultGas      = 300000000
	// BlockLimitOffset is added to the current height to get the last block
	// that may include the transaction.
	BlockLimitOffset = 500
)

var ErrBadBlockNumber = errors.New("malformed block number")

// Transaction is the unsigned transaction.
type Transaction struct {
	Nonce      *big.Int
	GasPrice   *big.Int
	Gas        *big.Int
	BlockLimit *big.Int
	// To is nil for contract deployment.
	To        *common.Address
	Value     *big.Int
	Data      []byte
	ChainID   *big.Int
	GroupID   *big.Int
	ExtraData []byte
}

// New returns a transaction with a fresh nonce and the default gas settings.
func New(blockHeight uint64, to *common.Address, data []byte, chainID, groupID int64) *Transaction {
	return &Transaction{
		Nonce:      NewNonce(),
		GasPrice:   big.NewInt(DefaultGasPrice),
		Gas:        big.NewInt(DefaultGas),
		BlockLimit: new(big.Int).SetUint64(blockHeight + BlockLimitOffset),
		To:         to,
		Value:      new(big.Int),
		Data:       data,
		ChainID:    big.NewInt(chainID),
		GroupID:    big.NewInt(groupID),
	}
}

// NewNonce reads the ASCII bytes of a dashless uuid as a big-endian integer.
func NewNonce() *big.Int {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return new(big.Int).SetBytes([]byte(id))
}

// ParseBlockHeight parses the 0x-hex height returned by getBlockNumber.
func ParseBlockHeight(s string) (uint64, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if !strings.HasPrefix(s, "0x") {
		return 0, fmt.Errorf("%w: %q", ErrBadBlockNumber, s)
	}
	n, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadBlockNumber, err)
	}
	return n, nil
}

type unsignedRLP struct {
	Nonce      *big.Int
	GasPrice   *big.Int
	Gas        *big.Int
	BlockLimit *big.Int
	To         []byte
	Value      *big.Int
	Data       []byte
	ChainID    *big.Int
	GroupID    *big.Int
	ExtraData  []byte
}

type signedRLP struct {
	Nonce      *big.Int
	GasPrice   *big.Int
	Gas        *big.Int
	BlockLimit *big.Int
	To         []byte
	Value      *big.Int
	Data       []byte
	ChainID    *big.Int
	GroupID    *big.Int
	ExtraData  []byte
	V          []byte
	R          [32]byte
	S          [32]byte
}

func (t *Transaction) fields() unsignedRLP {
	f := unsignedRLP{
		Nonce:      orZero(t.Nonce),
		GasPrice:   orZero(t.GasPrice),
		Gas:        orZero(t.Gas),
		BlockLimit: orZero(t.BlockLimit),
		Value:      orZero(t.Value),
		Data:       t.Data,
		ChainID:    orZero(t.ChainID),
		GroupID:    orZero(t.GroupID),
		ExtraData:  t.ExtraData,
	}
	if t.To != nil {
		f.To = t.To.Bytes()
	}
	return f
}

func orZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}

// EncodeUnsigned returns the 10-field RLP encoding.
func (t *Transaction) EncodeUnsigned() ([]byte, error) {
	return rlp.EncodeToBytes(t.fields())
}

// SigningHash hashes the unsigned encoding with the family's hash.
func (t *Transaction) SigningHash(ct sign.CryptoType) ([]byte, error) {
	enc, err := t.EncodeUnsigned()
	if err != nil {
		return nil, err
	}
	return ct.Hash(enc), nil
}

// Sign hashes and signs t with s.
func (t *Transaction) Sign(s sign.Signer) (*SignedTransaction, error) {
	hash, err := t.SigningHash(s.CryptoType())
	if err != nil {
		return nil, fmt.Errorf("could not encode transaction: %w", err)
	}
	sig, err := s.Sign(hash)
	if err != nil {
		return nil, fmt.Errorf("could not sign transaction: %w", err)
	}
	return &SignedTransaction{Transaction: *t, Signature: sig}, nil
}

// SignedTransaction is a transaction together with its signature.
type SignedTransaction struct {
	Transaction
	Signature sign.Signature
}

// Encode returns the 13-field RLP encoding.
func (s *SignedTransaction) Encode() ([]byte, error) {
	f := s.fields()
	return rlp.EncodeToBytes(signedRLP{
		Nonce:      f.Nonce,
		GasPrice:   f.GasPrice,
		Gas:        f.Gas,
		BlockLimit: f.BlockLimit,
		To:         f.To,
		Value:      f.Value,
		Data:       f.Data,
		ChainID:    f.ChainID,
		GroupID:    f.GroupID,
		ExtraData:  f.ExtraData,
		V:          s.Signature.V,
		R:          s.Signature.R,
		S:          s.Signature.S,
	})
}

// Hex returns the 0x-prefixed hex of the signed encoding, the form the
// node's send methods expect.
func (s *SignedTransaction) Hex() (string, error) {
	enc, err := s.Encode()
	if err != nil {
		return "", err
	}
	return hexutil.Encode(enc), nil
}

// Hash is the transaction hash the node reports for s.
func (s *SignedTransaction) Hash() (common.Hash, error) {
	enc, err := s.Encode()
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(s.Signature.Type().Hash(enc)), nil
}

// Verify re-hashes the unsigned encoding and checks the signature with pub.
func (s *SignedTransaction) Verify(pub sign.PublicKey) bool {
	hash, err := s.SigningHash(s.Signature.Type())
	if err != nil {
		return false
	}
	return pub.Verify(hash, s.Signature)
}

// Decode parses a 13-field signed encoding.
func Decode(raw []byte) (*SignedTransaction, error) {
	var f signedRLP
	if err := rlp.DecodeBytes(raw, &f); err != nil {
		return nil, fmt.Errorf("could not decode transaction: %w", err)
	}
	t := Transaction{
		Nonce:      f.Nonce,
		GasPrice:   f.GasPrice,
		Gas:        f.Gas,
		BlockLimit: f.BlockLimit,
		Value:      f.Value,
		Data:       f.Data,
		ChainID:    f.ChainID,
		GroupID:    f.GroupID,
		ExtraData:  f.ExtraData,
	}
	if len(f.To) > 0 {
		to := common.BytesToAddress(f.To)
		t.To = &to
	}
	return &SignedTransaction{
		Transaction: t,
		Signature:   sign.Signature{V: f.V, R: f.R, S: f.S},
	}, nil
}
