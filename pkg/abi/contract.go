// Package abi encodes contract calls and decodes their results and events.
//
// Parameter encoding is the standard contract ABI in both crypto modes. Only
// the hash behind function selectors and event signatures changes: keccak-256
// in standard mode, SM3 in national mode. Revert payloads are always
// recognised by the standard Error(string) selector.
package abi

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/chainkit-labs/bcos-sdk/pkg/sign"
)

// revertSelector is the selector of Error(string).
const revertSelector = "0x08c379a0"

// Contract is a loaded contract interface bound to a crypto mode.
type Contract struct {
	Name     string
	ABI      gethabi.ABI
	Bytecode []byte

	crypto sign.CryptoType
}

// Load parses a JSON contract interface. A single object is accepted as a
// one-entry interface.
func Load(data []byte, t sign.CryptoType) (*Contract, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		trimmed = append(append([]byte{'['}, trimmed...), ']')
	}
	parsed, err := gethabi.JSON(bytes.NewReader(trimmed))
	if err != nil {
		return nil, codecErr("load", err)
	}
	return &Contract{ABI: parsed, crypto: t}, nil
}

// LoadFile reads an interface file and, when binPath is not empty, the hex
// bytecode next to it. The contract is named after the interface file.
func LoadFile(abiPath, binPath string, t sign.CryptoType) (*Contract, error) {
	data, err := os.ReadFile(abiPath)
	if err != nil {
		return nil, codecErr("load", err)
	}
	c, err := Load(data, t)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSuffix(filepath.Base(abiPath), filepath.Ext(abiPath))

	if binPath != "" {
		bin, err := os.ReadFile(binPath)
		if err != nil {
			return nil, codecErr("load", err)
		}
		if err := c.SetBytecode(string(bin)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetBytecode stores hex deployment bytecode, with or without 0x.
func (c *Contract) SetBytecode(hexCode string) error {
	code, err := decodeHex(strings.TrimSpace(hexCode))
	if err != nil {
		return codecErr("load bytecode", err)
	}
	c.Bytecode = code
	return nil
}

func (c *Contract) CryptoType() sign.CryptoType { return c.crypto }

func (c *Contract) method(name string) (gethabi.Method, error) {
	m, ok := c.ABI.Methods[name]
	if !ok {
		return gethabi.Method{}, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return m, nil
}

func (c *Contract) event(name string) (gethabi.Event, error) {
	e, ok := c.ABI.Events[name]
	if !ok {
		return gethabi.Event{}, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	return e, nil
}

// Selector returns the first four bytes of the mode hash of signature.
func Selector(t sign.CryptoType, signature string) []byte {
	return t.Hash([]byte(signature))[:4]
}

// FunctionSelector returns the selector of the named function.
func (c *Contract) FunctionSelector(name string) ([]byte, error) {
	m, err := c.method(name)
	if err != nil {
		return nil, codecErr("selector", err)
	}
	return Selector(c.crypto, m.Sig), nil
}

// EventSignature returns the topic0 hash of the named event.
func (c *Contract) EventSignature(name string) (common.Hash, error) {
	e, err := c.event(name)
	if err != nil {
		return common.Hash{}, codecErr("event signature", err)
	}
	return common.BytesToHash(c.crypto.Hash([]byte(e.Sig))), nil
}

// EncodeFunctionInput returns selector ++ encoded args.
func (c *Contract) EncodeFunctionInput(name string, args ...any) ([]byte, error) {
	m, err := c.method(name)
	if err != nil {
		return nil, codecErr("encode input", err)
	}
	packed, err := pack(m.Inputs, args)
	if err != nil {
		return nil, codecErr("encode "+name, err)
	}
	return append(Selector(c.crypto, m.Sig), packed...), nil
}

// EncodeConstructorInput returns bytecode ++ encoded constructor args.
func (c *Contract) EncodeConstructorInput(args ...any) ([]byte, error) {
	if len(c.Bytecode) == 0 {
		return nil, codecErr("encode constructor", ErrNoBytecode)
	}
	packed, err := pack(c.ABI.Constructor.Inputs, args)
	if err != nil {
		return nil, codecErr("encode constructor", err)
	}
	out := make([]byte, 0, len(c.Bytecode)+len(packed))
	out = append(out, c.Bytecode...)
	return append(out, packed...), nil
}

func pack(inputs gethabi.Arguments, args []any) ([]byte, error) {
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrArgumentCount, len(inputs), len(args))
	}
	packed, err := inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTypeMismatch, err)
	}
	return packed, nil
}

// DecodeOutput decodes a hex call output against the function's outputs.
// "0x" yields nil values and no error. A revert payload yields *RevertError.
func (c *Contract) DecodeOutput(name, output string) ([]any, error) {
	m, err := c.method(name)
	if err != nil {
		return nil, codecErr("decode output", err)
	}
	if output == "0x" || output == "" {
		return nil, nil
	}

	if strings.HasPrefix(strings.ToLower(output), revertSelector) {
		data, err := decodeHex(output[len(revertSelector):])
		if err != nil {
			return nil, codecErr("decode revert", err)
		}
		reason, err := unpackRevert(data)
		if err != nil {
			return nil, codecErr("decode revert", err)
		}
		return nil, &RevertError{Reason: reason}
	}

	data, err := decodeHex(output)
	if err != nil {
		return nil, codecErr("decode output", err)
	}
	values, err := m.Outputs.Unpack(data)
	if err != nil {
		return nil, codecErr("decode "+name, err)
	}
	return values, nil
}

func unpackRevert(data []byte) (string, error) {
	values, err := gethabi.Arguments{{Type: stringType}}.Unpack(data)
	if err != nil {
		return "", err
	}
	return values[0].(string), nil
}

var (
	stringType  = mustType("string")
	bytes32Type = mustType("bytes32")
)

func mustType(name string) gethabi.Type {
	t, err := gethabi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedHex, err)
	}
	return b, nil
}
