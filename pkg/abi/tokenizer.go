package abi

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ParseFunctionTokens converts textual arguments into values for the named
// function's inputs.
func (c *Contract) ParseFunctionTokens(name string, args []string) ([]any, error) {
	m, err := c.method(name)
	if err != nil {
		return nil, codecErr("parse tokens", err)
	}
	values, err := ParseTokens(m.Inputs, args)
	if err != nil {
		return nil, codecErr("parse tokens for "+name, err)
	}
	return values, nil
}

// ParseConstructorTokens converts textual arguments for the constructor.
func (c *Contract) ParseConstructorTokens(args []string) ([]any, error) {
	values, err := ParseTokens(c.ABI.Constructor.Inputs, args)
	if err != nil {
		return nil, codecErr("parse constructor tokens", err)
	}
	return values, nil
}

// ParseTokens tokenizes one text value per input.
func ParseTokens(inputs gethabi.Arguments, args []string) ([]any, error) {
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrArgumentCount, len(inputs), len(args))
	}
	values := make([]any, len(args))
	for i, arg := range inputs {
		v, err := Tokenize(arg.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, arg.Type.String(), err)
		}
		values[i] = v
	}
	return values, nil
}

// Tokenize parses s leniently as a value of type t.
//
// Integers are decimal or 0x hex, addresses and byte strings are hex with an
// optional 0x prefix, arrays are written [a,b] and tuples (a,b).
func Tokenize(t gethabi.Type, s string) (any, error) {
	v, err := tokenize(t, strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func tokenize(t gethabi.Type, s string) (reflect.Value, error) {
	switch t.T {
	case gethabi.BoolTy:
		switch strings.ToLower(s) {
		case "true":
			return reflect.ValueOf(true), nil
		case "false":
			return reflect.ValueOf(false), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: %q is not a bool", ErrTypeMismatch, s)

	case gethabi.IntTy, gethabi.UintTy:
		return tokenizeInteger(t, s)

	case gethabi.AddressTy:
		addr := strings.TrimPrefix(s, "0x")
		if !common.IsHexAddress(addr) {
			return reflect.Value{}, fmt.Errorf("%w: %q is not an address", ErrTypeMismatch, s)
		}
		return reflect.ValueOf(common.HexToAddress(addr)), nil

	case gethabi.StringTy:
		return reflect.ValueOf(unquote(s)), nil

	case gethabi.BytesTy:
		b, err := decodeHex(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil

	case gethabi.FixedBytesTy:
		b, err := decodeHex(s)
		if err != nil {
			return reflect.Value{}, err
		}
		if len(b) != t.Size {
			return reflect.Value{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrTypeMismatch, t.Size, len(b))
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v, nil

	case gethabi.SliceTy, gethabi.ArrayTy:
		items, err := splitList(s, '[', ']')
		if err != nil {
			return reflect.Value{}, err
		}
		if t.T == gethabi.ArrayTy && len(items) != t.Size {
			return reflect.Value{}, fmt.Errorf("%w: expected %d elements, got %d", ErrTypeMismatch, t.Size, len(items))
		}
		var v reflect.Value
		if t.T == gethabi.SliceTy {
			v = reflect.MakeSlice(t.GetType(), len(items), len(items))
		} else {
			v = reflect.New(t.GetType()).Elem()
		}
		for i, item := range items {
			ev, err := tokenize(*t.Elem, item)
			if err != nil {
				return reflect.Value{}, err
			}
			v.Index(i).Set(ev)
		}
		return v, nil

	case gethabi.TupleTy:
		items, err := splitList(s, '(', ')')
		if err != nil {
			return reflect.Value{}, err
		}
		if len(items) != len(t.TupleElems) {
			return reflect.Value{}, fmt.Errorf("%w: expected %d tuple fields, got %d", ErrTypeMismatch, len(t.TupleElems), len(items))
		}
		v := reflect.New(t.GetType()).Elem()
		for i, item := range items {
			fv, err := tokenize(*t.TupleElems[i], item)
			if err != nil {
				return reflect.Value{}, err
			}
			v.Field(i).Set(fv)
		}
		return v, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: unsupported type %s", ErrTypeMismatch, t.String())
}

func tokenizeInteger(t gethabi.Type, s string) (reflect.Value, error) {
	n, ok := new(big.Int), false
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		_, ok = n.SetString(s[2:], 16)
	default:
		_, ok = n.SetString(s, 10)
	}
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, s)
	}

	var lo, hi *big.Int
	if t.T == gethabi.UintTy {
		lo = new(big.Int)
		hi = new(big.Int).Lsh(big.NewInt(1), uint(t.Size))
	} else {
		hi = new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		lo = new(big.Int).Neg(hi)
	}
	if n.Cmp(lo) < 0 || n.Cmp(hi) >= 0 {
		return reflect.Value{}, fmt.Errorf("%w: %s out of range for %s", ErrTypeMismatch, s, t.String())
	}

	rt := t.GetType()
	v := reflect.New(rt).Elem()
	switch rt.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(n.Int64())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(n.Uint64())
	default:
		return reflect.ValueOf(n), nil
	}
	return v, nil
}

// splitList strips the open/close delimiters and splits on top-level commas.
// Nested brackets, parentheses and double-quoted strings are kept intact.
func splitList(s string, open, end byte) ([]string, error) {
	if len(s) < 2 || s[0] != open || s[len(s)-1] != end {
		return nil, fmt.Errorf("%w: %q must be enclosed in %c%c", ErrTypeMismatch, s, open, end)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return nil, nil
	}

	var (
		items   []string
		depth   int
		quoted  bool
		escaped bool
		start   int
	)
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && quoted:
			escaped = true
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[' || c == '(':
			depth++
		case c == ']' || c == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced %q", ErrTypeMismatch, s)
			}
		case c == ',' && depth == 0:
			items = append(items, strings.TrimSpace(body[start:i]))
			start = i + 1
		}
	}
	if depth != 0 || quoted {
		return nil, fmt.Errorf("%w: unbalanced %q", ErrTypeMismatch, s)
	}
	return append(items, strings.TrimSpace(body[start:])), nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
	}
	return s
}
