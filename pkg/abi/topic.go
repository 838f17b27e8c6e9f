package abi

import (
	"errors"
	"math/big"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/chainkit-labs/bcos-sdk/pkg/sign"
)

var ErrTopicAddress = errors.New("address topic must be 0x followed by 40 hex digits")

// TopicFromInteger encodes n as an indexed int256 topic. Negative values
// take their 256-bit two's complement form.
func TopicFromInteger(n *big.Int) string {
	return hexutil.Encode(math.U256Bytes(new(big.Int).Set(n)))
}

// TopicFromAddress left-pads a 0x-prefixed address into a topic.
func TopicFromAddress(addr string) (string, error) {
	if !strings.HasPrefix(addr, "0x") || len(addr) != 42 || !common.IsHexAddress(addr) {
		return "", ErrTopicAddress
	}
	return "0x" + strings.Repeat("0", 24) + strings.ToLower(addr[2:]), nil
}

func TopicFromBool(b bool) string {
	if b {
		return TopicFromInteger(big.NewInt(1))
	}
	return TopicFromInteger(new(big.Int))
}

// TopicFromString hashes s with the mode hash, as indexed strings appear in
// logs.
func TopicFromString(s string, t sign.CryptoType) string {
	return hexutil.Encode(t.Hash([]byte(s)))
}

// TopicFromEventSignature hashes an event signature after dropping all
// whitespace, so " event2 (string, int256 )" and "event2(string,int256)"
// produce the same topic.
func TopicFromEventSignature(signature string, t sign.CryptoType) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, signature)
	return TopicFromString(compact, t)
}
