package abi

import (
	"fmt"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// RawLog is an undecoded event log entry.
type RawLog struct {
	Topics []common.Hash
	Data   []byte
}

// LogParam is one decoded event parameter.
type LogParam struct {
	Name    string
	Indexed bool
	Value   any
}

// DecodeEvent decodes log against the named event. Indexed parameters of
// dynamic types only have their hash in the topics; they decode to a
// [32]byte holding that hash. Parameters come back in declared order.
func (c *Contract) DecodeEvent(name string, log RawLog) ([]LogParam, error) {
	e, err := c.event(name)
	if err != nil {
		return nil, codecErr("decode event", err)
	}

	topics := log.Topics
	if !e.Anonymous {
		want := common.BytesToHash(c.crypto.Hash([]byte(e.Sig)))
		if len(topics) == 0 || topics[0] != want {
			return nil, codecErr("decode event "+name, ErrSignatureMismatch)
		}
		topics = topics[1:]
	}

	var indexed []gethabi.Argument
	for _, arg := range e.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(indexed) != len(topics) {
		return nil, codecErr("decode event "+name,
			fmt.Errorf("%w: expected %d, got %d", ErrTopicCount, len(indexed), len(topics)))
	}

	indexedValues := make([]any, len(indexed))
	for i, arg := range indexed {
		v, err := decodeTopic(arg.Type, topics[i])
		if err != nil {
			return nil, codecErr("decode event "+name, err)
		}
		indexedValues[i] = v
	}

	plainValues, err := e.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return nil, codecErr("decode event "+name, err)
	}

	params := make([]LogParam, 0, len(e.Inputs))
	for _, arg := range e.Inputs {
		p := LogParam{Name: arg.Name, Indexed: arg.Indexed}
		if arg.Indexed {
			p.Value, indexedValues = indexedValues[0], indexedValues[1:]
		} else {
			p.Value, plainValues = plainValues[0], plainValues[1:]
		}
		params = append(params, p)
	}
	return params, nil
}

func decodeTopic(t gethabi.Type, topic common.Hash) (any, error) {
	if isDynamic(t) {
		t = bytes32Type
	}
	values, err := gethabi.Arguments{{Type: t}}.Unpack(topic[:])
	if err != nil {
		return nil, err
	}
	return values[0], nil
}

func isDynamic(t gethabi.Type) bool {
	switch t.T {
	case gethabi.StringTy, gethabi.BytesTy, gethabi.SliceTy, gethabi.ArrayTy, gethabi.TupleTy:
		return true
	}
	return false
}
