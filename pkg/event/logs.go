package event

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/chainkit-labs/bcos-sdk/pkg/abi"
)

type pushedLogs struct {
	Logs []struct {
		Topics []string `json:"topics"`
		Data   string   `json:"data"`
	} `json:"logs"`
}

// RawLogs extracts the logs of an event-log push. Empty topics are skipped
// and undecodable hex yields empty values.
func RawLogs(push json.RawMessage) ([]abi.RawLog, error) {
	var pushed pushedLogs
	if err := json.Unmarshal(push, &pushed); err != nil {
		return nil, errors.Wrap(err, "failed to decode event log push")
	}

	logs := make([]abi.RawLog, 0, len(pushed.Logs))
	for _, l := range pushed.Logs {
		var raw abi.RawLog
		for _, topic := range l.Topics {
			if topic == "" {
				continue
			}
			raw.Topics = append(raw.Topics, common.HexToHash(topic))
		}
		raw.Data = common.FromHex(strings.TrimSpace(l.Data))
		logs = append(logs, raw)
	}
	return logs, nil
}

// ParseEventLogs decodes every log of push as eventName of contract.
func ParseEventLogs(push json.RawMessage, contract *abi.Contract, eventName string) ([][]abi.LogParam, error) {
	logs, err := RawLogs(push)
	if err != nil {
		return nil, err
	}
	out := make([][]abi.LogParam, 0, len(logs))
	for i, l := range logs {
		params, err := contract.DecodeEvent(eventName, l)
		if err != nil {
			return nil, errors.Wrapf(err, "log %d", i)
		}
		out = append(out, params)
	}
	return out, nil
}
