package channel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxTopicLen is the longest AMOP topic whose length byte still fits.
const MaxTopicLen = 254

var ErrTopicTooLong = errors.New("amop topic too long")

// PackAMOP prefixes data with an AMOP topic header: one byte holding
// 1+len(topic), then the topic.
func PackAMOP(topic string, data []byte) ([]byte, error) {
	if len(topic) > MaxTopicLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTopicTooLong, len(topic))
	}
	buf := make([]byte, 0, 1+len(topic)+len(data))
	buf = append(buf, byte(1+len(topic)))
	buf = append(buf, topic...)
	return append(buf, data...), nil
}

// UnpackAMOP splits an AMOP payload into topic and data.
func UnpackAMOP(payload []byte) (string, []byte, error) {
	if len(payload) == 0 {
		return "", nil, fmt.Errorf("%w: empty amop payload", ErrMalformedFrame)
	}
	n := int(payload[0])
	if n == 0 || n > len(payload) {
		return "", nil, fmt.Errorf("%w: amop topic length %d exceeds payload", ErrMalformedFrame, n)
	}
	return string(payload[1:n]), payload[n:], nil
}

// BlockNotify is the content of a TypeBlockNotify frame. Fields that do not
// parse as integers are -1.
type BlockNotify struct {
	GroupID     int64 `json:"group_id"`
	BlockHeight int64 `json:"block_height"`
}

// Content is a decoded frame payload. Exactly one field is set.
type Content struct {
	JSON  json.RawMessage
	Block *BlockNotify
}

// DecodeContent interprets m.Data according to m.Type.
func DecodeContent(m *Message) (Content, error) {
	switch m.Type {
	case TypeBlockNotify:
		block := ParseBlockNotify(m.Data)
		return Content{Block: &block}, nil
	case TypeClientRegisterEventLog:
		_, data, err := UnpackAMOP(m.Data)
		if err != nil {
			return Content{}, err
		}
		raw, err := parseJSON(data)
		return Content{JSON: raw}, err
	default:
		raw, err := parseJSON(m.Data)
		return Content{JSON: raw}, err
	}
}

// ParseBlockNotify decodes "group,height" after the AMOP topic header.
func ParseBlockNotify(payload []byte) BlockNotify {
	notify := BlockNotify{GroupID: -1, BlockHeight: -1}
	if len(payload) == 0 {
		return notify
	}
	skip := int(payload[0])
	if skip > len(payload) {
		return notify
	}

	fields := strings.Split(string(payload[skip:]), ",")
	notify.GroupID = parseIntOr(fields, 0)
	notify.BlockHeight = parseIntOr(fields, 1)
	return notify
}

func parseIntOr(fields []string, i int) int64 {
	if i >= len(fields) {
		return -1
	}
	v, err := strconv.ParseInt(strings.TrimSpace(fields[i]), 10, 32)
	if err != nil {
		return -1
	}
	return v
}

func parseJSON(data []byte) (json.RawMessage, error) {
	trimmed := strings.TrimRight(string(data), "\n")
	if !json.Valid([]byte(trimmed)) {
		return nil, errors.Errorf("channel payload is not valid JSON: %q", truncate(trimmed, 64))
	}
	return json.RawMessage(trimmed), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
