// Package rpc carries the node's JSON-RPC envelope over either of the two
// transports: plain HTTP or the framed TLS channel.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the JSON-RPC protocol version the node speaks.
const Version = "2.0"

// Request is the JSON-RPC request envelope. A nil Params is sent as null.
type Request struct {
	ID      uint64 `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// NewRequest builds a request with id 1.
func NewRequest(method string, params []any) *Request {
	return &Request{
		ID:      1,
		JSONRPC: Version,
		Method:  method,
		Params:  params,
	}
}

// Response is the JSON-RPC response envelope.
type Response struct {
	ID      uint64          `json:"id"`
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is a non-null error member of a response: the node rejected
// the request with a chain-defined code.
type ResponseError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("chain response error %d: %s", e.Code, e.Message)
}

var ErrMalformedResponse = errors.New("malformed JSON-RPC response")

var jsonNull = json.RawMessage("null")

// ParseResponse extracts the result of a response body, or its error.
// A missing result is returned as JSON null.
func ParseResponse(body []byte) (json.RawMessage, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if len(resp.Result) == 0 {
		return jsonNull, nil
	}
	return resp.Result, nil
}
