package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Version is the JSON-RPC protocol version written into every envelope built
// by the router.
const Version = "2.0"

// Message is a JSON-RPC 2.0 envelope. It is used both for requests handed to
// callback-style transports and for the responses they report back.
type Message struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error object of a JSON-RPC 2.0 response. It is returned to
// callers as-is so provider specific codes and revert data stay inspectable.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("json-rpc error %d", e.Code)
	}
	return e.Message
}

// ErrorCode returns the JSON-RPC error code.
func (e *RPCError) ErrorCode() int { return e.Code }

// ErrorData returns the raw error data attached by the node, if any.
func (e *RPCError) ErrorData() any { return e.Data }

// NewMessage builds a request envelope with a numeric id. Params are encoded
// as a positional JSON array; an empty list encodes as [].
func NewMessage(id uint64, method string, params ...any) (*Message, error) {
	if params == nil {
		params = []any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params for %s: %w", method, err)
	}
	return &Message{
		Version: Version,
		ID:      json.RawMessage(strconv.FormatUint(id, 10)),
		Method:  method,
		Params:  raw,
	}, nil
}

// response builds a successful reply to req carrying result.
func response(req *Message, result json.RawMessage) *Message {
	return &Message{Version: Version, ID: req.ID, Result: result}
}

// positional decodes the params of an envelope into the argument list expected
// by Requester.Request. A JSON array is spread into positional arguments; any
// other JSON value (keyword style object) is passed as the single argument.
func (m *Message) positional() []any {
	if len(m.Params) == 0 || string(m.Params) == "null" {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(m.Params, &list); err != nil {
		return []any{m.Params}
	}
	args := make([]any, len(list))
	for i, p := range list {
		args[i] = p
	}
	return args
}
