package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// RPCTransport is a Requester backed by a go-ethereum rpc.Client. It works
// over HTTP, WebSocket and IPC endpoints alike.
type RPCTransport struct {
	client *rpc.Client
}

// NewRPCTransport wraps an already connected client.
func NewRPCTransport(client *rpc.Client) *RPCTransport {
	return &RPCTransport{client: client}
}

// Dial connects to url and returns a transport for it.
func Dial(ctx context.Context, url string) (*RPCTransport, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("rpc endpoint is required")
	}
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		zap.L().Error("failed to dial rpc endpoint", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &RPCTransport{client: client}, nil
}

// Request performs a single JSON-RPC call. Node errors are returned unmodified.
func (t *RPCTransport) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if t == nil || t.client == nil {
		return nil, errors.New("rpc transport is closed")
	}
	var result json.RawMessage
	if err := t.client.CallContext(ctx, &result, method, params...); err != nil {
		return nil, err
	}
	return result, nil
}

// Client exposes the underlying rpc client.
func (t *RPCTransport) Client() *rpc.Client {
	return t.client
}

// Close releases the connection.
func (t *RPCTransport) Close() {
	if t == nil || t.client == nil {
		return
	}
	t.client.Close()
}
