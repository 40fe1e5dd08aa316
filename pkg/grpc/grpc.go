package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bufbuild/protocompile/linker"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Client is a dynamic gRPC client that holds a gRPC ClientConn and the
// compiled file descriptors used to locate services and methods at runtime.
type Client struct {
	// GRPC is the underlying client connection.
	GRPC *grpc.ClientConn `json:"-"`
	// ProtoFiles are the compiled descriptors, the signer definition included.
	ProtoFiles linker.Files `json:"-"`

	token string
}

// Option customises a Client.
type Option func(*Client)

// WithBearerToken sends "authorization: Bearer <token>" metadata on every
// call.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// NewClient creates a dynamic gRPC client for endpoint. The endpoint scheme
// determines transport security:
//   - "https://": TLS (system defaults)
//   - "http://":  insecure
//   - no scheme:  insecure
func NewClient(endpoint string, protoFiles map[string]string, opts ...Option) (*Client, error) {
	addr, creds := grpcCredsFromEndpoint(endpoint)
	conn, err := grpc.NewClient(addr, creds)
	if err != nil {
		zap.L().Error("failed to create grpc client", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("grpc client for %s: %w", endpoint, err)
	}
	c, err := NewClientWithConn(conn, protoFiles, opts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	conn.Connect()
	return c, nil
}

// NewClientWithConn wraps an existing connection.
func NewClientWithConn(conn *grpc.ClientConn, protoFiles map[string]string, opts ...Option) (*Client, error) {
	if conn == nil {
		return nil, errors.New("nil grpc connection")
	}
	descriptors, err := CompileProtos(protoFiles)
	if err != nil {
		return nil, err
	}
	c := &Client{GRPC: conn, ProtoFiles: descriptors}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close shuts down the underlying gRPC connection.
// It is safe to call on a nil receiver or when GRPC is nil.
func (c *Client) Close() error {
	if c == nil || c.GRPC == nil {
		return nil
	}
	return c.GRPC.Close()
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

// CallWithMap invokes a unary RPC by simple method name with a map body. The
// response uses proto field names.
func (c *Client) CallWithMap(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	jsonData, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	jsonStr, err := c.CallWithJSON(ctx, method, jsonData)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(jsonStr, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CallWithProto invokes a unary RPC by simple method name with a concrete
// request message and returns a dynamic response message.
func (c *Client) CallWithProto(ctx context.Context, method string, req proto.Message) (proto.Message, error) {
	_, methodDesc, err := FindMethod(c.ProtoFiles, method)
	if err != nil {
		return nil, err
	}
	out := dynamicpb.NewMessage(methodDesc.Output())
	if err := c.GRPC.Invoke(c.outgoing(ctx), FullMethodName(methodDesc), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CallWithJSON invokes a unary RPC by simple method name with a JSON body.
// Unknown request fields are discarded. The response is JSON with proto field
// names and unpopulated fields emitted.
func (c *Client) CallWithJSON(ctx context.Context, method string, body []byte) ([]byte, error) {
	_, methodDesc, err := FindMethod(c.ProtoFiles, method)
	if err != nil {
		return nil, err
	}

	in := dynamicpb.NewMessage(methodDesc.Input())
	out := dynamicpb.NewMessage(methodDesc.Output())

	err = protojson.UnmarshalOptions{
		AllowPartial:   true,
		DiscardUnknown: true,
	}.Unmarshal(body, in)
	if err != nil {
		return nil, fmt.Errorf("decode %s request: %w", method, err)
	}

	if err := c.GRPC.Invoke(c.outgoing(ctx), FullMethodName(methodDesc), in, out); err != nil {
		zap.L().Debug("grpc call failed", zap.String("method", method), zap.Error(err))
		return nil, err
	}

	return protojson.MarshalOptions{
		EmitUnpopulated: true,
		UseProtoNames:   true,
	}.Marshal(out)
}

// grpcCredsFromEndpoint derives a dial address and dial option from an endpoint URL.
func grpcCredsFromEndpoint(endpoint string) (string, grpc.DialOption) {
	if strings.HasPrefix(endpoint, "https://") {
		return strings.TrimPrefix(endpoint, "https://"), grpc.WithTransportCredentials(credentials.NewTLS(nil))
	}
	if strings.HasPrefix(endpoint, "http://") {
		return strings.TrimPrefix(endpoint, "http://"), grpc.WithTransportCredentials(insecure.NewCredentials())
	}
	return endpoint, grpc.WithTransportCredentials(insecure.NewCredentials())
}
