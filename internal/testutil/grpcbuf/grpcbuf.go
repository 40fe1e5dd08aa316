// Package grpcbuf runs in-memory gRPC servers for tests. Services are served
// dynamically from method descriptors, so no generated code is needed.
package grpcbuf

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

const bufSize = 1024 * 1024

// MetaCapture captures incoming metadata on the server side for later
// inspection in tests.
type MetaCapture struct {
	last atomic.Value // stores metadata.MD
}

func (m *MetaCapture) capture(ctx context.Context) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		m.last.Store(md)
	}
}

// Last returns the most recently captured metadata or nil if none.
func (m *MetaCapture) Last() metadata.MD {
	if v := m.last.Load(); v != nil {
		return v.(metadata.MD)
	}
	return nil
}

// Handler answers one unary call. Request and response are JSON objects with
// proto field names.
type Handler func(ctx context.Context, req map[string]any) (map[string]any, error)

// Method binds a handler to a method descriptor.
type Method struct {
	Desc    protoreflect.MethodDescriptor
	Handler Handler
}

func fullName(m protoreflect.MethodDescriptor) string {
	return "/" + string(m.Parent().FullName()) + "/" + string(m.Name())
}

// StartServer spins up a bufconn-backed gRPC server answering the given
// methods, with metadata capture enabled. Calls to other methods fail with
// codes.Unimplemented.
func StartServer(methods ...Method) (*grpc.Server, *bufconn.Listener, *MetaCapture) {
	lis := bufconn.Listen(bufSize)
	mc := &MetaCapture{}
	byName := make(map[string]Method, len(methods))
	for _, m := range methods {
		byName[fullName(m.Desc)] = m
	}
	srv := grpc.NewServer(grpc.UnknownServiceHandler(func(_ any, stream grpc.ServerStream) error {
		name, _ := grpc.MethodFromServerStream(stream)
		m, ok := byName[name]
		if !ok {
			return status.Errorf(codes.Unimplemented, "method %s not served", name)
		}
		mc.capture(stream.Context())
		return serve(stream, m)
	}))
	go func() { _ = srv.Serve(lis) }()
	return srv, lis, mc
}

func serve(stream grpc.ServerStream, m Method) error {
	in := dynamicpb.NewMessage(m.Desc.Input())
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	body, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(in)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	req := map[string]any{}
	if err := json.Unmarshal(body, &req); err != nil {
		return status.Error(codes.Internal, err.Error())
	}

	resp, err := m.Handler(stream.Context(), req)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	out := dynamicpb.NewMessage(m.Desc.Output())
	if err := protojson.Unmarshal(raw, out); err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	return stream.SendMsg(out)
}

// Dial connects to the provided bufconn listener using the standard gRPC
// client stack.
func Dial(_ context.Context, lis *bufconn.Listener, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }
	// bufconn has no TLS; passthrough keeps the custom dialer in charge.
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(dialer),
	}
	base = append(base, opts...)
	return grpc.NewClient("passthrough://bufnet", base...)
}
