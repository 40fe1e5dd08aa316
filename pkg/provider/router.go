package provider

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
)

// Requester is the unified, promise style call convention.
type Requester interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// Callback receives the outcome of a callback-style call. Exactly one of resp
// and err is meaningful; a response may still carry a JSON-RPC error object.
type Callback func(resp *Message, err error)

// AsyncSender is the legacy asynchronous callback convention.
type AsyncSender interface {
	SendAsync(msg *Message, cb Callback)
}

// Sender is the oldest callback convention.
type Sender interface {
	Send(msg *Message, cb Callback)
}

// Router dispatches JSON-RPC calls to a read or a write transport depending on
// whether the method is a member of the write method set. Transports may be
// any value implementing at least one of Requester, AsyncSender or Sender.
//
// A Router is immutable after construction and safe for concurrent use.
type Router struct {
	read  any
	write any
	// writeMethods decides routing and nothing else.
	writeMethods methodSet
	ids          atomic.Uint64
}

// Option customises a Router.
type Option func(*Router)

// WithWriteMethods replaces the default write method set.
func WithWriteMethods(methods ...string) Option {
	return func(r *Router) {
		r.writeMethods = newMethodSet(methods)
	}
}

// NewRouter creates a router over a read transport (direct node access) and a
// write transport (the user's signing channel). Either may be nil; calls routed
// to a nil transport fail with UnsupportedTransportError.
func NewRouter(read, write any, opts ...Option) *Router {
	r := &Router{
		read:         read,
		write:        write,
		writeMethods: newMethodSet(defaultWriteMethods),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsWrite reports whether method is routed to the write transport.
func (r *Router) IsWrite(method string) bool {
	return r.writeMethods.has(method)
}

// WriteMethods returns the configured write method set, sorted.
func (r *Router) WriteMethods() []string {
	return r.writeMethods.list()
}

// Route returns the transport selected for method and whether it is the write
// transport.
func (r *Router) Route(method string) (any, bool) {
	if r.IsWrite(method) {
		return r.write, true
	}
	return r.read, false
}

// HasWriteTransport reports whether a write transport with a usable call
// convention is configured.
func (r *Router) HasWriteTransport() bool {
	return supported(r.write)
}

func supported(t any) bool {
	switch t.(type) {
	case Requester, AsyncSender, Sender:
		return true
	}
	return false
}

// Request routes a call and returns the raw result. Transports are used in the
// preference order Request, SendAsync, Send; callback transports get a JSON-RPC
// 2.0 envelope and their callback is translated into the return values.
func (r *Router) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	t, write := r.Route(method)
	zap.L().Debug("routing rpc call", zap.String("method", method), zap.Bool("write", write))

	switch tr := t.(type) {
	case Requester:
		return tr.Request(ctx, method, params...)
	case AsyncSender:
		return r.viaCallback(ctx, tr.SendAsync, method, params)
	case Sender:
		return r.viaCallback(ctx, tr.Send, method, params)
	}
	err := &UnsupportedTransportError{Method: method, Write: write}
	zap.L().Error("no call convention on selected transport", zap.Error(err))
	return nil, err
}

// SendAsync routes a pre-built envelope using the caller's callback.
func (r *Router) SendAsync(msg *Message, cb Callback) {
	r.dispatch(msg, cb, true)
}

// Send routes a pre-built envelope using the caller's callback. With a
// Requester transport the call completes before Send returns.
func (r *Router) Send(msg *Message, cb Callback) {
	r.dispatch(msg, cb, false)
}

func (r *Router) dispatch(msg *Message, cb Callback, async bool) {
	if msg == nil {
		cb(nil, errors.New("nil json-rpc message"))
		return
	}
	t, write := r.Route(msg.Method)
	zap.L().Debug("routing rpc message", zap.String("method", msg.Method), zap.Bool("write", write))

	switch tr := t.(type) {
	case Requester:
		call := func() {
			result, err := tr.Request(context.Background(), msg.Method, msg.positional()...)
			if err != nil {
				cb(nil, err)
				return
			}
			cb(response(msg, result), nil)
		}
		if async {
			go call()
		} else {
			call()
		}
	case AsyncSender:
		tr.SendAsync(msg, cb)
	case Sender:
		tr.Send(msg, cb)
	default:
		cb(nil, &UnsupportedTransportError{Method: msg.Method, Write: write})
	}
}

type outcome struct {
	resp *Message
	err  error
}

// viaCallback adapts a callback transport into a blocking call. Only the first
// callback invocation counts.
func (r *Router) viaCallback(ctx context.Context, send func(*Message, Callback), method string, params []any) (json.RawMessage, error) {
	msg, err := NewMessage(r.ids.Add(1), method, params...)
	if err != nil {
		return nil, err
	}

	done := make(chan outcome, 1)
	send(msg, func(resp *Message, err error) {
		select {
		case done <- outcome{resp: resp, err: err}:
		default:
		}
	})

	select {
	case o := <-done:
		switch {
		case o.err != nil:
			return nil, o.err
		case o.resp == nil:
			return nil, errors.New("empty json-rpc response for " + method)
		case o.resp.Error != nil:
			return nil, o.resp.Error
		}
		return o.resp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
