package rpcfake

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/shamank/evm-txkit-go/pkg/provider"
)

// Call is one call observed by a recording transport.
type Call struct {
	Transport  string
	Convention string // "request", "sendAsync" or "send"
	Method     string
	Message    *provider.Message // nil for the request convention
}

// Log collects calls across transports in arrival order.
type Log struct {
	mu    sync.Mutex
	calls []Call
}

func (l *Log) add(c Call) {
	l.mu.Lock()
	l.calls = append(l.calls, c)
	l.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (l *Log) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// Reply scripts what a recording transport answers.
type Reply struct {
	Result   json.RawMessage
	Err      error
	RPCError *provider.RPCError
}

func (r Reply) message(req *provider.Message) *provider.Message {
	resp := &provider.Message{Version: provider.Version, ID: req.ID}
	if r.RPCError != nil {
		resp.Error = r.RPCError
		return resp
	}
	resp.Result = r.Result
	return resp
}

func (r Reply) callback(req *provider.Message, cb provider.Callback) {
	if r.Err != nil {
		cb(nil, r.Err)
		return
	}
	cb(r.message(req), nil)
}

// RequestOnly implements only the unified request convention.
type RequestOnly struct {
	Name  string
	Log   *Log
	Reply Reply
}

func (t *RequestOnly) Request(_ context.Context, method string, _ ...any) (json.RawMessage, error) {
	t.Log.add(Call{Transport: t.Name, Convention: "request", Method: method})
	if t.Reply.Err != nil {
		return nil, t.Reply.Err
	}
	if t.Reply.RPCError != nil {
		return nil, t.Reply.RPCError
	}
	return t.Reply.Result, nil
}

// AsyncOnly implements only SendAsync. It answers from a new goroutine.
type AsyncOnly struct {
	Name  string
	Log   *Log
	Reply Reply
}

func (t *AsyncOnly) SendAsync(msg *provider.Message, cb provider.Callback) {
	t.Log.add(Call{Transport: t.Name, Convention: "sendAsync", Method: msg.Method, Message: msg})
	go t.Reply.callback(msg, cb)
}

// SendOnly implements only Send. It answers before returning.
type SendOnly struct {
	Name  string
	Log   *Log
	Reply Reply
}

func (t *SendOnly) Send(msg *provider.Message, cb provider.Callback) {
	t.Log.add(Call{Transport: t.Name, Convention: "send", Method: msg.Method, Message: msg})
	t.Reply.callback(msg, cb)
}

// AsyncAndSend implements both callback conventions but not Request.
type AsyncAndSend struct {
	Name  string
	Log   *Log
	Reply Reply
}

func (t *AsyncAndSend) SendAsync(msg *provider.Message, cb provider.Callback) {
	t.Log.add(Call{Transport: t.Name, Convention: "sendAsync", Method: msg.Method, Message: msg})
	go t.Reply.callback(msg, cb)
}

func (t *AsyncAndSend) Send(msg *provider.Message, cb provider.Callback) {
	t.Log.add(Call{Transport: t.Name, Convention: "send", Method: msg.Method, Message: msg})
	t.Reply.callback(msg, cb)
}

// Full implements all three conventions.
type Full struct {
	RequestOnly
}

func (t *Full) SendAsync(msg *provider.Message, cb provider.Callback) {
	t.Log.add(Call{Transport: t.Name, Convention: "sendAsync", Method: msg.Method, Message: msg})
	go t.Reply.callback(msg, cb)
}

func (t *Full) Send(msg *provider.Message, cb provider.Callback) {
	t.Log.add(Call{Transport: t.Name, Convention: "send", Method: msg.Method, Message: msg})
	t.Reply.callback(msg, cb)
}

// Inert implements no call convention.
type Inert struct{}
