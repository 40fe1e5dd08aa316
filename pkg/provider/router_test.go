package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shamank/evm-txkit-go/internal/testutil/rpcfake"
	"github.com/shamank/evm-txkit-go/pkg/provider"
)

func TestRouteClassification(t *testing.T) {
	r := provider.NewRouter("read", "write")

	for _, m := range provider.DefaultWriteMethods() {
		if _, write := r.Route(m); !write {
			t.Fatalf("%s routed to read transport", m)
		}
	}

	tests := []struct {
		method string
		write  bool
	}{
		{"eth_sendTransaction", true},
		{"eth_requestAccounts", true},
		{"eth_signTypedData_v4", true},
		{"eth_call", false},
		{"eth_blockNumber", false},
		{"eth_sendRawTransaction", false},
		{"", false},
		{"ETH_SENDTRANSACTION", false},
	}
	for _, tc := range tests {
		t.Run(tc.method, func(t *testing.T) {
			tr, write := r.Route(tc.method)
			if write != tc.write {
				t.Fatalf("write=%v, want %v", write, tc.write)
			}
			want := "read"
			if tc.write {
				want = "write"
			}
			if tr != want {
				t.Fatalf("transport=%v, want %s", tr, want)
			}
		})
	}
}

func TestWithWriteMethodsReplacesDefaults(t *testing.T) {
	r := provider.NewRouter(nil, nil, provider.WithWriteMethods("eth_sendTransaction"))
	if !r.IsWrite("eth_sendTransaction") {
		t.Fatalf("eth_sendTransaction must be a write method")
	}
	if r.IsWrite("eth_accounts") {
		t.Fatalf("eth_accounts must not be a write method after replacing the set")
	}
	if got := r.WriteMethods(); len(got) != 1 || got[0] != "eth_sendTransaction" {
		t.Fatalf("WriteMethods() = %v", got)
	}
}

func TestDefaultWriteMethodsIsACopy(t *testing.T) {
	m := provider.DefaultWriteMethods()
	m[0] = "eth_call"
	r := provider.NewRouter(nil, nil)
	if r.IsWrite("eth_call") {
		t.Fatalf("mutating the returned slice changed the defaults")
	}
}

func TestRequestPreferenceOrder(t *testing.T) {
	result := json.RawMessage(`"0xabc"`)
	tests := []struct {
		name       string
		write      func(*rpcfake.Log) any
		convention string
	}{
		{"full prefers request", func(l *rpcfake.Log) any {
			return &rpcfake.Full{RequestOnly: rpcfake.RequestOnly{Name: "write", Log: l, Reply: rpcfake.Reply{Result: result}}}
		}, "request"},
		{"async before send", func(l *rpcfake.Log) any {
			return &rpcfake.AsyncAndSend{Name: "write", Log: l, Reply: rpcfake.Reply{Result: result}}
		}, "sendAsync"},
		{"send only", func(l *rpcfake.Log) any {
			return &rpcfake.SendOnly{Name: "write", Log: l, Reply: rpcfake.Reply{Result: result}}
		}, "send"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log := new(rpcfake.Log)
			read := &rpcfake.RequestOnly{Name: "read", Log: log, Reply: rpcfake.Reply{Result: json.RawMessage(`"0x1"`)}}
			r := provider.NewRouter(read, tc.write(log), provider.WithWriteMethods("eth_sendTransaction"))

			got, err := r.Request(context.Background(), "eth_call", map[string]string{"to": "0x0"}, "latest")
			if err != nil {
				t.Fatalf("eth_call: %v", err)
			}
			if string(got) != `"0x1"` {
				t.Fatalf("eth_call result %s", got)
			}

			got, err = r.Request(context.Background(), "eth_sendTransaction", map[string]string{"from": "0x0"})
			if err != nil {
				t.Fatalf("eth_sendTransaction: %v", err)
			}
			if string(got) != string(result) {
				t.Fatalf("eth_sendTransaction result %s", got)
			}

			calls := log.Calls()
			if len(calls) != 2 {
				t.Fatalf("expected 2 calls, got %d", len(calls))
			}
			if calls[0].Transport != "read" || calls[0].Method != "eth_call" {
				t.Fatalf("first call %+v", calls[0])
			}
			if calls[1].Transport != "write" || calls[1].Convention != tc.convention {
				t.Fatalf("second call %+v, want write via %s", calls[1], tc.convention)
			}
		})
	}
}

func TestCallbackEnvelope(t *testing.T) {
	log := new(rpcfake.Log)
	w := &rpcfake.SendOnly{Name: "write", Log: log, Reply: rpcfake.Reply{Result: json.RawMessage(`true`)}}
	r := provider.NewRouter(nil, w)

	for i := 0; i < 2; i++ {
		if _, err := r.Request(context.Background(), "personal_sign", "0xdead", "0xbeef"); err != nil {
			t.Fatalf("personal_sign: %v", err)
		}
	}
	calls := log.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	first, second := calls[0].Message, calls[1].Message
	if first.Version != "2.0" || first.Method != "personal_sign" {
		t.Fatalf("bad envelope %+v", first)
	}
	if string(first.Params) != `["0xdead","0xbeef"]` {
		t.Fatalf("params %s", first.Params)
	}
	if string(first.ID) == string(second.ID) {
		t.Fatalf("envelope ids must differ, both %s", first.ID)
	}
}

func TestCallbackErrorsPassThrough(t *testing.T) {
	rpcErr := &provider.RPCError{Code: 4001, Message: "User rejected the request."}
	plain := errors.New("transport down")

	tests := []struct {
		name  string
		reply rpcfake.Reply
		want  error
	}{
		{"rpc error object", rpcfake.Reply{RPCError: rpcErr}, rpcErr},
		{"callback error", rpcfake.Reply{Err: plain}, plain},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := &rpcfake.AsyncOnly{Name: "write", Log: new(rpcfake.Log), Reply: tc.reply}
			r := provider.NewRouter(nil, w)
			_, err := r.Request(context.Background(), "eth_sendTransaction")
			if err != tc.want {
				t.Fatalf("got %v, want the transport's error value unmodified", err)
			}
		})
	}
}

func TestUnsupportedTransport(t *testing.T) {
	r := provider.NewRouter(rpcfake.Inert{}, nil)

	_, err := r.Request(context.Background(), "eth_call")
	var ute *provider.UnsupportedTransportError
	if !errors.As(err, &ute) {
		t.Fatalf("expected UnsupportedTransportError, got %v", err)
	}
	if ute.Method != "eth_call" || ute.Write {
		t.Fatalf("unexpected error fields %+v", ute)
	}
	if !errors.Is(err, provider.ErrUnsupportedTransport) {
		t.Fatalf("errors.Is(ErrUnsupportedTransport) = false")
	}

	_, err = r.Request(context.Background(), "eth_sendTransaction")
	if !errors.As(err, &ute) || !ute.Write {
		t.Fatalf("nil write transport: %v", err)
	}
	if r.HasWriteTransport() {
		t.Fatalf("HasWriteTransport() with nil write transport")
	}
}

func TestUnsupportedTransportCallbackIsSynchronous(t *testing.T) {
	r := provider.NewRouter(rpcfake.Inert{}, nil)
	msg, err := provider.NewMessage(1, "eth_call")
	if err != nil {
		t.Fatal(err)
	}
	var got error
	r.SendAsync(msg, func(_ *provider.Message, err error) { got = err })
	if !errors.Is(got, provider.ErrUnsupportedTransport) {
		t.Fatalf("callback not invoked synchronously with the routing error: %v", got)
	}
}

func TestRouterAsCallbackProvider(t *testing.T) {
	log := new(rpcfake.Log)
	read := &rpcfake.RequestOnly{Name: "read", Log: log, Reply: rpcfake.Reply{Result: json.RawMessage(`"0x10"`)}}
	r := provider.NewRouter(read, nil)

	msg, err := provider.NewMessage(7, "eth_blockNumber")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var resp *provider.Message
	r.SendAsync(msg, func(m *provider.Message, err error) {
		defer wg.Done()
		if err != nil {
			t.Errorf("SendAsync: %v", err)
			return
		}
		resp = m
	})
	wg.Wait()
	if resp == nil || string(resp.Result) != `"0x10"` || string(resp.ID) != "7" {
		t.Fatalf("unexpected response %+v", resp)
	}

	var sendResp *provider.Message
	r.Send(msg, func(m *provider.Message, _ error) { sendResp = m })
	if sendResp == nil {
		t.Fatalf("Send over a request transport must complete before returning")
	}
}

func TestRequestHonoursContextOnSilentCallback(t *testing.T) {
	r := provider.NewRouter(silent{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.Request(ctx, "eth_call")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

// silent never answers.
type silent struct{}

func (silent) Send(*provider.Message, provider.Callback) {}

func TestConcurrentRouting(t *testing.T) {
	log := new(rpcfake.Log)
	read := &rpcfake.RequestOnly{Name: "read", Log: log, Reply: rpcfake.Reply{Result: json.RawMessage(`"0x0"`)}}
	write := &rpcfake.AsyncOnly{Name: "write", Log: log, Reply: rpcfake.Reply{Result: json.RawMessage(`"0x1"`)}}
	r := provider.NewRouter(read, write)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := r.Request(context.Background(), "eth_call"); err != nil {
				t.Errorf("eth_call: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := r.Request(context.Background(), "eth_sendTransaction"); err != nil {
				t.Errorf("eth_sendTransaction: %v", err)
			}
		}()
	}
	wg.Wait()

	for _, c := range log.Calls() {
		if (c.Method == "eth_call") != (c.Transport == "read") {
			t.Fatalf("misrouted call %+v", c)
		}
	}
}
