package provider

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

type ethService struct{}

func (ethService) BlockNumber() hexutil.Uint64 { return 0x2a }

func (ethService) GetBalance(addr string, block string) (*hexutil.Big, error) {
	if block != "latest" {
		return nil, errors.New("only latest is served")
	}
	return (*hexutil.Big)(hexutil.MustDecodeBig("0x64")), nil
}

func inProcTransport(t *testing.T) *RPCTransport {
	t.Helper()
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", ethService{}); err != nil {
		t.Fatalf("register service: %v", err)
	}
	t.Cleanup(srv.Stop)
	tr := NewRPCTransport(rpc.DialInProc(srv))
	t.Cleanup(tr.Close)
	return tr
}

func TestRPCTransportRequest(t *testing.T) {
	tr := inProcTransport(t)

	raw, err := tr.Request(context.Background(), "eth_blockNumber")
	if err != nil {
		t.Fatalf("eth_blockNumber: %v", err)
	}
	if string(raw) != `"0x2a"` {
		t.Fatalf("eth_blockNumber = %s", raw)
	}

	raw, err = tr.Request(context.Background(), "eth_getBalance", "0x0000000000000000000000000000000000000000", "latest")
	if err != nil {
		t.Fatalf("eth_getBalance: %v", err)
	}
	if string(raw) != `"0x64"` {
		t.Fatalf("eth_getBalance = %s", raw)
	}
}

func TestRPCTransportNodeErrorIsUnmodified(t *testing.T) {
	tr := inProcTransport(t)

	_, err := tr.Request(context.Background(), "eth_getBalance", "0x0000000000000000000000000000000000000000", "pending")
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected an rpc.Error from the node, got %T %v", err, err)
	}
	if rpcErr.Error() != "only latest is served" {
		t.Fatalf("message changed: %q", rpcErr.Error())
	}
}

func TestRPCTransportBehindRouter(t *testing.T) {
	r := NewRouter(inProcTransport(t), nil)
	raw, err := r.Request(context.Background(), "eth_blockNumber")
	if err != nil {
		t.Fatalf("eth_blockNumber: %v", err)
	}
	if string(raw) != `"0x2a"` {
		t.Fatalf("eth_blockNumber = %s", raw)
	}
}

func TestDialRejectsEmptyURL(t *testing.T) {
	if _, err := Dial(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}

func TestNilTransportIsClosed(t *testing.T) {
	var tr *RPCTransport
	if _, err := tr.Request(context.Background(), "eth_blockNumber"); err == nil {
		t.Fatalf("expected error from nil transport")
	}
	tr.Close()
}

func TestMessagePositional(t *testing.T) {
	msg, err := NewMessage(3, "eth_getBalance", "0xabc", "latest")
	if err != nil {
		t.Fatal(err)
	}
	args := msg.positional()
	if len(args) != 2 {
		t.Fatalf("expected 2 positional args, got %d", len(args))
	}

	empty, _ := NewMessage(4, "eth_blockNumber")
	if string(empty.Params) != "[]" {
		t.Fatalf("empty params encoded as %s", empty.Params)
	}
	if len(empty.positional()) != 0 {
		t.Fatalf("empty params must spread to no args")
	}

	keyword := &Message{Method: "wallet_watchAsset", Params: []byte(`{"type":"ERC20"}`)}
	if got := keyword.positional(); len(got) != 1 {
		t.Fatalf("keyword params must be a single arg, got %d", len(got))
	}
}

func TestRPCErrorImplementsGethErrorInterfaces(t *testing.T) {
	var err error = &RPCError{Code: 3, Message: "execution reverted", Data: []byte(`"0x08c379a0"`)}
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("RPCError must satisfy rpc.DataError")
	}
	if raw, ok := dataErr.ErrorData().(json.RawMessage); !ok || string(raw) != `"0x08c379a0"` {
		t.Fatalf("ErrorData() = %v", dataErr.ErrorData())
	}
	var codeErr rpc.Error
	if !errors.As(err, &codeErr) || codeErr.ErrorCode() != 3 {
		t.Fatalf("RPCError must satisfy rpc.Error with its code")
	}
}
