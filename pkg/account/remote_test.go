package account

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shamank/evm-txkit-go/internal/testutil/grpcbuf"
	"github.com/shamank/evm-txkit-go/pkg/dispatch"
	"github.com/shamank/evm-txkit-go/pkg/grpc"
)

// fakeSigner is a Signer service backed by a local key.
type fakeSigner struct {
	key     *ecdsa.PrivateKey
	chainID *big.Int
	raw     string

	mu   sync.Mutex
	last map[string]any
}

func (s *fakeSigner) address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func (s *fakeSigner) sign(_ context.Context, req map[string]any) (map[string]any, error) {
	s.mu.Lock()
	s.last = req
	s.mu.Unlock()
	if s.raw != "" {
		return map[string]any{"raw_transaction": s.raw}, nil
	}

	gasLimit, _ := strconv.ParseUint(str(req["gas"]), 10, 64)
	price, _ := new(big.Int).SetString(str(req["gas_price"]), 10)
	value, _ := new(big.Int).SetString(str(req["value"]), 10)
	data, _ := hexutil.Decode(str(req["data"]))
	var to *common.Address
	if addr := str(req["to"]); addr != "" {
		a := common.HexToAddress(addr)
		to = &a
	}
	tx := types.NewTx(&types.LegacyTx{Nonce: 7, To: to, Gas: gasLimit, GasPrice: price, Value: value, Data: data})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(s.chainID), s.key)
	if err != nil {
		return nil, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return map[string]any{"raw_transaction": hexutil.Encode(raw)}, nil
}

func (s *fakeSigner) getAddress(context.Context, map[string]any) (map[string]any, error) {
	return map[string]any{"address": s.address().Hex()}, nil
}

func (s *fakeSigner) lastRequest() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func startSigner(t *testing.T, s *fakeSigner) *grpc.Client {
	t.Helper()
	files, err := grpc.CompileProtos(nil)
	if err != nil {
		t.Fatal(err)
	}
	_, signMethod, err := grpc.FindMethod(files, "SignTransaction")
	if err != nil {
		t.Fatal(err)
	}
	_, addrMethod, err := grpc.FindMethod(files, "GetAddress")
	if err != nil {
		t.Fatal(err)
	}
	srv, lis, _ := grpcbuf.StartServer(
		grpcbuf.Method{Desc: signMethod, Handler: s.sign},
		grpcbuf.Method{Desc: addrMethod, Handler: s.getAddress},
	)
	t.Cleanup(srv.Stop)

	conn, err := grpcbuf.Dial(context.Background(), lis)
	if err != nil {
		t.Fatal(err)
	}
	client, err := grpc.NewClientWithConn(conn, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newFakeSigner(t *testing.T, chainID int64) *fakeSigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	return &fakeSigner{key: key, chainID: big.NewInt(chainID)}
}

func TestRemoteAccountSignTransaction(t *testing.T) {
	signer := newFakeSigner(t, 1337)
	client := startSigner(t, signer)

	acct, err := DialRemoteAccount(context.Background(), client, big.NewInt(1337))
	if err != nil {
		t.Fatalf("DialRemoteAccount: %v", err)
	}
	if acct.Address() != signer.address() {
		t.Fatalf("address %s, want %s", acct.Address().Hex(), signer.address().Hex())
	}

	to := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	signed, err := acct.SignTransaction(context.Background(), &dispatch.TxRequest{
		From:     acct.Address(),
		To:       &to,
		Data:     []byte{0xca, 0xfe},
		Gas:      500_000,
		GasPrice: big.NewInt(1_400_000_000),
		Value:    big.NewInt(10),
	})
	if err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(signed.Raw); err != nil {
		t.Fatal(err)
	}
	if tx.Hash() != signed.Hash || tx.Nonce() != 7 {
		t.Fatalf("unexpected signed transaction")
	}

	req := signer.lastRequest()
	want := map[string]string{
		"from":      signer.address().Hex(),
		"to":        to.Hex(),
		"data":      "0xcafe",
		"gas":       "500000",
		"gas_price": "1400000000",
		"value":     "10",
		"chain_id":  "1337",
	}
	for k, v := range want {
		if str(req[k]) != v {
			t.Fatalf("request field %s = %v, want %s", k, req[k], v)
		}
	}
}

func TestRemoteAccountCreationOmitsRecipient(t *testing.T) {
	signer := newFakeSigner(t, 5)
	client := startSigner(t, signer)
	acct, err := NewRemoteAccount(client, signer.address(), big.NewInt(5))
	if err != nil {
		t.Fatal(err)
	}
	signed, err := acct.SignTransaction(context.Background(), &dispatch.TxRequest{Data: []byte{0x60}, Gas: 6_000_000})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := signer.lastRequest()["to"]; ok {
		t.Fatalf("creation request must not carry a recipient")
	}
	tx := new(types.Transaction)
	_ = tx.UnmarshalBinary(signed.Raw)
	if tx.To() != nil {
		t.Fatalf("expected contract creation")
	}
}

func TestRemoteAccountRejectsBadSignatures(t *testing.T) {
	t.Run("wrong key", func(t *testing.T) {
		signer := newFakeSigner(t, 1337)
		client := startSigner(t, signer)
		other, _ := crypto.GenerateKey()
		acct, _ := NewRemoteAccount(client, crypto.PubkeyToAddress(other.PublicKey), big.NewInt(1337))
		_, err := acct.SignTransaction(context.Background(), &dispatch.TxRequest{Gas: 21000})
		if err == nil || !strings.Contains(err.Error(), "signed by") {
			t.Fatalf("expected sender mismatch, got %v", err)
		}
	})

	t.Run("wrong chain", func(t *testing.T) {
		signer := newFakeSigner(t, 5)
		client := startSigner(t, signer)
		acct, _ := NewRemoteAccount(client, signer.address(), big.NewInt(1337))
		_, err := acct.SignTransaction(context.Background(), &dispatch.TxRequest{Gas: 21000})
		if err == nil || !strings.Contains(err.Error(), "chain id") {
			t.Fatalf("expected chain id mismatch, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		signer := newFakeSigner(t, 1337)
		signer.raw = "0xdeadbeef"
		client := startSigner(t, signer)
		acct, _ := NewRemoteAccount(client, signer.address(), big.NewInt(1337))
		if _, err := acct.SignTransaction(context.Background(), &dispatch.TxRequest{Gas: 21000}); err == nil {
			t.Fatalf("expected decode error")
		}
	})
}

func TestNewRemoteAccountValidation(t *testing.T) {
	if _, err := NewRemoteAccount(nil, common.Address{}, big.NewInt(1)); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := DialRemoteAccount(context.Background(), nil, big.NewInt(1)); err == nil {
		t.Fatalf("expected error for nil client")
	}
	client := startSigner(t, newFakeSigner(t, 1))
	if _, err := NewRemoteAccount(client, common.Address{}, nil); err == nil {
		t.Fatalf("expected error for missing chain id")
	}
}
