package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shamank/evm-txkit-go/internal/testutil/rpcfake"
	"github.com/shamank/evm-txkit-go/pkg/config"
	"github.com/shamank/evm-txkit-go/pkg/dispatch"
	"github.com/shamank/evm-txkit-go/pkg/storage"
)

const (
	testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	counterABI = `[{"type":"function","name":"count","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}]`
)

func testConfig() *config.Config {
	return &config.Config{
		RPCAddr:    "http://unused",
		Network:    config.Network{ChainID: "1337", Name: "devnet"},
		PrivateKey: testKeyHex,
		Gas: config.Gas{
			PollInterval:     time.Millisecond,
			MaxPollInterval:  5 * time.Millisecond,
			MaxConfirmations: 2,
		},
	}
}

func newChain() *rpcfake.Chain {
	chain := rpcfake.NewChain(1337)
	chain.SetAutoMine(true)
	return chain
}

func writeArtifact(t *testing.T, a *storage.Artifact) string {
	t.Helper()
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "Counter.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return storage.FilePrefix + path
}

func TestNewSDKWithKeyAccount(t *testing.T) {
	chain := newChain()
	core, err := NewSDK(context.Background(), testConfig(), WithTransports(chain, nil))
	if err != nil {
		t.Fatalf("NewSDK: %v", err)
	}
	defer core.Close()

	key, _ := crypto.HexToECDSA(testKeyHex)
	if core.Account() == nil || core.Account().Address() != crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatalf("unexpected account %v", core.Account())
	}
	if core.ChainID().Int64() != 1337 {
		t.Fatalf("chain id %s", core.ChainID())
	}
	if core.Dispatcher().SendGasLimit() != dispatch.DefaultSendGasLimit {
		t.Fatalf("send gas limit %d", core.Dispatcher().SendGasLimit())
	}
	if core.Router().HasWriteTransport() {
		t.Fatalf("no wallet transport was configured")
	}
}

func TestDeployRecordAndLoad(t *testing.T) {
	chain := newChain()
	core, err := NewSDK(context.Background(), testConfig(), WithTransports(chain, nil))
	if err != nil {
		t.Fatalf("NewSDK: %v", err)
	}
	defer core.Close()

	artifact := &storage.Artifact{
		ContractName: "Counter",
		ABI:          json.RawMessage(counterABI),
		Bytecode:     []byte{0x60, 0x80},
	}
	h, p, err := core.DeployArtifact(context.Background(), artifact, nil, nil)
	if err != nil {
		t.Fatalf("DeployArtifact: %v", err)
	}
	receipt, err := core.Wait(context.Background(), p)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	want := crypto.CreateAddress(core.Account().Address(), 0)
	if receipt.ContractAddress != want {
		t.Fatalf("contract address %s, want %s", receipt.ContractAddress.Hex(), want.Hex())
	}
	if addr, ok := h.Address(); !ok || addr != want {
		t.Fatalf("handle not bound to deployment: %s %v", addr.Hex(), ok)
	}

	core.RecordDeployment(artifact, receipt)
	if addr, ok := artifact.AddressFor(big.NewInt(1337)); !ok || addr != want {
		t.Fatalf("deployment not recorded: %v", artifact.Networks)
	}

	loaded, a, err := core.LoadContract(context.Background(), writeArtifact(t, artifact))
	if err != nil {
		t.Fatalf("LoadContract: %v", err)
	}
	if a.ContractName != "Counter" {
		t.Fatalf("artifact %+v", a)
	}
	if addr, ok := loaded.Address(); !ok || addr != want {
		t.Fatalf("loaded handle address %s %v", addr.Hex(), ok)
	}
	bound, err := loaded.Contract()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := bound.ABI().Methods["count"]; !ok {
		t.Fatalf("abi not bound")
	}
}

func TestNewSDKChainMismatch(t *testing.T) {
	cfg := testConfig()
	cfg.Network = config.Main
	_, err := NewSDK(context.Background(), cfg, WithTransports(newChain(), nil))
	if err == nil || !strings.Contains(err.Error(), "chain") {
		t.Fatalf("expected chain mismatch, got %v", err)
	}
}

func TestNewSDKConfigErrors(t *testing.T) {
	if _, err := NewSDK(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := NewSDK(context.Background(), &config.Config{}); err == nil {
		t.Fatal("expected error for missing RPC address")
	}

	cfg := testConfig()
	cfg.Gas.FloorGwei = "not-a-number"
	if _, err := NewSDK(context.Background(), cfg, WithTransports(newChain(), nil)); err == nil {
		t.Fatal("expected error for invalid gas floor")
	}

	cfg = testConfig()
	cfg.PrivateKey = "zz"
	if _, err := NewSDK(context.Background(), cfg, WithTransports(newChain(), nil)); err == nil {
		t.Fatal("expected error for invalid private key")
	}
}

func TestNewSDKWithoutAccount(t *testing.T) {
	cfg := testConfig()
	cfg.PrivateKey = ""
	core, err := NewSDK(context.Background(), cfg, WithTransports(newChain(), nil))
	if err != nil {
		t.Fatalf("NewSDK: %v", err)
	}
	defer core.Close()
	if core.Account() != nil {
		t.Fatalf("expected no account")
	}

	artifact := &storage.Artifact{ContractName: "Counter", ABI: json.RawMessage(counterABI), Bytecode: []byte{0x60}}
	_, _, err = core.DeployArtifact(context.Background(), artifact, nil, nil)
	if !errors.Is(err, dispatch.ErrNoSignerAvailable) {
		t.Fatalf("expected ErrNoSignerAvailable, got %v", err)
	}
}

func TestNewSDKWalletDeploy(t *testing.T) {
	chain := newChain()
	wallet := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	chain.SetAccounts(wallet)

	cfg := testConfig()
	cfg.PrivateKey = ""
	cfg.WriteMethods = []string{"eth_sendTransaction", "eth_accounts"}
	core, err := NewSDK(context.Background(), cfg, WithTransports(chain, chain))
	if err != nil {
		t.Fatalf("NewSDK: %v", err)
	}
	defer core.Close()
	if got := core.Router().WriteMethods(); len(got) != 2 {
		t.Fatalf("write methods %v", got)
	}

	artifact := &storage.Artifact{ContractName: "Counter", ABI: json.RawMessage(counterABI), Bytecode: []byte{0x60}}
	h, p, err := core.DeployArtifact(context.Background(), artifact, nil, nil)
	if err != nil {
		t.Fatalf("DeployArtifact: %v", err)
	}
	if _, err := core.Wait(context.Background(), p); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if addr, ok := h.Address(); !ok || addr != crypto.CreateAddress(wallet, 0) {
		t.Fatalf("handle address %s %v", addr.Hex(), ok)
	}
	if txs := chain.WalletTransactions(); len(txs) != 1 || txs[0].From != wallet {
		t.Fatalf("wallet transactions %+v", txs)
	}
}

func TestWithAccountAndGasOptions(t *testing.T) {
	chain := newChain()
	cfg := testConfig()
	cfg.PrivateKey = ""
	cfg.Gas.SendLimit = 100_000
	cfg.Gas.DeployLimit = 7_000_000
	cfg.Gas.FloorGwei = "2"

	acct := fixedAccount(common.HexToAddress("0x00000000000000000000000000000000000000bb"))
	core, err := NewSDK(context.Background(), cfg, WithTransports(chain, nil), WithAccount(acct))
	if err != nil {
		t.Fatalf("NewSDK: %v", err)
	}
	defer core.Close()
	if core.Account() != acct {
		t.Fatalf("account option ignored")
	}
	if core.Dispatcher().SendGasLimit() != 100_000 || core.Dispatcher().DeployGasLimit() != 7_000_000 {
		t.Fatalf("gas limits not applied")
	}
	chain.Fail("eth_gasPrice", errors.New("unavailable"))
	if got := core.Estimator().Estimate(context.Background()); got != "2000000000" {
		t.Fatalf("floor not applied, estimate %s", got)
	}
}

type fixedAccount common.Address

func (a fixedAccount) Address() common.Address { return common.Address(a) }

func (a fixedAccount) SignTransaction(context.Context, *dispatch.TxRequest) (*dispatch.SignedTx, error) {
	return nil, errors.New("not implemented")
}
