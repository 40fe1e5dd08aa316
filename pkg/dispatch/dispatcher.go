package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shamank/evm-txkit-go/pkg/gas"
	"github.com/shamank/evm-txkit-go/pkg/provider"
	"go.uber.org/zap"
)

const (
	// DefaultSendGasLimit is the fixed gas limit of plain sends.
	DefaultSendGasLimit uint64 = 500_000
	// DefaultDeployGasLimit is the fixed gas limit of contract creations.
	DefaultDeployGasLimit uint64 = 6_000_000
)

// Dispatcher drives transactions from request construction to a single
// terminal outcome. It never retries and never tracks nonces.
type Dispatcher struct {
	router    *provider.Router
	estimator *gas.Estimator
	watcher   *Watcher

	sendGas   uint64
	deployGas uint64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWatcher replaces the default receipt watcher.
func WithWatcher(w *Watcher) Option {
	return func(d *Dispatcher) {
		if w != nil {
			d.watcher = w
		}
	}
}

// WithGasLimits overrides the fixed send and deploy gas limits. Zero keeps
// the default.
func WithGasLimits(send, deploy uint64) Option {
	return func(d *Dispatcher) {
		if send > 0 {
			d.sendGas = send
		}
		if deploy > 0 {
			d.deployGas = deploy
		}
	}
}

// NewDispatcher creates a dispatcher sending through router and pricing with
// estimator.
func NewDispatcher(router *provider.Router, estimator *gas.Estimator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		router:    router,
		estimator: estimator,
		sendGas:   DefaultSendGasLimit,
		deployGas: DefaultDeployGasLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.watcher == nil {
		d.watcher = NewWatcher(router, 0, 0, 0)
	}
	return d
}

// SendGasLimit returns the gas limit used for plain sends.
func (d *Dispatcher) SendGasLimit() uint64 { return d.sendGas }

// DeployGasLimit returns the gas limit used for contract creations.
func (d *Dispatcher) DeployGasLimit() uint64 { return d.deployGas }

// Router returns the router submissions go through.
func (d *Dispatcher) Router() *provider.Router { return d.router }

// HasWallet reports whether wallet-interactive submissions are possible.
func (d *Dispatcher) HasWallet() bool {
	return d.router.HasWriteTransport()
}

// Send submits a call to `to` signed by acct, using the send gas limit.
func (d *Dispatcher) Send(ctx context.Context, acct Account, to common.Address, data []byte, value *big.Int, progress ProgressFunc, hooks ...ReceiptHook) (*Pending, error) {
	return d.SendSigned(ctx, acct, &to, data, value, d.sendGas, progress, hooks...)
}

// DeploySigned submits a contract creation signed by acct, using the deploy
// gas limit.
func (d *Dispatcher) DeploySigned(ctx context.Context, acct Account, data []byte, value *big.Int, progress ProgressFunc, hooks ...ReceiptHook) (*Pending, error) {
	return d.SendSigned(ctx, acct, nil, data, value, d.deployGas, progress, hooks...)
}

// SendSigned builds a transaction, has acct sign it and broadcasts the raw
// bytes with eth_sendRawTransaction. The returned Pending resolves on the
// first confirmation of any count and rejects on the first error, including
// signing and broadcast errors. Only a missing account is reported
// synchronously.
//
// ctx bounds the whole submission including the confirmation watch; use
// Pending.Wait with its own context to stop waiting without abandoning it.
func (d *Dispatcher) SendSigned(ctx context.Context, acct Account, to *common.Address, data []byte, value *big.Int, gasLimit uint64, progress ProgressFunc, hooks ...ReceiptHook) (*Pending, error) {
	if acct == nil {
		err := &NoSignerAvailableError{Reason: "no account supplied"}
		zap.L().Error("Failed to submit transaction", zap.Error(err))
		return nil, err
	}

	em := NewEmitter()
	p := newPending(em, 0, progress, hooks...)

	go func() {
		req := &TxRequest{
			From:     acct.Address(),
			To:       to,
			Data:     data,
			Gas:      gasLimit,
			GasPrice: d.estimator.GasPrice(ctx),
			Value:    valueOrZero(value),
		}
		signed, err := acct.SignTransaction(ctx, req)
		if err != nil {
			zap.L().Error("Failed to sign transaction", zap.String("from", req.From.Hex()), zap.Error(err))
			em.Fail(err)
			return
		}
		p.setHash(signed.Hash)

		raw, err := d.router.Request(ctx, "eth_sendRawTransaction", hexutil.Encode(signed.Raw))
		if err != nil {
			em.Fail(&TransactionRejectedError{Hash: signed.Hash, Err: err})
			return
		}
		hash, err := decodeHash(raw)
		if err != nil {
			em.Fail(&TransactionRejectedError{Hash: signed.Hash, Err: err})
			return
		}
		if hash != signed.Hash {
			zap.L().Warn("Node reported a different transaction hash",
				zap.String("signed", signed.Hash.Hex()),
				zap.String("reported", hash.Hex()))
			p.setHash(hash)
		}
		zap.L().Info("Transaction broadcast",
			zap.String("txHash", hash.Hex()),
			zap.String("from", req.From.Hex()),
			zap.Bool("create", req.IsCreate()),
			zap.Uint64("gas", req.Gas),
			zap.String("gasPrice", req.GasPrice.String()))

		d.watcher.Watch(ctx, hash, em)
	}()
	return p, nil
}

// DeployWithWallet submits a contract creation through the write transport,
// which signs it interactively. The sender is the first account reported by
// eth_accounts. The returned Pending resolves only on a confirmation with a
// count above zero; every confirmation, count zero included, is reported to
// progress. A router without a write transport fails synchronously.
func (d *Dispatcher) DeployWithWallet(ctx context.Context, data []byte, value *big.Int, progress ProgressFunc, hooks ...ReceiptHook) (*Pending, error) {
	if !d.router.HasWriteTransport() {
		err := &NoSignerAvailableError{Reason: "no account supplied and no wallet transport"}
		zap.L().Error("Failed to deploy contract", zap.Error(err))
		return nil, err
	}

	em := NewEmitter()
	p := newPending(em, 1, progress, hooks...)

	go func() {
		from, err := d.defaultAccount(ctx)
		if err != nil {
			zap.L().Error("Failed to resolve wallet account", zap.Error(err))
			em.Fail(err)
			return
		}
		req := &TxRequest{
			From:     from,
			Data:     data,
			Gas:      d.deployGas,
			GasPrice: d.estimator.GasPrice(ctx),
			Value:    valueOrZero(value),
		}
		raw, err := d.router.Request(ctx, "eth_sendTransaction", newTxArgs(req))
		if err != nil {
			em.Fail(&TransactionRejectedError{Err: err})
			return
		}
		hash, err := decodeHash(raw)
		if err != nil {
			em.Fail(&TransactionRejectedError{Err: err})
			return
		}
		p.setHash(hash)
		zap.L().Info("Transaction broadcast",
			zap.String("txHash", hash.Hex()),
			zap.String("from", from.Hex()),
			zap.Bool("create", true),
			zap.Bool("wallet", true))

		d.watcher.Watch(ctx, hash, em)
	}()
	return p, nil
}

func (d *Dispatcher) defaultAccount(ctx context.Context) (common.Address, error) {
	raw, err := d.router.Request(ctx, "eth_accounts")
	if err != nil {
		return common.Address{}, fmt.Errorf("eth_accounts: %w", err)
	}
	var accounts []common.Address
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return common.Address{}, fmt.Errorf("decode accounts: %w", err)
	}
	if len(accounts) == 0 {
		return common.Address{}, &NoSignerAvailableError{Reason: "wallet reported no accounts"}
	}
	return accounts[0], nil
}

func decodeHash(raw json.RawMessage) (common.Hash, error) {
	var hash common.Hash
	if err := json.Unmarshal(raw, &hash); err != nil {
		return common.Hash{}, fmt.Errorf("decode transaction hash: %w", err)
	}
	return hash, nil
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
