// Package sdk wires configuration, transports, gas pricing, accounts and
// storage into a ready-to-use Core.
package sdk

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shamank/evm-txkit-go/pkg/account"
	"github.com/shamank/evm-txkit-go/pkg/blockchain"
	"github.com/shamank/evm-txkit-go/pkg/config"
	"github.com/shamank/evm-txkit-go/pkg/contract"
	"github.com/shamank/evm-txkit-go/pkg/dispatch"
	"github.com/shamank/evm-txkit-go/pkg/gas"
	"github.com/shamank/evm-txkit-go/pkg/grpc"
	"github.com/shamank/evm-txkit-go/pkg/provider"
	"github.com/shamank/evm-txkit-go/pkg/storage"
	"go.uber.org/zap"
)

// TxKit is the public surface of Core.
type TxKit interface {
	// NewContract creates a contract handle, optionally bound to an ABI and
	// address.
	NewContract(abiJSON []byte, address *common.Address) (*contract.Handle, error)

	// LoadContract reads an artifact and binds its ABI and, if recorded,
	// its deployment on the configured chain.
	LoadContract(ctx context.Context, uri string) (*contract.Handle, *storage.Artifact, error)

	// DeployArtifact deploys an artifact's bytecode with the configured
	// account, or through the wallet endpoint when there is none.
	DeployArtifact(ctx context.Context, a *storage.Artifact, args []any, progress dispatch.ProgressFunc) (*contract.Handle, *dispatch.Pending, error)

	// Account returns the configured signing account, or nil.
	Account() dispatch.Account

	// Close releases network clients.
	Close()
}

var logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)

// init configures a default global zap logger. Applications may replace it
// with zap.ReplaceGlobals(...) if they need custom logging.
func init() {
	c := zap.Config{
		Level:            logLevel,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := c.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

// Core is the concrete TxKit implementation.
type Core struct {
	*config.Config

	router     *provider.Router
	estimator  *gas.Estimator
	dispatcher *dispatch.Dispatcher
	storage    *storage.Client
	account    dispatch.Account
	chainID    *big.Int

	closers []func()
}

// Option customises NewSDK.
type Option func(*options)

type options struct {
	read, write any
	account     dispatch.Account
	storage     *storage.Client
}

// WithTransports uses the given transports instead of dialing RPCAddr and
// WalletAddr. Either may be any value the router accepts.
func WithTransports(read, write any) Option {
	return func(o *options) { o.read, o.write = read, write }
}

// WithAccount uses acct instead of the account described by the config.
func WithAccount(acct dispatch.Account) Option {
	return func(o *options) { o.account = acct }
}

// WithStorage uses s instead of a client built from the config.
func WithStorage(s *storage.Client) Option {
	return func(o *options) { o.storage = s }
}

// NewSDK validates cfg and builds a Core: it dials the endpoints, checks the
// node's chain id against the configured network and sets up the signing
// account.
func NewSDK(ctx context.Context, cfg *config.Config, opts ...Option) (*Core, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		zap.L().Error("Invalid config", zap.Error(err))
		return nil, err
	}
	if cfg.Debug {
		logLevel.SetLevel(zap.DebugLevel)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Core{Config: cfg}
	if err := c.connect(ctx, &o); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.setup(ctx, &o); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Core) connect(ctx context.Context, o *options) error {
	if o.read != nil {
		return nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, c.Timeouts.Dial)
	defer cancel()

	read, err := provider.Dial(dialCtx, c.RPCAddr)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, read.Close)
	o.read = read

	if c.WalletAddr != "" {
		wallet, err := provider.Dial(dialCtx, c.WalletAddr)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, wallet.Close)
		o.write = wallet
	}
	return nil
}

func (c *Core) setup(ctx context.Context, o *options) error {
	var routerOpts []provider.Option
	if len(c.WriteMethods) > 0 {
		routerOpts = append(routerOpts, provider.WithWriteMethods(c.WriteMethods...))
	}
	c.router = provider.NewRouter(o.read, o.write, routerOpts...)

	var gasOpts []gas.Option
	if c.Gas.FloorGwei != "" {
		floor, err := blockchain.GweiToWei(c.Gas.FloorGwei)
		if err != nil {
			return fmt.Errorf("gas floor: %w", err)
		}
		gasOpts = append(gasOpts, gas.WithFloor(floor))
	}
	c.estimator = gas.NewEstimator(c.router, gasOpts...)

	watcher := dispatch.NewWatcher(c.router, c.Gas.PollInterval, c.Gas.MaxPollInterval, c.Gas.MaxConfirmations)
	c.dispatcher = dispatch.NewDispatcher(c.router, c.estimator,
		dispatch.WithWatcher(watcher),
		dispatch.WithGasLimits(c.Gas.SendLimit, c.Gas.DeployLimit))

	c.storage = o.storage
	if c.storage == nil {
		c.storage = storage.NewStorage(c.IpfsURL, c.LighthouseURL)
	}

	chainID, err := c.verifyChainID(ctx)
	if err != nil {
		return err
	}
	c.chainID = chainID

	if o.account != nil {
		c.account = o.account
	} else if c.account, err = c.newAccount(ctx); err != nil {
		return err
	}
	if c.account != nil {
		zap.L().Debug("signer address", zap.String("addr", c.account.Address().Hex()))
	}
	return nil
}

func (c *Core) verifyChainID(ctx context.Context) (*big.Int, error) {
	want, err := c.Network.ChainIDBig()
	if err != nil {
		return nil, err
	}
	readCtx, cancel := context.WithTimeout(ctx, c.Timeouts.ChainRead)
	defer cancel()
	got, err := account.ChainID(readCtx, c.router)
	if err != nil {
		zap.L().Error("Failed to read chain id", zap.Error(err))
		return nil, err
	}
	if got.Cmp(want) != 0 {
		return nil, fmt.Errorf("node is on chain %s, config expects %s (%s)", got, want, c.Network.Name)
	}
	return want, nil
}

func (c *Core) newAccount(ctx context.Context) (dispatch.Account, error) {
	switch {
	case c.PrivateKey != "":
		return account.NewKeyAccountFromHex(c.PrivateKey, c.chainID, c.router)
	case c.Signer.Enabled():
		return c.remoteAccount(ctx)
	}
	zap.L().Warn("no signing account configured: only wallet deployments are available")
	return nil, nil
}

func (c *Core) remoteAccount(ctx context.Context) (dispatch.Account, error) {
	var protoFiles map[string]string
	if uri := c.Signer.ProtoURI; uri != "" {
		storageCtx, cancel := context.WithTimeout(ctx, c.Timeouts.Storage)
		defer cancel()
		data, err := c.storage.ReadFile(storageCtx, uri)
		if err != nil {
			return nil, fmt.Errorf("signer proto: %w", err)
		}
		if strings.HasSuffix(uri, ".proto") {
			protoFiles = map[string]string{grpc.SignerProtoFile: string(data)}
		} else if protoFiles, err = storage.ParseProtoFiles(data); err != nil {
			return nil, fmt.Errorf("signer proto: %w", err)
		}
	}

	var opts []grpc.Option
	if c.Signer.Token != "" {
		opts = append(opts, grpc.WithBearerToken(c.Signer.Token))
	}
	client, err := grpc.NewClient(c.Signer.Addr, protoFiles, opts...)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func() { _ = client.Close() })

	if c.Signer.Address != "" {
		return account.NewRemoteAccount(client, common.HexToAddress(c.Signer.Address), c.chainID)
	}
	callCtx, cancel := context.WithTimeout(ctx, c.Timeouts.SignerCall)
	defer cancel()
	return account.DialRemoteAccount(callCtx, client, c.chainID)
}

// Router returns the provider router.
func (c *Core) Router() *provider.Router { return c.router }

// Dispatcher returns the transaction dispatcher.
func (c *Core) Dispatcher() *dispatch.Dispatcher { return c.dispatcher }

// Estimator returns the gas price estimator.
func (c *Core) Estimator() *gas.Estimator { return c.estimator }

// Storage returns the artifact storage client.
func (c *Core) Storage() *storage.Client { return c.storage }

// ChainID returns the verified chain id.
func (c *Core) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// Account returns the configured signing account, or nil.
func (c *Core) Account() dispatch.Account { return c.account }

// NewContract creates a contract handle on the Core's dispatcher.
func (c *Core) NewContract(abiJSON []byte, address *common.Address) (*contract.Handle, error) {
	return contract.New(c.dispatcher, abiJSON, address)
}

// LoadContract reads the artifact at uri and returns a handle bound to its
// ABI and to its deployment on the configured chain, if recorded.
func (c *Core) LoadContract(ctx context.Context, uri string) (*contract.Handle, *storage.Artifact, error) {
	storageCtx, cancel := context.WithTimeout(ctx, c.Timeouts.Storage)
	defer cancel()
	a, err := c.storage.LoadArtifact(storageCtx, uri)
	if err != nil {
		return nil, nil, err
	}
	h, err := contract.New(c.dispatcher, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := h.UseArtifact(a, c.chainID); err != nil {
		return nil, nil, err
	}
	return h, a, nil
}

// DeployArtifact deploys a's bytecode with constructor args. The returned
// handle binds the new contract when the deployment receipt arrives; use
// RecordDeployment to store it in the artifact.
func (c *Core) DeployArtifact(ctx context.Context, a *storage.Artifact, args []any, progress dispatch.ProgressFunc) (*contract.Handle, *dispatch.Pending, error) {
	if a == nil {
		return nil, nil, errors.New("nil artifact")
	}
	h, err := contract.New(c.dispatcher, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	p, err := h.Deploy(ctx, c.account, a.ABI, a.Bytecode, args, progress)
	if err != nil {
		return nil, nil, err
	}
	return h, p, nil
}

// Wait waits for p with the configured receipt timeout.
func (c *Core) Wait(ctx context.Context, p *dispatch.Pending) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.Timeouts.ReceiptWait)
	defer cancel()
	return p.Wait(waitCtx)
}

// RecordDeployment stores the deployment described by receipt in a.
func (c *Core) RecordDeployment(a *storage.Artifact, receipt *types.Receipt) {
	if a == nil || receipt == nil || receipt.ContractAddress == (common.Address{}) {
		return
	}
	a.SetDeployment(c.chainID, storage.Deployment{Address: receipt.ContractAddress, TransactionHash: receipt.TxHash})
}

// Close shuts down the network clients opened by NewSDK.
func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

var _ TxKit = (*Core)(nil)
