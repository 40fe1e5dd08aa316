package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shamank/evm-txkit-go/pkg/dispatch"
	"github.com/shamank/evm-txkit-go/pkg/storage"
	"go.uber.org/zap"
)

// Handle binds an ABI and an optional address to a dispatcher. It is safe for
// concurrent use.
//
// The binding changes through Use and through completed deployments. Every
// Deploy and Use takes a generation number in issue order; a confirmed
// deployment binds its contract address only if no Use or successful
// deployment issued after it has bound already. Failed deployments never
// displace anything. Submissions keep the address they were issued with.
type Handle struct {
	dispatcher *dispatch.Dispatcher

	mu      sync.RWMutex
	abi     abi.ABI
	abiJSON json.RawMessage
	address *common.Address
	gen     uint64 // last issued
	bound   uint64 // generation of the current binding
}

// New creates a handle. abiJSON may be empty for a handle that will be bound
// by Deploy; address may be nil.
func New(d *dispatch.Dispatcher, abiJSON []byte, address *common.Address) (*Handle, error) {
	h := &Handle{dispatcher: d}
	if len(abiJSON) == 0 {
		if address != nil {
			return nil, errors.New("an address needs an abi")
		}
		return h, nil
	}
	if err := h.Use(abiJSON, address); err != nil {
		return nil, err
	}
	return h, nil
}

func parseABI(abiJSON []byte) (abi.ABI, json.RawMessage, error) {
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return abi.ABI{}, nil, fmt.Errorf("parse abi: %w", err)
	}
	compact := new(bytes.Buffer)
	if err := json.Compact(compact, abiJSON); err != nil {
		return abi.ABI{}, nil, fmt.Errorf("compact abi: %w", err)
	}
	return parsed, compact.Bytes(), nil
}

// Deploy creates the contract: bytecode followed by the ABI-packed
// constructor args. With acct the transaction is signed by it and sent raw;
// without, it goes through the wallet transport, and only resolves once a
// block confirms it. On success the handle is bound to abiJSON and the new
// contract address, unless a later Use or deployment has bound first.
func (h *Handle) Deploy(ctx context.Context, acct dispatch.Account, abiJSON, bytecode []byte, args []any, progress dispatch.ProgressFunc) (*dispatch.Pending, error) {
	parsed, compact, err := parseABI(abiJSON)
	if err != nil {
		zap.L().Error("Failed to deploy contract", zap.Error(err))
		return nil, err
	}
	ctorArgs, err := parsed.Pack("", args...)
	if err != nil {
		err = fmt.Errorf("pack constructor arguments: %w", err)
		zap.L().Error("Failed to deploy contract", zap.Error(err))
		return nil, err
	}
	data := make([]byte, 0, len(bytecode)+len(ctorArgs))
	data = append(append(data, bytecode...), ctorArgs...)

	h.mu.Lock()
	h.gen++
	gen := h.gen
	h.mu.Unlock()

	bind := func(r *types.Receipt) {
		h.bindDeployment(gen, parsed, compact, r)
	}

	var p *dispatch.Pending
	if acct != nil {
		p, err = h.dispatcher.DeploySigned(ctx, acct, data, nil, progress, bind)
	} else {
		p, err = h.dispatcher.DeployWithWallet(ctx, data, nil, progress, bind)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (h *Handle) bindDeployment(gen uint64, parsed abi.ABI, compact json.RawMessage, r *types.Receipt) {
	if r == nil || r.ContractAddress == (common.Address{}) {
		zap.L().Warn("Deployment receipt carries no contract address")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen < h.bound {
		zap.L().Info("Deployment confirmed after a newer binding, keeping the newer one",
			zap.String("contractAddress", r.ContractAddress.Hex()))
		return
	}
	addr := r.ContractAddress
	h.abi, h.abiJSON, h.address = parsed, compact, &addr
	h.bound = gen
	zap.L().Info("Contract deployed", zap.String("contractAddress", addr.Hex()),
		zap.String("txHash", r.TxHash.Hex()))
}

// Use rebinds the handle to abiJSON and address (nil clears the address).
// In-flight submissions are unaffected.
func (h *Handle) Use(abiJSON []byte, address *common.Address) error {
	parsed, compact, err := parseABI(abiJSON)
	if err != nil {
		return err
	}
	var addr *common.Address
	if address != nil {
		a := *address
		addr = &a
	}
	h.mu.Lock()
	h.gen++
	h.bound = h.gen
	h.abi, h.abiJSON, h.address = parsed, compact, addr
	h.mu.Unlock()
	return nil
}

// UseArtifact binds the artifact's ABI and its deployment on chainID, if any.
func (h *Handle) UseArtifact(a *storage.Artifact, chainID *big.Int) error {
	if a == nil {
		return errors.New("nil artifact")
	}
	var addr *common.Address
	if found, ok := a.AddressFor(chainID); ok {
		addr = &found
	}
	return h.Use(a.ABI, addr)
}

// Send submits data to the bound address, signed by acct and priced by the
// gas estimator.
func (h *Handle) Send(ctx context.Context, acct dispatch.Account, data []byte, value *big.Int, progress dispatch.ProgressFunc) (*dispatch.Pending, error) {
	addr, ok := h.Address()
	if !ok {
		err := &ContractNotBoundError{Op: "send"}
		zap.L().Error("Failed to send transaction", zap.Error(err))
		return nil, err
	}
	return h.dispatcher.Send(ctx, acct, addr, data, value, progress)
}

// Contract returns a view of the current binding for packing calldata and
// making read-only calls.
func (h *Handle) Contract() (*Bound, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.address == nil {
		return nil, &ContractNotBoundError{Op: "contract"}
	}
	return &Bound{abi: h.abi, address: *h.address, router: h.dispatcher.Router()}, nil
}

// ABI returns the bound ABI.
func (h *Handle) ABI() abi.ABI {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.abi
}

// Address returns the bound address and whether there is one.
func (h *Handle) Address() (common.Address, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.address == nil {
		return common.Address{}, false
	}
	return *h.address, true
}

type handleJSON struct {
	ABI     json.RawMessage `json:"abi"`
	Address *common.Address `json:"address"`
}

// JSON renders the binding as {"abi": [...], "address": "0x..."}; the
// address is null while unbound.
func (h *Handle) JSON() ([]byte, error) {
	h.mu.RLock()
	out := handleJSON{ABI: h.abiJSON, Address: h.address}
	h.mu.RUnlock()
	if out.ABI == nil {
		out.ABI = json.RawMessage("[]")
	}
	return json.Marshal(out)
}
