package contract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shamank/evm-txkit-go/pkg/provider"
)

// Bound is a snapshot of a handle's binding.
type Bound struct {
	abi     abi.ABI
	address common.Address
	router  *provider.Router
}

// Address returns the contract address.
func (b *Bound) Address() common.Address { return b.address }

// ABI returns the contract ABI.
func (b *Bound) ABI() abi.ABI { return b.abi }

// Pack encodes a method call, ready for Handle.Send.
func (b *Bound) Pack(method string, args ...any) ([]byte, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

type callArgs struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// Call runs a read-only method with eth_call at the latest block and unpacks
// its outputs.
func (b *Bound) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := b.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	raw, err := b.router.Request(ctx, "eth_call", callArgs{To: b.address, Data: data}, "latest")
	if err != nil {
		return nil, err
	}
	var out hexutil.Bytes
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode eth_call result: %w", err)
	}
	values, err := b.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}
