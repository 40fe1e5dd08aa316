package dispatch

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxRequest is the transaction record built for a single submission. A new
// one is built per call and never resubmitted.
type TxRequest struct {
	From     common.Address
	To       *common.Address // nil for contract creation
	Data     []byte
	Gas      uint64
	GasPrice *big.Int
	Value    *big.Int
}

// IsCreate reports whether the request deploys a contract.
func (r *TxRequest) IsCreate() bool {
	return r.To == nil
}

// SignedTx is what an Account hands back for broadcasting.
type SignedTx struct {
	Raw  []byte
	Hash common.Hash
}

// Account is an external signer. Nonce assignment is its responsibility (or
// the node's); the dispatcher never tracks nonces.
type Account interface {
	Address() common.Address
	SignTransaction(ctx context.Context, tx *TxRequest) (*SignedTx, error)
}

// Confirmation reports the number of blocks mined on top of the block holding
// the transaction, together with its receipt.
type Confirmation struct {
	Count   uint64
	Receipt *types.Receipt
}

// ProgressFunc observes every confirmation of a submission, including the
// ones that do not complete it.
type ProgressFunc func(count uint64, receipt *types.Receipt)

// ReceiptHook runs once when a submission succeeds, before waiters are
// released.
type ReceiptHook func(receipt *types.Receipt)

// txArgs is the eth_sendTransaction argument object.
type txArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to,omitempty"`
	Gas      hexutil.Uint64  `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
}

func newTxArgs(r *TxRequest) txArgs {
	return txArgs{
		From:     r.From,
		To:       r.To,
		Gas:      hexutil.Uint64(r.Gas),
		GasPrice: (*hexutil.Big)(r.GasPrice),
		Value:    (*hexutil.Big)(r.Value),
		Data:     r.Data,
	}
}
