package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shamank/evm-txkit-go/pkg/provider"
	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is the first receipt poll delay.
	DefaultPollInterval = time.Second
	// DefaultMaxPollInterval caps the exponential receipt poll backoff.
	DefaultMaxPollInterval = 15 * time.Second
	// DefaultConfirmationDepth is the confirmation count after which a
	// transaction is no longer watched.
	DefaultConfirmationDepth = 12
)

// Watcher turns polling of eth_getTransactionReceipt and eth_blockNumber into
// confirmation and error events on an Emitter.
type Watcher struct {
	reader      provider.Requester
	interval    time.Duration
	maxInterval time.Duration
	depth       uint64
}

// NewWatcher creates a watcher with the given poll interval, backoff cap and
// confirmation depth. Zero values take the defaults.
func NewWatcher(reader provider.Requester, interval, maxInterval time.Duration, depth uint64) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxInterval < interval {
		maxInterval = DefaultMaxPollInterval
		if maxInterval < interval {
			maxInterval = interval
		}
	}
	if depth == 0 {
		depth = DefaultConfirmationDepth
	}
	return &Watcher{reader: reader, interval: interval, maxInterval: maxInterval, depth: depth}
}

// Depth returns the confirmation count at which watching stops.
func (w *Watcher) Depth() uint64 {
	return w.depth
}

// Watch polls until the transaction reaches the watcher's depth, fails, ctx
// ends, or nobody listens to em any more. Every new confirmation count is
// emitted once, in increasing order. Reverted receipts and lookup errors are
// emitted as failures.
func (w *Watcher) Watch(ctx context.Context, hash common.Hash, em *Emitter) {
	backoff := w.interval
	var next uint64
	for {
		receipt, err := w.receipt(ctx, hash)
		if err != nil {
			em.Fail(&TransactionRejectedError{Hash: hash, Err: fmt.Errorf("receipt error: %w", err)})
			return
		}

		if receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				em.Fail(&TransactionRejectedError{Hash: hash, Receipt: receipt, Err: ErrReverted})
				return
			}
			head, err := w.blockNumber(ctx)
			if err != nil {
				em.Fail(&TransactionRejectedError{Hash: hash, Receipt: receipt, Err: fmt.Errorf("block number error: %w", err)})
				return
			}
			count := confirmations(head, receipt)
			for ; next <= count && next <= w.depth; next++ {
				if em.Confirm(Confirmation{Count: next, Receipt: receipt}) == 0 {
					zap.L().Debug("confirmation watch abandoned", zap.String("txHash", hash.Hex()))
					return
				}
			}
			if count >= w.depth {
				return
			}
			backoff = w.interval
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			em.Fail(ctx.Err())
			return
		}
		if receipt == nil && backoff < w.maxInterval {
			backoff *= 2
			if backoff > w.maxInterval {
				backoff = w.maxInterval
			}
		}
	}
}

func confirmations(head uint64, receipt *types.Receipt) uint64 {
	if receipt.BlockNumber == nil || !receipt.BlockNumber.IsUint64() {
		return 0
	}
	included := receipt.BlockNumber.Uint64()
	if head <= included {
		return 0
	}
	return head - included
}

func (w *Watcher) receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	raw, err := w.reader.Request(ctx, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	receipt := new(types.Receipt)
	if err := json.Unmarshal(raw, receipt); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return receipt, nil
}

func (w *Watcher) blockNumber(ctx context.Context) (uint64, error) {
	raw, err := w.reader.Request(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	var n hexutil.Uint64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("decode block number: %w", err)
	}
	return uint64(n), nil
}
