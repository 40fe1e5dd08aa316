package dispatch

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Pending is a single in-flight submission. It settles exactly once: with a
// receipt on the first qualifying confirmation or with the first error event,
// whichever comes first. Its listeners are unsubscribed as soon as it settles,
// so later events are inert.
type Pending struct {
	once sync.Once
	done chan struct{}

	mu   sync.Mutex
	hash common.Hash

	receipt *types.Receipt
	err     error

	minConfirmations uint64
	progress         ProgressFunc
	hooks            []ReceiptHook
}

// newPending subscribes to em before returning, so no event emitted after the
// call can be missed.
func newPending(em *Emitter, minConfirmations uint64, progress ProgressFunc, hooks ...ReceiptHook) *Pending {
	p := &Pending{
		done:             make(chan struct{}),
		minConfirmations: minConfirmations,
		progress:         progress,
		hooks:            hooks,
	}
	confs := make(chan Confirmation)
	fails := make(chan error)
	confSub := em.SubscribeConfirmations(confs)
	failSub := em.SubscribeFailures(fails)
	go p.listen(confs, fails, confSub, failSub)
	return p
}

func (p *Pending) listen(confs <-chan Confirmation, fails <-chan error, subs ...interface{ Unsubscribe() }) {
	defer func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}()
	for {
		select {
		case c := <-confs:
			if p.progress != nil {
				p.progress(c.Count, c.Receipt)
			}
			if c.Count >= p.minConfirmations {
				p.resolve(c.Receipt)
				return
			}
		case err := <-fails:
			p.reject(err)
			return
		}
	}
}

func (p *Pending) resolve(receipt *types.Receipt) {
	p.once.Do(func() {
		for _, hook := range p.hooks {
			hook(receipt)
		}
		p.receipt = receipt
		if receipt != nil {
			zap.L().Info("Transaction confirmed",
				zap.String("txHash", receipt.TxHash.Hex()),
				zap.Uint64("gasUsed", receipt.GasUsed))
		}
		close(p.done)
	})
}

func (p *Pending) reject(err error) {
	p.once.Do(func() {
		p.err = err
		zap.L().Error("Transaction failed", zap.String("txHash", p.Hash().Hex()), zap.Error(err))
		close(p.done)
	})
}

func (p *Pending) setHash(h common.Hash) {
	p.mu.Lock()
	p.hash = h
	p.mu.Unlock()
}

// Hash returns the transaction hash once broadcast, the zero hash before.
func (p *Pending) Hash() common.Hash {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hash
}

// Done is closed when the submission settles.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the submission settles or ctx ends. Giving up on ctx does
// not stop the submission: it may still settle later.
func (p *Pending) Wait(ctx context.Context) (*types.Receipt, error) {
	select {
	case <-p.done:
		return p.receipt, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
