// Package rpcfake provides in-memory JSON-RPC collaborators for tests: a
// scripted chain node and transports recording which call convention was used.
package rpcfake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// WalletTx is a transaction submitted with eth_sendTransaction.
type WalletTx struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to"`
	Gas      hexutil.Uint64  `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`
	Data     hexutil.Bytes   `json:"data"`
}

type queued struct {
	hash   common.Hash
	from   common.Address
	nonce  uint64
	create bool
}

// Chain is a scripted node implementing provider.Requester. Submitted
// transactions are queued until Mine is called, or included immediately with
// AutoMine. With AutoMine, every eth_blockNumber call also advances the head
// by one block after answering.
type Chain struct {
	mu sync.Mutex

	chainID  *big.Int
	gasPrice *big.Int
	gasUsed  uint64
	gasLimit uint64
	head     uint64
	autoMine bool

	accounts []common.Address
	nonces   map[common.Address]uint64
	queue    []queued
	receipts map[common.Hash]*types.Receipt

	revertAll bool

	errs        map[string]error
	callResults map[string]json.RawMessage

	calls    []string
	raw      []*types.Transaction
	walletTx []WalletTx
}

// NewChain returns a chain at block 100 with a 1 gwei gas price, an empty
// latest block and a 30M gas limit.
func NewChain(chainID int64) *Chain {
	return &Chain{
		chainID:     big.NewInt(chainID),
		gasPrice:    big.NewInt(1_000_000_000),
		gasLimit:    30_000_000,
		head:        100,
		nonces:      make(map[common.Address]uint64),
		receipts:    make(map[common.Hash]*types.Receipt),
		errs:        make(map[string]error),
		callResults: make(map[string]json.RawMessage),
	}
}

// ChainID returns the chain id reported by eth_chainId.
func (c *Chain) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// SetGasPrice sets the eth_gasPrice answer.
func (c *Chain) SetGasPrice(p *big.Int) {
	c.mu.Lock()
	c.gasPrice = p
	c.mu.Unlock()
}

// SetBlockGas sets gasUsed and gasLimit of the latest block.
func (c *Chain) SetBlockGas(used, limit uint64) {
	c.mu.Lock()
	c.gasUsed, c.gasLimit = used, limit
	c.mu.Unlock()
}

// SetAccounts sets the eth_accounts answer.
func (c *Chain) SetAccounts(accounts ...common.Address) {
	c.mu.Lock()
	c.accounts = accounts
	c.mu.Unlock()
}

// SetNonce sets the pending nonce of addr.
func (c *Chain) SetNonce(addr common.Address, nonce uint64) {
	c.mu.Lock()
	c.nonces[addr] = nonce
	c.mu.Unlock()
}

// SetAutoMine toggles immediate inclusion and head advancement.
func (c *Chain) SetAutoMine(on bool) {
	c.mu.Lock()
	c.autoMine = on
	c.mu.Unlock()
}

// RevertAll makes every later inclusion produce a failed receipt.
func (c *Chain) RevertAll(on bool) {
	c.mu.Lock()
	c.revertAll = on
	c.mu.Unlock()
}

// Fail makes every call of method return err. A nil err clears it.
func (c *Chain) Fail(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.errs, method)
		return
	}
	c.errs[method] = err
}

// SetCallResult scripts the eth_call answer for the given calldata.
func (c *Chain) SetCallResult(data []byte, result []byte) {
	c.mu.Lock()
	c.callResults[hexutil.Encode(data)] = json.RawMessage(fmt.Sprintf("%q", hexutil.Encode(result)))
	c.mu.Unlock()
}

// Head returns the current block number.
func (c *Chain) Head() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head
}

// Calls returns the methods requested so far, in order.
func (c *Chain) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// RawTransactions returns the transactions received with
// eth_sendRawTransaction.
func (c *Chain) RawTransactions() []*types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*types.Transaction(nil), c.raw...)
}

// WalletTransactions returns the transactions received with
// eth_sendTransaction.
func (c *Chain) WalletTransactions() []WalletTx {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]WalletTx(nil), c.walletTx...)
}

// Mine includes every queued transaction in the next block and then mines n-1
// further empty blocks. Mine(0) does nothing.
func (c *Chain) Mine(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n == 0 {
		return
	}
	c.head++
	c.includeLocked()
	c.head += n - 1
}

func (c *Chain) includeLocked() {
	for i, q := range c.queue {
		status := types.ReceiptStatusSuccessful
		if c.revertAll {
			status = types.ReceiptStatusFailed
		}
		r := &types.Receipt{
			Type:              types.LegacyTxType,
			Status:            status,
			CumulativeGasUsed: 21_000 * uint64(i+1),
			Logs:              []*types.Log{},
			TxHash:            q.hash,
			GasUsed:           21_000,
			BlockHash:         crypto.Keccak256Hash(new(big.Int).SetUint64(c.head).Bytes()),
			BlockNumber:       new(big.Int).SetUint64(c.head),
			TransactionIndex:  uint(i),
		}
		if q.create {
			r.ContractAddress = crypto.CreateAddress(q.from, q.nonce)
		}
		c.receipts[q.hash] = r
	}
	c.queue = nil
}

func (c *Chain) enqueueLocked(q queued) {
	c.queue = append(c.queue, q)
	if c.autoMine {
		c.head++
		c.includeLocked()
	}
}

// Request implements provider.Requester.
func (c *Chain) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, method)
	if err := c.errs[method]; err != nil {
		return nil, err
	}

	switch method {
	case "eth_chainId":
		return encode((*hexutil.Big)(c.chainID))
	case "eth_gasPrice":
		return encode((*hexutil.Big)(c.gasPrice))
	case "eth_blockNumber":
		out, err := encode(hexutil.Uint64(c.head))
		if c.autoMine {
			c.head++
		}
		return out, err
	case "eth_getBlockByNumber":
		return encode(map[string]any{
			"number":   hexutil.Uint64(c.head),
			"gasUsed":  hexutil.Uint64(c.gasUsed),
			"gasLimit": hexutil.Uint64(c.gasLimit),
		})
	case "eth_accounts":
		if c.accounts == nil {
			return encode([]common.Address{})
		}
		return encode(c.accounts)
	case "eth_getTransactionCount":
		var addr common.Address
		if err := arg(params, 0, &addr); err != nil {
			return nil, err
		}
		return encode(hexutil.Uint64(c.nonces[addr]))
	case "eth_sendRawTransaction":
		return c.sendRawLocked(params)
	case "eth_sendTransaction":
		return c.sendWalletLocked(params)
	case "eth_getTransactionReceipt":
		var hash common.Hash
		if err := arg(params, 0, &hash); err != nil {
			return nil, err
		}
		if r, ok := c.receipts[hash]; ok {
			return encode(r)
		}
		return json.RawMessage("null"), nil
	case "eth_call":
		var call struct {
			Data  hexutil.Bytes `json:"data"`
			Input hexutil.Bytes `json:"input"`
		}
		if err := arg(params, 0, &call); err != nil {
			return nil, err
		}
		data := call.Input
		if len(data) == 0 {
			data = call.Data
		}
		if res, ok := c.callResults[hexutil.Encode(data)]; ok {
			return res, nil
		}
		return json.RawMessage(`"0x"`), nil
	}
	return nil, fmt.Errorf("rpcfake: method %s not supported", method)
}

func (c *Chain) sendRawLocked(params []any) (json.RawMessage, error) {
	var raw hexutil.Bytes
	if err := arg(params, 0, &raw); err != nil {
		return nil, err
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("rpcfake: decode raw transaction: %w", err)
	}
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, fmt.Errorf("rpcfake: recover sender: %w", err)
	}
	c.raw = append(c.raw, tx)
	c.enqueueLocked(queued{
		hash:   tx.Hash(),
		from:   from,
		nonce:  tx.Nonce(),
		create: tx.To() == nil,
	})
	if tx.Nonce() >= c.nonces[from] {
		c.nonces[from] = tx.Nonce() + 1
	}
	return encode(tx.Hash())
}

func (c *Chain) sendWalletLocked(params []any) (json.RawMessage, error) {
	var wtx WalletTx
	if err := arg(params, 0, &wtx); err != nil {
		return nil, err
	}
	nonce := c.nonces[wtx.From]
	c.nonces[wtx.From] = nonce + 1
	c.walletTx = append(c.walletTx, wtx)

	hash := crypto.Keccak256Hash(wtx.From.Bytes(), new(big.Int).SetUint64(nonce).Bytes(), wtx.Data)
	c.enqueueLocked(queued{
		hash:   hash,
		from:   wtx.From,
		nonce:  nonce,
		create: wtx.To == nil,
	})
	return encode(hash)
}

// arg decodes positional parameter i into v. Parameters may be Go values or
// raw JSON; both are normalised through JSON.
func arg(params []any, i int, v any) error {
	if i >= len(params) {
		return errors.New("rpcfake: missing parameter")
	}
	raw, err := json.Marshal(params[i])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func encode(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
