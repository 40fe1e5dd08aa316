package account

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shamank/evm-txkit-go/pkg/blockchain"
	"github.com/shamank/evm-txkit-go/pkg/dispatch"
	"github.com/shamank/evm-txkit-go/pkg/provider"
	"go.uber.org/zap"
)

// KeyAccount signs legacy EIP-155 transactions with a local ECDSA key. The
// nonce of every transaction is the node's pending transaction count for the
// account; nothing is tracked locally.
type KeyAccount struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	nonces  provider.Requester
}

// NewKeyAccount creates an account for key on chainID. nonces answers
// eth_getTransactionCount, usually the Router or the read transport.
func NewKeyAccount(key *ecdsa.PrivateKey, chainID *big.Int, nonces provider.Requester) (*KeyAccount, error) {
	if key == nil {
		return nil, errors.New("private key is required")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id %v", chainID)
	}
	if nonces == nil {
		return nil, errors.New("nonce source is required")
	}
	return &KeyAccount{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).Set(chainID),
		nonces:  nonces,
	}, nil
}

// NewKeyAccountFromHex parses a hex private key (with or without 0x) and
// creates a KeyAccount for it.
func NewKeyAccountFromHex(hexKey string, chainID *big.Int, nonces provider.Requester) (*KeyAccount, error) {
	_, key, err := blockchain.ParsePrivateKeyECDSA(hexKey)
	if err != nil {
		zap.L().Error("Failed to parse private key", zap.Error(err))
		return nil, err
	}
	return NewKeyAccount(key, chainID, nonces)
}

// Address returns the account address.
func (a *KeyAccount) Address() common.Address {
	return a.address
}

// ChainID returns the chain id transactions are signed for.
func (a *KeyAccount) ChainID() *big.Int {
	return new(big.Int).Set(a.chainID)
}

// SignTransaction fetches the pending nonce and signs req.
func (a *KeyAccount) SignTransaction(ctx context.Context, req *dispatch.TxRequest) (*dispatch.SignedTx, error) {
	if req.From != (common.Address{}) && req.From != a.address {
		return nil, fmt.Errorf("request sender %s does not match account %s", req.From.Hex(), a.address.Hex())
	}
	nonce, err := a.pendingNonce(ctx)
	if err != nil {
		zap.L().Error("Failed to get pending nonce", zap.String("address", a.address.Hex()), zap.Error(err))
		return nil, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: bigOrZero(req.GasPrice),
		Gas:      req.Gas,
		To:       req.To,
		Value:    bigOrZero(req.Value),
		Data:     req.Data,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(a.chainID), a.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	zap.L().Debug("Transaction signed",
		zap.String("txHash", signed.Hash().Hex()),
		zap.String("from", a.address.Hex()),
		zap.Uint64("nonce", nonce))
	return &dispatch.SignedTx{Raw: raw, Hash: signed.Hash()}, nil
}

func (a *KeyAccount) pendingNonce(ctx context.Context) (uint64, error) {
	raw, err := a.nonces.Request(ctx, "eth_getTransactionCount", a.address, "pending")
	if err != nil {
		return 0, fmt.Errorf("eth_getTransactionCount: %w", err)
	}
	var n hexutil.Uint64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("decode nonce: %w", err)
	}
	return uint64(n), nil
}

// ChainID asks r for the chain id with eth_chainId.
func ChainID(ctx context.Context, r provider.Requester) (*big.Int, error) {
	raw, err := r.Request(ctx, "eth_chainId")
	if err != nil {
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	var id hexutil.Big
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("decode chain id: %w", err)
	}
	return id.ToInt(), nil
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
