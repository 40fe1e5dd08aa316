package account

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shamank/evm-txkit-go/pkg/dispatch"
	"github.com/shamank/evm-txkit-go/pkg/grpc"
	"go.uber.org/zap"
)

// RemoteAccount delegates signing to a remote Signer service reached through
// the dynamic gRPC client. The service owns the key and the nonces.
type RemoteAccount struct {
	client  *grpc.Client
	address common.Address
	chainID *big.Int
}

// NewRemoteAccount creates an account for address signed by client.
func NewRemoteAccount(client *grpc.Client, address common.Address, chainID *big.Int) (*RemoteAccount, error) {
	if client == nil {
		return nil, errors.New("signer client is required")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id %v", chainID)
	}
	return &RemoteAccount{client: client, address: address, chainID: new(big.Int).Set(chainID)}, nil
}

// DialRemoteAccount asks the signer for its address and creates the account.
func DialRemoteAccount(ctx context.Context, client *grpc.Client, chainID *big.Int) (*RemoteAccount, error) {
	if client == nil {
		return nil, errors.New("signer client is required")
	}
	resp, err := client.CallWithMap(ctx, "GetAddress", map[string]any{})
	if err != nil {
		zap.L().Error("Failed to get signer address", zap.Error(err))
		return nil, fmt.Errorf("signer GetAddress: %w", err)
	}
	addr, _ := resp["address"].(string)
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("signer returned invalid address %q", addr)
	}
	return NewRemoteAccount(client, common.HexToAddress(addr), chainID)
}

// Address returns the account address.
func (a *RemoteAccount) Address() common.Address {
	return a.address
}

// SignTransaction sends req to the signer and checks that the returned
// transaction is signed by the account for the configured chain.
func (a *RemoteAccount) SignTransaction(ctx context.Context, req *dispatch.TxRequest) (*dispatch.SignedTx, error) {
	body := map[string]any{
		"from":      a.address.Hex(),
		"data":      hexutil.Encode(req.Data),
		"gas":       req.Gas,
		"gas_price": bigOrZero(req.GasPrice).String(),
		"value":     bigOrZero(req.Value).String(),
		"chain_id":  a.chainID.String(),
	}
	if req.To != nil {
		body["to"] = req.To.Hex()
	}

	resp, err := a.client.CallWithMap(ctx, "SignTransaction", body)
	if err != nil {
		zap.L().Error("Remote signer failed", zap.String("from", a.address.Hex()), zap.Error(err))
		return nil, fmt.Errorf("signer SignTransaction: %w", err)
	}
	rawHex, _ := resp["raw_transaction"].(string)
	raw, err := hexutil.Decode(rawHex)
	if err != nil {
		return nil, fmt.Errorf("decode signed transaction: %w", err)
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("decode signed transaction: %w", err)
	}
	if tx.ChainId().Cmp(a.chainID) != 0 {
		return nil, fmt.Errorf("signer used chain id %s, want %s", tx.ChainId(), a.chainID)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(a.chainID), tx)
	if err != nil {
		return nil, fmt.Errorf("recover signer: %w", err)
	}
	if sender != a.address {
		return nil, fmt.Errorf("transaction signed by %s, want %s", sender.Hex(), a.address.Hex())
	}
	return &dispatch.SignedTx{Raw: raw, Hash: tx.Hash()}, nil
}
