package blockchain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// GweiDecimals is the exponent between wei and gwei.
	GweiDecimals = 9
	// EtherDecimals is the exponent between wei and ether.
	EtherDecimals = 18
)

// GetAddressFromPrivateKeyECDSA derives the Ethereum address from the given
// ECDSA private key. It returns nil if the key is nil or its public part cannot
// be asserted to *ecdsa.PublicKey.
func GetAddressFromPrivateKeyECDSA(privateKeyECDSA *ecdsa.PrivateKey) *common.Address {
	if privateKeyECDSA == nil {
		return nil
	}
	publicKey := privateKeyECDSA.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil
	}
	addr := crypto.PubkeyToAddress(*publicKeyECDSA)
	return &addr
}

// ParsePrivateKeyECDSA parses a hex-encoded ECDSA private key (with or without
// 0x prefix) and returns the corresponding Ethereum address together with the
// private key object.
func ParsePrivateKeyECDSA(privateKey string) (common.Address, *ecdsa.PrivateKey, error) {
	if len(privateKey) > 1 && (privateKey[:2] == "0x" || privateKey[:2] == "0X") {
		privateKey = privateKey[2:]
	}
	privateKeyECDSA, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return common.Address{}, nil, err
	}

	addr := GetAddressFromPrivateKeyECDSA(privateKeyECDSA)
	if addr == nil {
		return common.Address{}, nil, errors.New("failed to get public key")
	}
	return *addr, privateKeyECDSA, nil
}

// ToWei converts an amount expressed with the given number of decimals into
// its smallest unit.
//
// Supported input types: string, float64, int64, int, decimal.Decimal,
// *decimal.Decimal, *big.Int (already in the larger unit). Fractions smaller
// than one wei are truncated.
func ToWei(iamount any, decimals int32) (*big.Int, error) {
	var amount decimal.Decimal
	switch v := iamount.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			zap.L().Error("Failed to convert string to decimal", zap.String("amount", v), zap.Error(err))
			return nil, err
		}
		amount = d
	case float64:
		amount = decimal.NewFromFloat(v)
	case int64:
		amount = decimal.NewFromInt(v)
	case int:
		amount = decimal.NewFromInt(int64(v))
	case decimal.Decimal:
		amount = v
	case *decimal.Decimal:
		if v == nil {
			return nil, errors.New("nil amount")
		}
		amount = *v
	case *big.Int:
		if v == nil {
			return nil, errors.New("nil amount")
		}
		amount = decimal.NewFromBigInt(v, 0)
	default:
		zap.L().Error("Unsupported amount type", zap.String("type", fmt.Sprintf("%T", iamount)))
		return nil, fmt.Errorf("unsupported amount type %T", iamount)
	}
	return amount.Shift(decimals).BigInt(), nil
}

// FromWei converts a value in the smallest unit into a decimal expressed with
// the given number of decimals. A nil value converts to zero.
func FromWei(value *big.Int, decimals int32) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -decimals)
}

// EtherToWei converts an ether amount to wei. See ToWei for accepted types.
func EtherToWei(amount any) (*big.Int, error) {
	return ToWei(amount, EtherDecimals)
}

// GweiToWei converts a gwei amount to wei. See ToWei for accepted types.
func GweiToWei(amount any) (*big.Int, error) {
	return ToWei(amount, GweiDecimals)
}

// WeiToEther renders wei as ether.
func WeiToEther(value *big.Int) decimal.Decimal {
	return FromWei(value, EtherDecimals)
}

// WeiToGwei renders wei as gwei.
func WeiToGwei(value *big.Int) decimal.Decimal {
	return FromWei(value, GweiDecimals)
}
