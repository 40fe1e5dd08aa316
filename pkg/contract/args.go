package contract

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseArgs converts textual arguments into the Go values abi.Pack expects
// for inputs. Integers accept decimal or 0x-prefixed hex; bytes are hex.
// Arrays, slices and tuples are not supported.
func ParseArgs(inputs abi.Arguments, raw []string) ([]any, error) {
	if len(raw) != len(inputs) {
		return nil, fmt.Errorf("got %d arguments, want %d", len(raw), len(inputs))
	}
	out := make([]any, len(raw))
	for i, in := range inputs {
		v, err := parseArg(in.Type, raw[i])
		if err != nil {
			name := in.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, in.Type, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseArg(t abi.Type, s string) (any, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.StringTy:
		return s, nil
	case abi.BytesTy:
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("got %d bytes, want %d", len(b), t.Size)
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v.Interface(), nil
	case abi.IntTy, abi.UintTy:
		return parseInt(t, s)
	}
	return nil, fmt.Errorf("unsupported type")
}

func parseInt(t abi.Type, s string) (any, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value for unsigned integer")
	}
	if t.Size > 64 {
		if t.T == abi.UintTy && n.BitLen() > t.Size {
			return nil, fmt.Errorf("value overflows uint%d", t.Size)
		}
		if t.T == abi.IntTy && n.BitLen() > t.Size-1 {
			return nil, fmt.Errorf("value overflows int%d", t.Size)
		}
		return n, nil
	}

	v := reflect.New(t.GetType()).Elem()
	if t.T == abi.UintTy {
		if !n.IsUint64() || v.OverflowUint(n.Uint64()) {
			return nil, fmt.Errorf("value overflows uint%d", t.Size)
		}
		v.SetUint(n.Uint64())
		return v.Interface(), nil
	}
	if !n.IsInt64() || v.OverflowInt(n.Int64()) {
		return nil, fmt.Errorf("value overflows int%d", t.Size)
	}
	v.SetInt(n.Int64())
	return v.Interface(), nil
}
