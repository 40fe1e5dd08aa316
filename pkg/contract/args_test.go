package contract

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const argsABI = `[{"type":"function","name":"f","inputs":[
  {"name":"to","type":"address"},
  {"name":"amount","type":"uint256"},
  {"name":"small","type":"uint8"},
  {"name":"delta","type":"int64"},
  {"name":"flag","type":"bool"},
  {"name":"label","type":"string"},
  {"name":"blob","type":"bytes"},
  {"name":"id","type":"bytes4"}
],"outputs":[]}]`

func argsMethod(t *testing.T) abi.Method {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(argsABI))
	if err != nil {
		t.Fatal(err)
	}
	return parsed.Methods["f"]
}

func TestParseArgs(t *testing.T) {
	m := argsMethod(t)
	args, err := ParseArgs(m.Inputs, []string{
		"0x00000000000000000000000000000000000000aa",
		"1000000000000000000000",
		"0xff",
		"-5",
		"true",
		"hello",
		"0xcafe",
		"0x01020304",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args[0] != common.HexToAddress("0xaa") {
		t.Fatalf("address %v", args[0])
	}
	want, _ := new(big.Int).SetString("1000000000000000000000", 10)
	if args[1].(*big.Int).Cmp(want) != 0 {
		t.Fatalf("amount %v", args[1])
	}
	if args[2] != uint8(255) || args[3] != int64(-5) || args[4] != true || args[5] != "hello" {
		t.Fatalf("scalars %v", args[2:6])
	}
	if args[7] != [4]byte{1, 2, 3, 4} {
		t.Fatalf("fixed bytes %v", args[7])
	}

	if _, err := m.Inputs.Pack(args...); err != nil {
		t.Fatalf("parsed arguments do not pack: %v", err)
	}
}

func TestParseArgsErrors(t *testing.T) {
	m := argsMethod(t)
	valid := []string{"0x00000000000000000000000000000000000000aa", "1", "1", "1", "true", "x", "0x", "0x01020304"}

	tests := []struct {
		name  string
		index int
		value string
		want  string
	}{
		{"bad address", 0, "0x12", "to"},
		{"negative uint", 1, "-1", "negative"},
		{"uint256 overflow", 1, "0x1" + strings.Repeat("0", 64), "overflows"},
		{"uint8 overflow", 2, "256", "overflows"},
		{"not a number", 3, "abc", "invalid integer"},
		{"bad bool", 4, "maybe", "flag"},
		{"bad hex", 6, "cafe", "blob"},
		{"short fixed bytes", 7, "0x0102", "want 4"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := append([]string(nil), valid...)
			raw[tc.index] = tc.value
			_, err := ParseArgs(m.Inputs, raw)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("ParseArgs() = %v, want error containing %q", err, tc.want)
			}
		})
	}

	if _, err := ParseArgs(m.Inputs, valid[:2]); err == nil {
		t.Fatal("expected argument count error")
	}
}
