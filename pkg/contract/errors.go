package contract

import (
	"errors"
	"fmt"
)

// ErrContractNotBound is matched by every ContractNotBoundError.
var ErrContractNotBound = errors.New("contract not bound")

// ContractNotBoundError is returned by operations needing an address before
// the handle has one (no completed deploy and no Use with an address).
type ContractNotBoundError struct {
	Op string
}

func (e *ContractNotBoundError) Error() string {
	return fmt.Sprintf("%s: %s requires an address, deploy or use one first", ErrContractNotBound, e.Op)
}

func (e *ContractNotBoundError) Unwrap() error { return ErrContractNotBound }
