package dispatch

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrNoSignerAvailable is matched by every NoSignerAvailableError.
	ErrNoSignerAvailable = errors.New("no signer available")
	// ErrReverted is the cause recorded for receipts with a failed status.
	ErrReverted = errors.New("transaction reverted")
)

// NoSignerAvailableError is returned when a submission has neither an
// explicit account nor a usable wallet transport.
type NoSignerAvailableError struct {
	Reason string
}

func (e *NoSignerAvailableError) Error() string {
	if e.Reason == "" {
		return ErrNoSignerAvailable.Error()
	}
	return fmt.Sprintf("%s: %s", ErrNoSignerAvailable, e.Reason)
}

func (e *NoSignerAvailableError) Unwrap() error { return ErrNoSignerAvailable }

// TransactionRejectedError reports an error event from the node: a failed
// broadcast or an on-chain revert. Err is the provider's error unmodified and
// stays reachable through errors.As.
type TransactionRejectedError struct {
	Hash    common.Hash
	Receipt *types.Receipt
	Err     error
}

func (e *TransactionRejectedError) Error() string {
	if e.Hash == (common.Hash{}) {
		return fmt.Sprintf("transaction rejected: %v", e.Err)
	}
	return fmt.Sprintf("transaction %s rejected: %v", e.Hash.Hex(), e.Err)
}

func (e *TransactionRejectedError) Unwrap() error { return e.Err }
