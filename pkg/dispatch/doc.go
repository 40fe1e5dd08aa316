// Package dispatch drives a transaction from request construction to a single
// terminal outcome: a receipt or an error.
//
// # Submission modes
//
// Pre-signed (an Account is supplied):
//
//	p, err := d.Send(ctx, acct, contractAddr, calldata, nil, nil)
//	p, err := d.DeploySigned(ctx, acct, creationCode, nil, nil)
//
// The dispatcher prices the transaction with the gas estimator, asks the
// account for a signed raw transaction, broadcasts it with
// eth_sendRawTransaction and resolves on the first confirmation.
//
// Wallet-interactive (no Account, the router has a write transport):
//
//	p, err := d.DeployWithWallet(ctx, creationCode, nil, func(n uint64, r *types.Receipt) {
//		log.Printf("confirmations: %d", n)
//	})
//
// The sender is the wallet's first account. The submission resolves only once
// at least one block has been mined on top of the transaction's block; every
// confirmation count, zero included, is reported to the progress callback.
//
// # Outcomes
//
// A Pending settles exactly once. Confirmation and error events are published
// on an Emitter backed by go-ethereum's event.FeedOf; the Pending listens to
// both and unsubscribes when it settles, so events arriving later reach
// nobody. The Watcher stops polling as soon as no listener remains.
//
// Synchronous errors (returned by the submit call): NoSignerAvailableError.
// Asynchronous errors (returned by Pending.Wait): signing errors as returned
// by the account, TransactionRejectedError for broadcast failures and
// reverts, and the context error when the submission context ends.
//
// There is no internal timeout. Wait with a deadline to stop waiting; the
// submission keeps running until its own context ends.
package dispatch
