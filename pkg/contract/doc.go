// Package contract provides the Contract Handle: an ABI and an optional
// address bound to a dispatcher, with deploy, use and send operations.
//
//	h, err := contract.New(dispatcher, nil, nil)
//	p, err := h.Deploy(ctx, acct, abiJSON, bytecode, []any{big.NewInt(1)}, nil)
//	receipt, err := p.Wait(ctx) // h is now bound to receipt.ContractAddress
//
//	b, _ := h.Contract()
//	data, _ := b.Pack("increment")
//	p, err = h.Send(ctx, acct, data, nil, nil)
//
// Passing a nil account to Deploy uses the wallet transport instead. Send
// without a bound address fails with ContractNotBoundError before any network
// call.
package contract
