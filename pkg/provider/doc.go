// Package provider routes JSON-RPC calls between two transports: a read
// transport talking directly to a node and a write transport that owns the
// user's signing channel (an injected wallet, Clef, a signing node).
//
// Routing depends only on the method name. Methods in the write set (by
// default everything that signs, reveals accounts or switches chains) go to
// the write transport; every other method, including unknown ones, goes to
// the read transport.
//
// Transports are plain values implementing at least one call convention:
//
//   - Requester: Request(ctx, method, params...) (json.RawMessage, error)
//   - AsyncSender: SendAsync(*Message, Callback)
//   - Sender: Send(*Message, Callback)
//
// The router prefers them in that order. Callback transports receive a
// JSON-RPC 2.0 envelope with a monotonic id and their callback is translated
// back into a result or error. A transport without any convention yields an
// UnsupportedTransportError before any I/O.
//
// The Router implements all three conventions itself, so it can stand in
// wherever a single provider is expected:
//
//	read, _ := provider.Dial(ctx, "https://sepolia.infura.io/v3/KEY")
//	wallet, _ := provider.Dial(ctx, "http://127.0.0.1:8550") // clef
//	router := provider.NewRouter(read, wallet)
//	raw, err := router.Request(ctx, "eth_blockNumber")
package provider
