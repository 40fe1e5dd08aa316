// Package grpc provides a dynamic gRPC client used to reach remote
// transaction signers.
//
// Proto sources are compiled at runtime with protocompile, so no generated
// stubs are needed. The signer service definition (signer.proto) is embedded
// and always compiled; callers may add their own files or replace it by
// supplying a file named SignerProtoFile.
//
// # Client Creation
//
//	client, err := grpc.NewClient("https://signer.internal:443", nil,
//		grpc.WithBearerToken(token))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Transport security follows the endpoint scheme:
//
//	"https://host:443"  TLS with system certificates
//	"http://host:8080"  plaintext
//	"host:8080"         plaintext
//
// # Invocation
//
// Methods are looked up by simple name across all compiled services:
//
//	out, err := client.CallWithJSON(ctx, "GetAddress", []byte(`{}`))
//	resp, err := client.CallWithMap(ctx, "SignTransaction", map[string]any{
//		"from": from.Hex(),
//		"gas":  21000,
//	})
//
// Responses use proto field names. Unknown request fields are discarded.
// Server errors are returned unchanged and can be inspected with
// status.Code.
//
// Client is safe for concurrent use.
package grpc
