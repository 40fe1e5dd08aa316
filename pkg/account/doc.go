// Package account provides dispatch.Account implementations.
//
// KeyAccount signs locally with an ECDSA key and asks the node for the
// pending nonce. RemoteAccount forwards each request to a Signer gRPC service
// (see the grpc package) and verifies the transaction it gets back.
package account
