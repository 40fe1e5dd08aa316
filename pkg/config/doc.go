// Package config provides configuration for the transaction toolkit.
//
// # Basic Configuration
//
// The minimum configuration is a read endpoint:
//
//	cfg := &config.Config{
//		RPCAddr: "https://sepolia.infura.io/v3/YOUR_PROJECT_ID",
//		Network: config.Sepolia,
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// # Signing
//
// Pre-signed submissions need one of:
//
//   - PrivateKey: a local ECDSA key (hex, with or without 0x)
//   - Signer: a remote Signer gRPC service, optionally with a bearer token
//
// Setting both is an error. With neither, only wallet-interactive
// deployments through WalletAddr are possible.
//
// # Wallet Endpoint
//
// WalletAddr receives the methods listed in WriteMethods (or the router
// defaults): eth_sendTransaction, eth_accounts, signing methods and wallet_*
// calls. Everything else goes to RPCAddr.
//
// # Files
//
// Load reads YAML with ${ENV} expansion:
//
//	rpc_addr: https://sepolia.infura.io/v3/${INFURA_KEY}
//	private_key: ${DEPLOYER_KEY}
//	gas:
//	  deploy_limit: 8000000
//	  max_confirmations: 3
//	timeouts:
//	  receipt_wait: 3m
//
// Zero timeouts and gas values take defaults.
package config
