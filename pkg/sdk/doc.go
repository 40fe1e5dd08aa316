// Package sdk is the entry point of the transaction toolkit.
//
// NewSDK turns a config.Config into a Core: it dials the read endpoint and
// the optional wallet endpoint, checks the node's chain id, and builds the
// router, gas estimator, dispatcher, storage client and signing account.
//
//	cfg, err := config.Load("txkit.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	core, err := sdk.NewSDK(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer core.Close()
//
//	artifact, err := core.Storage().LoadArtifact(ctx, "file://build/Counter.json")
//	...
//	handle, pending, err := core.DeployArtifact(ctx, artifact, []any{big.NewInt(1)}, nil)
//	...
//	receipt, err := core.Wait(ctx, pending)
//
// The signing account is, in order of preference, the one passed with
// WithAccount, a local key (PrivateKey) or a remote Signer service. Without
// any, deployments go through the wallet endpoint.
//
// The package installs a console zap logger at init. Debug in the config
// lowers its level to debug.
package sdk
