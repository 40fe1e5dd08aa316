// Package storage loads contract build artifacts and signer proto bundles
// from content-addressed storage or disk, and publishes artifacts to IPFS.
//
// # Sources
//
// ReadFile picks the backend from the URI:
//
//	ipfs://<cid> or a bare CID   Kubo HTTP API ("ipfs cat")
//	filecoin://<cid>             Lighthouse gateway (HTTP GET)
//	file://<path>                local file system
//
// # Artifacts
//
// An Artifact carries the JSON ABI, the creation bytecode and the known
// deployments per chain id:
//
//	client := storage.NewStorage("http://localhost:5001", "https://gateway.lighthouse.storage/ipfs/")
//	art, err := client.LoadArtifact(ctx, "ipfs://Qm...")
//	if err != nil {
//		return err
//	}
//	if addr, ok := art.AddressFor(chainID); ok {
//		// bind a contract handle to addr
//	}
//
// PublishArtifact uploads an artifact (for example after recording a new
// deployment with SetDeployment) and returns its ipfs:// URI.
//
// # Proto bundles
//
// ParseProtoFiles extracts .proto files from a tar or tar.gz archive; the
// remote signer's service definition can be distributed this way.
package storage
