// Command generate-bindings writes abigen Go bindings for contract artifacts
// and, optionally, for the SingularityNET ecosystem contracts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/abi/abigen"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shamank/evm-txkit-go/pkg/storage"
	contracts "github.com/singnet/snet-ecosystem-contracts"
	"github.com/spf13/cobra"
)

type binding struct {
	name     string
	abi      string
	bytecode string
}

func ecosystemBindings() []binding {
	return []binding{
		{"FetchToken", string(contracts.GetABIClean(contracts.FetchToken)), string(contracts.GetBytecodeClean(contracts.FetchToken))},
		{"Registry", string(contracts.GetABIClean(contracts.Registry)), string(contracts.GetBytecodeClean(contracts.Registry))},
		{"MultiPartyEscrow", string(contracts.GetABIClean(contracts.MultiPartyEscrow)), string(contracts.GetBytecodeClean(contracts.MultiPartyEscrow))},
	}
}

func artifactBindings(ctx context.Context, s *storage.Client, uris []string) ([]binding, error) {
	out := make([]binding, 0, len(uris))
	for _, uri := range uris {
		if _, err := os.Stat(uri); err == nil {
			uri = storage.FilePrefix + uri
		}
		a, err := s.LoadArtifact(ctx, uri)
		if err != nil {
			return nil, err
		}
		if a.ContractName == "" {
			return nil, fmt.Errorf("artifact %s has no contractName", uri)
		}
		out = append(out, binding{a.ContractName, string(a.ABI), common.Bytes2Hex(a.Bytecode)})
	}
	return out, nil
}

func generate(bindings []binding, pkg string) (string, error) {
	if len(bindings) == 0 {
		return "", errors.New("nothing to bind: pass artifacts or --ecosystem")
	}
	types := make([]string, len(bindings))
	abis := make([]string, len(bindings))
	codes := make([]string, len(bindings))
	for i, b := range bindings {
		types[i], abis[i], codes[i] = b.name, b.abi, b.bytecode
	}
	return abigen.Bind(types, abis, codes, nil, pkg, nil, nil)
}

func newRootCmd() *cobra.Command {
	var (
		pkg       string
		out       string
		ipfsURL   string
		ecosystem bool
	)
	cmd := &cobra.Command{
		Use:   "generate-bindings [artifact...]",
		Short: "Generate Go bindings from contract artifacts",
		Long: `Reads build artifacts (local paths, file://, ipfs:// or filecoin:// URIs)
and writes abigen bindings for all of them into a single Go file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := storage.NewStorage(ipfsURL, "https://gateway.lighthouse.storage/ipfs/")
			bindings, err := artifactBindings(cmd.Context(), s, args)
			if err != nil {
				return err
			}
			if ecosystem {
				bindings = append(bindings, ecosystemBindings()...)
			}
			code, err := generate(bindings, pkg)
			if err != nil {
				return fmt.Errorf("generate binding: %w", err)
			}

			if out == "" {
				root, err := moduleRoot()
				if err != nil {
					return fmt.Errorf("locate module root: %w", err)
				}
				out = filepath.Join(root, "bindings", pkg+".go")
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, []byte(code), 0o600); err != nil {
				return fmt.Errorf("write binding: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bindings to %s\n", len(bindings), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&pkg, "pkg", "bindings", "package name of the generated file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <module>/bindings/<pkg>.go)")
	cmd.Flags().StringVar(&ipfsURL, "ipfs", "", "IPFS API endpoint for ipfs:// artifacts")
	cmd.Flags().BoolVar(&ecosystem, "ecosystem", false, "include the SingularityNET ecosystem contracts")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, statErr := os.Stat(filepath.Join(dir, "go.mod")); statErr == nil {
			return dir, nil
		}
		next := filepath.Dir(dir)
		if next == dir {
			return "", fmt.Errorf("go.mod not found from %q", dir)
		}
		dir = next
	}
}
