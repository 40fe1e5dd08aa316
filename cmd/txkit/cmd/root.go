// Package cmd implements the txkit command line tool.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shamank/evm-txkit-go/pkg/config"
	"github.com/shamank/evm-txkit-go/pkg/sdk"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "txkit",
	Short: "Deploy, call and send to EVM contracts",
	Long: `txkit submits transactions through a configured node and wallet,
prices them from current block congestion and follows them to a receipt.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "txkit.yaml", "configuration file")
}

func loadCore(cmd *cobra.Command) (*sdk.Core, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return sdk.NewSDK(cmd.Context(), cfg)
}

func printProgress(cmd *cobra.Command) func(uint64, *types.Receipt) {
	return func(count uint64, r *types.Receipt) {
		fmt.Fprintf(cmd.ErrOrStderr(), "confirmation %d (block %s)\n", count, r.BlockNumber)
	}
}

func printReceipt(cmd *cobra.Command, r *types.Receipt) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tx:       %s\n", r.TxHash.Hex())
	fmt.Fprintf(out, "block:    %s\n", r.BlockNumber)
	fmt.Fprintf(out, "gas used: %d\n", r.GasUsed)
}
