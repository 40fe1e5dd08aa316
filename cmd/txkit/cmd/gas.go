package cmd

import (
	"fmt"

	"github.com/shamank/evm-txkit-go/pkg/blockchain"
	"github.com/spf13/cobra"
)

var gasCmd = &cobra.Command{
	Use:   "gas-price",
	Short: "Print the congestion adjusted gas price",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		core, err := loadCore(cmd)
		if err != nil {
			return err
		}
		defer core.Close()

		price := core.Estimator().GasPrice(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "%s wei (%s gwei)\n", price, blockchain.WeiToGwei(price))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gasCmd)
}
