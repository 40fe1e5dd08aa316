package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shamank/evm-txkit-go/pkg/blockchain"
	"github.com/shamank/evm-txkit-go/pkg/contract"
	"github.com/shamank/evm-txkit-go/pkg/sdk"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <artifact-uri> <method> [args...]",
	Short: "Send a signed transaction to a deployed contract",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, _ := cmd.Flags().GetString("value")

		core, err := loadCore(cmd)
		if err != nil {
			return err
		}
		defer core.Close()

		bound, handle, err := bind(cmd, core, args[0])
		if err != nil {
			return err
		}
		method, ok := bound.ABI().Methods[args[1]]
		if !ok {
			return fmt.Errorf("method %s not in abi", args[1])
		}
		callArgs, err := contract.ParseArgs(method.Inputs, args[2:])
		if err != nil {
			return err
		}
		data, err := bound.Pack(method.Name, callArgs...)
		if err != nil {
			return err
		}

		var wei *big.Int
		if value != "" {
			if wei, err = blockchain.EtherToWei(value); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		pending, err := handle.Send(ctx, core.Account(), data, wei, printProgress(cmd))
		if err != nil {
			return err
		}
		receipt, err := core.Wait(ctx, pending)
		if err != nil {
			return err
		}
		printReceipt(cmd, receipt)
		return nil
	},
}

var callCmd = &cobra.Command{
	Use:   "call <artifact-uri> <method> [args...]",
	Short: "Call a read-only contract method",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := loadCore(cmd)
		if err != nil {
			return err
		}
		defer core.Close()

		bound, _, err := bind(cmd, core, args[0])
		if err != nil {
			return err
		}
		method, ok := bound.ABI().Methods[args[1]]
		if !ok {
			return fmt.Errorf("method %s not in abi", args[1])
		}
		callArgs, err := contract.ParseArgs(method.Inputs, args[2:])
		if err != nil {
			return err
		}
		out, err := bound.Call(cmd.Context(), method.Name, callArgs...)
		if err != nil {
			return err
		}
		for i, v := range out {
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %v\n", i, v)
		}
		return nil
	},
}

// bind loads the artifact and binds it, honouring --address.
func bind(cmd *cobra.Command, core *sdk.Core, uri string) (*contract.Bound, *contract.Handle, error) {
	handle, artifact, err := core.LoadContract(cmd.Context(), uri)
	if err != nil {
		return nil, nil, err
	}
	if addr, _ := cmd.Flags().GetString("address"); addr != "" {
		if !common.IsHexAddress(addr) {
			return nil, nil, fmt.Errorf("invalid address %q", addr)
		}
		to := common.HexToAddress(addr)
		if err := handle.Use(artifact.ABI, &to); err != nil {
			return nil, nil, err
		}
	}
	bound, err := handle.Contract()
	if err != nil {
		return nil, nil, err
	}
	return bound, handle, nil
}

func init() {
	rootCmd.AddCommand(sendCmd, callCmd)
	for _, c := range []*cobra.Command{sendCmd, callCmd} {
		c.Flags().String("address", "", "contract address, overriding the artifact's deployment")
	}
	sendCmd.Flags().String("value", "", "ether to send with the call")
}
