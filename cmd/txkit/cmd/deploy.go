package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shamank/evm-txkit-go/pkg/contract"
	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy <artifact-uri> [constructor args...]",
	Short: "Deploy a contract artifact",
	Long: `Deploys the bytecode of an artifact (file://, ipfs:// or filecoin://).
The configured account signs the transaction; without one the wallet endpoint
is asked to. On success the deployment is recorded in the artifact, which can
be written back with --out or published to IPFS with --publish.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		publish, _ := cmd.Flags().GetBool("publish")

		core, err := loadCore(cmd)
		if err != nil {
			return err
		}
		defer core.Close()

		ctx := cmd.Context()
		artifact, err := core.Storage().LoadArtifact(ctx, args[0])
		if err != nil {
			return err
		}
		parsed, err := artifact.ParsedABI()
		if err != nil {
			return err
		}
		ctorArgs, err := contract.ParseArgs(parsed.Constructor.Inputs, args[1:])
		if err != nil {
			return err
		}

		_, pending, err := core.DeployArtifact(ctx, artifact, ctorArgs, printProgress(cmd))
		if err != nil {
			return err
		}
		receipt, err := core.Wait(ctx, pending)
		if err != nil {
			return err
		}
		printReceipt(cmd, receipt)
		fmt.Fprintf(cmd.OutOrStdout(), "contract: %s\n", receipt.ContractAddress.Hex())

		core.RecordDeployment(artifact, receipt)
		if out != "" {
			data, err := json.MarshalIndent(artifact, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
		}
		if publish {
			uri, err := core.Storage().PublishArtifact(ctx, artifact)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "artifact: %s\n", uri)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.Flags().StringP("out", "o", "", "write the updated artifact to this file")
	deployCmd.Flags().Bool("publish", false, "publish the updated artifact to IPFS")
}
