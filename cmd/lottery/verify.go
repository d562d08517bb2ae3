package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <contract>",
	Short: "Verify a stored deployment on Etherscan",
	Long: `Submit the source of a stored deployment to Etherscan using the constructor
arguments it was deployed with. Requires ETHERSCAN_API_KEY.

Examples:
  lottery verify Lottery --network goerli`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(ctx, a)

	if err := a.Verify(ctx, args[0]); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{"contract": args[0], "network": a.Network.Name, "verified": true})
	}
	fmt.Fprintf(stdout, "%s verified\n", args[0])
	return nil
}
