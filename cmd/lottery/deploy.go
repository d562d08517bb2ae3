package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nathanTypo/lottery-pc/internal/deployments"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run the deploy scripts",
	Long: `Run the deploy scripts whose tags match --tags, in order:

  00-deploy-mocks       (all, mocks)     VRFCoordinatorV2Mock, development chain only
  01-deploy-lottery     (all, lottery)   Lottery, plus subscription setup on development chains
  99-update-front-end   (all, frontend)  only when UPDATE_FRONT_END is set

Contracts whose stored deployment matches the current bytecode and arguments are
reused. Use --reset to deploy everything again.

Examples:
  lottery deploy
  lottery deploy --network localhost --tags mocks,lottery
  lottery deploy --network goerli --reset`,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().StringSlice("tags", []string{"all"}, "deploy script tags to run")
	deployCmd.Flags().Bool("reset", false, "discard stored deployments and redeploy")
	rootCmd.AddCommand(deployCmd)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	tags, _ := cmd.Flags().GetStringSlice("tags")
	reset, _ := cmd.Flags().GetBool("reset")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd.Context(), a)

	if err := a.Deploy(cmd.Context(), tags, reset); err != nil {
		return err
	}

	all, err := a.Store.All()
	if err != nil {
		return err
	}
	names, err := deployments.Names(a.Store)
	if err != nil {
		return err
	}
	if jsonOut {
		out := make(map[string]string, len(names))
		for _, name := range names {
			out[name] = all[name].Address.Hex()
		}
		return printJSON(out)
	}
	for _, name := range names {
		fmt.Fprintf(stdout, "%-22s %s\n", name, all[name].Address.Hex())
	}
	return nil
}
