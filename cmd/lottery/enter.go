package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"
)

var enterCmd = &cobra.Command{
	Use:   "enter",
	Short: "Enter the lottery",
	Long: `Enter the deployed Lottery, paying the entrance fee plus one wei.

Examples:
  lottery enter --network localhost
  lottery enter --network goerli --account account1`,
	RunE: runEnter,
}

func init() {
	enterCmd.Flags().String("account", "deployer", "named account or index to enter with")
	rootCmd.AddCommand(enterCmd)
}

func runEnter(cmd *cobra.Command, args []string) error {
	account, _ := cmd.Flags().GetString("account")
	ctx := cmd.Context()

	a, err := openDeployed(cmd)
	if err != nil {
		return err
	}
	defer closeApp(ctx, a)

	lottery, err := a.Lottery(account)
	if err != nil {
		return err
	}
	fee, err := lottery.GetEntranceFee(ctx)
	if err != nil {
		return err
	}
	receipt, err := lottery.EnterLottery(ctx, new(big.Int).Add(fee, big.NewInt(1)))
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{"entered": true, "txHash": receipt.TxHash.Hex()})
	}

	fmt.Fprintln(stdout, "Entered!")
	return nil
}
