package main

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var upkeepCmd = &cobra.Command{
	Use:   "upkeep",
	Short: "Act as a Chainlink Keeper",
	Long: `Check whether the Lottery needs upkeep, or perform it.

On development chains nothing calls performUpkeep automatically, so these
commands stand in for the Keepers network.

Examples:
  lottery upkeep check --network localhost
  lottery upkeep perform --network localhost`,
}

var upkeepCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Call checkUpkeep(0x)",
	RunE:  runUpkeepCheck,
}

var upkeepPerformCmd = &cobra.Command{
	Use:   "perform",
	Short: "Send performUpkeep(0x)",
	RunE:  runUpkeepPerform,
}

var fulfillCmd = &cobra.Command{
	Use:   "fulfill <request-id>",
	Short: "Fulfill a randomness request on the VRF coordinator mock",
	Args:  cobra.ExactArgs(1),
	RunE:  runFulfill,
}

var timeCmd = &cobra.Command{
	Use:   "increase-time <seconds>",
	Short: "Advance a development chain's clock and mine a block",
	Args:  cobra.ExactArgs(1),
	RunE:  runIncreaseTime,
}

func init() {
	upkeepCmd.AddCommand(upkeepCheckCmd)
	upkeepCmd.AddCommand(upkeepPerformCmd)
	rootCmd.AddCommand(upkeepCmd)
	rootCmd.AddCommand(fulfillCmd)
	rootCmd.AddCommand(timeCmd)
}

func runUpkeepCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openDeployed(cmd)
	if err != nil {
		return err
	}
	defer closeApp(ctx, a)

	lottery, err := a.Lottery("deployer")
	if err != nil {
		return err
	}
	needed, performData, err := lottery.CheckUpkeep(ctx, nil)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{"upkeepNeeded": needed, "performData": hexutil.Encode(performData)})
	}
	fmt.Fprintf(stdout, "Upkeep needed:  %t\n", needed)
	fmt.Fprintf(stdout, "Perform data:   %s\n", hexutil.Encode(performData))
	return nil
}

func runUpkeepPerform(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openDeployed(cmd)
	if err != nil {
		return err
	}
	defer closeApp(ctx, a)

	lottery, err := a.Lottery("deployer")
	if err != nil {
		return err
	}
	receipt, requestID, err := lottery.PerformUpkeep(ctx, nil)
	if err != nil {
		return err
	}

	if jsonOut {
		out := map[string]any{"txHash": receipt.TxHash.Hex()}
		if requestID != nil {
			out["requestId"] = requestID.String()
		}
		return printJSON(out)
	}
	fmt.Fprintf(stdout, "Upkeep performed in tx %s\n", receipt.TxHash.Hex())
	if requestID != nil {
		fmt.Fprintf(stdout, "Request ID:     %s\n", requestID)
	}
	return nil
}

func runFulfill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	requestID, ok := new(big.Int).SetString(args[0], 10)
	if !ok {
		return fmt.Errorf("invalid request id %q", args[0])
	}

	a, err := openDeployed(cmd)
	if err != nil {
		return err
	}
	defer closeApp(ctx, a)

	coordinator, err := a.Coordinator("deployer")
	if err != nil {
		return err
	}
	lottery, err := a.Lottery("deployer")
	if err != nil {
		return err
	}
	if _, err := coordinator.FulfillRandomWords(ctx, requestID, lottery.Address); err != nil {
		return err
	}

	winner, err := lottery.GetRecentWinner(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{"requestId": requestID.String(), "recentWinner": winner.Hex()})
	}
	fmt.Fprintf(stdout, "Winner picked:  %s\n", winner.Hex())
	return nil
}

func runIncreaseTime(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	seconds, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid seconds %q: %w", args[0], err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(ctx, a)

	tt, err := a.TimeTraveler()
	if err != nil {
		return err
	}
	if err := tt.IncreaseTime(ctx, seconds); err != nil {
		return err
	}
	if err := tt.Mine(ctx); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{"advancedSeconds": seconds})
	}
	fmt.Fprintf(stdout, "Advanced %d seconds\n", seconds)
	return nil
}
