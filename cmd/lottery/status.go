package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nathanTypo/lottery-pc/internal/networks"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the deployed Lottery",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	state, err := lottery.GetLotteryState(ctx)
	if err != nil {
		return err
	}
	players, err := lottery.GetNumberOfPlayers(ctx)
	if err != nil {
		return err
	}
	winner, err := lottery.GetRecentWinner(ctx)
	if err != nil {
		return err
	}
	latest, err := lottery.GetLatestTimeStamp(ctx)
	if err != nil {
		return err
	}
	interval, err := lottery.GetInterval(ctx)
	if err != nil {
		return err
	}
	fee, err := lottery.GetEntranceFee(ctx)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{
			"network":         a.Network.Name,
			"address":         lottery.Address.Hex(),
			"state":           state.String(),
			"players":         players.String(),
			"recentWinner":    winner.Hex(),
			"latestTimestamp": latest.String(),
			"interval":        interval.String(),
			"entranceFee":     fee.String(),
		})
	}

	fmt.Fprintf(stdout, "Lottery:        %s (%s)\n", lottery.Address.Hex(), a.Network.Name)
	fmt.Fprintf(stdout, "State:          %s\n", state)
	fmt.Fprintf(stdout, "Players:        %s\n", players)
	fmt.Fprintf(stdout, "Recent winner:  %s\n", winner.Hex())
	fmt.Fprintf(stdout, "Last draw:      %s\n", time.Unix(latest.Int64(), 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(stdout, "Interval:       %ss\n", interval)
	fmt.Fprintf(stdout, "Entrance fee:   %s ETH\n", networks.FormatEther(fee))
	return nil
}
