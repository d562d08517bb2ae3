package main

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nathanTypo/lottery-pc/internal/networks"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List the supported networks and their Lottery parameters",
	RunE:  runNetworks,
}

func init() {
	rootCmd.AddCommand(networksCmd)
}

type networkRow struct {
	ChainID          int64  `json:"chainId"`
	Name             string `json:"name"`
	VRFCoordinator   string `json:"vrfCoordinator"`
	EntranceFee      string `json:"entranceFee"`
	GasLane          string `json:"gasLane"`
	SubscriptionID   string `json:"subscriptionId"`
	CallbackGasLimit uint32 `json:"callbackGasLimit"`
	Interval         string `json:"interval"`
}

func networkRows() []networkRow {
	rows := make([]networkRow, 0, len(networks.Table))
	for _, id := range networks.ChainIDs() {
		p := networks.Table[id]
		coordinator := "mock"
		if p.VRFCoordinatorV2 != (common.Address{}) {
			coordinator = p.VRFCoordinatorV2.Hex()
		}
		subID := "created on deploy"
		if id != networks.DevelopmentChainID {
			subID = strconv.FormatUint(p.SubscriptionID, 10)
		}
		rows = append(rows, networkRow{
			ChainID:          id,
			Name:             p.Name,
			VRFCoordinator:   coordinator,
			EntranceFee:      networks.FormatEther(p.EntranceFee),
			GasLane:          p.GasLane.Hex(),
			SubscriptionID:   subID,
			CallbackGasLimit: p.CallbackGasLimit,
			Interval:         p.KeepersUpdateInterval.String(),
		})
	}
	return rows
}

func runNetworks(cmd *cobra.Command, args []string) error {
	if err := networks.Validate(); err != nil {
		cmd.PrintErrln("warning:", err)
	}

	rows := networkRows()
	if jsonOut {
		return printJSON(rows)
	}

	table := tablewriter.NewWriter(stdout)
	table.SetHeader([]string{"Chain ID", "Name", "VRF Coordinator", "Entrance Fee (ETH)", "Gas Lane", "Sub ID", "Callback Gas", "Interval (s)"})
	for _, r := range rows {
		table.Append([]string{
			strconv.FormatInt(r.ChainID, 10),
			r.Name,
			r.VRFCoordinator,
			r.EntranceFee,
			r.GasLane,
			r.SubscriptionID,
			strconv.FormatUint(uint64(r.CallbackGasLimit), 10),
			r.Interval,
		})
	}
	table.Render()
	return nil
}
