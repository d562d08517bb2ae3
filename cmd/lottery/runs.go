package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nathanTypo/lottery-pc/internal/repository"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Show the deploy run history",
	Long: `List recent deploy runs for the selected network, or the transactions of one run.
Requires the database to be enabled (DATABASE_ENABLED=true).

--migrate-down N reverts the last N history migrations instead and exits.

Examples:
  lottery runs --network goerli
  lottery runs 3f1c2a9e-4b6d-4e55-9a51-0d2a7f3e8c11
  lottery runs --migrate-down 1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	runsCmd.Flags().Int("migrate-down", 0, "revert the last N history migrations")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	down, _ := cmd.Flags().GetInt("migrate-down")
	ctx := cmd.Context()

	if down > 0 {
		return migrateDown(down)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(ctx, a)

	repo, ok := a.History()
	if !ok {
		return errHistoryDisabled
	}

	if len(args) == 1 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}
		txs, err := repo.GetTransactionsByRun(ctx, id)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(txs)
		}
		printTransactions(txs)
		return nil
	}

	runs, err := repo.ListRuns(ctx, a.Network.Name, limit)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(runs)
	}
	printRuns(runs)
	return nil
}

var errHistoryDisabled = errors.New("deploy run history is disabled; set DATABASE_ENABLED=true")

func migrateDown(steps int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return errHistoryDisabled
	}
	if err := repository.MigrateDown(cfg.Database, steps); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{"migratedDown": steps})
	}
	fmt.Fprintf(stdout, "Reverted %d migration(s)\n", steps)
	return nil
}

func printTransactions(txs []repository.Transaction) {
	table := tablewriter.NewWriter(stdout)
	table.SetHeader([]string{"Step", "Label", "Tx Hash", "Block", "Gas Used", "Status"})
	for _, tx := range txs {
		table.Append([]string{
			tx.Step,
			tx.Label,
			tx.TxHash,
			strconv.FormatUint(tx.BlockNumber, 10),
			strconv.FormatUint(tx.GasUsed, 10),
			strconv.FormatUint(tx.Status, 10),
		})
	}
	table.Render()
}

func printRuns(runs []*repository.Run) {
	table := tablewriter.NewWriter(stdout)
	table.SetHeader([]string{"ID", "Started", "Tags", "Status", "Step", "Error"})
	for _, r := range runs {
		table.Append([]string{
			r.ID.String(),
			r.CreatedAt.UTC().Format(time.RFC3339),
			strings.Join(r.Tags, ","),
			string(r.Status),
			deref(r.CurrentStep),
			deref(r.ErrorMessage),
		})
	}
	table.Render()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
