package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/portsleuth/portsleuth/internal/config"
	"github.com/portsleuth/portsleuth/internal/history"
	"github.com/portsleuth/portsleuth/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command with its subcommands.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse saved scan reports",
		Long: `History lists and displays scan reports saved by previous runs.

Examples:
  # List all saved scans
  portsleuth history list

  # List scans of one target
  portsleuth history list example.com

  # Show a full saved report
  portsleuth history show 3f2a9c1b8d4e5f6a7b8c9d0e`,
	}

	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(),
		"Directory holding the scan history database")

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())

	return cmd
}

// newHistoryListCmd creates the history list subcommand.
func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [target]",
		Short: "List saved scans, most recent first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openHistoryDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			target := ""
			if len(args) == 1 {
				target = args[0]
			}

			scans, err := db.ListScans(cmd.Context(), target)
			if err != nil {
				return err
			}

			if len(scans) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved scans found.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCAN ID\tTARGET\tRANGE\tDATE\tOPEN\tCLOSED\tERRORED")
			for _, meta := range scans {
				fmt.Fprintf(tw, "%s\t%s\t%d-%d\t%s\t%d\t%d\t%d\n",
					meta.ScanID,
					meta.Target,
					meta.StartPort, meta.EndPort,
					meta.DateScanned.Format("2006-01-02 15:04"),
					meta.OpenCount,
					meta.ClosedCount,
					meta.ErroredCount,
				)
			}
			return tw.Flush()
		},
	}
}

// newHistoryShowCmd creates the history show subcommand.
func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <scan-id>",
		Short: "Display a saved scan report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openHistoryDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			saved, err := db.GetReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if saved == nil {
				return fmt.Errorf("no saved scan with ID %s", args[0])
			}

			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			if asJSON {
				writer := report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
				_, err = writer.Write(saved)
				return err
			}

			writer := report.NewConsoleWriter(cmd.OutOrStdout(), report.WithShowClosed(true))
			_, err = writer.Write(saved)
			return err
		},
	}

	cmd.Flags().BoolP("json", "j", false, "Output the saved report as JSON")

	return cmd
}

// openHistoryDB opens the history database read-write so first use after
// an all --no-history workflow still works.
func openHistoryDB(cmd *cobra.Command) (*history.DB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	db, err := history.Open(dbDir, history.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, nil
}
