// ABOUTME: scan and scans subcommands: ingest one scan, list the ledger
// ABOUTME: Ingestion runs the full matching and sequencing pipeline locally

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gatewatch/gatewatch/internal/sequence"
)

var (
	scanSource string
	scansLimit int
)

var scanCmd = &cobra.Command{
	Use:   "scan <qr-text>",
	Short: "Ingest a single QR scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "List recent scans, newest first",
	Args:  cobra.NoArgs,
	RunE:  runScans,
}

func init() {
	scanCmd.Flags().StringVar(&scanSource, "source", "MANUAL", "scan source tag")
	scansCmd.Flags().IntVar(&scansLimit, "limit", 300, "maximum scans to list")
	rootCmd.AddCommand(scanCmd, scansCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	engine := sequence.New(st, sequence.Config{RedCardAfter: cfg.Sequence.RedCardAfter}, logger)
	scanID, err := engine.Ingest(cmd.Context(), args[0], scanSource)
	if err != nil {
		return err
	}
	fmt.Printf("recorded scan %d\n", scanID)
	return nil
}

func runScans(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	scans, err := st.ListScans(cmd.Context(), scansLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCANNED AT\tSOURCE\tTEXT")
	for _, sc := range scans {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			sc.ID, sc.ScannedAt.Format("2006-01-02 15:04:05"), sc.Source, sc.RawText)
	}
	return w.Flush()
}
