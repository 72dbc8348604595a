// ABOUTME: export subcommand: writes the scan ledger to CSV, oldest first
// ABOUTME: Output columns match the HTTP export endpoint

package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the scan ledger as CSV",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
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

	scans, err := st.ListScans(cmd.Context(), 5000)
	if err != nil {
		return err
	}

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	sgt := time.FixedZone("SGT", 8*60*60)
	w := csv.NewWriter(out)
	if err := w.Write([]string{"id", "scanned_at_sgt", "qr_text", "source"}); err != nil {
		return err
	}
	for i := len(scans) - 1; i >= 0; i-- {
		sc := scans[i]
		row := []string{
			strconv.FormatInt(sc.ID, 10),
			sc.ScannedAt.In(sgt).Format("02-Jan-2006 15:04:05") + " SGT",
			sc.RawText,
			sc.Source,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if exportOut != "" {
		fmt.Printf("wrote %d scans to %s\n", len(scans), exportOut)
	}
	return nil
}
