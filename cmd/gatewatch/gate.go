// ABOUTME: gate subcommands: create gates, set door sequences, list catalog
// ABOUTME: Operates directly on the local database without a running server

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gatewatch/gatewatch/internal/catalog"
	"github.com/gatewatch/gatewatch/internal/store"
)

var gateListLimit int

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Manage the gate catalog",
}

var gateCreateCmd = &cobra.Command{
	Use:   "create <gate-code>",
	Short: "Create a new gate",
	Args:  cobra.ExactArgs(1),
	RunE:  runGateCreate,
}

var gateDoorsCmd = &cobra.Command{
	Use:   "doors <gate-id> <door-number>...",
	Short: "Replace a gate's ordered door sequence",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runGateDoors,
}

var gateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured gates",
	Args:  cobra.NoArgs,
	RunE:  runGateList,
}

var gateShowCmd = &cobra.Command{
	Use:   "show <gate-id>",
	Short: "Show one gate with its door sequence",
	Args:  cobra.ExactArgs(1),
	RunE:  runGateShow,
}

func init() {
	gateListCmd.Flags().IntVar(&gateListLimit, "limit", 300, "maximum gates to list")
	gateCmd.AddCommand(gateCreateCmd, gateDoorsCmd, gateListCmd, gateShowCmd)
	rootCmd.AddCommand(gateCmd)
}

func withCatalog(cmd *cobra.Command, fn func(cat *catalog.Service) error) error {
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

	return fn(catalog.New(st, logger))
}

func runGateCreate(cmd *cobra.Command, args []string) error {
	return withCatalog(cmd, func(cat *catalog.Service) error {
		gate, err := cat.CreateGate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("created gate %d (%s)\n", gate.ID, gate.GateCode)
		return nil
	})
}

func runGateDoors(cmd *cobra.Command, args []string) error {
	gateID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid gate id %q", args[0])
	}

	return withCatalog(cmd, func(cat *catalog.Service) error {
		gate, err := cat.SetDoors(cmd.Context(), gateID, args[1:])
		if err != nil {
			return err
		}
		fmt.Printf("gate %s now requires %d doors: %s\n",
			gate.GateCode, gate.DoorCount(), strings.Join(doorNumbers(gate), ", "))
		return nil
	})
}

func runGateList(cmd *cobra.Command, args []string) error {
	return withCatalog(cmd, func(cat *catalog.Service) error {
		gates, err := cat.List(cmd.Context(), gateListLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCODE\tDOORS\tCREATED")
		for _, g := range gates {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
				g.ID, g.GateCode, strings.Join(doorNumbers(g), ","), g.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	})
}

func runGateShow(cmd *cobra.Command, args []string) error {
	gateID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid gate id %q", args[0])
	}

	return withCatalog(cmd, func(cat *catalog.Service) error {
		gate, err := cat.Get(cmd.Context(), gateID)
		if err != nil {
			return err
		}
		fmt.Printf("gate %d  %s  created %s\n",
			gate.ID, gate.GateCode, gate.CreatedAt.Format("2006-01-02 15:04:05"))
		for _, d := range gate.Doors {
			fmt.Printf("  door %d: %s\n", d.DoorNo, d.DoorNumber)
		}
		return nil
	})
}

func doorNumbers(g *store.Gate) []string {
	nums := make([]string, 0, len(g.Doors))
	for _, d := range g.Doors {
		nums = append(nums, d.DoorNumber)
	}
	return nums
}
