// ABOUTME: events subcommands: list action events and close resolved ones
// ABOUTME: Red-card events are flagged in the listing output

package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	eventsLimit      int
	eventsShowClosed bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List action events, newest first",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

var eventsCloseCmd = &cobra.Command{
	Use:   "close <event-id>",
	Short: "Close an open action event",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsClose,
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 200, "maximum events to list")
	eventsCmd.Flags().BoolVar(&eventsShowClosed, "all", false, "include closed events")
	eventsCmd.AddCommand(eventsCloseCmd)
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
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

	events, err := st.ListActionEvents(cmd.Context(), eventsLimit, eventsShowClosed)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGATE\tCOMPLETED AT\tRED\tELAPSED\tSTATUS")
	for _, ev := range events {
		red := ""
		if ev.IsRedCard {
			red = "RED"
		}
		elapsed := ""
		if ev.Door2ElapsedSeconds != nil {
			elapsed = fmt.Sprintf("%ds", *ev.Door2ElapsedSeconds)
		}
		status := "open"
		if ev.ClosedAt != nil {
			status = "closed " + ev.ClosedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			ev.ID, ev.GateCode, ev.CompletedAt.Format("2006-01-02 15:04:05"), red, elapsed, status)
	}
	return w.Flush()
}

func runEventsClose(cmd *cobra.Command, args []string) error {
	eventID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid event id %q", args[0])
	}

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

	closed, err := st.CloseActionEvent(cmd.Context(), eventID, time.Now().UTC().Truncate(time.Second))
	if err != nil {
		return err
	}
	if !closed {
		return fmt.Errorf("event %d not found or already closed", eventID)
	}
	fmt.Printf("closed event %d\n", eventID)
	return nil
}
