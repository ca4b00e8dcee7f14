package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/loykin/graphauth/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func writeHistoryText(w io.Writer, events []store.Event) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "no state changes recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tAT\tPREVIOUS\tCURRENT\tBASE URL")
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.At.Format(time.RFC3339), e.Previous, e.Current, e.BaseURL)
	}
	return tw.Flush()
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded provider state changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		if c.Store.Disabled {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Store is disabled - no history available")
			return err
		}
		st, err := store.Open(cmd.Context(), c.Store)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		events, err := st.List(cmd.Context(), viper.GetInt("limit"))
		if err != nil {
			return err
		}
		if events == nil {
			events = []store.Event{}
		}
		format, _ := cmd.Flags().GetString("output")
		return writeOutput(cmd.OutOrStdout(), format, events, func(w io.Writer) error {
			return writeHistoryText(w, events)
		})
	},
}
