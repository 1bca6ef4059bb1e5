package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartfactory/sfdash/internal/engine"
	"github.com/smartfactory/sfdash/internal/model"
)

func newAlertsCmd(e *env) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show machine and KPI alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, userID, err := e.userSession(cmd)
			if err != nil {
				return err
			}
			feed := engine.NewAlertFeed(s.client, userID, interval, 50)
			out := cmd.OutOrStdout()

			if !watch {
				feed.Poll(cmd.Context())
				if err := feed.Err(); err != nil {
					return err
				}
				alerts := feed.Latest()
				if len(alerts) == 0 {
					fmt.Fprintln(out, "No alerts.")
				}
				for _, a := range alerts {
					printAlert(out, a)
				}
				return nil
			}

			updates := feed.Subscribe()
			done := make(chan struct{})
			go func() {
				feed.Run(cmd.Context())
				close(done)
			}()
			printed := make(map[string]bool)
			for {
				select {
				case alerts := <-updates:
					for _, a := range alerts {
						if !printed[a.ID] {
							printed[a.ID] = true
							printAlert(out, a)
						}
					}
				case <-done:
					return nil
				}
			}
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling and print new alerts")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "poll interval with --watch")
	return cmd
}

func printAlert(w io.Writer, a model.Alert) {
	ts := "-"
	if !a.Timestamp.IsZero() {
		ts = a.Timestamp.Local().Format(time.DateTime)
	}
	fmt.Fprintf(w, "%s  %-8s %s", ts, a.Severity, a.Title)
	if a.MachineID != "" {
		fmt.Fprintf(w, "  [%s]", a.MachineID)
	}
	fmt.Fprintln(w)
	if a.Description != "" {
		fmt.Fprintf(w, "    %s\n", a.Description)
	}
}
