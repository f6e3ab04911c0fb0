package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isdelr/taskboard-be/internal/models"
	ws "github.com/isdelr/taskboard-be/internal/websocket"
)

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize your tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.signedInDashboard()
			if err != nil {
				return err
			}
			if err := d.SetFilter(cmd.Context(), models.TaskFilter{}); err != nil {
				return dashboardErr(d, err)
			}
			printStats(cmd.OutOrStdout(), d.Stats())
			return nil
		},
	}
}

func (a *app) eventsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show your recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireSession()
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			events, err := c.Events(cmd.Context(), s, limit)
			if err != nil {
				return a.checkAuth(err)
			}
			printEvents(cmd.OutOrStdout(), events)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events (max 100)")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print task changes as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireSession()
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			err = c.Watch(cmd.Context(), s, func(msg ws.Message) {
				printMessage(out, msg)
			})
			if ctxErr := cmd.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return nil
			}
			if err != nil {
				return a.checkAuth(err)
			}
			fmt.Fprintln(out, "Feed closed")
			return nil
		},
	}
}
