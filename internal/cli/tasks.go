package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isdelr/taskboard-be/internal/client"
	"github.com/isdelr/taskboard-be/internal/models"
)

func (a *app) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage your tasks",
	}
	cmd.AddCommand(a.tasksListCmd())
	cmd.AddCommand(a.tasksShowCmd())
	cmd.AddCommand(a.tasksAddCmd())
	cmd.AddCommand(a.tasksUpdateCmd())
	cmd.AddCommand(a.tasksRemoveCmd())
	return cmd
}

// signedInDashboard loads the dashboard and fails when nobody is signed in.
func (a *app) signedInDashboard() (*client.Dashboard, error) {
	d, err := a.dashboard()
	if err != nil {
		return nil, err
	}
	if !d.Authenticated() {
		return nil, errNotLoggedIn
	}
	return d, nil
}

func (a *app) tasksListCmd() *cobra.Command {
	var status, priority, search string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.signedInDashboard()
			if err != nil {
				return err
			}
			filter := models.TaskFilter{
				Status:   models.TaskStatus(status),
				Priority: models.TaskPriority(priority),
			}
			if err := d.SetFilter(cmd.Context(), filter); err != nil {
				return dashboardErr(d, err)
			}
			d.SetSearch(search)
			printTasks(cmd.OutOrStdout(), d.Visible())
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only tasks with this status (pending, in-progress, completed, cancelled)")
	cmd.Flags().StringVar(&priority, "priority", "", "only tasks with this priority (low, medium, high)")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive match on title or description")
	return cmd
}

func (a *app) tasksShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireSession()
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			task, err := c.Task(cmd.Context(), s, args[0])
			if err != nil {
				return a.checkAuth(err)
			}
			printTask(cmd.OutOrStdout(), task)
			return nil
		},
	}
}

func (a *app) tasksAddCmd() *cobra.Command {
	var description, priority string
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.signedInDashboard()
			if err != nil {
				return err
			}
			input := models.NewTask{Title: args[0]}
			if cmd.Flags().Changed("description") {
				input.Description = &description
			}
			if cmd.Flags().Changed("priority") {
				p := models.TaskPriority(priority)
				input.Priority = &p
			}
			if err := d.Create(cmd.Context(), input); err != nil {
				return dashboardErr(d, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Task created")
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high (default medium)")
	return cmd
}

func (a *app) tasksUpdateCmd() *cobra.Command {
	var title, description, status, priority string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a task; omitted flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.signedInDashboard()
			if err != nil {
				return err
			}
			var patch models.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("status") {
				s := models.TaskStatus(status)
				patch.Status = &s
			}
			if flags.Changed("priority") {
				p := models.TaskPriority(priority)
				patch.Priority = &p
			}
			if err := d.Update(cmd.Context(), args[0], patch); err != nil {
				return dashboardErr(d, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Task updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority")
	return cmd
}

func (a *app) tasksRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.signedInDashboard()
			if err != nil {
				return err
			}
			if err := d.Delete(cmd.Context(), args[0]); err != nil {
				return dashboardErr(d, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Task deleted")
			return nil
		},
	}
}
