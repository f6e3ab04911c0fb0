package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) registerCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register USERNAME EMAIL",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dashboard()
			if err != nil {
				return err
			}
			if err := d.Register(cmd.Context(), args[0], args[1], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s\n", d.Session().User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (at least 6 characters)")
	cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login EMAIL",
		Short: "Sign in and store the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dashboard()
			if err != nil {
				return err
			}
			if err := d.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", d.Session().User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dashboard()
			if err != nil {
				// An unreadable session file has nothing to reduce; remove it.
				err = a.store().Clear()
			} else {
				err = d.Logout()
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
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
			user, err := c.Me(cmd.Context(), s)
			if err != nil {
				return a.checkAuth(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", user.Username, user.Email, user.Role)
			return nil
		},
	}
}

func (a *app) usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List every user",
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
			users, err := c.Users(cmd.Context(), s)
			if err != nil {
				return a.checkAuth(err)
			}
			printUsers(cmd.OutOrStdout(), users)
			return nil
		},
	}
}
