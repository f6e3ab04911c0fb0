package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isdelr/taskboard-be/internal/client"
)

// Version is printed by --version.
var Version = "2.0.0"

const defaultServer = "http://localhost:3000"

type app struct {
	server      string
	sessionPath string
}

// NewRootCommand builds the taskctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "taskctl",
		Short: "Command-line client for the taskboard API",
		Long: `taskctl talks to a taskboard server: sign in, manage your tasks,
review your recent activity and follow live task changes.

The session is kept in a YAML file between runs.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("TASKCTL_SERVER")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVar(&a.server, "server", server, "taskboard server URL (env TASKCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&a.sessionPath, "session", client.DefaultSessionPath(), "session file")

	rootCmd.AddCommand(a.registerCmd())
	rootCmd.AddCommand(a.loginCmd())
	rootCmd.AddCommand(a.logoutCmd())
	rootCmd.AddCommand(a.whoamiCmd())
	rootCmd.AddCommand(a.usersCmd())
	rootCmd.AddCommand(a.tasksCmd())
	rootCmd.AddCommand(a.statsCmd())
	rootCmd.AddCommand(a.eventsCmd())
	rootCmd.AddCommand(a.watchCmd())

	return rootCmd
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) store() *client.FileSessionStore {
	return client.NewFileSessionStore(a.sessionPath)
}

func (a *app) client() (*client.Client, error) {
	return client.New(a.server, nil)
}

func (a *app) dashboard() (*client.Dashboard, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	return client.NewDashboard(c, a.store())
}

// requireSession returns the stored session or an error telling the user to
// sign in.
func (a *app) requireSession() (client.Session, error) {
	s, err := a.store().Load()
	if err != nil {
		return client.Session{}, err
	}
	if !s.Authenticated() {
		return client.Session{}, errNotLoggedIn
	}
	return s, nil
}

var errNotLoggedIn = errors.New("not logged in; run 'taskctl login' first")

// checkAuth clears a stored session the server no longer accepts.
func (a *app) checkAuth(err error) error {
	if err == nil || !errors.Is(err, client.ErrUnauthenticated) {
		return err
	}
	if clearErr := a.store().Clear(); clearErr != nil {
		return errors.Join(err, clearErr)
	}
	return fmt.Errorf("%w; session cleared, run 'taskctl login' again", err)
}

// dashboardErr adds a hint when the dashboard has already signed out.
func dashboardErr(d *client.Dashboard, err error) error {
	if err != nil && errors.Is(err, client.ErrUnauthenticated) && !d.Authenticated() {
		return fmt.Errorf("%w; session cleared, run 'taskctl login' again", err)
	}
	return err
}
