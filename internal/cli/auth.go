package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/tgienger/todo/internal/models"
)

// prompter reads answers from the command's stdin. Secrets are read
// without echo when stdin is a terminal.
type prompter struct {
	cmd    *cobra.Command
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, reader: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.cmd.ErrOrStderr(), label+": ")
	s, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (p *prompter) secret(label string) (string, error) {
	if f, ok := p.cmd.InOrStdin().(*os.File); ok && term.IsTerminal(f.Fd()) {
		fmt.Fprint(p.cmd.ErrOrStderr(), label+": ")
		b, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(p.cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
		}
		return string(b), nil
	}
	return p.line(label)
}

// flagOrPrompt returns the flag value, asking for it when unset
func flagOrPrompt(cmd *cobra.Command, p *prompter, flag, label string, secret bool) (string, error) {
	if cmd.Flags().Changed(flag) {
		return cmd.Flags().GetString(flag)
	}
	if secret {
		return p.secret(label)
	}
	return p.line(label)
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in to the todo server",
		Long: `Sign in to the todo server. While signed in, the list lives on the server
instead of this machine; your guest list is kept and comes back after logout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			p := newPrompter(cmd)
			var username string
			if len(args) == 1 {
				username = args[0]
			} else if username, err = p.line("Username"); err != nil {
				return err
			}
			password, err := flagOrPrompt(cmd, p, "password", "Password", true)
			if err != nil {
				return err
			}

			if err := e.session.Login(cmd.Context(), strings.TrimSpace(username), password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", e.session.CurrentUser().Username)
			return nil
		},
	}

	cmd.Flags().String("password", "", "password (prompted when omitted)")

	return cmd
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account on the todo server and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			p := newPrompter(cmd)
			name, _ := cmd.Flags().GetString("name")
			password, err := flagOrPrompt(cmd, p, "password", "Password", true)
			if err != nil {
				return err
			}
			confirm, err := flagOrPrompt(cmd, p, "confirm", "Confirm password", true)
			if err != nil {
				return err
			}

			err = e.session.Register(cmd.Context(), models.Registration{
				Username:        strings.TrimSpace(args[0]),
				Name:            strings.TrimSpace(name),
				Password:        password,
				ConfirmPassword: confirm,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created, signed in as %s\n", e.session.CurrentUser().Username)
			return nil
		},
	}

	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("password", "", "password (prompted when omitted)")
	cmd.Flags().String("confirm", "", "password confirmation (prompted when omitted)")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and go back to the local list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if !e.session.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			// local state is cleared even when the server call fails
			if err := e.session.Logout(cmd.Context()); err != nil {
				e.logger.WithError(err).Warn("server logout failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if !e.session.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Guest (not signed in)")
				return nil
			}
			u, err := e.session.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Username: %s\n", u.Username)
			if u.Name != "" {
				fmt.Fprintf(out, "Name:     %s\n", u.Name)
			}
			fmt.Fprintf(out, "Server:   %s\n", e.cfg.APIURL)
			return nil
		},
	}
}
