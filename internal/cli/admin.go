package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deanDev5200/web-aspirasi/client"
	"github.com/deanDev5200/web-aspirasi/internal/config"
	"github.com/deanDev5200/web-aspirasi/internal/credentials"
	"github.com/deanDev5200/web-aspirasi/internal/models"
	"github.com/deanDev5200/web-aspirasi/internal/service"
)

func NewLoginCommand(root *RootOptions) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as the admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(root)
			if err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				if username, err = prompt(in, cmd.ErrOrStderr(), "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(in, cmd.ErrOrStderr(), "Password: "); err != nil {
					return err
				}
			}

			if err := s.auth.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			p := &Printer{Format: root.Format, W: cmd.OutOrStdout()}
			return p.Message("Login successful")
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password (prompted when empty)")
	return cmd
}

func NewLogoutCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local admin login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(root)
			if err != nil {
				return err
			}
			if err := s.auth.Logout(); err != nil {
				return err
			}
			p := &Printer{Format: root.Format, W: cmd.OutOrStdout()}
			return p.Message("Logged out")
		},
	}
}

type listFlags struct {
	page   int
	limit  int
	search string
	from   string
	to     string
	status string
	filter string
}

func NewListCommand(root *RootOptions) *cobra.Command {
	f := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions, newest first",
		Long: `List fetches one page of submissions from the server. --search, --from,
--to and --status filter on the server; --filter narrows the fetched page
locally without another request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := adminSession(root)
			if err != nil {
				return err
			}

			state := client.NewSubmissionState(s.client)
			snap, err := state.Fetch(cmd.Context(), client.ListOptions{
				Page:      f.page,
				Limit:     f.limit,
				Search:    f.search,
				StartDate: f.from,
				EndDate:   f.to,
				Status:    models.Status(f.status),
			})
			if err != nil {
				return err
			}

			p := &Printer{Format: root.Format, W: cmd.OutOrStdout()}
			if f.filter != "" {
				return p.Submissions(snap.Filter(f.filter), nil)
			}
			return p.Submissions(snap.Items, &snap.Pagination)
		},
	}

	cmd.Flags().IntVar(&f.page, "page", 0, "page number (server default 1)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "page size (server default 50)")
	cmd.Flags().StringVar(&f.search, "search", "", "server-side search terms")
	cmd.Flags().StringVar(&f.from, "from", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.status, "status", "", "pending, reviewed or resolved")
	cmd.Flags().StringVar(&f.filter, "filter", "", "filter the fetched page locally")
	return cmd
}

func NewStatsCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show submission counts per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := adminSession(root)
			if err != nil {
				return err
			}
			st, err := s.client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			p := &Printer{Format: root.Format, W: cmd.OutOrStdout()}
			return p.Stats(st)
		},
	}
}

func NewStatusCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "status <id> <pending|reviewed|resolved>",
		Short:     "Change the status of a submission",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"pending", "reviewed", "resolved"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := adminSession(root)
			if err != nil {
				return err
			}
			a, err := s.client.UpdateStatus(cmd.Context(), args[0], models.Status(args[1]))
			if err != nil {
				return err
			}
			p := &Printer{Format: root.Format, W: cmd.OutOrStdout()}
			return p.Submission(a)
		},
	}
}

func NewDeleteCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := adminSession(root)
			if err != nil {
				return err
			}
			if err := s.client.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			p := &Printer{Format: root.Format, W: cmd.OutOrStdout()}
			return p.Message("Aspirasi deleted successfully")
		},
	}
}

func NewPasswdCommand(root *RootOptions) *cobra.Command {
	var (
		current, next string
		reset         bool
	)

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the admin password",
		Long: `Passwd changes the admin password through the API. With --reset it
rewrites the server's credential file directly instead, without the
current password; run it on the server host.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset {
				return resetPassword(cmd, root, next)
			}

			s, err := adminSession(root)
			if err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			if current == "" {
				if current, err = prompt(in, cmd.ErrOrStderr(), "Current password: "); err != nil {
					return err
				}
			}
			if next == "" {
				if next, err = prompt(in, cmd.ErrOrStderr(), "New password: "); err != nil {
					return err
				}
			}

			if err := s.client.ChangePassword(cmd.Context(), current, next); err != nil {
				return err
			}
			p := &Printer{Format: root.Format, W: cmd.OutOrStdout()}
			return p.Message("Password changed successfully")
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "current password (prompted when empty)")
	cmd.Flags().StringVar(&next, "new", "", "new password (prompted when empty)")
	cmd.Flags().BoolVar(&reset, "reset", false, "reset the password in the local credential file")
	return cmd
}

func resetPassword(cmd *cobra.Command, root *RootOptions, next string) error {
	cfg, err := config.Load(root.EnvFile)
	if err != nil {
		return err
	}
	if next == "" {
		in := bufio.NewReader(cmd.InOrStdin())
		if next, err = prompt(in, cmd.ErrOrStderr(), "New password: "); err != nil {
			return err
		}
	}

	creds := credentials.NewStore(cfg.CredentialsFile, cfg.BcryptCost)
	if err := service.NewAuthService(creds).ResetPassword(next); err != nil {
		return err
	}
	p := &Printer{Format: root.Format, W: cmd.OutOrStdout()}
	return p.Message("Password reset in %s", creds.Path())
}

// prompt reads one line. Input is echoed; pipe the value in for scripts.
func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
