package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deanDev5200/web-aspirasi/client"
	"github.com/deanDev5200/web-aspirasi/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile string
	APIURL  string
	Format  string // "text" | "json"
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "aspirasi",
		Short: "Aspirasi submission portal",
		Long: `Run the aspirasi API server, import legacy data, or manage
submissions as an admin from the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "optional .env file to load")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api", "", "API base URL (overrides ASPIRASI_API_URL)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	// Server side
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	// Public
	cmd.AddCommand(NewSubmitCommand(opts))

	// Admin
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewPasswdCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// session bundles what the API-facing commands need.
type session struct {
	client *client.Client
	auth   *client.AuthState
}

func newSession(opts *RootOptions) (*session, error) {
	cfg, err := config.LoadClient(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	apiURL := cfg.APIURL
	if opts.APIURL != "" {
		apiURL = opts.APIURL
	}
	c := client.New(apiURL)
	return &session{client: c, auth: client.NewAuthState(c, cfg.AuthFile)}, nil
}

var errNotLoggedIn = fmt.Errorf("not logged in: run `aspirasi login` first")

// adminSession is newSession for commands that need the local login flag.
func adminSession(opts *RootOptions) (*session, error) {
	s, err := newSession(opts)
	if err != nil {
		return nil, err
	}
	if !s.auth.IsAuthenticated() {
		return nil, errNotLoggedIn
	}
	return s, nil
}
