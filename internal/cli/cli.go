// Package cli holds what the fluffy command-line tools share: settings
// and flags, the password prompt, logging setup and terminal output.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/opd-ai/fluffy"
	"github.com/opd-ai/fluffy/config"
	"github.com/opd-ai/fluffy/history"
	"github.com/opd-ai/fluffy/upload"
)

// Description is appended to the long help of every command.
const Description = `fluffy is a simple file-sharing web app. You can upload files, or paste text.

By default, the public instance of fluffy is used: https://fluffy.cc

If you'd like to instead use a different instance (for example, one run
internally by your company), you can specify the --server option.

To make that permanent, you can create a config file with contents similar to:

    {"server": "https://fluffy.my.corp"}

This file can be placed at either /etc/fluffy.json or $XDG_CONFIG_HOME/fluffy.json.
`

// Version is set by the linker for release builds.
var Version string

// BuildVersion returns Version, falling back to the module version in the
// binary's build info, followed by the Go version it was built with.
func BuildVersion() string {
	version := Version
	info, ok := debug.ReadBuildInfo()
	if !ok {
		if version == "" {
			version = "(devel)"
		}
		return version
	}
	if version == "" {
		version = info.Main.Version
	}
	return fmt.Sprintf("%s/%s", version, info.GoVersion)
}

// readPassword reads a line from the terminal without echo.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// LoadSettings reads the standard settings files.
func LoadSettings() (*config.Settings, error) {
	return config.Load(config.Paths()...)
}

// AddCommonOpts registers the flags every command accepts, defaulting to
// the values in s.
func AddCommonOpts(cmd *cobra.Command, s *config.Settings) {
	flags := cmd.Flags()
	flags.String("server", s.Server, "server to upload to")
	flags.Bool("auth", s.Auth, "use HTTP Basic auth")
	flags.StringP("user", "u", s.Username, "username for HTTP Basic auth")
	flags.Bool("direct-link", false, "return direct links to the uploads")
	flags.String("log-level", s.LogLevel, "log level (panic, fatal, error, warning, info, debug, trace)")
	flags.Bool("no-history", !s.History, "do not record this upload in the local history")
}

// SetupLogging configures logrus to write at level to w.
func SetupLogging(w io.Writer, level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetOutput(w)
	logrus.SetLevel(parsed)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return nil
}

// WrapWithAuth prompts for a password when --auth is set and passes the
// resulting credentials, or nil, to fn.
func WrapWithAuth(
	fn func(cmd *cobra.Command, args []string, creds *upload.Credentials) error,
) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		level, _ := flags.GetString("log-level")
		if err := SetupLogging(cmd.ErrOrStderr(), level); err != nil {
			return err
		}

		var creds *upload.Credentials
		if auth, _ := flags.GetBool("auth"); auth {
			server, _ := flags.GetString("server")
			user, _ := flags.GetString("user")
			stderr := cmd.ErrOrStderr()
			fmt.Fprintf(stderr, "Server: %s\n", server)
			fmt.Fprintf(stderr, "Password for %s: ", user)
			password, err := readPassword()
			fmt.Fprintln(stderr)
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			creds = &upload.Credentials{Username: user, Password: string(password)}
		}

		return fn(cmd, args, creds)
	}
}

// NewClient builds a client from s as overridden by the common flags.
func NewClient(cmd *cobra.Command, s *config.Settings, creds *upload.Credentials) (*fluffy.Client, error) {
	flags := cmd.Flags()
	effective := *s
	effective.Server, _ = flags.GetString("server")
	if noHistory, _ := flags.GetBool("no-history"); noHistory {
		effective.History = false
	}
	if err := effective.Validate(); err != nil {
		return nil, err
	}

	options := fluffy.OptionsFromSettings(&effective)
	options.Credentials = creds
	options.UserAgent = "fluffy-cli/" + BuildVersion()
	return fluffy.New(options)
}

// HistoryStore returns the store the history tool reads.
func HistoryStore(s *config.Settings) history.Store {
	path := s.HistoryPath
	if path == "" {
		path = config.DefaultHistoryPath()
	}
	return history.NewFileStore(path)
}
