// Command fput uploads files to a fluffy server.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opd-ai/fluffy/config"
	"github.com/opd-ai/fluffy/internal/cli"
	"github.com/opd-ai/fluffy/upload"
)

// stdinName is the file name used for content read from stdin.
const stdinName = "stdin"

func newCommand(settings *config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "fput file [file ...]",
		Long:         "Upload files to fluffy.\n\nUse - to upload from stdin.\n\n" + cli.Description,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		Version:      cli.BuildVersion(),
	}
	cmd.RunE = cli.WrapWithAuth(func(cmd *cobra.Command, args []string, creds *upload.Credentials) error {
		return run(cmd, settings, args, creds)
	})
	cli.AddCommonOpts(cmd, settings)
	return cmd
}

func run(cmd *cobra.Command, settings *config.Settings, args []string, creds *upload.Credentials) error {
	client, err := cli.NewClient(cmd, settings, creds)
	if err != nil {
		return err
	}

	session := client.NewSession()
	for _, path := range args {
		if path == "-" {
			err = session.QueueReader(stdinName, cmd.InOrStdin())
		} else {
			err = session.Queue(path)
		}
		if err != nil {
			return err
		}
	}

	stderr := cmd.ErrOrStderr()
	line := cli.NewProgressLine(stderr, cli.IsTerminal(stderr))
	session.OnProgress(line.Update)

	done := make(chan struct{})
	defer close(done)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			session.Cancel()
		case <-done:
		}
	}()

	result, err := client.UploadFiles(cmd.Context(), session)
	line.Done()
	if errors.Is(err, upload.ErrCancelled) {
		fmt.Fprintln(stderr, "Upload cancelled.")
		return err
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if directLink, _ := cmd.Flags().GetBool("direct-link"); directLink {
		for _, raw := range result.RawURLs() {
			fmt.Fprintln(out, cli.Bold(out, raw))
		}
		return nil
	}
	fmt.Fprintln(out, cli.Bold(out, result.Redirect))
	return nil
}

func main() {
	settings, err := cli.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "getting settings: %v\n", err)
		os.Exit(1)
	}
	if err := newCommand(settings).Execute(); err != nil {
		os.Exit(1)
	}
}
