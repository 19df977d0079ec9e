// Command fpb pastes text to a fluffy server.
package main

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opd-ai/fluffy/config"
	"github.com/opd-ai/fluffy/internal/cli"
	"github.com/opd-ai/fluffy/linerange"
	"github.com/opd-ai/fluffy/upload"
)

// maxLineBytes bounds a single line read from stdin.
const maxLineBytes = 64 * 1024 * 1024

func newCommand(settings *config.Settings) *cobra.Command {
	var regex cli.RegexpValue

	cmd := &cobra.Command{
		Use: "fpb [file]",
		Long: `Paste text to fluffy.

Example usage:

    Paste a file:
        fpb some-file.txt

    Pipe the output of a command:
        some-command | fpb

    Specify a language to highlight text with:
        fpb -l python some_file.py
    (Default is to auto-detect the language. You can use "rendered-markdown" for Markdown.)

    Highlight the lines matching a regex:
        make 2>&1 | fpb -r 'error:'

` + cli.Description,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		Version:      cli.BuildVersion(),
	}
	cmd.RunE = cli.WrapWithAuth(func(cmd *cobra.Command, args []string, creds *upload.Credentials) error {
		return run(cmd, settings, args, creds, &regex)
	})

	cli.AddCommonOpts(cmd, settings)
	cmd.Flags().StringP("language", "l", upload.AutodetectLanguage, "language for syntax highlighting")
	cmd.Flags().VarP(&regex, "regex", "r", "regex of lines to highlight")
	cmd.Flags().Bool("tee", false, "stream the stdin to stdout before creating the paste")
	return cmd
}

func run(cmd *cobra.Command, settings *config.Settings, args []string, creds *upload.Credentials, regex *cli.RegexpValue) error {
	flags := cmd.Flags()
	tee, _ := flags.GetBool("tee")
	language, _ := flags.GetString("language")
	directLink, _ := flags.GetBool("direct-link")

	path := "-"
	if len(args) > 0 {
		path = args[0]
	}

	content, err := readContent(cmd, path, tee)
	if err != nil {
		return err
	}

	client, err := cli.NewClient(cmd, settings, creds)
	if err != nil {
		return err
	}
	result, err := client.Paste(cmd.Context(), upload.PasteRequest{Text: content, Language: language})
	if err != nil {
		return err
	}

	location := result.Redirect
	if directLink && len(result.Files) > 0 {
		location = result.Files[0].Raw
	}

	if regex.R != nil {
		lines, err := linerange.Match(regex.R, strings.NewReader(content))
		if err != nil {
			return fmt.Errorf("highlighting: %w", err)
		}
		u, err := url.Parse(location)
		if err != nil {
			return fmt.Errorf("parsing paste location: %w", err)
		}
		linerange.ApplyCompact(u, lines)
		location = u.String()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.Bold(out, location))
	return nil
}

func readContent(cmd *cobra.Command, path string, tee bool) (string, error) {
	var content strings.Builder
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("opening file: %w", err)
		}
		defer file.Close()
		if _, err := io.Copy(&content, file); err != nil {
			return "", fmt.Errorf("copying file: %w", err)
		}
		return content.String(), nil
	}

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)
	scanner.Split(cli.ScanLinesWithEOL)
	for scanner.Scan() {
		line := scanner.Text()
		content.WriteString(line)
		if tee {
			fmt.Fprint(out, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading from stdin: %w", err)
	}
	return content.String(), nil
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
