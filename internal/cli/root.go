// Package cli contains the cobra commands of goapgit.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/example/goapgit/internal/adapters/gitexec"
	"github.com/example/goapgit/internal/config"
	"github.com/example/goapgit/internal/logging"
	"github.com/example/goapgit/internal/models"
	"github.com/example/goapgit/internal/ports/secondary"
	"github.com/example/goapgit/internal/wire"
)

// Exit codes returned by the binary.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
)

// GlobalOptions holds the flags shared by every command.
type GlobalOptions struct {
	RepoPath   string
	ConfigPath string
	JSON       bool
	Quiet      bool
	LogLevel   string
}

var globals GlobalOptions

// BindGlobalFlags registers the shared flags on root and installs the logger before any command runs.
func BindGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&globals.RepoPath, "repo", ".", "Path to the git repository")
	root.PersistentFlags().StringVar(&globals.ConfigPath, "config", "", "Path to a YAML configuration file (default <repo>/"+config.FileName+")")
	root.PersistentFlags().BoolVar(&globals.JSON, "json", false, "Emit JSON instead of text")
	root.PersistentFlags().BoolVarP(&globals.Quiet, "quiet", "q", false, "Suppress log output")
	root.PersistentFlags().StringVar(&globals.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		wire.SetLogger(newLogger(globals, cmd.ErrOrStderr()))
	}
}

func newLogger(opts GlobalOptions, w io.Writer) logging.Logger {
	if opts.Quiet {
		return logging.Nop()
	}
	level := logging.ParseLevel(opts.LogLevel)
	if opts.JSON {
		return logging.NewJSON(w, level)
	}
	return logging.NewText(w, level)
}

// loadConfig reads the configuration for the selected repository.
// The default file lives at the work tree root even when --repo names a subdirectory.
func loadConfig(ctx context.Context) (models.Config, error) {
	return config.Load(globals.ConfigPath, repoRoot(ctx, globals.RepoPath))
}

// repoRoot resolves dir to its work tree root, falling back to dir outside a repository.
func repoRoot(ctx context.Context, dir string) string {
	top, err := gitexec.TopLevel(ctx, dir)
	if err != nil {
		return dir
	}
	return top
}

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.ErrConfigNotFound), errors.Is(err, config.ErrInvalidConfig):
		return ExitConfigError
	}
	return ExitFailure
}

// ErrorMessage renders err for stderr.
// Failed commands show what the command itself printed to stderr.
func ErrorMessage(err error) string {
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		return "Invalid configuration: " + verrs.Error()
	}
	if errors.Is(err, config.ErrConfigNotFound) || errors.Is(err, config.ErrInvalidConfig) {
		return capitalize(err.Error())
	}
	var cmdErr *secondary.CommandError
	if errors.As(err, &cmdErr) && strings.TrimSpace(cmdErr.Stderr) != "" {
		return strings.TrimRight(cmdErr.Stderr, "\n")
	}
	return err.Error()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// PrintError writes the rendered error to stderr.
func PrintError(err error) {
	fmt.Fprintln(os.Stderr, ErrorMessage(err))
}
