// main.go builds the moisture root command and executes it with a
// signal-aware context.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := newRootCommand(os.Stdout).ExecuteContext(ctx)
	handleError(os.Stderr, err)
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	logLevel := "info"
	cmd := &cobra.Command{
		Use:           "moisture",
		Short:         "Collect soil moisture readings from an ESP sensor board",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "Log level (debug, info, warn, error)")
	cmd.AddCommand(
		newCollectCommand(),
		newSnippetCommand(),
	)
	return cmd
}

func handleError(w io.Writer, err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	switch {
	case errors.Is(err, os.ErrNotExist):
		message = fmt.Sprintf("%s\nHint: pass the config file as an argument or with --config.", err)
	case errors.Is(err, os.ErrPermission):
		message = fmt.Sprintf("%s\nHint: check that the output path is writable.", err)
	case errors.Is(err, context.Canceled):
		message = "interrupted"
	}
	fmt.Fprintf(w, "Error: %s\n", message)
}
