package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nimasrn/campaign-console/internal/app"
	"github.com/nimasrn/campaign-console/internal/config"
	"github.com/nimasrn/campaign-console/internal/render"
	"github.com/nimasrn/campaign-console/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	envPath string
	timeout time.Duration

	console *app.App
)

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Operator console for the remote campaign API",
	Long: `Lists and drives campaigns, their steps, executions and customer
progress through the remote campaign API.

Scoped commands accept --campaign; without it the last selected campaign
is used. The selection survives between runs when REDIS_ADDR is set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(envPath); err != nil {
			return err
		}
		if cmd.Annotations["bootstrap"] == "none" {
			return nil
		}
		var err error
		console, err = app.New(context.Background(), config.Get())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if console != nil {
			console.Close()
			console = nil
		}
		_ = logger.GetLogger().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "Path to a .env file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(campaignsCmd)
	rootCmd.AddCommand(stepsCmd)
	rootCmd.AddCommand(executionsCmd)
	rootCmd.AddCommand(customersCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var shown reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, render.Error(err.Error()))
		}
		os.Exit(1)
	}
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// reportedError was already shown to the operator as a notice.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// flushNotices prints what the console queued for the operator. A failed
// action has its own error notice, so err is not printed twice.
func flushNotices(w io.Writer, err error) error {
	notices := console.Console.Notices()
	fmt.Fprint(w, render.Notices(notices))
	if err != nil && len(notices) > 0 {
		return reportedError{err}
	}
	return err
}

// optionalString returns the flag value only when it was given.
func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}
