package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"MoexSentinel/internal/notifier"
)

var (
	runJSON     bool
	runNoNotify bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one analysis cycle and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, !runNoNotify)
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.report.Run(ctx)
		if err != nil {
			return err
		}
		if runJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		fmt.Println(notifier.FormatDigest(rep.Digest()))
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the report as JSON")
	runCmd.Flags().BoolVar(&runNoNotify, "no-notify", false, "do not send the Telegram digest")
}
