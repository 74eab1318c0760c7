package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"MoexSentinel/internal/notifier"
)

var (
	eventsJSON    bool
	eventsHistory int
)

var eventsCmd = &cobra.Command{
	Use:   "events [ENTITY...]",
	Short: "Generate an event signal for the given entities (default: the universe)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if eventsHistory > 0 {
			sigs, err := a.recorder.RecentEventSignals(ctx, eventsHistory)
			if err != nil {
				return err
			}
			return printJSON(sigs)
		}

		if a.pipeline == nil {
			return errors.New("event signals are disabled (events.enabled=false)")
		}
		entities := args
		if len(entities) == 0 {
			entities = cfg.Universe
		}
		for i, e := range entities {
			entities[i] = strings.TrimSpace(e)
		}

		sig, err := a.pipeline.Generate(ctx, entities)
		if err != nil {
			return err
		}
		if eventsJSON {
			return printJSON(sig)
		}
		fmt.Println(notifier.FormatEventSignal(sig))
		return nil
	},
}

func init() {
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "print the signal as JSON")
	eventsCmd.Flags().IntVar(&eventsHistory, "history", 0, "print the N most recent recorded signals instead")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
