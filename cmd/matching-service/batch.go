// cmd/matching-service/batch.go
package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run one full batch over every active founder and advisor",
	Long: `Scores every active founder against every active advisor and stores the results.
SIGINT or SIGTERM stops the run after the founders already in progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, cfg, log, needs{redis: true, search: true})
		if err != nil {
			return err
		}
		defer a.Close()

		run, err := a.engine.RunBatch(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), run)
	},
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
