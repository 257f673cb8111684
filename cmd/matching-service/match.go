// cmd/matching-service/match.go
package main

import (
	"advisor-matching/internal/matching/engine"

	"github.com/spf13/cobra"
)

var (
	founderID string
	advisorID string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score one founder against all advisors, or a single founder/advisor pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		a, err := bootstrap(cmd.Context(), cfg, log, needs{search: true})
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.engine.Dispatch(cmd.Context(), engine.Request{
			FounderID: founderID,
			AdvisorID: advisorID,
		})
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	matchCmd.Flags().StringVar(&founderID, "founder", "", "founder ID (required)")
	matchCmd.Flags().StringVar(&advisorID, "advisor", "", "advisor ID; omit to rank all active advisors")
	_ = matchCmd.MarkFlagRequired("founder")
}
