// cmd/matching-service/registry.go
package main

import (
	"fmt"
	"time"

	"advisor-matching/internal/common/errors"
	"advisor-matching/internal/common/validation"
	"advisor-matching/pkg/registry"

	"github.com/spf13/cobra"
)

var registryPath string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the activity registry used to validate job and API inputs",
}

var registryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective registry (built-ins merged with --path)",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Load(registryPath)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), reg)
	},
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check task type naming, timeouts, error codes and input schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Load(registryPath)
		if err != nil {
			return err
		}
		problems := validateRegistry(reg)
		for _, p := range problems {
			fmt.Fprintln(cmd.ErrOrStderr(), p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("registry has %d problem(s)", len(problems))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registry OK (%d activities)\n", len(reg.Activities))
		return nil
	},
}

func init() {
	registryCmd.PersistentFlags().StringVar(&registryPath, "path", "", "registry file to merge over the built-ins")
	registryCmd.AddCommand(registryShowCmd, registryValidateCmd)
	rootCmd.AddCommand(registryCmd)
}

// validateRegistry returns one message per problem found.
func validateRegistry(reg *registry.ActivityRegistry) []string {
	var problems []string
	seen := map[string]bool{}

	for _, a := range reg.Activities {
		if err := validation.ValidateActivityNaming(a.TaskType); err != nil {
			problems = append(problems, err.Error())
		}
		if seen[a.TaskType] {
			problems = append(problems, fmt.Sprintf("%s: duplicate task type", a.TaskType))
		}
		seen[a.TaskType] = true

		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				problems = append(problems, fmt.Sprintf("%s: timeout %q is not a duration", a.TaskType, a.Timeout))
			}
		}
		for _, code := range a.ErrorCodes {
			if !errors.IsKnownCode(errors.ErrorCode(code)) {
				problems = append(problems, fmt.Sprintf("%s: unknown error code %s", a.TaskType, code))
			}
		}
		if err := validation.CompileSchema(a.InputSchema); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", a.TaskType, err))
		}
	}
	return problems
}
