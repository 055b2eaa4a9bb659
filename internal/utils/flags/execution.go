// Package flags binds the flag groups shared by wst commands to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// DryRunFlagName exposes the shared dry-run flag name.
	DryRunFlagName = "dry-run"
	// DryRunFlagShorthand provides the shorthand for the dry-run flag.
	DryRunFlagShorthand = "n"
	// DryRunFlagUsage describes the shared dry-run flag purpose.
	DryRunFlagUsage = "Print the commits that would be merged without merging or pushing"
	// QuietFlagName exposes the shared quiet flag name.
	QuietFlagName = "quiet"
	// QuietFlagUsage describes the shared quiet flag purpose.
	QuietFlagUsage = "Skip branches that have nothing to merge without announcing them"
)

// ExecutionDefaults describes default flag values shared across commands.
type ExecutionDefaults struct {
	DryRun bool
	Quiet  bool
}

// ExecutionFlagDefinition captures a single flag's configuration.
type ExecutionFlagDefinition struct {
	Name      string
	Usage     string
	Shorthand string
	Enabled   bool
}

// ExecutionFlagDefinitions groups execution flag definitions.
type ExecutionFlagDefinitions struct {
	DryRun ExecutionFlagDefinition
	Quiet  ExecutionFlagDefinition
}

// DefaultExecutionFlagDefinitions enables both execution flags with their standard names.
func DefaultExecutionFlagDefinitions() ExecutionFlagDefinitions {
	return ExecutionFlagDefinitions{
		DryRun: ExecutionFlagDefinition{Name: DryRunFlagName, Shorthand: DryRunFlagShorthand, Usage: DryRunFlagUsage, Enabled: true},
		Quiet:  ExecutionFlagDefinition{Name: QuietFlagName, Usage: QuietFlagUsage, Enabled: true},
	}
}

// BindExecutionFlags attaches the execution flags to the command's local flag set.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults, definitions ExecutionFlagDefinitions) *ExecutionDefaults {
	values := defaults
	if command == nil {
		return &values
	}

	localFlagSet := command.Flags()
	bindBoolFlag(localFlagSet, &values.DryRun, definitions.DryRun, defaults.DryRun)
	bindBoolFlag(localFlagSet, &values.Quiet, definitions.Quiet, defaults.Quiet)
	return &values
}

func bindBoolFlag(flagSet *pflag.FlagSet, target *bool, definition ExecutionFlagDefinition, defaultValue bool) {
	if flagSet == nil || !definition.Enabled || len(definition.Name) == 0 {
		return
	}
	if flagSet.Lookup(definition.Name) != nil {
		return
	}

	if len(definition.Shorthand) > 0 {
		flagSet.BoolVarP(target, definition.Name, definition.Shorthand, defaultValue, definition.Usage)
		return
	}
	flagSet.BoolVar(target, definition.Name, defaultValue, definition.Usage)
}
