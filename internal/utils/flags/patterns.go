package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// PatternFlagDefinition configures a repeatable substring-pattern flag.
type PatternFlagDefinition struct {
	Name      string
	Shorthand string
	Usage     string
}

// PatternFlagValues holds the parsed patterns and whether the flag appeared on the command line.
type PatternFlagValues struct {
	Patterns []string
	flag     *pflag.Flag
}

// Supplied reports whether the flag was given at least once, even with an empty value.
func (values *PatternFlagValues) Supplied() bool {
	return values != nil && values.flag != nil && values.flag.Changed
}

// BindPatternFlag registers a repeatable string flag. Values are kept verbatim so patterns may contain commas.
func BindPatternFlag(command *cobra.Command, definition PatternFlagDefinition, defaults []string) *PatternFlagValues {
	values := &PatternFlagValues{Patterns: append([]string{}, defaults...)}
	if command == nil || len(definition.Name) == 0 {
		return values
	}

	localFlagSet := command.Flags()
	if len(definition.Shorthand) > 0 {
		localFlagSet.StringArrayVarP(&values.Patterns, definition.Name, definition.Shorthand, values.Patterns, definition.Usage)
	} else {
		localFlagSet.StringArrayVar(&values.Patterns, definition.Name, values.Patterns, definition.Usage)
	}
	values.flag = localFlagSet.Lookup(definition.Name)
	return values
}
