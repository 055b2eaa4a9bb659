package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestBindExecutionFlagsParsesValues(t *testing.T) {
	command := &cobra.Command{}

	values := BindExecutionFlags(command, ExecutionDefaults{Quiet: true}, DefaultExecutionFlagDefinitions())
	require.NotNil(t, values)
	require.False(t, values.DryRun)
	require.True(t, values.Quiet)

	parseError := command.ParseFlags([]string{"-n", "--quiet=false"})
	require.NoError(t, parseError)
	require.True(t, values.DryRun)
	require.False(t, values.Quiet)
}

func TestBindExecutionFlagsSkipsDisabledDefinitions(t *testing.T) {
	command := &cobra.Command{}

	BindExecutionFlags(command, ExecutionDefaults{}, ExecutionFlagDefinitions{
		DryRun: ExecutionFlagDefinition{Name: DryRunFlagName, Enabled: false},
	})

	require.Nil(t, command.Flags().Lookup(DryRunFlagName))
	require.Nil(t, command.Flags().Lookup(QuietFlagName))
}

func TestBindPatternFlag(t *testing.T) {
	testCases := []struct {
		name             string
		arguments        []string
		defaults         []string
		expectedPatterns []string
		expectedSupplied bool
	}{
		{
			name:             "DefaultsWhenAbsent",
			defaults:         []string{"[skip]"},
			expectedPatterns: []string{"[skip]"},
		},
		{
			name:             "RepeatedValuesReplaceDefaults",
			arguments:        []string{"--skip-commits", "[skip]", "--skip-commits", "no merge, please"},
			defaults:         []string{"[ci skip]"},
			expectedPatterns: []string{"[skip]", "no merge, please"},
			expectedSupplied: true,
		},
		{
			name:             "EmptyValueStillSupplied",
			arguments:        []string{"--skip-commits="},
			expectedPatterns: []string{""},
			expectedSupplied: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			command := &cobra.Command{}
			values := BindPatternFlag(command, PatternFlagDefinition{Name: "skip-commits", Usage: "Skip patterns"}, testCase.defaults)

			require.NoError(t, command.ParseFlags(testCase.arguments))
			require.Equal(t, testCase.expectedPatterns, values.Patterns)
			require.Equal(t, testCase.expectedSupplied, values.Supplied())
		})
	}
}
