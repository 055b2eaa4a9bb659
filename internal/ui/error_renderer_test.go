package ui_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/wst/internal/ui"
)

func TestErrorRendererRender(testInstance *testing.T) {
	testCases := []struct {
		name           string
		colorEnabled   bool
		expectedPrefix string
	}{
		{name: "plain", colorEnabled: false, expectedPrefix: "error: "},
		{name: "colored", colorEnabled: true, expectedPrefix: "\x1b[31;1merror:\x1b[0m "},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			output := &bytes.Buffer{}
			ui.NewErrorRenderer(output).WithColor(testCase.colorEnabled).Render(errors.New("merge conflict in 2.0.x"))
			require.Equal(testInstance, testCase.expectedPrefix+"merge conflict in 2.0.x\n", output.String())
		})
	}
}

func TestErrorRendererIgnoresNilError(testInstance *testing.T) {
	output := &bytes.Buffer{}
	ui.NewErrorRenderer(output).Render(nil)
	require.Empty(testInstance, output.String())
}

func TestSupportsColorRequiresTerminal(testInstance *testing.T) {
	require.False(testInstance, ui.SupportsColor(&bytes.Buffer{}))

	regularFile, createError := os.Create(filepath.Join(testInstance.TempDir(), "stderr.log"))
	require.NoError(testInstance, createError)
	defer regularFile.Close()
	require.False(testInstance, ui.SupportsColor(regularFile))
}
