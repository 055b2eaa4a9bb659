package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	errorPrefixConstant          = "error:"
	errorMessageTemplateConstant = "%s %v\n"
	noColorEnvironmentConstant   = "NO_COLOR"
)

// ErrorRenderer prints fatal command errors, highlighting the prefix on color terminals.
type ErrorRenderer struct {
	output       io.Writer
	colorEnabled bool
}

// NewErrorRenderer builds a renderer for output. Color is enabled only when output is a terminal.
func NewErrorRenderer(output io.Writer) ErrorRenderer {
	return ErrorRenderer{output: output, colorEnabled: SupportsColor(output)}
}

// WithColor overrides terminal detection.
func (renderer ErrorRenderer) WithColor(enabled bool) ErrorRenderer {
	renderer.colorEnabled = enabled
	return renderer
}

// Render writes a single error line.
func (renderer ErrorRenderer) Render(renderedError error) {
	if renderer.output == nil || renderedError == nil {
		return
	}
	prefix := errorPrefixConstant
	if renderer.colorEnabled {
		highlighter := color.New(color.FgRed, color.Bold)
		highlighter.EnableColor()
		prefix = highlighter.Sprint(errorPrefixConstant)
	}
	fmt.Fprintf(renderer.output, errorMessageTemplateConstant, prefix, renderedError)
}

// SupportsColor reports whether output is a terminal that can render ANSI colors.
func SupportsColor(output io.Writer) bool {
	outputFile, isFile := output.(*os.File)
	if !isFile || outputFile == nil {
		return false
	}
	if len(os.Getenv(noColorEnvironmentConstant)) > 0 {
		return false
	}
	fileDescriptor := outputFile.Fd()
	return isatty.IsTerminal(fileDescriptor) || isatty.IsCygwinTerminal(fileDescriptor)
}
