// Package cli constructs the wst command-line interface, wiring the Cobra
// command hierarchy, the configuration loader, and structured logging. It
// exposes helpers to build application instances and to execute the merge
// command set as a library.
package cli
