// Package execshell runs git and validation commands as child processes.
//
// ShellExecutor logs every invocation through zap, converts non-zero exit codes
// into CommandFailedError, and forwards lifecycle events to an optional
// CommandEventObserver. OSCommandRunner is the os/exec backed CommandRunner used
// in production; tests substitute recording runners.
package execshell
