package merge

import (
	"errors"
	"fmt"
)

const (
	executorNotConfiguredMessageConstant  = "merge executor not configured"
	usageErrorTemplateConstant            = "usage error: %s"
	preconditionErrorTemplateConstant     = "precondition failed: %s"
	configurationErrorTemplateConstant    = "configuration error: %s"
	alreadyAtEndErrorTemplateConstant     = "%s is the last branch in the chain; nothing downstream to merge"
	notAllowedCommitErrorTemplateConstant = "commit not allowed to be merged: %s"
	mergeConflictCommitTemplateConstant   = "merging commit %s from %s into %s failed: %v"
	mergeConflictBranchTemplateConstant   = "merging %s into %s failed: %v"
	validationFailureTemplateConstant     = "validation %q failed on %s: %v"
	pushFailureTemplateConstant           = "pushing %s failed: %v"
)

// ErrExecutorNotConfigured indicates the service was constructed without an Executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// UsageError reports conflicting or missing invocation arguments.
type UsageError struct {
	Message string
}

func (usageError UsageError) Error() string {
	return fmt.Sprintf(usageErrorTemplateConstant, usageError.Message)
}

// PreconditionError reports repository state that forbids merging, such as a dirty worktree.
type PreconditionError struct {
	Message string
	Cause   error
}

func (preconditionError PreconditionError) Error() string {
	if preconditionError.Cause != nil {
		return fmt.Sprintf(preconditionErrorTemplateConstant, preconditionError.Message+": "+preconditionError.Cause.Error())
	}
	return fmt.Sprintf(preconditionErrorTemplateConstant, preconditionError.Message)
}

// Unwrap exposes the underlying cause.
func (preconditionError PreconditionError) Unwrap() error {
	return preconditionError.Cause
}

// ConfigurationError reports a missing branch chain or a start branch outside of it.
// The walker returns it as the Cause of a PreconditionError.
type ConfigurationError struct {
	Message string
}

func (configurationError ConfigurationError) Error() string {
	return fmt.Sprintf(configurationErrorTemplateConstant, configurationError.Message)
}

// AlreadyAtEndError reports a walk started from the last branch. It is a successful no-op.
type AlreadyAtEndError struct {
	Branch string
}

func (atEndError AlreadyAtEndError) Error() string {
	return fmt.Sprintf(alreadyAtEndErrorTemplateConstant, atEndError.Branch)
}

// NotAllowedCommitError carries the first commit that matched no allow pattern.
type NotAllowedCommitError struct {
	Commit CommitRecord
}

func (notAllowedError NotAllowedCommitError) Error() string {
	return fmt.Sprintf(notAllowedCommitErrorTemplateConstant, notAllowedError.Commit.String())
}

// MergeConflictError wraps a failed git merge. The partially merged state is left for the user to resolve.
type MergeConflictError struct {
	SourceBranch string
	TargetBranch string
	CommitHash   string
	Cause        error
}

func (conflictError MergeConflictError) Error() string {
	if len(conflictError.CommitHash) > 0 {
		return fmt.Sprintf(mergeConflictCommitTemplateConstant, conflictError.CommitHash, conflictError.SourceBranch, conflictError.TargetBranch, conflictError.Cause)
	}
	return fmt.Sprintf(mergeConflictBranchTemplateConstant, conflictError.SourceBranch, conflictError.TargetBranch, conflictError.Cause)
}

// Unwrap exposes the underlying cause.
func (conflictError MergeConflictError) Unwrap() error {
	return conflictError.Cause
}

// ValidationFailure wraps a validation command that exited non-zero after a merge.
type ValidationFailure struct {
	Command      string
	TargetBranch string
	Cause        error
}

func (validationFailure ValidationFailure) Error() string {
	return fmt.Sprintf(validationFailureTemplateConstant, validationFailure.Command, validationFailure.TargetBranch, validationFailure.Cause)
}

// Unwrap exposes the underlying cause.
func (validationFailure ValidationFailure) Unwrap() error {
	return validationFailure.Cause
}

// PushFailure wraps a failed push. The local merge stands and a re-run retries the push.
type PushFailure struct {
	Branch string
	Cause  error
}

func (pushFailure PushFailure) Error() string {
	return fmt.Sprintf(pushFailureTemplateConstant, pushFailure.Branch, pushFailure.Cause)
}

// Unwrap exposes the underlying cause.
func (pushFailure PushFailure) Unwrap() error {
	return pushFailure.Cause
}

// IsSuccessfulNoOp reports whether err only signals that nothing needed to be done.
func IsSuccessfulNoOp(err error) bool {
	var atEndError AlreadyAtEndError
	return errors.As(err, &atEndError)
}
