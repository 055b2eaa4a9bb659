package merge

import "context"

// Executor performs the version-control operations a merge needs. Implementations
// are bound to one working copy.
type Executor interface {
	CurrentBranch(executionContext context.Context) (string, error)
	Checkout(executionContext context.Context, branchName string) error
	IsWorkingTreeDirty(executionContext context.Context) (bool, error)
	// UnmergedCommits lists commits reachable from sourceBranch but not targetBranch, newest first.
	UnmergedCommits(executionContext context.Context, sourceBranch string, targetBranch string) ([]CommitRecord, error)
	Merge(executionContext context.Context, request MergeRequest) error
	// Push publishes branchName to every remote, or only to origin when allRemotes is false.
	// It reports whether any remote received the branch.
	Push(executionContext context.Context, branchName string, allRemotes bool) (bool, error)
	// Update fast-forwards the checked-out branchName from its upstream, if it has one.
	Update(executionContext context.Context, branchName string) error
	RunValidation(executionContext context.Context, commandLine string) error
}
