// Package merge propagates changes along a chain of release branches.
//
// Service.WalkDownstream merges the checked-out branch into each later branch of a
// BranchChain and pushes every target; Service.MergeOne merges a single named branch
// into the checked-out branch. Commits whose subject contains a skip pattern are still
// merged, with the ours strategy, so their history is recorded without their changes.
// The same patterns apply at every hop of a walk.
//
// Git access goes through the Executor interface. GitExecutor is the production
// implementation built on execshell and gitrepo.
package merge
