package merge

import "strings"

const (
	shortHashLengthConstant        = 7
	strategyOursStringConstant     = "ours"
	mergeBranchMarkerConstant      = "Merge branch"
	mergeCommitMarkerConstant      = "Merge commit"
	mergePullRequestMarkerConstant = "Merge pull request"
)

// Strategy names the git merge strategy applied to a decision. The empty value defers to git.
type Strategy string

// Known strategies.
const (
	StrategyDefault Strategy = ""
	StrategyOurs    Strategy = Strategy(strategyOursStringConstant)
)

// IsDefault reports whether git should pick the strategy.
func (strategy Strategy) IsDefault() bool {
	return len(strings.TrimSpace(string(strategy))) == 0
}

// BranchChain orders release branches from oldest to newest; merges flow towards the end.
type BranchChain []string

// Sanitize trims names and drops empty entries.
func (chain BranchChain) Sanitize() BranchChain {
	sanitized := make(BranchChain, 0, len(chain))
	for _, branchName := range chain {
		trimmed := strings.TrimSpace(branchName)
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}

// IndexOf returns the position of branchName or -1.
func (chain BranchChain) IndexOf(branchName string) int {
	for index, candidate := range chain {
		if candidate == branchName {
			return index
		}
	}
	return -1
}

// Downstream returns the branches after branchName. ok is false when branchName is not in the chain.
func (chain BranchChain) Downstream(branchName string) (BranchChain, bool) {
	index := chain.IndexOf(branchName)
	if index < 0 {
		return nil, false
	}
	return append(BranchChain{}, chain[index+1:]...), true
}

// String renders the chain the way it is written in configuration.
func (chain BranchChain) String() string {
	return strings.Join(chain, " ")
}

// CommitRecord is one entry of the newest-first log of commits missing from a target branch.
type CommitRecord struct {
	Hash    string
	Message string
	// Order is the 0-based position in the newest-first log.
	Order int
	// Merge marks merge commits, which are never replayed on their own.
	Merge bool
}

// ShortHash returns the abbreviated hash used in merge messages and previews.
func (record CommitRecord) ShortHash() string {
	if len(record.Hash) <= shortHashLengthConstant {
		return record.Hash
	}
	return record.Hash[:shortHashLengthConstant]
}

// String renders the record as a one-line log entry.
func (record CommitRecord) String() string {
	return record.ShortHash() + " " + record.Message
}

// IsMergeCommitMessage reports whether a subject line was produced by a merge.
func IsMergeCommitMessage(message string) bool {
	return strings.Contains(message, mergeBranchMarkerConstant) ||
		strings.Contains(message, mergeCommitMarkerConstant) ||
		strings.Contains(message, mergePullRequestMarkerConstant)
}

// Decision is one merge to perform. A nil Commit merges the source branch head in one operation.
type Decision struct {
	Commit   *CommitRecord
	Strategy Strategy
	// MatchedPattern holds the skip pattern that forced StrategyOurs, if any.
	MatchedPattern string
}

// IsBulk reports whether the decision merges the whole branch head.
func (decision Decision) IsBulk() bool {
	return decision.Commit == nil
}

// Outcome summarizes one hop.
type Outcome struct {
	SourceBranch  string
	TargetBranch  string
	MergedCommits []CommitRecord
	// Pushed is true only when at least one remote received the target branch.
	Pushed        bool
	DryRun        bool
}

// MergeRequest describes a single merge operation handed to an Executor.
type MergeRequest struct {
	SourceBranch string
	TargetBranch string
	// CommitHash selects one commit; empty merges the SourceBranch head.
	CommitHash string
	Strategy   Strategy
	User       string
}

// MergeOptions carries the policy shared by downstream walks and single merges.
type MergeOptions struct {
	SkipPatterns []string
	// PerCommit forces one merge per commit even when SkipPatterns is empty.
	PerCommit         bool
	Strategy          Strategy
	AllowPatterns     []string
	ValidationCommand string
	User              string
	DryRun            bool
	Quiet             bool
	SkipUpdate        bool
}

// WalkRequest starts a downstream walk. An empty StartBranch means the checked-out branch;
// a named StartBranch is checked out before it is updated.
type WalkRequest struct {
	Chain       BranchChain
	StartBranch string
	Options     MergeOptions
}

// SingleRequest merges SourceBranch into TargetBranch, or into the checked-out branch when TargetBranch is empty.
type SingleRequest struct {
	SourceBranch string
	TargetBranch string
	Options      MergeOptions
}
