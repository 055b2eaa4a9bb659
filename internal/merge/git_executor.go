package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/wst/internal/execshell"
)

const (
	gitCheckoutSubcommandConstant              = "checkout"
	gitLogSubcommandConstant                   = "log"
	gitLogFormatFlagConstant                   = "--format=%H%x1f%s"
	gitLogFieldSeparatorConstant               = "\x1f"
	gitRevisionRangeTemplateConstant           = "%s..%s"
	gitMergeSubcommandConstant                 = "merge"
	gitNoFastForwardFlagConstant               = "--no-ff"
	gitStrategyFlagConstant                    = "-s"
	gitMessageFlagConstant                     = "-m"
	gitPushSubcommandConstant                  = "push"
	gitPullSubcommandConstant                  = "pull"
	gitFastForwardOnlyFlagConstant             = "--ff-only"
	defaultRemoteNameConstant                  = "origin"
	gitTerminalPromptEnvironmentNameConstant   = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableValue   = "0"
	gitMergeAutoEditEnvironmentNameConstant    = "GIT_MERGE_AUTOEDIT"
	gitMergeAutoEditEnvironmentDisableValue    = "no"
	commitMergeMessageTemplateConstant         = "Merge commit '%s'"
	branchMergeMessageTemplateConstant         = "Merge branch '%s'"
	mergeMessageTargetSuffixTemplateConstant   = " into %s"
	mergeMessageUserSuffixTemplateConstant     = " by %s"
	mergeMessageStrategySuffixTemplateConstant = " (using strategy %s)"
	shellExecutorMissingMessageConstant        = "shell executor not configured"
	repositoryInspectorMissingMessageConstant  = "repository inspector not configured"
	repositoryPathMissingMessageConstant       = "repository path must be provided"
	checkoutFailureTemplateConstant            = "failed to check out %s: %w"
	logFailureTemplateConstant                 = "failed to list commits in %s missing from %s: %w"
	mergeFailureTemplateConstant               = "git merge failed: %w"
	pushFailureDetailTemplateConstant          = "failed to push %s to %s: %w"
	pullFailureTemplateConstant                = "failed to update %s from its upstream: %w"
	validationFailureDetailTemplateConstant    = "validation command failed: %w"
	currentBranchFailureTemplateConstant       = "failed to determine current branch: %w"
	worktreeStatusFailureTemplateConstant      = "failed to read worktree status: %w"
	remoteListFailureTemplateConstant          = "failed to list remotes: %w"
	upstreamLookupFailureTemplateConstant      = "failed to look up upstream of %s: %w"
)

// ErrShellExecutorNotConfigured indicates the git executor was constructed without a shell executor.
var ErrShellExecutorNotConfigured = errors.New(shellExecutorMissingMessageConstant)

// ErrRepositoryInspectorNotConfigured indicates the git executor was constructed without a repository inspector.
var ErrRepositoryInspectorNotConfigured = errors.New(repositoryInspectorMissingMessageConstant)

// ErrRepositoryPathRequired indicates the git executor was constructed without a working copy path.
var ErrRepositoryPathRequired = errors.New(repositoryPathMissingMessageConstant)

// ShellCommandExecutor runs git and validation commands.
type ShellCommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteShell(executionContext context.Context, commandLine string, workingDirectory string) (execshell.ExecutionResult, error)
}

// RepositoryInspector answers read-only questions about a working copy.
type RepositoryInspector interface {
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	IsWorktreeClean(executionContext context.Context, repositoryPath string) (bool, error)
	RemoteNames(executionContext context.Context, repositoryPath string) ([]string, error)
	HasUpstream(executionContext context.Context, repositoryPath string, branchName string) (bool, error)
}

// GitExecutorDependencies enumerates collaborators required by GitExecutor.
type GitExecutorDependencies struct {
	ShellExecutor       ShellCommandExecutor
	RepositoryInspector RepositoryInspector
	RepositoryPath      string
}

// GitExecutor implements Executor with the git binary for mutations and a RepositoryInspector for queries.
type GitExecutor struct {
	shellExecutor       ShellCommandExecutor
	repositoryInspector RepositoryInspector
	repositoryPath      string
	environment         map[string]string
}

// NewGitExecutor validates dependencies and constructs a GitExecutor.
func NewGitExecutor(dependencies GitExecutorDependencies) (*GitExecutor, error) {
	if dependencies.ShellExecutor == nil {
		return nil, ErrShellExecutorNotConfigured
	}
	if dependencies.RepositoryInspector == nil {
		return nil, ErrRepositoryInspectorNotConfigured
	}
	trimmedRepositoryPath := strings.TrimSpace(dependencies.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}

	return &GitExecutor{
		shellExecutor:       dependencies.ShellExecutor,
		repositoryInspector: dependencies.RepositoryInspector,
		repositoryPath:      trimmedRepositoryPath,
		environment: map[string]string{
			gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableValue,
			gitMergeAutoEditEnvironmentNameConstant:  gitMergeAutoEditEnvironmentDisableValue,
		},
	}, nil
}

// CurrentBranch returns the checked-out branch.
func (executor *GitExecutor) CurrentBranch(executionContext context.Context) (string, error) {
	branchName, branchError := executor.repositoryInspector.CurrentBranch(executionContext, executor.repositoryPath)
	if branchError != nil {
		return "", fmt.Errorf(currentBranchFailureTemplateConstant, branchError)
	}
	return branchName, nil
}

// Checkout switches the working copy to branchName.
func (executor *GitExecutor) Checkout(executionContext context.Context, branchName string) error {
	if _, checkoutError := executor.runGit(executionContext, gitCheckoutSubcommandConstant, branchName); checkoutError != nil {
		return fmt.Errorf(checkoutFailureTemplateConstant, branchName, checkoutError)
	}
	return nil
}

// IsWorkingTreeDirty reports staged, unstaged, or untracked changes.
func (executor *GitExecutor) IsWorkingTreeDirty(executionContext context.Context) (bool, error) {
	clean, statusError := executor.repositoryInspector.IsWorktreeClean(executionContext, executor.repositoryPath)
	if statusError != nil {
		return false, fmt.Errorf(worktreeStatusFailureTemplateConstant, statusError)
	}
	return !clean, nil
}

// UnmergedCommits runs git log targetBranch..sourceBranch and parses one record per line.
func (executor *GitExecutor) UnmergedCommits(executionContext context.Context, sourceBranch string, targetBranch string) ([]CommitRecord, error) {
	revisionRange := fmt.Sprintf(gitRevisionRangeTemplateConstant, targetBranch, sourceBranch)
	result, logError := executor.runGit(executionContext, gitLogSubcommandConstant, gitLogFormatFlagConstant, revisionRange)
	if logError != nil {
		return nil, fmt.Errorf(logFailureTemplateConstant, sourceBranch, targetBranch, logError)
	}
	return parseCommitLog(result.StandardOutput), nil
}

// Merge merges one commit with --no-ff, or the source branch head when no commit is given.
func (executor *GitExecutor) Merge(executionContext context.Context, request MergeRequest) error {
	arguments := []string{gitMergeSubcommandConstant}
	mergedReference := request.SourceBranch
	if len(request.CommitHash) > 0 {
		arguments = append(arguments, gitNoFastForwardFlagConstant)
		mergedReference = request.CommitHash
	}
	if !request.Strategy.IsDefault() {
		arguments = append(arguments, gitStrategyFlagConstant, string(request.Strategy))
	}
	arguments = append(arguments, gitMessageFlagConstant, BuildMergeMessage(request), mergedReference)

	if _, mergeError := executor.runGit(executionContext, arguments...); mergeError != nil {
		return fmt.Errorf(mergeFailureTemplateConstant, mergeError)
	}
	return nil
}

// Push publishes branchName and reports whether any remote received it.
// Having no matching remote is not an error.
func (executor *GitExecutor) Push(executionContext context.Context, branchName string, allRemotes bool) (bool, error) {
	remoteNames, remotesError := executor.repositoryInspector.RemoteNames(executionContext, executor.repositoryPath)
	if remotesError != nil {
		return false, fmt.Errorf(remoteListFailureTemplateConstant, remotesError)
	}

	pushed := false
	for _, remoteName := range remoteNames {
		if !allRemotes && remoteName != defaultRemoteNameConstant {
			continue
		}
		if _, pushError := executor.runGit(executionContext, gitPushSubcommandConstant, remoteName, branchName); pushError != nil {
			return pushed, fmt.Errorf(pushFailureDetailTemplateConstant, branchName, remoteName, pushError)
		}
		pushed = true
	}
	return pushed, nil
}

// Update runs git pull --ff-only when branchName tracks an upstream.
func (executor *GitExecutor) Update(executionContext context.Context, branchName string) error {
	hasUpstream, upstreamError := executor.repositoryInspector.HasUpstream(executionContext, executor.repositoryPath, branchName)
	if upstreamError != nil {
		return fmt.Errorf(upstreamLookupFailureTemplateConstant, branchName, upstreamError)
	}
	if !hasUpstream {
		return nil
	}

	if _, pullError := executor.runGit(executionContext, gitPullSubcommandConstant, gitFastForwardOnlyFlagConstant); pullError != nil {
		return fmt.Errorf(pullFailureTemplateConstant, branchName, pullError)
	}
	return nil
}

// RunValidation runs commandLine through sh in the working copy.
func (executor *GitExecutor) RunValidation(executionContext context.Context, commandLine string) error {
	if _, validationError := executor.shellExecutor.ExecuteShell(executionContext, commandLine, executor.repositoryPath); validationError != nil {
		return fmt.Errorf(validationFailureDetailTemplateConstant, validationError)
	}
	return nil
}

func (executor *GitExecutor) runGit(executionContext context.Context, arguments ...string) (execshell.ExecutionResult, error) {
	return executor.shellExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     executor.repositoryPath,
		EnvironmentVariables: executor.environment,
	})
}

// BuildMergeMessage renders the commit message recorded for a merge request.
//
// Commit merges:  Merge commit '<7-char hash>'[ into <target>][ (using strategy <s>)]
// Branch merges:  Merge branch '<source>'[ into <target>][ by <user>][ (using strategy <s>)]
func BuildMergeMessage(request MergeRequest) string {
	var builder strings.Builder
	if len(request.CommitHash) > 0 {
		fmt.Fprintf(&builder, commitMergeMessageTemplateConstant, CommitRecord{Hash: request.CommitHash}.ShortHash())
	} else {
		fmt.Fprintf(&builder, branchMergeMessageTemplateConstant, request.SourceBranch)
	}

	if trimmedTarget := strings.TrimSpace(request.TargetBranch); len(trimmedTarget) > 0 {
		fmt.Fprintf(&builder, mergeMessageTargetSuffixTemplateConstant, trimmedTarget)
	}
	if trimmedUser := strings.TrimSpace(request.User); len(trimmedUser) > 0 && len(request.CommitHash) == 0 {
		fmt.Fprintf(&builder, mergeMessageUserSuffixTemplateConstant, trimmedUser)
	}
	if !request.Strategy.IsDefault() {
		fmt.Fprintf(&builder, mergeMessageStrategySuffixTemplateConstant, request.Strategy)
	}
	return builder.String()
}

// parseCommitLog reads "<hash>\x1f<subject>" lines. Blank lines are ignored.
func parseCommitLog(output string) []CommitRecord {
	records := []CommitRecord{}
	for _, line := range strings.Split(output, "\n") {
		trimmedLine := strings.TrimRight(line, "\r")
		if len(strings.TrimSpace(trimmedLine)) == 0 {
			continue
		}

		hash, message, _ := strings.Cut(trimmedLine, gitLogFieldSeparatorConstant)
		message = strings.TrimSpace(message)
		records = append(records, CommitRecord{
			Hash:    strings.TrimSpace(hash),
			Message: message,
			Order:   len(records),
			Merge:   IsMergeCommitMessage(message),
		})
	}
	return records
}
