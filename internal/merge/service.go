package merge

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

const (
	mergingAnnouncementTemplateConstant    = "Merging %s into %s"
	pushingAnnouncementTemplateConstant    = "Pushing %s"
	previewHeaderConstant                  = "The following commit(s) would be merged:"
	previewLineTemplateConstant            = "  %s"
	alreadyUpToDateMessageConstant         = "Already up-to-date."
	lastBranchMessageConstant              = "You are currently on the last branch, so no downstream branches to merge."
	lastBranchHintMessageConstant          = "Switch to the branch that you want to merge from first, and then re-run"
	notAllowedCommitHeaderConstant         = "Found a commit that was not allowed to be merged:"
	notAllowedCommitLineTemplateConstant   = "  %s"
	dirtyWorktreeMessageConstant           = "your repo has untracked or modified files in the working directory or staging index; clean up before merging"
	worktreeInspectionMessageConstant      = "unable to inspect the working tree"
	currentBranchInspectionMessageConstant = "unable to determine the current branch"
	chainNotConfiguredMessageConstant      = "merge branches must be configured with a list of branches to merge to, or provided with --merge-branches"
	branchNotInChainTemplateConstant       = "current branch %s not found in merge branches (%s)"
	chainPreconditionMessageConstant       = "branch chain unusable"
	sourceBranchRequiredMessageConstant    = "a branch to merge from must be provided"
	sameBranchTemplateConstant             = "cannot merge %s into itself"
	hopFailureTemplateConstant             = "merge of %s into %s: %w"
	logFieldSourceBranchConstant           = "source_branch"
	logFieldTargetBranchConstant           = "target_branch"
	logFieldCommitHashConstant             = "commit_hash"
	logFieldStrategyConstant               = "strategy"
	logFieldPatternConstant                = "skip_pattern"
	logFieldPatternsConstant               = "skip_patterns"
	logFieldCommitCountConstant            = "commit_count"
	logFieldDryRunConstant                 = "dry_run"
	logFieldChainConstant                  = "branch_chain"
	hopSkippedLogMessageConstant           = "nothing to merge; skipping quietly"
	decisionLogMessageConstant             = "resolved merge decision"
	hopCompletedLogMessageConstant         = "merge hop completed"
	walkStartedLogMessageConstant          = "starting downstream merge walk"
	updateLogMessageConstant               = "updating branch from upstream"
)

// ServiceDependencies enumerates collaborators required by the service.
type ServiceDependencies struct {
	Executor Executor
	Logger   *zap.Logger
	// Output receives the user-facing progress lines.
	Output io.Writer
}

// Service drives downstream walks and single merges.
type Service struct {
	executor Executor
	logger   *zap.Logger
	output   io.Writer
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	output := dependencies.Output
	if output == nil {
		output = io.Discard
	}

	return &Service{executor: dependencies.Executor, logger: logger, output: output}, nil
}

// WalkDownstream merges the start branch into each later branch of the chain in turn,
// pushing every target after a successful merge. The walk halts at the first failure
// and leaves earlier hops in place; the failed hop's outcome is the last one returned.
func (service *Service) WalkDownstream(executionContext context.Context, request WalkRequest) ([]Outcome, error) {
	options := sanitizeOptions(request.Options)

	if preconditionError := service.ensureCleanWorktree(executionContext); preconditionError != nil {
		return nil, preconditionError
	}

	chain := request.Chain.Sanitize()
	if len(chain) == 0 {
		return nil, PreconditionError{Message: chainPreconditionMessageConstant, Cause: ConfigurationError{Message: chainNotConfiguredMessageConstant}}
	}

	startBranch, startError := service.resolveBranch(executionContext, request.StartBranch)
	if startError != nil {
		return nil, startError
	}

	downstreamBranches, inChain := chain.Downstream(startBranch)
	if !inChain {
		return nil, PreconditionError{
			Message: chainPreconditionMessageConstant,
			Cause:   ConfigurationError{Message: fmt.Sprintf(branchNotInChainTemplateConstant, startBranch, chain.String())},
		}
	}
	if len(downstreamBranches) == 0 {
		service.printLine(lastBranchMessageConstant)
		service.printLine(lastBranchHintMessageConstant)
		return nil, AlreadyAtEndError{Branch: startBranch}
	}

	service.logger.Info(walkStartedLogMessageConstant,
		zap.String(logFieldSourceBranchConstant, startBranch),
		zap.Strings(logFieldChainConstant, chain),
		zap.Strings(logFieldPatternsConstant, options.SkipPatterns),
		zap.Bool(logFieldDryRunConstant, options.DryRun),
	)

	if len(strings.TrimSpace(request.StartBranch)) > 0 {
		if checkoutError := service.executor.Checkout(executionContext, startBranch); checkoutError != nil {
			return nil, checkoutError
		}
	}

	if updateError := service.update(executionContext, startBranch, options); updateError != nil {
		return nil, updateError
	}

	outcomes := make([]Outcome, 0, len(downstreamBranches))
	sourceBranch := startBranch
	for _, targetBranch := range downstreamBranches {
		outcome, announced, hopError := service.walkHop(executionContext, sourceBranch, targetBranch, options)
		if announced {
			outcomes = append(outcomes, outcome)
		}
		if hopError != nil {
			return outcomes, hopError
		}
		sourceBranch = targetBranch
	}
	return outcomes, nil
}

func (service *Service) walkHop(executionContext context.Context, sourceBranch string, targetBranch string, options MergeOptions) (Outcome, bool, error) {
	outcome := Outcome{SourceBranch: sourceBranch, TargetBranch: targetBranch, DryRun: options.DryRun}

	if checkoutError := service.executor.Checkout(executionContext, targetBranch); checkoutError != nil {
		return outcome, false, checkoutError
	}

	commits, commitsError := service.unmergedCommits(executionContext, sourceBranch, targetBranch)
	if commitsError != nil {
		return outcome, false, commitsError
	}

	if options.Quiet && len(commits) == 0 {
		service.logger.Debug(hopSkippedLogMessageConstant,
			zap.String(logFieldSourceBranchConstant, sourceBranch),
			zap.String(logFieldTargetBranchConstant, targetBranch),
		)
		return outcome, false, nil
	}

	service.printLine(fmt.Sprintf(mergingAnnouncementTemplateConstant, sourceBranch, targetBranch))

	if !options.SkipUpdate {
		if updateError := service.update(executionContext, targetBranch, options); updateError != nil {
			return outcome, true, updateError
		}
		commits, commitsError = service.unmergedCommits(executionContext, sourceBranch, targetBranch)
		if commitsError != nil {
			return outcome, true, commitsError
		}
	}

	if options.DryRun {
		service.printPreview(commits)
		return outcome, true, nil
	}

	mergedCommits, mergeError := service.mergeCommits(executionContext, sourceBranch, targetBranch, commits, options)
	outcome.MergedCommits = mergedCommits
	if mergeError != nil {
		return outcome, true, mergeError
	}

	service.printLine(fmt.Sprintf(pushingAnnouncementTemplateConstant, targetBranch))
	pushed, pushError := service.executor.Push(executionContext, targetBranch, true)
	outcome.Pushed = pushed
	if pushError != nil {
		return outcome, true, PushFailure{Branch: targetBranch, Cause: pushError}
	}

	service.logger.Info(hopCompletedLogMessageConstant,
		zap.String(logFieldSourceBranchConstant, sourceBranch),
		zap.String(logFieldTargetBranchConstant, targetBranch),
		zap.Int(logFieldCommitCountConstant, len(mergedCommits)),
	)
	return outcome, true, nil
}

// MergeOne merges a named branch into the target branch without pushing.
func (service *Service) MergeOne(executionContext context.Context, request SingleRequest) (Outcome, error) {
	options := sanitizeOptions(request.Options)

	sourceBranch := strings.TrimSpace(request.SourceBranch)
	if len(sourceBranch) == 0 {
		return Outcome{}, UsageError{Message: sourceBranchRequiredMessageConstant}
	}

	if preconditionError := service.ensureCleanWorktree(executionContext); preconditionError != nil {
		return Outcome{}, preconditionError
	}

	targetBranch, targetError := service.resolveBranch(executionContext, request.TargetBranch)
	if targetError != nil {
		return Outcome{}, targetError
	}
	if targetBranch == sourceBranch {
		return Outcome{}, UsageError{Message: fmt.Sprintf(sameBranchTemplateConstant, sourceBranch)}
	}

	outcome := Outcome{SourceBranch: sourceBranch, TargetBranch: targetBranch, DryRun: options.DryRun}

	if len(strings.TrimSpace(request.TargetBranch)) > 0 {
		if checkoutError := service.executor.Checkout(executionContext, targetBranch); checkoutError != nil {
			return outcome, checkoutError
		}
	}

	if updateError := service.update(executionContext, targetBranch, options); updateError != nil {
		return outcome, updateError
	}

	service.printLine(fmt.Sprintf(mergingAnnouncementTemplateConstant, sourceBranch, targetBranch))

	if !options.SkipUpdate {
		if updateError := service.updateOther(executionContext, sourceBranch, targetBranch, options); updateError != nil {
			return outcome, updateError
		}
	}

	commits, commitsError := service.unmergedCommits(executionContext, sourceBranch, targetBranch)
	if commitsError != nil {
		return outcome, commitsError
	}
	service.printPreview(commits)

	if options.DryRun {
		return outcome, nil
	}

	mergedCommits, mergeError := service.mergeCommits(executionContext, sourceBranch, targetBranch, commits, options)
	outcome.MergedCommits = mergedCommits
	return outcome, mergeError
}

// mergeCommits applies the allow policy, performs the resolved merges, and runs validation.
func (service *Service) mergeCommits(executionContext context.Context, sourceBranch string, targetBranch string, commits []CommitRecord, options MergeOptions) ([]CommitRecord, error) {
	if len(options.AllowPatterns) > 0 {
		for _, commit := range commits {
			if IsAllowed(commit, options.AllowPatterns) {
				continue
			}
			service.printLine(notAllowedCommitHeaderConstant)
			service.printLine(fmt.Sprintf(notAllowedCommitLineTemplateConstant, commit.String()))
			return nil, NotAllowedCommitError{Commit: commit}
		}
	}

	decisions := Resolve(commits, options.SkipPatterns, options.PerCommit, options.Strategy)
	for _, decision := range decisions {
		mergeRequest := MergeRequest{
			SourceBranch: sourceBranch,
			TargetBranch: targetBranch,
			Strategy:     decision.Strategy,
			User:         options.User,
		}
		if !decision.IsBulk() {
			mergeRequest.CommitHash = decision.Commit.Hash
		}
		service.logDecision(sourceBranch, targetBranch, decision)

		if mergeError := service.executor.Merge(executionContext, mergeRequest); mergeError != nil {
			return mergedSoFar(decisions, decision), MergeConflictError{
				SourceBranch: sourceBranch,
				TargetBranch: targetBranch,
				CommitHash:   mergeRequest.CommitHash,
				Cause:        mergeError,
			}
		}
	}

	if len(options.ValidationCommand) > 0 {
		if validationError := service.executor.RunValidation(executionContext, options.ValidationCommand); validationError != nil {
			return oldestFirst(commits), ValidationFailure{Command: options.ValidationCommand, TargetBranch: targetBranch, Cause: validationError}
		}
	}

	return oldestFirst(commits), nil
}

func (service *Service) ensureCleanWorktree(executionContext context.Context) error {
	dirty, statusError := service.executor.IsWorkingTreeDirty(executionContext)
	if statusError != nil {
		return PreconditionError{Message: worktreeInspectionMessageConstant, Cause: statusError}
	}
	if dirty {
		return PreconditionError{Message: dirtyWorktreeMessageConstant}
	}
	return nil
}

func (service *Service) resolveBranch(executionContext context.Context, requestedBranch string) (string, error) {
	if trimmed := strings.TrimSpace(requestedBranch); len(trimmed) > 0 {
		return trimmed, nil
	}
	currentBranch, branchError := service.executor.CurrentBranch(executionContext)
	if branchError != nil {
		return "", PreconditionError{Message: currentBranchInspectionMessageConstant, Cause: branchError}
	}
	return currentBranch, nil
}

// unmergedCommits returns the commits to replay, dropping merge commits.
func (service *Service) unmergedCommits(executionContext context.Context, sourceBranch string, targetBranch string) ([]CommitRecord, error) {
	records, recordsError := service.executor.UnmergedCommits(executionContext, sourceBranch, targetBranch)
	if recordsError != nil {
		return nil, fmt.Errorf(hopFailureTemplateConstant, sourceBranch, targetBranch, recordsError)
	}

	commits := make([]CommitRecord, 0, len(records))
	for _, record := range records {
		if record.Merge || IsMergeCommitMessage(record.Message) {
			continue
		}
		record.Order = len(commits)
		commits = append(commits, record)
	}
	return commits, nil
}

// update fast-forwards the checked-out branch unless updates are disabled.
func (service *Service) update(executionContext context.Context, branchName string, options MergeOptions) error {
	if options.SkipUpdate {
		return nil
	}
	service.logger.Debug(updateLogMessageConstant, zap.String(logFieldTargetBranchConstant, branchName))
	return service.executor.Update(executionContext, branchName)
}

// updateOther updates otherBranch and returns to returnBranch.
func (service *Service) updateOther(executionContext context.Context, otherBranch string, returnBranch string, options MergeOptions) error {
	if checkoutError := service.executor.Checkout(executionContext, otherBranch); checkoutError != nil {
		return checkoutError
	}
	if updateError := service.update(executionContext, otherBranch, options); updateError != nil {
		return updateError
	}
	return service.executor.Checkout(executionContext, returnBranch)
}

// printPreview lists commits in log order, newest first.
func (service *Service) printPreview(commits []CommitRecord) {
	if len(commits) == 0 {
		service.printLine(alreadyUpToDateMessageConstant)
		return
	}
	service.printLine(previewHeaderConstant)
	for _, commit := range commits {
		service.printLine(fmt.Sprintf(previewLineTemplateConstant, commit.String()))
	}
}

func (service *Service) printLine(line string) {
	fmt.Fprintln(service.output, line)
}

func (service *Service) logDecision(sourceBranch string, targetBranch string, decision Decision) {
	fields := []zap.Field{
		zap.String(logFieldSourceBranchConstant, sourceBranch),
		zap.String(logFieldTargetBranchConstant, targetBranch),
		zap.String(logFieldStrategyConstant, string(decision.Strategy)),
	}
	if !decision.IsBulk() {
		fields = append(fields, zap.String(logFieldCommitHashConstant, decision.Commit.Hash))
	}
	if len(decision.MatchedPattern) > 0 {
		fields = append(fields, zap.String(logFieldPatternConstant, decision.MatchedPattern))
	}
	service.logger.Debug(decisionLogMessageConstant, fields...)
}

func sanitizeOptions(options MergeOptions) MergeOptions {
	sanitized := options
	sanitized.SkipPatterns = SanitizePatterns(options.SkipPatterns)
	sanitized.AllowPatterns = SanitizePatterns(options.AllowPatterns)
	sanitized.Strategy = Strategy(strings.TrimSpace(string(options.Strategy)))
	sanitized.ValidationCommand = strings.TrimSpace(options.ValidationCommand)
	sanitized.User = strings.TrimSpace(options.User)
	return sanitized
}

func oldestFirst(commits []CommitRecord) []CommitRecord {
	reversed := make([]CommitRecord, 0, len(commits))
	for index := len(commits) - 1; index >= 0; index-- {
		reversed = append(reversed, commits[index])
	}
	return reversed
}

// mergedSoFar returns the commits landed before failedDecision. A bulk decision lands nothing on failure.
func mergedSoFar(decisions []Decision, failedDecision Decision) []CommitRecord {
	if failedDecision.IsBulk() {
		return nil
	}
	landed := []CommitRecord{}
	for _, decision := range decisions {
		if decision.Commit == nil || decision.Commit.Hash == failedDecision.Commit.Hash {
			break
		}
		landed = append(landed, *decision.Commit)
	}
	return landed
}
