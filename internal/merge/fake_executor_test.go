package merge_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/temirov/wst/internal/merge"
)

const (
	fakeCheckoutOperationTemplateConstant   = "checkout %s"
	fakeUpdateOperationTemplateConstant     = "update %s"
	fakeMergeOperationTemplateConstant      = "merge %s into %s"
	fakePushOperationTemplateConstant       = "push %s"
	fakeValidationOperationTemplateConstant = "validate %s"
	fakeRangeKeyTemplateConstant            = "%s..%s"
)

var errFakeDirtyInspection = errors.New("status unavailable")

// fakeExecutor is an in-memory Executor that records every mutating call in order.
type fakeExecutor struct {
	currentBranch     string
	dirty             bool
	dirtyError        error
	pendingCommits    map[string][]merge.CommitRecord
	mergeFailures     map[string]error
	pushFailures      map[string]error
	validationFailure error
	withoutRemotes    bool
	operations        []string
	mergeRequests     []merge.MergeRequest
	pushedAllRemotes  []bool
	dirtyChecks       int
}

func newFakeExecutor(currentBranch string) *fakeExecutor {
	return &fakeExecutor{
		currentBranch:  currentBranch,
		pendingCommits: map[string][]merge.CommitRecord{},
		mergeFailures:  map[string]error{},
		pushFailures:   map[string]error{},
	}
}

func (executor *fakeExecutor) withPending(sourceBranch string, targetBranch string, commits ...merge.CommitRecord) *fakeExecutor {
	executor.pendingCommits[fmt.Sprintf(fakeRangeKeyTemplateConstant, targetBranch, sourceBranch)] = commits
	return executor
}

func (executor *fakeExecutor) CurrentBranch(context.Context) (string, error) {
	return executor.currentBranch, nil
}

func (executor *fakeExecutor) Checkout(_ context.Context, branchName string) error {
	executor.operations = append(executor.operations, fmt.Sprintf(fakeCheckoutOperationTemplateConstant, branchName))
	executor.currentBranch = branchName
	return nil
}

func (executor *fakeExecutor) IsWorkingTreeDirty(context.Context) (bool, error) {
	executor.dirtyChecks++
	if executor.dirtyError != nil {
		return false, executor.dirtyError
	}
	return executor.dirty, nil
}

func (executor *fakeExecutor) UnmergedCommits(_ context.Context, sourceBranch string, targetBranch string) ([]merge.CommitRecord, error) {
	pending := executor.pendingCommits[fmt.Sprintf(fakeRangeKeyTemplateConstant, targetBranch, sourceBranch)]
	return append([]merge.CommitRecord{}, pending...), nil
}

func (executor *fakeExecutor) Merge(_ context.Context, request merge.MergeRequest) error {
	mergedReference := request.SourceBranch
	if len(request.CommitHash) > 0 {
		mergedReference = request.CommitHash
	}
	executor.operations = append(executor.operations, fmt.Sprintf(fakeMergeOperationTemplateConstant, mergedReference, request.TargetBranch))
	if failure, failing := executor.mergeFailures[mergedReference]; failing {
		return failure
	}
	executor.mergeRequests = append(executor.mergeRequests, request)
	return nil
}

func (executor *fakeExecutor) Push(_ context.Context, branchName string, allRemotes bool) (bool, error) {
	executor.operations = append(executor.operations, fmt.Sprintf(fakePushOperationTemplateConstant, branchName))
	executor.pushedAllRemotes = append(executor.pushedAllRemotes, allRemotes)
	if failure, failing := executor.pushFailures[branchName]; failing {
		return false, failure
	}
	return !executor.withoutRemotes, nil
}

func (executor *fakeExecutor) Update(_ context.Context, branchName string) error {
	executor.operations = append(executor.operations, fmt.Sprintf(fakeUpdateOperationTemplateConstant, branchName))
	return nil
}

func (executor *fakeExecutor) RunValidation(_ context.Context, commandLine string) error {
	executor.operations = append(executor.operations, fmt.Sprintf(fakeValidationOperationTemplateConstant, commandLine))
	return executor.validationFailure
}
