package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const (
	openRepositoryErrorTemplateConstant    = "unable to open repository at %s: %w"
	readHeadErrorTemplateConstant          = "unable to read HEAD in %s: %w"
	readWorktreeErrorTemplateConstant      = "unable to open worktree in %s: %w"
	readStatusErrorTemplateConstant        = "unable to read worktree status in %s: %w"
	readRemotesErrorTemplateConstant       = "unable to list remotes in %s: %w"
	readConfigurationErrorTemplateConstant = "unable to read repository configuration in %s: %w"
	loadExcludesErrorTemplateConstant      = "unable to load %s excludes: %w"
	globalExcludesScopeConstant            = "global"
	systemExcludesScopeConstant            = "system"
	filesystemRootConstant                 = "/"
	detachedHeadMessageConstant            = "HEAD is detached"
)

// ErrDetachedHead indicates HEAD does not point at a local branch.
var ErrDetachedHead = errors.New(detachedHeadMessageConstant)

// RepositoryManager answers read-only questions about a working copy through go-git.
// Every call opens the repository afresh so results reflect changes made by the git binary.
type RepositoryManager struct{}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{}
}

// CurrentBranch returns the short name of the branch HEAD points at.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	repository, openError := manager.open(executionContext, repositoryPath)
	if openError != nil {
		return "", openError
	}

	headReference, headError := repository.Head()
	if headError != nil {
		return "", fmt.Errorf(readHeadErrorTemplateConstant, repositoryPath, headError)
	}
	if !headReference.Name().IsBranch() {
		return "", fmt.Errorf(readHeadErrorTemplateConstant, repositoryPath, ErrDetachedHead)
	}
	return headReference.Name().Short(), nil
}

// IsWorktreeClean reports whether the worktree has no staged, unstaged, or untracked changes.
// Files matched by the user's core.excludesFile or the system excludes are not untracked.
func (manager *RepositoryManager) IsWorktreeClean(executionContext context.Context, repositoryPath string) (bool, error) {
	repository, openError := manager.open(executionContext, repositoryPath)
	if openError != nil {
		return false, openError
	}

	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return false, fmt.Errorf(readWorktreeErrorTemplateConstant, repositoryPath, worktreeError)
	}

	excludePatterns, excludesError := loadExcludePatterns()
	if excludesError != nil {
		return false, excludesError
	}
	worktree.Excludes = append(worktree.Excludes, excludePatterns...)

	status, statusError := worktree.Status()
	if statusError != nil {
		return false, fmt.Errorf(readStatusErrorTemplateConstant, repositoryPath, statusError)
	}
	return status.IsClean(), nil
}

// RemoteNames lists configured remotes sorted by name.
func (manager *RepositoryManager) RemoteNames(executionContext context.Context, repositoryPath string) ([]string, error) {
	repository, openError := manager.open(executionContext, repositoryPath)
	if openError != nil {
		return nil, openError
	}

	remotes, remotesError := repository.Remotes()
	if remotesError != nil {
		return nil, fmt.Errorf(readRemotesErrorTemplateConstant, repositoryPath, remotesError)
	}

	remoteNames := make([]string, 0, len(remotes))
	for _, remote := range remotes {
		remoteNames = append(remoteNames, remote.Config().Name)
	}
	sort.Strings(remoteNames)
	return remoteNames, nil
}

// HasUpstream reports whether branchName tracks a remote branch (branch.<name>.remote and .merge are set).
func (manager *RepositoryManager) HasUpstream(executionContext context.Context, repositoryPath string, branchName string) (bool, error) {
	repository, openError := manager.open(executionContext, repositoryPath)
	if openError != nil {
		return false, openError
	}

	repositoryConfiguration, configurationError := repository.Config()
	if configurationError != nil {
		return false, fmt.Errorf(readConfigurationErrorTemplateConstant, repositoryPath, configurationError)
	}

	branchConfiguration, configured := repositoryConfiguration.Branches[strings.TrimSpace(branchName)]
	if !configured || branchConfiguration == nil {
		return false, nil
	}
	return len(branchConfiguration.Remote) > 0 && len(branchConfiguration.Merge) > 0, nil
}

// loadExcludePatterns reads the patterns git applies on top of the repository's own ignore files.
func loadExcludePatterns() ([]gitignore.Pattern, error) {
	rootFilesystem := osfs.New(filesystemRootConstant)

	globalPatterns, globalError := gitignore.LoadGlobalPatterns(rootFilesystem)
	if globalError != nil {
		return nil, fmt.Errorf(loadExcludesErrorTemplateConstant, globalExcludesScopeConstant, globalError)
	}
	systemPatterns, systemError := gitignore.LoadSystemPatterns(rootFilesystem)
	if systemError != nil {
		return nil, fmt.Errorf(loadExcludesErrorTemplateConstant, systemExcludesScopeConstant, systemError)
	}
	return append(globalPatterns, systemPatterns...), nil
}

func (manager *RepositoryManager) open(executionContext context.Context, repositoryPath string) (*git.Repository, error) {
	if executionContext != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return nil, contextError
		}
	}

	repository, openError := git.PlainOpenWithOptions(repositoryPath, &git.PlainOpenOptions{DetectDotGit: true})
	if openError != nil {
		return nil, fmt.Errorf(openRepositoryErrorTemplateConstant, repositoryPath, openError)
	}
	return repository, nil
}
