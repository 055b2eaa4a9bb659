package merge_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/wst/internal/execshell"
	"github.com/temirov/wst/internal/gitrepo"
	"github.com/temirov/wst/internal/merge"
)

const (
	gitBinaryNameConstant        = "git"
	integrationFirstFileConstant = "first.txt"
	integrationSkipFileConstant  = "version.txt"
	integrationThirdFileConstant = "third.txt"
)

func requireGit(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(gitBinaryNameConstant); lookupError != nil {
		testInstance.Skip("git executable not available")
	}
	testInstance.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	testInstance.Setenv("GIT_CONFIG_NOSYSTEM", "1")
}

func runGit(testInstance *testing.T, repositoryPath string, arguments ...string) string {
	testInstance.Helper()
	command := exec.Command(gitBinaryNameConstant, arguments...)
	command.Dir = repositoryPath
	output, runError := command.CombinedOutput()
	require.NoError(testInstance, runError, string(output))
	return strings.TrimSpace(string(output))
}

func commitFile(testInstance *testing.T, repositoryPath string, fileName string, message string) {
	testInstance.Helper()
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, fileName), []byte(message+"\n"), 0o600))
	runGit(testInstance, repositoryPath, "add", fileName)
	runGit(testInstance, repositoryPath, "commit", "-m", message)
}

// initializeChainRepository creates a repository whose branches all point at one initial commit.
func initializeChainRepository(testInstance *testing.T, branches ...string) string {
	testInstance.Helper()
	requireGit(testInstance)

	repositoryPath := testInstance.TempDir()
	runGit(testInstance, repositoryPath, "init")
	runGit(testInstance, repositoryPath, "checkout", "-b", testMasterBranchConstant)
	runGit(testInstance, repositoryPath, "config", "user.name", "Release Bot")
	runGit(testInstance, repositoryPath, "config", "user.email", "release@example.com")
	runGit(testInstance, repositoryPath, "config", "commit.gpgsign", "false")
	commitFile(testInstance, repositoryPath, "README.md", "Initial commit")

	for _, branchName := range branches {
		if branchName == testMasterBranchConstant {
			continue
		}
		runGit(testInstance, repositoryPath, "branch", branchName)
	}
	return repositoryPath
}

func newIntegrationService(testInstance *testing.T, repositoryPath string) (*merge.Service, *bytes.Buffer) {
	testInstance.Helper()

	shellExecutor, shellExecutorError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner())
	require.NoError(testInstance, shellExecutorError)

	gitExecutor, gitExecutorError := merge.NewGitExecutor(merge.GitExecutorDependencies{
		ShellExecutor:       shellExecutor,
		RepositoryInspector: gitrepo.NewRepositoryManager(),
		RepositoryPath:      repositoryPath,
	})
	require.NoError(testInstance, gitExecutorError)

	output := &bytes.Buffer{}
	service, serviceError := merge.NewService(merge.ServiceDependencies{Executor: gitExecutor, Output: output})
	require.NoError(testInstance, serviceError)
	return service, output
}

func commitSubjects(testInstance *testing.T, repositoryPath string, arguments ...string) []string {
	testInstance.Helper()
	logOutput := runGit(testInstance, repositoryPath, append([]string{"log", "--format=%s"}, arguments...)...)
	if len(logOutput) == 0 {
		return nil
	}
	return strings.Split(logOutput, "\n")
}

func fileOnBranch(testInstance *testing.T, repositoryPath string, branchName string, fileName string) bool {
	testInstance.Helper()
	listing := runGit(testInstance, repositoryPath, "ls-tree", "--name-only", branchName)
	for _, entry := range strings.Split(listing, "\n") {
		if entry == fileName {
			return true
		}
	}
	return false
}

func TestIntegrationWalkPropagatesSingleCommit(testInstance *testing.T) {
	chain := merge.BranchChain{testReleaseOneConstant, testReleaseTwoConstant, testReleaseThreeConstant, testMasterBranchConstant}
	repositoryPath := initializeChainRepository(testInstance, chain...)

	runGit(testInstance, repositoryPath, "checkout", testReleaseTwoConstant)
	commitFile(testInstance, repositoryPath, "loader.txt", "Fix loader for 2.0.x")

	service, output := newIntegrationService(testInstance, repositoryPath)
	outcomes, walkError := service.WalkDownstream(context.Background(), merge.WalkRequest{Chain: chain})
	require.NoError(testInstance, walkError)

	require.Equal(testInstance, "Merging 2.0.x into 3.0.x\nPushing 3.0.x\nMerging 3.0.x into master\nPushing master\n", output.String())
	require.Len(testInstance, outcomes, 2)
	require.Contains(testInstance, commitSubjects(testInstance, repositoryPath, testMasterBranchConstant), "Fix loader for 2.0.x")
	require.Equal(testInstance, testMasterBranchConstant, runGit(testInstance, repositoryPath, "rev-parse", "--abbrev-ref", "HEAD"))
}

func TestIntegrationSkipTaggedCommitMergedWithOursAtEveryHop(testInstance *testing.T) {
	chain := merge.BranchChain{testReleaseOneConstant, testReleaseTwoConstant, testReleaseThreeConstant}
	repositoryPath := initializeChainRepository(testInstance, chain...)

	runGit(testInstance, repositoryPath, "checkout", testReleaseOneConstant)
	commitFile(testInstance, repositoryPath, integrationFirstFileConstant, "Add first file")
	commitFile(testInstance, repositoryPath, integrationSkipFileConstant, "Bump version to 1.0.4 [skip-merge]")
	commitFile(testInstance, repositoryPath, integrationThirdFileConstant, "Add third file")

	service, output := newIntegrationService(testInstance, repositoryPath)
	_, walkError := service.WalkDownstream(context.Background(), merge.WalkRequest{
		Chain:   chain,
		Options: merge.MergeOptions{SkipPatterns: []string{testSkipMergePatternConstant}},
	})
	require.NoError(testInstance, walkError)
	require.Equal(testInstance, "Merging 1.0.x into 2.0.x\nPushing 2.0.x\nMerging 2.0.x into 3.0.x\nPushing 3.0.x\n", output.String())

	for _, targetBranch := range []string{testReleaseTwoConstant, testReleaseThreeConstant} {
		mergeSubjects := commitSubjects(testInstance, repositoryPath, "--merges", "--first-parent", targetBranch)
		require.Len(testInstance, mergeSubjects, 3, targetBranch)
		require.True(testInstance, strings.HasSuffix(mergeSubjects[1], "into "+targetBranch+" (using strategy ours)"), mergeSubjects[1])
		require.NotContains(testInstance, mergeSubjects[0], "using strategy")
		require.NotContains(testInstance, mergeSubjects[2], "using strategy")

		require.True(testInstance, fileOnBranch(testInstance, repositoryPath, targetBranch, integrationFirstFileConstant), targetBranch)
		require.False(testInstance, fileOnBranch(testInstance, repositoryPath, targetBranch, integrationSkipFileConstant), targetBranch)
		require.True(testInstance, fileOnBranch(testInstance, repositoryPath, targetBranch, integrationThirdFileConstant), targetBranch)
	}
}

func TestIntegrationDirtyWorktreeBlocksMerge(testInstance *testing.T) {
	chain := merge.BranchChain{testReleaseOneConstant, testReleaseTwoConstant}
	repositoryPath := initializeChainRepository(testInstance, chain...)
	runGit(testInstance, repositoryPath, "checkout", testReleaseOneConstant)
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, "scratch.txt"), []byte("wip\n"), 0o600))

	service, output := newIntegrationService(testInstance, repositoryPath)
	_, walkError := service.WalkDownstream(context.Background(), merge.WalkRequest{Chain: chain})

	var preconditionError merge.PreconditionError
	require.ErrorAs(testInstance, walkError, &preconditionError)
	require.Empty(testInstance, output.String())
	require.Equal(testInstance, testReleaseOneConstant, runGit(testInstance, repositoryPath, "rev-parse", "--abbrev-ref", "HEAD"))
}
