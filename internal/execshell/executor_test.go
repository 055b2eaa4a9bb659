package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/wst/internal/execshell"
)

const (
	testGitWrapperCaseNameConstant    = "git_wrapper"
	testShellWrapperCaseNameConstant  = "shell_wrapper"
	testValidationCommandLineConstant = "make test"
	testCommandArgumentConstant       = "--version"
	testWorkingDirectoryConstant      = "."
	testRepositoryPathConstant        = "/src/service"
	testPushRejectedOutputConstant    = "! [rejected] master -> master (fetch first)\n"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

func TestNewShellExecutorRequiresDependencies(testInstance *testing.T) {
	_, missingLoggerError := execshell.NewShellExecutor(nil, &recordingCommandRunner{})
	require.ErrorIs(testInstance, missingLoggerError, execshell.ErrLoggerNotConfigured)

	_, missingRunnerError := execshell.NewShellExecutor(zap.NewNop(), nil)
	require.ErrorIs(testInstance, missingRunnerError, execshell.ErrCommandRunnerNotConfigured)

	shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), &recordingCommandRunner{})
	require.NoError(testInstance, creationError)
	require.NotNil(testInstance, shellExecutor)
}

func TestShellExecutorLogsPushLifecycle(testInstance *testing.T) {
	pushDetails := execshell.CommandDetails{
		Arguments:        []string{"push", "origin", "master"},
		WorkingDirectory: testRepositoryPathConstant,
	}

	testCases := []struct {
		name              string
		runnerResult      execshell.ExecutionResult
		runnerError       error
		expectedLevels    []zapcore.Level
		expectedMessages  []string
		assertReturnError func(testing.TB, error)
	}{
		{
			name:             "pushed",
			runnerResult:     execshell.ExecutionResult{StandardOutput: "Everything up-to-date"},
			expectedLevels:   []zapcore.Level{zapcore.DebugLevel, zapcore.DebugLevel},
			expectedMessages: []string{"Pushing master to origin from /src/service", "Pushed master to origin from /src/service"},
			assertReturnError: func(testingInstance testing.TB, executionError error) {
				require.NoError(testingInstance, executionError)
			},
		},
		{
			name:             "rejected",
			runnerResult:     execshell.ExecutionResult{ExitCode: 1, StandardError: testPushRejectedOutputConstant},
			expectedLevels:   []zapcore.Level{zapcore.DebugLevel, zapcore.WarnLevel},
			expectedMessages: []string{"Pushing master to origin from /src/service", "Failed to push master to origin from /src/service (exit code 1: ! [rejected] master -> master (fetch first))"},
			assertReturnError: func(testingInstance testing.TB, executionError error) {
				var commandFailedError execshell.CommandFailedError
				require.ErrorAs(testingInstance, executionError, &commandFailedError)
				require.Equal(testingInstance, 1, commandFailedError.Result.ExitCode)
			},
		},
		{
			name:             "not_started",
			runnerError:      errors.New("fork/exec /usr/bin/git: no such file or directory"),
			expectedLevels:   []zapcore.Level{zapcore.DebugLevel, zapcore.ErrorLevel},
			expectedMessages: []string{"Pushing master to origin from /src/service", "Unable to push master to origin from /src/service: fork/exec /usr/bin/git: no such file or directory"},
			assertReturnError: func(testingInstance testing.TB, executionError error) {
				var commandExecutionError execshell.CommandExecutionError
				require.ErrorAs(testingInstance, executionError, &commandExecutionError)
				require.Equal(testingInstance, pushDetails.Arguments, commandExecutionError.Command.Details.Arguments)
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observedCore, observedLogs := observer.New(zapcore.DebugLevel)
			shellExecutor, creationError := execshell.NewShellExecutor(zap.New(observedCore), &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			})
			require.NoError(testInstance, creationError)

			executionResult, executionError := shellExecutor.ExecuteGit(context.Background(), pushDetails)
			testCase.assertReturnError(testInstance, executionError)
			if executionError != nil {
				require.Empty(testInstance, executionResult.StandardOutput)
			}

			entries := observedLogs.All()
			require.Len(testInstance, entries, len(testCase.expectedMessages))
			for entryIndex, entry := range entries {
				require.Equal(testInstance, testCase.expectedLevels[entryIndex], entry.Level)
				require.Equal(testInstance, testCase.expectedMessages[entryIndex], entry.Message)
				require.Equal(testInstance, testRepositoryPathConstant, entry.ContextMap()["working_directory"])
			}
		})
	}
}

func TestShellExecutorWrappersSetCommandNames(testInstance *testing.T) {
	observerCore, _ := observer.New(zap.DebugLevel)
	logger := zap.New(observerCore)

	testCases := []struct {
		name              string
		invoke            func(executor *execshell.ShellExecutor) error
		expectedCommand   execshell.CommandName
		expectedArguments []string
	}{
		{
			name: testGitWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}})
				return executionError
			},
			expectedCommand:   execshell.CommandGit,
			expectedArguments: []string{testCommandArgumentConstant},
		},
		{
			name: testShellWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteShell(context.Background(), testValidationCommandLineConstant, testWorkingDirectoryConstant)
				return executionError
			},
			expectedCommand:   execshell.CommandShell,
			expectedArguments: []string{"-c", testValidationCommandLineConstant},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			recordingRunner := &recordingCommandRunner{
				executionResult: execshell.ExecutionResult{ExitCode: 1},
			}

			executor, creationError := execshell.NewShellExecutor(logger, recordingRunner)
			require.NoError(testInstance, creationError)

			executionError := testCase.invoke(executor)
			require.Error(testInstance, executionError)
			require.Len(testInstance, recordingRunner.recordedCommands, 1)
			recordedCommand := recordingRunner.recordedCommands[0]
			require.Equal(testInstance, testCase.expectedCommand, recordedCommand.Name)
			require.Equal(testInstance, testCase.expectedArguments, recordedCommand.Details.Arguments)
		})
	}
}

type countingEventObserver struct {
	started   int
	completed int
	failed    int
}

func (eventObserver *countingEventObserver) CommandStarted(execshell.ShellCommand) {
	eventObserver.started++
}

func (eventObserver *countingEventObserver) CommandCompleted(execshell.ShellCommand, execshell.ExecutionResult) {
	eventObserver.completed++
}

func (eventObserver *countingEventObserver) CommandExecutionFailed(execshell.ShellCommand, error) {
	eventObserver.failed++
}

func TestShellExecutorForwardsEventsToEveryObserver(testInstance *testing.T) {
	firstObserver := &countingEventObserver{}
	secondObserver := &countingEventObserver{}

	failingRunner := &recordingCommandRunner{executionError: errors.New("spawn failure")}
	executor, creationError := execshell.NewShellExecutor(
		zap.NewNop(),
		failingRunner,
		execshell.WithCommandEventObserver(execshell.CommandEventObservers{firstObserver, secondObserver}),
	)
	require.NoError(testInstance, creationError)

	_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}})
	require.Error(testInstance, executionError)

	var commandExecutionError execshell.CommandExecutionError
	require.ErrorAs(testInstance, executionError, &commandExecutionError)

	for _, countingObserver := range []*countingEventObserver{firstObserver, secondObserver} {
		require.Equal(testInstance, 1, countingObserver.started)
		require.Equal(testInstance, 0, countingObserver.completed)
		require.Equal(testInstance, 1, countingObserver.failed)
	}
}
