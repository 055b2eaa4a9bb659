package merge

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/wst/internal/execshell"
	"github.com/temirov/wst/internal/gitrepo"
	"github.com/temirov/wst/internal/ui"
	"github.com/temirov/wst/internal/utils"
	flagutils "github.com/temirov/wst/internal/utils/flags"
)

const (
	commandUseNameConstant                = "merge"
	commandUsageTemplateConstant          = commandUseNameConstant + " [branch]"
	commandShortDescriptionConstant       = "Merge a branch, or propagate the current branch down the release chain"
	commandLongDescriptionConstant        = "merge either merges the named branch into the checked-out branch, or, with --downstream, merges the checked-out branch into every later branch of the configured chain and pushes each one. Commits whose message contains a --skip-commits pattern are merged with the ours strategy so their changes are recorded but not applied."
	commandExampleTemplateConstant        = "wst merge --downstream --skip-commits '[skip-merge]' --validation 'make test'\nwst merge 1.0.x --dry-run"
	downstreamFlagNameConstant            = "downstream"
	downstreamFlagShorthandConstant       = "d"
	downstreamFlagUsageConstant           = "Merge the current branch into every downstream branch of the chain and push them"
	mergeBranchesFlagNameConstant         = "merge-branches"
	mergeBranchesFlagUsageConstant        = "Space-separated branch chain, oldest first; overrides the configured branches"
	strategyFlagNameConstant              = "strategy"
	strategyFlagShorthandConstant         = "s"
	strategyFlagUsageConstant             = "Merge strategy passed to git merge for commits that are not skipped"
	allowCommitsFlagNameConstant          = "allow-commits"
	allowCommitsFlagShorthandConstant     = "a"
	allowCommitsFlagUsageConstant         = "Only merge when every commit message contains one of these patterns (repeatable)"
	skipCommitsFlagNameConstant           = "skip-commits"
	skipCommitsFlagUsageConstant          = "Merge commits whose message contains this pattern with the ours strategy (repeatable)"
	validationFlagNameConstant            = "validation"
	validationFlagUsageConstant           = "Command run after merging; a non-zero exit stops before pushing"
	userFlagNameConstant                  = "user"
	userFlagShorthandConstant             = "u"
	userFlagUsageConstant                 = "Name recorded in branch merge messages"
	skipUpdateFlagNameConstant            = "skip-update"
	skipUpdateFlagUsageConstant           = "Do not fast-forward branches from their upstream before merging"
	branchAndDownstreamMessageConstant    = "provide either a branch to merge from or --downstream, not both"
	branchOrDownstreamMessageConstant     = "provide a branch to merge from or --downstream"
	workingDirectoryErrorTemplateConstant = "unable to determine working directory: %w"
	logFieldModeConstant                  = "mode"
	logFieldOutcomeCountConstant          = "outcome_count"
	logFieldPushedConstant                = "pushed"
	modeDownstreamConstant                = "downstream"
	modeSingleConstant                    = "single"
	commandCompletedLogMessageConstant    = "merge command completed"
	alreadyAtEndLogMessageConstant        = "current branch is the last in the chain"
)

// LoggerProvider yields a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the merge command. WorkingDirectory is the repository
// path used when the command context carries none; ConsoleLoggerProvider supplies
// the logger that renders git command events when human-readable logging is on.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConsoleLoggerProvider        LoggerProvider
	Executor                     Executor
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	WorkingDirectory             string
}

type commandFlagValues struct {
	downstream    bool
	mergeBranches string
	strategy      string
	validation    string
	user          string
	skipUpdate    bool
	allowCommits  *flagutils.PatternFlagValues
	skipCommits   *flagutils.PatternFlagValues
	execution     *flagutils.ExecutionDefaults
}

// Build constructs the merge command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	flagValues := &commandFlagValues{}

	command := &cobra.Command{
		Use:     commandUsageTemplateConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Args:    cobra.MaximumNArgs(1),
		Example: commandExampleTemplateConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments, flagValues)
		},
	}

	localFlagSet := command.Flags()
	localFlagSet.BoolVarP(&flagValues.downstream, downstreamFlagNameConstant, downstreamFlagShorthandConstant, false, downstreamFlagUsageConstant)
	localFlagSet.StringVar(&flagValues.mergeBranches, mergeBranchesFlagNameConstant, "", mergeBranchesFlagUsageConstant)
	localFlagSet.StringVarP(&flagValues.strategy, strategyFlagNameConstant, strategyFlagShorthandConstant, "", strategyFlagUsageConstant)
	localFlagSet.StringVar(&flagValues.validation, validationFlagNameConstant, "", validationFlagUsageConstant)
	localFlagSet.StringVarP(&flagValues.user, userFlagNameConstant, userFlagShorthandConstant, "", userFlagUsageConstant)
	localFlagSet.BoolVar(&flagValues.skipUpdate, skipUpdateFlagNameConstant, false, skipUpdateFlagUsageConstant)

	flagValues.allowCommits = flagutils.BindPatternFlag(command, flagutils.PatternFlagDefinition{
		Name:      allowCommitsFlagNameConstant,
		Shorthand: allowCommitsFlagShorthandConstant,
		Usage:     allowCommitsFlagUsageConstant,
	}, nil)
	flagValues.skipCommits = flagutils.BindPatternFlag(command, flagutils.PatternFlagDefinition{
		Name:  skipCommitsFlagNameConstant,
		Usage: skipCommitsFlagUsageConstant,
	}, nil)
	flagValues.execution = flagutils.BindExecutionFlags(command, flagutils.ExecutionDefaults{}, flagutils.DefaultExecutionFlagDefinitions())

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, flagValues *commandFlagValues) error {
	branchName := ""
	if len(arguments) > 0 {
		branchName = strings.TrimSpace(arguments[0])
	}

	switch {
	case len(branchName) > 0 && flagValues.downstream:
		return UsageError{Message: branchAndDownstreamMessageConstant}
	case len(branchName) == 0 && !flagValues.downstream:
		_ = command.Help()
		return UsageError{Message: branchOrDownstreamMessageConstant}
	}

	configuration := builder.resolveConfiguration()
	options := builder.resolveOptions(command, configuration, flagValues)
	logger := builder.resolveLogger()

	workingDirectory, workingDirectoryError := builder.resolveWorkingDirectory(command)
	if workingDirectoryError != nil {
		return workingDirectoryError
	}

	executor, executorError := builder.resolveExecutor(logger, workingDirectory)
	if executorError != nil {
		return executorError
	}

	service, serviceError := NewService(ServiceDependencies{
		Executor: executor,
		Logger:   logger,
		Output:   utils.NewFlushingWriter(command.OutOrStdout()),
	})
	if serviceError != nil {
		return serviceError
	}

	if !flagValues.downstream {
		outcome, mergeError := service.MergeOne(command.Context(), SingleRequest{SourceBranch: branchName, Options: options})
		if mergeError != nil {
			return mergeError
		}
		logger.Info(commandCompletedLogMessageConstant,
			zap.String(logFieldModeConstant, modeSingleConstant),
			zap.String(logFieldSourceBranchConstant, outcome.SourceBranch),
			zap.String(logFieldTargetBranchConstant, outcome.TargetBranch),
			zap.Int(logFieldCommitCountConstant, len(outcome.MergedCommits)),
			zap.Bool(logFieldDryRunConstant, outcome.DryRun),
		)
		return nil
	}

	chain := configuration.Branches
	if command.Flags().Changed(mergeBranchesFlagNameConstant) {
		chain = ParseBranchChain(flagValues.mergeBranches)
	}

	outcomes, walkError := service.WalkDownstream(command.Context(), WalkRequest{Chain: chain, Options: options})
	if walkError != nil {
		if IsSuccessfulNoOp(walkError) {
			logger.Debug(alreadyAtEndLogMessageConstant, zap.Error(walkError))
			return nil
		}
		return walkError
	}

	pushedCount := 0
	for _, outcome := range outcomes {
		if outcome.Pushed {
			pushedCount++
		}
	}
	logger.Info(commandCompletedLogMessageConstant,
		zap.String(logFieldModeConstant, modeDownstreamConstant),
		zap.Int(logFieldOutcomeCountConstant, len(outcomes)),
		zap.Int(logFieldPushedConstant, pushedCount),
		zap.Bool(logFieldDryRunConstant, options.DryRun),
	)
	return nil
}

// resolveOptions overlays command-line flags on the configured values.
func (builder *CommandBuilder) resolveOptions(command *cobra.Command, configuration CommandConfiguration, flagValues *commandFlagValues) MergeOptions {
	flagSet := command.Flags()

	options := MergeOptions{
		SkipPatterns:      configuration.SkipCommits,
		PerCommit:         len(configuration.SkipCommits) > 0,
		Strategy:          Strategy(configuration.Strategy),
		AllowPatterns:     configuration.AllowCommits,
		ValidationCommand: configuration.Validation,
		User:              configuration.User,
		DryRun:            flagValues.execution.DryRun,
		Quiet:             flagValues.execution.Quiet,
		SkipUpdate:        configuration.SkipUpdate,
	}

	if flagValues.skipCommits.Supplied() {
		options.SkipPatterns = flagValues.skipCommits.Patterns
		options.PerCommit = true
	}
	if flagValues.allowCommits.Supplied() {
		options.AllowPatterns = flagValues.allowCommits.Patterns
	}
	if flagSet.Changed(strategyFlagNameConstant) {
		options.Strategy = Strategy(flagValues.strategy)
	}
	if flagSet.Changed(validationFlagNameConstant) {
		options.ValidationCommand = flagValues.validation
	}
	if flagSet.Changed(userFlagNameConstant) {
		options.User = flagValues.user
	}
	if flagSet.Changed(skipUpdateFlagNameConstant) {
		options.SkipUpdate = flagValues.skipUpdate
	}

	return options
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConsoleLogger(fallback *zap.Logger) *zap.Logger {
	if builder.ConsoleLoggerProvider == nil {
		return fallback
	}
	if consoleLogger := builder.ConsoleLoggerProvider(); consoleLogger != nil {
		return consoleLogger
	}
	return fallback
}

func (builder *CommandBuilder) resolveWorkingDirectory(command *cobra.Command) (string, error) {
	accessor := utils.NewCommandContextAccessor()
	if workingDirectory, available := accessor.WorkingDirectory(command.Context()); available {
		return workingDirectory, nil
	}
	if trimmed := strings.TrimSpace(builder.WorkingDirectory); len(trimmed) > 0 {
		return trimmed, nil
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
	}
	return workingDirectory, nil
}

// resolveExecutor returns the configured executor or a git-backed one rooted at workingDirectory.
func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger, workingDirectory string) (Executor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	executorOptions := []execshell.ShellExecutorOption{}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(builder.resolveConsoleLogger(logger))))
	}

	shellExecutor, shellExecutorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), executorOptions...)
	if shellExecutorError != nil {
		return nil, shellExecutorError
	}

	gitExecutor, gitExecutorError := NewGitExecutor(GitExecutorDependencies{
		ShellExecutor:       shellExecutor,
		RepositoryInspector: gitrepo.NewRepositoryManager(),
		RepositoryPath:      workingDirectory,
	})
	if gitExecutorError != nil {
		return nil, gitExecutorError
	}
	return gitExecutor, nil
}
