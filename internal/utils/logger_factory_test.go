package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/wst/internal/utils"
)

const (
	testUnsupportedLogSettingConstant = "verbose"
	testMergeLogMessageConstant       = "merging 1.0.x into 2.0.x"
)

// captureStandardError redirects os.Stderr while build runs and returns what the built logger wrote.
func captureStandardError(testInstance *testing.T, build func() *zap.Logger) []byte {
	testInstance.Helper()

	pipeReader, pipeWriter, pipeError := os.Pipe()
	require.NoError(testInstance, pipeError)

	originalStandardError := os.Stderr
	os.Stderr = pipeWriter
	logger := build()
	os.Stderr = originalStandardError

	logger.Info(testMergeLogMessageConstant)
	if syncError := logger.Sync(); syncError != nil {
		require.True(testInstance, errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL))
	}
	require.NoError(testInstance, pipeWriter.Close())

	capturedOutput, readError := io.ReadAll(pipeReader)
	require.NoError(testInstance, readError)
	require.NoError(testInstance, pipeReader.Close())
	return bytes.TrimSpace(capturedOutput)
}

func TestLoggerFactoryHonorsLogLevel(testInstance *testing.T) {
	testCases := []struct {
		name            string
		logLevel        utils.LogLevel
		lowestEnabled   zapcore.Level
		highestDisabled zapcore.Level
	}{
		{name: "debug", logLevel: utils.LogLevelDebug, lowestEnabled: zapcore.DebugLevel, highestDisabled: zapcore.DebugLevel - 1},
		{name: "info", logLevel: utils.LogLevelInfo, lowestEnabled: zapcore.InfoLevel, highestDisabled: zapcore.DebugLevel},
		{name: "warn", logLevel: utils.LogLevelWarn, lowestEnabled: zapcore.WarnLevel, highestDisabled: zapcore.InfoLevel},
		{name: "error", logLevel: utils.LogLevelError, lowestEnabled: zapcore.ErrorLevel, highestDisabled: zapcore.WarnLevel},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			loggerOutputs, creationError := utils.NewLoggerFactory().CreateLoggerOutputs(testCase.logLevel, utils.LogFormatStructured)
			require.NoError(testInstance, creationError)

			for _, logger := range []*zap.Logger{loggerOutputs.DiagnosticLogger, loggerOutputs.ConsoleLogger} {
				require.True(testInstance, logger.Core().Enabled(testCase.lowestEnabled))
				require.False(testInstance, logger.Core().Enabled(testCase.highestDisabled))
			}
		})
	}
}

func TestLoggerFactoryRejectsUnsupportedSettings(testInstance *testing.T) {
	loggerFactory := utils.NewLoggerFactory()

	logger, levelError := loggerFactory.CreateLogger(utils.LogLevel(testUnsupportedLogSettingConstant), utils.LogFormatStructured)
	require.Error(testInstance, levelError)
	require.Nil(testInstance, logger)
	require.Contains(testInstance, levelError.Error(), testUnsupportedLogSettingConstant)

	_, formatError := loggerFactory.CreateLoggerOutputs(utils.LogLevelInfo, utils.LogFormat(testUnsupportedLogSettingConstant))
	require.Error(testInstance, formatError)
	require.Contains(testInstance, formatError.Error(), "log format")
}

func TestLoggerFactoryEncodings(testInstance *testing.T) {
	testCases := []struct {
		name           string
		logFormat      utils.LogFormat
		expectJSONLine bool
	}{
		{name: "structured", logFormat: utils.LogFormatStructured, expectJSONLine: true},
		{name: "console", logFormat: utils.LogFormatConsole, expectJSONLine: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			capturedOutput := captureStandardError(testInstance, func() *zap.Logger {
				logger, creationError := utils.NewLoggerFactory().CreateLogger(utils.LogLevelInfo, testCase.logFormat)
				require.NoError(testInstance, creationError)
				return logger
			})

			require.Contains(testInstance, string(capturedOutput), testMergeLogMessageConstant)
			require.Equal(testInstance, testCase.expectJSONLine, json.Valid(capturedOutput))
		})
	}
}

func TestLoggerFactoryConsoleLoggerPrintsBareMessages(testInstance *testing.T) {
	capturedOutput := captureStandardError(testInstance, func() *zap.Logger {
		loggerOutputs, creationError := utils.NewLoggerFactory().CreateLoggerOutputs(utils.LogLevelInfo, utils.LogFormatConsole)
		require.NoError(testInstance, creationError)
		return loggerOutputs.ConsoleLogger
	})

	require.Equal(testInstance, testMergeLogMessageConstant, string(capturedOutput))
}
