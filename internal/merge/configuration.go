package merge

import (
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const (
	branchesConfigurationKeyConstant     = "branches"
	strategyConfigurationKeyConstant     = "strategy"
	skipCommitsConfigurationKeyConstant  = "skip_commits"
	allowCommitsConfigurationKeyConstant = "allow_commits"
	validationConfigurationKeyConstant   = "validation"
	userConfigurationKeyConstant         = "user"
	skipUpdateConfigurationKeyConstant   = "skip_update"
	configurationKeySeparatorConstant    = "."
)

// CommandConfiguration captures persistent settings for the merge command.
type CommandConfiguration struct {
	Branches     BranchChain `mapstructure:"branches"`
	Strategy     string      `mapstructure:"strategy"`
	SkipCommits  []string    `mapstructure:"skip_commits"`
	AllowCommits []string    `mapstructure:"allow_commits"`
	Validation   string      `mapstructure:"validation"`
	User         string      `mapstructure:"user"`
	SkipUpdate   bool        `mapstructure:"skip_update"`
}

// DefaultCommandConfiguration returns baseline configuration values for the merge command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Branches:     nil,
		Strategy:     "",
		SkipCommits:  nil,
		AllowCommits: nil,
		Validation:   "",
		User:         "",
		SkipUpdate:   false,
	}
}

// DefaultConfigurationValues returns the viper defaults for the merge command under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefixedKey(prefix, branchesConfigurationKeyConstant):     []string{},
		prefixedKey(prefix, strategyConfigurationKeyConstant):     defaults.Strategy,
		prefixedKey(prefix, skipCommitsConfigurationKeyConstant):  []string{},
		prefixedKey(prefix, allowCommitsConfigurationKeyConstant): []string{},
		prefixedKey(prefix, validationConfigurationKeyConstant):   defaults.Validation,
		prefixedKey(prefix, userConfigurationKeyConstant):         defaults.User,
		prefixedKey(prefix, skipUpdateConfigurationKeyConstant):   defaults.SkipUpdate,
	}
}

// Sanitize trims configuration values without applying implicit defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Branches = configuration.Branches.Sanitize()
	sanitized.Strategy = strings.TrimSpace(configuration.Strategy)
	sanitized.SkipCommits = SanitizePatterns(configuration.SkipCommits)
	sanitized.AllowCommits = SanitizePatterns(configuration.AllowCommits)
	sanitized.Validation = strings.TrimSpace(configuration.Validation)
	sanitized.User = strings.TrimSpace(configuration.User)

	return sanitized
}

// BranchChainDecodeHook decodes a whitespace-separated string such as "1.0.x 2.0.x master" into a BranchChain.
// Lists decode through the default slice handling.
func BranchChainDecodeHook() mapstructure.DecodeHookFuncType {
	branchChainType := reflect.TypeOf(BranchChain{})
	return func(sourceType reflect.Type, targetType reflect.Type, data any) (any, error) {
		if targetType != branchChainType || sourceType.Kind() != reflect.String {
			return data, nil
		}
		rawValue, _ := data.(string)
		return ParseBranchChain(rawValue), nil
	}
}

// ParseBranchChain splits a whitespace-separated list of branch names.
func ParseBranchChain(rawValue string) BranchChain {
	return BranchChain(strings.Fields(rawValue))
}

func prefixedKey(prefix string, key string) string {
	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return key
	}
	return trimmedPrefix + configurationKeySeparatorConstant + key
}
