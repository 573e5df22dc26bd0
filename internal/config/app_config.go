package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/temirov/dirtree/internal/rules"
	"github.com/temirov/dirtree/internal/types"
	"github.com/temirov/dirtree/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	// HomeDirectory overrides the user home directory used for the global configuration.
	HomeDirectory string
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	Tree  TreeConfiguration  `mapstructure:"tree"`
	Merge MergeConfiguration `mapstructure:"merge"`
}

// RuleConfiguration is one filter rule as written in a configuration file.
type RuleConfiguration struct {
	Pattern string `mapstructure:"pattern"`
	Kind    string `mapstructure:"kind"`
	Mode    string `mapstructure:"mode"`
	Enabled *bool  `mapstructure:"enabled"`
}

// TreeConfiguration defines defaults for the tree command.
type TreeConfiguration struct {
	Depth        *int                `mapstructure:"depth"`
	IncludeFiles *bool               `mapstructure:"files"`
	Format       string              `mapstructure:"format"`
	Rules        []RuleConfiguration `mapstructure:"rules"`
	RulesFile    string              `mapstructure:"rules_file"`
	UseGitignore *bool               `mapstructure:"use_gitignore"`
	Clipboard    *bool               `mapstructure:"clipboard"`
	Progress     *bool               `mapstructure:"progress"`
}

// MergeConfiguration defines defaults for the merge command.
type MergeConfiguration struct {
	Depth            *int                `mapstructure:"depth"`
	Filter           string              `mapstructure:"filter"`
	FilterIsRegex    *bool               `mapstructure:"regex"`
	RuleLines        []string            `mapstructure:"rule_lines"`
	Rules            []RuleConfiguration `mapstructure:"rules"`
	RulesFile        string              `mapstructure:"rules_file"`
	UseGitignore     *bool               `mapstructure:"use_gitignore"`
	Header           string              `mapstructure:"header"`
	Separator        string              `mapstructure:"separator"`
	SeparatorEnabled *bool               `mapstructure:"separator_enabled"`
	Extract          string              `mapstructure:"extract"`
	SkipBinary       *bool               `mapstructure:"skip_binary"`
	Output           string              `mapstructure:"output"`
	Format           string              `mapstructure:"format"`
	Tokens           TokenConfiguration  `mapstructure:"tokens"`
	Clipboard        *bool               `mapstructure:"clipboard"`
	Progress         *bool               `mapstructure:"progress"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	homeDirectory := options.HomeDirectory
	if homeDirectory == "" {
		if resolvedHome, err := os.UserHomeDir(); err == nil {
			homeDirectory = resolvedHome
		}
	}
	if homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Overlay(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Overlay(localConfig)
	}

	merged.Merge.RuleLines = utils.DeduplicatePatterns(merged.Merge.RuleLines)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType(utils.ConfigFileType)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// BuildRuleSet converts configured rules into a RuleSet, validating kinds and modes.
func BuildRuleSet(configuredRules []RuleConfiguration) (*rules.RuleSet, error) {
	ruleSet := rules.NewRuleSet()
	for index, configuredRule := range configuredRules {
		pattern := strings.TrimSpace(configuredRule.Pattern)
		if pattern == "" {
			return nil, fmt.Errorf("rule %d: pattern is empty", index+1)
		}
		matchKind, kindErr := types.ParseMatchKind(configuredRule.Kind)
		if kindErr != nil {
			return nil, fmt.Errorf("rule %d: %w", index+1, kindErr)
		}
		mode, modeErr := types.ParseRuleMode(configuredRule.Mode)
		if modeErr != nil {
			return nil, fmt.Errorf("rule %d: %w", index+1, modeErr)
		}
		rule := types.NewFilterRule(pattern, matchKind, mode)
		if configuredRule.Enabled != nil {
			rule.Enabled = *configuredRule.Enabled
		}
		ruleSet.AddRule(rule)
	}
	return ruleSet, nil
}

// Overlay applies override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Overlay(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Tree = result.Tree.merge(override.Tree)
	result.Merge = result.Merge.merge(override.Merge)
	return result
}

func (config TreeConfiguration) merge(override TreeConfiguration) TreeConfiguration {
	result := config
	if override.Depth != nil {
		result.Depth = cloneInt(override.Depth)
	}
	if override.IncludeFiles != nil {
		result.IncludeFiles = cloneBool(override.IncludeFiles)
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if len(override.Rules) > 0 {
		result.Rules = append([]RuleConfiguration{}, override.Rules...)
	}
	if override.RulesFile != "" {
		result.RulesFile = override.RulesFile
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	if override.Progress != nil {
		result.Progress = cloneBool(override.Progress)
	}
	return result
}

func (config MergeConfiguration) merge(override MergeConfiguration) MergeConfiguration {
	result := config
	if override.Depth != nil {
		result.Depth = cloneInt(override.Depth)
	}
	if override.Filter != "" {
		result.Filter = override.Filter
	}
	if override.FilterIsRegex != nil {
		result.FilterIsRegex = cloneBool(override.FilterIsRegex)
	}
	if len(override.RuleLines) > 0 {
		result.RuleLines = append([]string{}, override.RuleLines...)
	}
	if len(override.Rules) > 0 {
		result.Rules = append([]RuleConfiguration{}, override.Rules...)
	}
	if override.RulesFile != "" {
		result.RulesFile = override.RulesFile
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.Header != "" {
		result.Header = override.Header
	}
	if override.Separator != "" {
		result.Separator = override.Separator
	}
	if override.SeparatorEnabled != nil {
		result.SeparatorEnabled = cloneBool(override.SeparatorEnabled)
	}
	if override.Extract != "" {
		result.Extract = override.Extract
	}
	if override.SkipBinary != nil {
		result.SkipBinary = cloneBool(override.SkipBinary)
	}
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	if override.Progress != nil {
		result.Progress = cloneBool(override.Progress)
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
