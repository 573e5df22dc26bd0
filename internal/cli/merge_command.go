package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dirtree/internal/config"
	"github.com/temirov/dirtree/internal/merge"
	"github.com/temirov/dirtree/internal/output"
	"github.com/temirov/dirtree/internal/rules"
	"github.com/temirov/dirtree/internal/services/stream"
	"github.com/temirov/dirtree/internal/tokenizer"
	"github.com/temirov/dirtree/internal/types"
	"github.com/temirov/dirtree/internal/utils"
)

const (
	mergeCommandName      = "merge"
	mergeUse              = "merge [path]"
	mergeAlias            = "m"
	mergeShortDescription = "merge selected files into one document (" + mergeAlias + ")"
	mergeLongDescription  = `Collect the files selected by --filter, --rule lines and the include and exclude
rules, then concatenate them in discovery order. Each file may be preceded by a
--header built from {filename} {index} {path} {basename} {suffix} {size} {date} {time}
and files are separated by --separator. --extract keeps only the matches of a
regular expression (its first capture group when present).`
	mergeUsageExample = `  # Merge all Go files below ./internal with a header per file
  dirtree merge --filter '*.go' --header '// {index}: {path}' ./internal

  # Keep only TODO lines and write them to a file
  dirtree merge --extract 'TODO: (.*)' --no-separator --output todos.txt`
)

const (
	filterFlagName             = "filter"
	regexFlagName              = "regex"
	ruleFlagName               = "rule"
	headerFlagName             = "header"
	separatorFlagName          = "separator"
	noSeparatorFlagName        = "no-separator"
	extractFlagName            = "extract"
	outputFlagName             = "output"
	tokensFlagName             = "tokens"
	modelFlagName              = "model"
	skipBinaryFlagName         = "skip-binary"
	filterFlagDescription      = "single file name pattern to merge"
	regexFlagDescription       = "treat --filter as a regular expression"
	ruleFlagDescription        = "gitignore-style line selecting files to merge (repeatable)"
	headerFlagDescription      = "header template written before each file"
	separatorFlagDescription   = "separator written between files"
	noSeparatorFlagDescription = "do not write separators"
	extractFlagDescription     = "regular expression whose matches replace each file's content"
	outputFlagDescription      = "also write the merged document to this file"
	tokensFlagDescription      = "count tokens of the merged document"
	modelFlagDescription       = "tokenizer model to use for token counting"
	skipBinaryFlagDescription  = "skip files that look binary"
	mergeProgressLabel         = "merge"
	logMessageExported         = "merged document written"
	logMessageExportSkipped    = "merged document is empty, nothing written"
	logFieldSize               = "size"
)

type mergeFlags struct {
	rules       ruleFlags
	depth       int
	filter      string
	regex       bool
	ruleLines   []string
	header      string
	separator   string
	noSeparator bool
	extract     string
	output      string
	format      string
	tokens      bool
	model       string
	skipBinary  bool
	copy        bool
	progress    bool
	summary     bool
}

// createMergeCommand returns the merge subcommand.
func createMergeCommand(app *application) *cobra.Command {
	var flags mergeFlags

	mergeCommand := &cobra.Command{
		Use:     mergeUse,
		Aliases: []string{mergeAlias},
		Short:   mergeShortDescription,
		Long:    mergeLongDescription,
		Example: mergeUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runMerge(command, arguments, flags)
		},
	}

	addRuleFlags(mergeCommand, &flags.rules)
	commandFlags := mergeCommand.Flags()
	commandFlags.IntVar(&flags.depth, depthFlagName, types.DefaultMaxDepth, depthFlagDescription)
	commandFlags.StringVar(&flags.filter, filterFlagName, "", filterFlagDescription)
	registerBooleanFlag(commandFlags, &flags.regex, regexFlagName, false, regexFlagDescription)
	commandFlags.StringArrayVar(&flags.ruleLines, ruleFlagName, nil, ruleFlagDescription)
	commandFlags.StringVar(&flags.header, headerFlagName, "", headerFlagDescription)
	commandFlags.StringVar(&flags.separator, separatorFlagName, types.DefaultSeparator, separatorFlagDescription)
	registerBooleanFlag(commandFlags, &flags.noSeparator, noSeparatorFlagName, false, noSeparatorFlagDescription)
	commandFlags.StringVar(&flags.extract, extractFlagName, "", extractFlagDescription)
	commandFlags.StringVarP(&flags.output, outputFlagName, "o", "", outputFlagDescription)
	commandFlags.StringVar(&flags.format, formatFlagName, types.FormatRaw, formatFlagDescription)
	registerBooleanFlag(commandFlags, &flags.tokens, tokensFlagName, false, tokensFlagDescription)
	commandFlags.StringVar(&flags.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	registerBooleanFlag(commandFlags, &flags.skipBinary, skipBinaryFlagName, true, skipBinaryFlagDescription)
	registerBooleanFlag(commandFlags, &flags.copy, copyFlagName, false, copyFlagDescription)
	registerBooleanFlag(commandFlags, &flags.progress, progressFlagName, true, progressFlagDescription)
	registerBooleanFlag(commandFlags, &flags.summary, summaryFlagName, false, summaryFlagDescription)
	return mergeCommand
}

func (app *application) runMerge(command *cobra.Command, arguments []string, flags mergeFlags) error {
	root, rootError := resolveRootPath(arguments)
	if rootError != nil {
		return rootError
	}
	configured := app.configuration.Merge

	rulesFile := resolveString(command, rulesFileFlagName, flags.rules.rulesFile, configured.RulesFile)
	ruleSet, includeLines, rulesError := flags.rules.buildRuleSet(mergeCommandName, configured.Rules, rulesFile)
	if rulesError != nil {
		return rulesError
	}
	classifiers, gitignoreError := gitignoreClassifiers(resolveBool(command, gitignoreFlagName, flags.rules.useGitignore, configured.UseGitignore), root)
	if gitignoreError != nil {
		return gitignoreError
	}

	ruleLines := append([]string{}, configured.RuleLines...)
	ruleLines = append(ruleLines, flags.ruleLines...)
	ruleLines = append(ruleLines, includeLines...)
	filter := rules.NewFileFilter(
		resolveString(command, filterFlagName, flags.filter, configured.Filter),
		resolveBool(command, regexFlagName, flags.regex, configured.FilterIsRegex),
		utils.DeduplicatePatterns(ruleLines),
	)

	request := merge.Request{
		Root:        root,
		MaxDepth:    resolveInt(command, depthFlagName, flags.depth, configured.Depth),
		Filter:      filter,
		Rules:       ruleSet,
		Classifiers: classifiers,
		Options:     app.mergeOptions(command, flags, configured),
	}

	format, formatError := validateFormat(resolveString(command, formatFlagName, flags.format, configured.Format))
	if formatError != nil {
		return formatError
	}

	tokenCounter, tokenModel, tokenError := app.tokenCounter(command, flags, configured.Tokens)
	if tokenError != nil {
		return tokenError
	}

	engine := merge.NewEngine(app.logger)
	runContext, stopWatching := app.watchInterrupt(command.Context(), engine)
	defer stopWatching()

	renderer := output.NewStreamRenderer(format, output.RendererOptions{
		Stdout:         app.dependencies.Stdout,
		Stderr:         app.dependencies.Stderr,
		Command:        types.CommandMerge,
		Progress:       app.newProgressLine(resolveBool(command, progressFlagName, flags.progress, configured.Progress), mergeProgressLabel),
		IncludeSummary: flags.summary,
	})
	produce := func(ctx context.Context, events chan<- stream.Event) error {
		return stream.StreamMerge(ctx, stream.MergeOptions{
			Request:      request,
			Engine:       engine,
			TokenCounter: tokenCounter,
			TokenModel:   tokenModel,
		}, events)
	}
	if err := app.render(runContext, renderer, root, produce); err != nil {
		return err
	}

	document := renderer.Document()
	if err := app.exportDocument(resolveString(command, outputFlagName, flags.output, configured.Output), document); err != nil {
		return err
	}
	return app.copyToClipboard(resolveBool(command, copyFlagName, flags.copy, configured.Clipboard), document)
}

func (app *application) mergeOptions(command *cobra.Command, flags mergeFlags, configured config.MergeConfiguration) merge.Options {
	options := merge.DefaultOptions()
	options.HeaderTemplate = resolveString(command, headerFlagName, flags.header, configured.Header)
	options.Separator = resolveString(command, separatorFlagName, flags.separator, configured.Separator)
	options.SeparatorEnabled = true
	if configured.SeparatorEnabled != nil {
		options.SeparatorEnabled = *configured.SeparatorEnabled
	}
	if command.Flags().Changed(noSeparatorFlagName) {
		options.SeparatorEnabled = !flags.noSeparator
	}
	options.ExtractionPattern = resolveString(command, extractFlagName, flags.extract, configured.Extract)
	options.ExtractionEnabled = options.ExtractionPattern != ""
	options.SkipBinary = resolveBool(command, skipBinaryFlagName, flags.skipBinary, configured.SkipBinary)
	return options
}

// tokenCounter returns a counter when token counting is enabled by flag or configuration.
func (app *application) tokenCounter(command *cobra.Command, flags mergeFlags, configured config.TokenConfiguration) (tokenizer.Counter, string, error) {
	if !resolveBool(command, tokensFlagName, flags.tokens, configured.Enabled) {
		return nil, "", nil
	}
	model := resolveString(command, modelFlagName, flags.model, configured.Model)
	return tokenizer.NewCounter(tokenizer.Config{Model: model})
}

// exportDocument writes the merged document to targetPath when one is configured. Empty
// documents are reported and not written.
func (app *application) exportDocument(targetPath string, document string) error {
	if targetPath == "" {
		return nil
	}
	exportError := output.Export(targetPath, document)
	if errors.Is(exportError, output.ErrEmptyDocument) {
		app.logger.Warn(logMessageExportSkipped, zap.String(logFieldPath, targetPath))
		return nil
	}
	if exportError != nil {
		return exportError
	}
	app.logger.Info(logMessageExported,
		zap.String(logFieldPath, targetPath),
		zap.String(logFieldSize, utils.FormatTextSize(document)))
	return nil
}
