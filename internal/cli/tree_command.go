package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/temirov/dirtree/internal/output"
	"github.com/temirov/dirtree/internal/rules"
	"github.com/temirov/dirtree/internal/services/stream"
	"github.com/temirov/dirtree/internal/traversal"
	"github.com/temirov/dirtree/internal/types"
)

const (
	treeCommandName      = "tree"
	treeUse              = "tree [path]"
	treeAlias            = "t"
	treeShortDescription = "display a filtered directory tree (" + treeAlias + ")"
	treeLongDescription  = `Walk a directory up to --depth levels and print the entries that survive the
include and exclude rules. Without rules every entry is listed. Once any rule is
configured, directories named build are hidden unless an include rule mentions
build. Use --format to select raw or json output.`
	treeUsageExample = `  # Three levels of the current directory without log files
  dirtree tree -e '*.log'

  # Directories only, as JSON
  dirtree tree --files=false --format json ./src`
)

const (
	filesFlagName         = "files"
	formatFlagName        = "format"
	filesFlagDescription  = "include files; directories only when false"
	formatFlagDescription = "output format (raw or json)"
	treeProgressLabel     = "tree"
)

type treeFlags struct {
	rules        ruleFlags
	depth        int
	includeFiles bool
	format       string
	copy         bool
	progress     bool
	summary      bool
}

// createTreeCommand returns the tree subcommand.
func createTreeCommand(app *application) *cobra.Command {
	var flags treeFlags

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runTree(command, arguments, flags)
		},
	}

	addRuleFlags(treeCommand, &flags.rules)
	treeCommand.Flags().IntVar(&flags.depth, depthFlagName, types.DefaultMaxDepth, depthFlagDescription)
	registerBooleanFlag(treeCommand.Flags(), &flags.includeFiles, filesFlagName, true, filesFlagDescription)
	treeCommand.Flags().StringVar(&flags.format, formatFlagName, types.FormatRaw, formatFlagDescription)
	registerBooleanFlag(treeCommand.Flags(), &flags.copy, copyFlagName, false, copyFlagDescription)
	registerBooleanFlag(treeCommand.Flags(), &flags.progress, progressFlagName, true, progressFlagDescription)
	registerBooleanFlag(treeCommand.Flags(), &flags.summary, summaryFlagName, false, summaryFlagDescription)
	return treeCommand
}

func (app *application) runTree(command *cobra.Command, arguments []string, flags treeFlags) error {
	root, rootError := resolveRootPath(arguments)
	if rootError != nil {
		return rootError
	}
	configured := app.configuration.Tree

	format, formatError := validateFormat(resolveString(command, formatFlagName, flags.format, configured.Format))
	if formatError != nil {
		return formatError
	}
	rulesFile := resolveString(command, rulesFileFlagName, flags.rules.rulesFile, configured.RulesFile)
	ruleSet, includeLines, rulesError := flags.rules.buildRuleSet(treeCommandName, configured.Rules, rulesFile)
	if rulesError != nil {
		return rulesError
	}
	ruleSet.Append(rules.RuleSetFromIgnoreLines(includeLines, types.RuleModeInclude))
	classifiers, gitignoreError := gitignoreClassifiers(resolveBool(command, gitignoreFlagName, flags.rules.useGitignore, configured.UseGitignore), root)
	if gitignoreError != nil {
		return gitignoreError
	}

	traversalOptions := traversal.Options{
		Root:         root,
		MaxDepth:     resolveInt(command, depthFlagName, flags.depth, configured.Depth),
		IncludeFiles: resolveBool(command, filesFlagName, flags.includeFiles, configured.IncludeFiles),
		Rules:        ruleSet,
		Classifiers:  classifiers,
		Logger:       app.logger,
	}

	engine := traversal.NewEngine(app.logger)
	runContext, stopWatching := app.watchInterrupt(command.Context(), engine)
	defer stopWatching()

	renderer := output.NewStreamRenderer(format, output.RendererOptions{
		Stdout:         app.dependencies.Stdout,
		Stderr:         app.dependencies.Stderr,
		Command:        types.CommandTree,
		Progress:       app.newProgressLine(resolveBool(command, progressFlagName, flags.progress, configured.Progress), treeProgressLabel),
		IncludeSummary: flags.summary,
	})
	produce := func(ctx context.Context, events chan<- stream.Event) error {
		return stream.StreamTree(ctx, stream.TreeOptions{Traversal: traversalOptions, Engine: engine}, events)
	}
	if err := app.render(runContext, renderer, root, produce); err != nil {
		return err
	}
	return app.copyToClipboard(resolveBool(command, copyFlagName, flags.copy, configured.Clipboard), renderer.Output())
}
