// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/dirtree/internal/config"
	"github.com/temirov/dirtree/internal/output"
	"github.com/temirov/dirtree/internal/rules"
	"github.com/temirov/dirtree/internal/services/clipboard"
	"github.com/temirov/dirtree/internal/services/stream"
	"github.com/temirov/dirtree/internal/types"
	"github.com/temirov/dirtree/internal/utils"
)

const (
	configFlagName       = "config"
	verboseFlagName      = "verbose"
	versionFlagName      = "version"
	depthFlagName        = "depth"
	includeFlagName      = "include"
	excludeFlagName      = "exclude"
	includeRegexFlagName = "include-regex"
	excludeRegexFlagName = "exclude-regex"
	rulesFileFlagName    = "rules-file"
	gitignoreFlagName    = "gitignore"
	copyFlagName         = "copy"
	progressFlagName     = "progress"
	summaryFlagName      = "summary"
	versionTemplate      = "dirtree version: %s\n"
	defaultPath          = "."
	rootUse              = "dirtree"
	rootShortDescription = "dirtree renders filtered directory trees and merges files"
	rootLongDescription  = `dirtree walks a directory with include and exclude rules.
The tree command prints the visible structure; the merge command concatenates the
selected files into one document with optional headers, separators and extraction.
Defaults come from ~/.dirtree/config.yaml and ./.dirtree.yaml; explicit flags win.`
	configFlagDescription       = "configuration file to use instead of ./.dirtree.yaml"
	verboseFlagDescription      = "log skipped entries and per-file progress"
	versionFlagDescription      = "display application version"
	depthFlagDescription        = "maximum traversal depth; root children are at depth 1"
	includeFlagDescription      = "include wildcard pattern (repeatable)"
	excludeFlagDescription      = "exclude wildcard pattern (repeatable)"
	includeRegexFlagDescription = "include regular expression (repeatable)"
	excludeRegexFlagDescription = "exclude regular expression (repeatable)"
	rulesFileFlagDescription    = "gitignore-style rule file with optional [include] and [exclude] sections"
	gitignoreFlagDescription    = "exclude entries matched by the root .gitignore"
	copyFlagDescription         = "copy the result to the system clipboard"
	progressFlagDescription     = "show a progress line on terminals"
	summaryFlagDescription      = "print a summary line to standard error"

	errorWorkingDirectoryFormat = "unable to determine working directory: %w"
	errorAbsolutePathFormat     = "abs failed for '%s': %w"
	errorPathMissingFormat      = "path '%s' does not exist"
	errorPathNotDirectoryFormat = "path '%s' is not a directory"
	errorStatFormat             = "stat failed for '%s': %w"
	errorLoggerFormat           = "initialize logger: %w"
	errorLoadRulesFileFormat    = "load rules file: %w"
	errorBuildRulesFormat       = "%s rules: %w"
	errorCopyFormat             = "copy to clipboard: %w"
	errorInvalidFormatFormat    = "invalid format value '%s'"

	logMessageInterrupted   = "interrupt received, cancelling"
	logMessageCopied        = "copied result to clipboard"
	logMessageNothingToCopy = "nothing to copy"
	logMessageProcessing    = "processing file"
	logMessageRunFinished   = "run finished"
	logFieldPath            = "path"
	logFieldIndex           = "index"
	logFieldTotal           = "total"
	logFieldSession         = "session"
	logFieldCharacters      = "characters"
)

var errInterrupted = errors.New("interrupted before the run started")

// Dependencies are the process resources the commands write to. Zero fields fall back to the
// process streams, the system clipboard and a console logger.
type Dependencies struct {
	Stdout io.Writer
	Stderr io.Writer
	Copier clipboard.Copier
	Logger *zap.Logger
}

// application carries state shared by the subcommands of one invocation.
type application struct {
	dependencies     Dependencies
	configuration    config.ApplicationConfiguration
	logger           *zap.Logger
	configPath       string
	verbose          bool
	workingDirectory string
}

// Execute runs the dirtree application.
func Execute() error {
	rootCommand := NewRootCommand(Dependencies{})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	if dependencies.Stdout == nil {
		dependencies.Stdout = os.Stdout
	}
	if dependencies.Stderr == nil {
		dependencies.Stderr = os.Stderr
	}
	if dependencies.Copier == nil {
		dependencies.Copier = clipboard.NewService()
	}
	app := &application{dependencies: dependencies}
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				_, err := fmt.Fprintf(app.dependencies.Stdout, versionTemplate, utils.GetApplicationVersion())
				return err
			}
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return app.prepare(command)
		},
	}
	rootCommand.SetOut(dependencies.Stdout)
	rootCommand.SetErr(dependencies.Stderr)
	rootCommand.PersistentFlags().StringVar(&app.configPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(rootCommand.PersistentFlags(), &app.verbose, verboseFlagName, false, verboseFlagDescription)
	registerBooleanFlag(rootCommand.Flags(), &showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(
		createTreeCommand(app),
		createMergeCommand(app),
		createInitCommand(app),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// prepare resolves the working directory, the logger and the layered configuration.
func (app *application) prepare(command *cobra.Command) error {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(errorWorkingDirectoryFormat, workingDirectoryError)
	}
	app.workingDirectory = workingDirectory

	app.logger = app.dependencies.Logger
	if app.logger == nil {
		logger, loggerError := utils.NewApplicationLogger(app.verbose)
		if loggerError != nil {
			return fmt.Errorf(errorLoggerFormat, loggerError)
		}
		app.logger = logger
	}

	if command.Name() == initCommandName {
		return nil
	}
	configuration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: app.configPath,
	})
	if loadError != nil {
		return loadError
	}
	app.configuration = configuration
	return nil
}

// ruleFlags are the rule-producing flags shared by tree and merge.
type ruleFlags struct {
	include      []string
	exclude      []string
	includeRegex []string
	excludeRegex []string
	rulesFile    string
	useGitignore bool
}

func addRuleFlags(command *cobra.Command, flags *ruleFlags) {
	command.Flags().StringArrayVar(&flags.include, includeFlagName, nil, includeFlagDescription)
	command.Flags().StringArrayVarP(&flags.exclude, excludeFlagName, "e", nil, excludeFlagDescription)
	command.Flags().StringArrayVar(&flags.includeRegex, includeRegexFlagName, nil, includeRegexFlagDescription)
	command.Flags().StringArrayVar(&flags.excludeRegex, excludeRegexFlagName, nil, excludeRegexFlagDescription)
	command.Flags().StringVar(&flags.rulesFile, rulesFileFlagName, "", rulesFileFlagDescription)
	registerBooleanFlag(command.Flags(), &flags.useGitignore, gitignoreFlagName, false, gitignoreFlagDescription)
}

// buildRuleSet layers configured rules, flag rules and the rule file into one RuleSet. Lines from
// the include section of the rule file are returned separately so that merge can route them
// to its file filter.
func (flags ruleFlags) buildRuleSet(commandName string, configured []config.RuleConfiguration, rulesFile string) (*rules.RuleSet, []string, error) {
	ruleSet, buildError := config.BuildRuleSet(configured)
	if buildError != nil {
		return nil, nil, fmt.Errorf(errorBuildRulesFormat, commandName, buildError)
	}
	for _, pattern := range flags.include {
		ruleSet.Add(pattern, types.MatchKindWildcard, types.RuleModeInclude)
	}
	for _, pattern := range flags.exclude {
		ruleSet.Add(pattern, types.MatchKindWildcard, types.RuleModeExclude)
	}
	for _, pattern := range flags.includeRegex {
		ruleSet.Add(pattern, types.MatchKindRegex, types.RuleModeInclude)
	}
	for _, pattern := range flags.excludeRegex {
		ruleSet.Add(pattern, types.MatchKindRegex, types.RuleModeExclude)
	}
	if rulesFile == "" {
		return ruleSet, nil, nil
	}
	contents, loadError := config.LoadRuleFile(rulesFile)
	if loadError != nil {
		return nil, nil, fmt.Errorf(errorLoadRulesFileFormat, loadError)
	}
	ruleSet.Append(rules.RuleSetFromIgnoreLines(contents.Exclude, types.RuleModeExclude))
	return ruleSet, contents.Include, nil
}

// gitignoreClassifiers returns the .gitignore classifier for root when enabled.
func gitignoreClassifiers(enabled bool, root string) ([]rules.Classifier, error) {
	if !enabled {
		return nil, nil
	}
	classifier, loadError := rules.NewGitignoreClassifier(root)
	if loadError != nil {
		return nil, loadError
	}
	return []rules.Classifier{classifier}, nil
}

// resolveRootPath converts the optional path argument to a clean absolute directory path.
func resolveRootPath(arguments []string) (string, error) {
	inputPath := defaultPath
	if len(arguments) > 0 {
		inputPath = arguments[0]
	}
	absolutePath, absolutePathError := filepath.Abs(inputPath)
	if absolutePathError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
	}
	cleanPath := filepath.Clean(absolutePath)
	info, statError := os.Stat(cleanPath)
	if statError != nil {
		if os.IsNotExist(statError) {
			return "", fmt.Errorf(errorPathMissingFormat, inputPath)
		}
		return "", fmt.Errorf(errorStatFormat, inputPath, statError)
	}
	if !info.IsDir() {
		return "", fmt.Errorf(errorPathNotDirectoryFormat, inputPath)
	}
	return cleanPath, nil
}

func validateFormat(format string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case "":
		return types.FormatRaw, nil
	case types.FormatRaw, types.FormatJSON:
		return normalized, nil
	default:
		return "", fmt.Errorf(errorInvalidFormatFormat, format)
	}
}

// newProgressLine returns a progress line when enabled and standard error is a terminal.
func (app *application) newProgressLine(enabled bool, label string) *output.ProgressLine {
	if !enabled {
		return nil
	}
	stderrFile, isFile := app.dependencies.Stderr.(*os.File)
	if !isFile {
		return nil
	}
	return output.NewProgressLine(stderrFile, label)
}

// render drives one producer through a renderer and flushes the final payload.
func (app *application) render(
	ctx context.Context,
	renderer output.StreamRenderer,
	root string,
	produce func(context.Context, chan<- stream.Event) error,
) error {
	consume := func(event stream.Event) error {
		app.logEvent(root, event)
		return renderer.Handle(event)
	}
	if err := dispatchStream(ctx, produce, consume); err != nil {
		if cause := context.Cause(ctx); errors.Is(cause, errInterrupted) {
			return cause
		}
		return err
	}
	return renderer.Flush()
}

// logEvent writes the debug-level trail of a run.
func (app *application) logEvent(root string, event stream.Event) {
	switch event.Kind {
	case stream.EventKindFile:
		if event.File != nil && event.File.Phase == stream.FilePhaseProcessing {
			app.logger.Debug(logMessageProcessing,
				zap.String(logFieldPath, utils.RelativePathOrSelf(event.Path, root)),
				zap.Int(logFieldIndex, event.File.Index),
				zap.Int(logFieldTotal, event.File.Total))
		}
	case stream.EventKindDone:
		app.logger.Debug(logMessageRunFinished, zap.String(logFieldSession, event.SessionID))
	}
}

// copyToClipboard copies text when enabled; empty results are reported and skipped.
func (app *application) copyToClipboard(enabled bool, text string) error {
	if !enabled {
		return nil
	}
	if text == "" {
		app.logger.Warn(logMessageNothingToCopy)
		return nil
	}
	if err := app.dependencies.Copier.Copy(text); err != nil {
		return fmt.Errorf(errorCopyFormat, err)
	}
	app.logger.Info(logMessageCopied, zap.Int(logFieldCharacters, len([]rune(text))))
	return nil
}

// interruptible is the part of a traversal or merge engine an interrupt acts on.
type interruptible interface {
	Cancel()
	Running() bool
}

// watchInterrupt returns the context a run should use and a stop function. The first
// interrupt cancels the engine so the partial result still renders; when no session is
// running yet the returned context is cancelled as well. Later interrupts get the default
// behaviour.
func (app *application) watchInterrupt(ctx context.Context, engine interruptible) (context.Context, func()) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	return app.cancelOnSignal(ctx, engine, signals, func() { signal.Stop(signals) })
}

func (app *application) cancelOnSignal(ctx context.Context, engine interruptible, signals <-chan os.Signal, release func()) (context.Context, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	runContext, cancelRun := context.WithCancelCause(ctx)
	var releaseOnce sync.Once
	releaseSignals := func() { releaseOnce.Do(release) }
	finished := make(chan struct{})
	go func() {
		select {
		case <-signals:
			releaseSignals()
			app.logger.Warn(logMessageInterrupted)
			running := engine.Running()
			engine.Cancel()
			if !running {
				cancelRun(errInterrupted)
			}
		case <-finished:
		}
	}()
	var stopOnce sync.Once
	return runContext, func() {
		stopOnce.Do(func() {
			releaseSignals()
			close(finished)
			cancelRun(nil)
		})
	}
}

func dispatchStream(
	ctx context.Context,
	produce func(context.Context, chan<- stream.Event) error,
	consume func(stream.Event) error,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	group, streamCtx := errgroup.WithContext(ctx)
	events := make(chan stream.Event)

	group.Go(func() error {
		defer close(events)
		return produce(streamCtx, events)
	})

	group.Go(func() error {
		for {
			select {
			case <-streamCtx.Done():
				return streamCtx.Err()
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := consume(event); err != nil {
					return err
				}
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}
