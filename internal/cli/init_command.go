package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dirtree/internal/config"
)

const (
	initCommandName      = "init"
	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write the default dirtree configuration to ./.dirtree.yaml, or to
~/.dirtree/config.yaml with --global. Existing files are kept unless --force is set.`
	globalFlagName        = "global"
	forceFlagName         = "force"
	globalFlagDescription = "write the global configuration under the home directory"
	forceFlagDescription  = "overwrite an existing configuration file"
	initCreatedFormat     = "configuration written to %s\n"
	logMessageInitialized = "configuration initialized"
)

// createInitCommand returns the init subcommand.
func createInitCommand(app *application) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, err := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: app.workingDirectory,
			})
			if err != nil {
				return err
			}
			app.logger.Debug(logMessageInitialized, zap.String(logFieldPath, path))
			_, err = fmt.Fprintf(app.dependencies.Stdout, initCreatedFormat, path)
			return err
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
