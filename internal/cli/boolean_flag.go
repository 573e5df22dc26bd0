package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName          = "bool"
	booleanFlagTrueLiteral       = "true"
	booleanFlagAcceptedValues    = "true, false, yes, no, on, off, 1, 0"
	booleanFlagInvalidValueLabel = "invalid boolean value"
	longFlagPrefix               = "--"
	flagAssignment               = "="
	argumentTerminator           = "--"
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// tolerantBool is a pflag value accepting yes/no/on/off spellings in addition to true/false.
type tolerantBool struct {
	target   *bool
	flagName string
}

func (value *tolerantBool) Set(input string) error {
	if value == nil || value.target == nil {
		return fmt.Errorf("%s %q", booleanFlagInvalidValueLabel, input)
	}
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = booleanFlagTrueLiteral
	}
	parsed, known := booleanFlagLiterals[normalized]
	if !known {
		return fmt.Errorf("%s %q for --%s; accepted values: %s", booleanFlagInvalidValueLabel, input, value.flagName, booleanFlagAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *tolerantBool) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *tolerantBool) Type() string {
	return booleanFlagTypeName
}

// registerBooleanFlag defines --name so that a bare flag means true and a following literal
// such as "no" or "off" is consumed as its value after normalizeBooleanFlagArguments.
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = defaultValue
	flagSet.Var(&tolerantBool{target: target, flagName: name}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(defaultValue)
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

// normalizeBooleanFlagArguments rewrites "--flag value" into "--flag=value" for boolean flags of
// command and its subcommands whenever value is a recognised boolean literal.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	booleanFlags := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanFlags)
	if len(booleanFlags) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		currentArgument := arguments[index]
		if currentArgument == argumentTerminator {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if joined, consumed := joinBooleanLiteral(booleanFlags, arguments, index); consumed {
			normalized = append(normalized, joined)
			index++
			continue
		}
		normalized = append(normalized, currentArgument)
	}
	return normalized
}

func joinBooleanLiteral(booleanFlags map[string]struct{}, arguments []string, index int) (string, bool) {
	currentArgument := arguments[index]
	if !strings.HasPrefix(currentArgument, longFlagPrefix) || strings.Contains(currentArgument, flagAssignment) {
		return "", false
	}
	flagName := strings.TrimPrefix(currentArgument, longFlagPrefix)
	if _, isBoolean := booleanFlags[flagName]; !isBoolean || index+1 >= len(arguments) {
		return "", false
	}
	nextArgument := arguments[index+1]
	if strings.HasPrefix(nextArgument, "-") {
		return "", false
	}
	if _, isLiteral := booleanFlagLiterals[strings.ToLower(strings.TrimSpace(nextArgument))]; !isLiteral {
		return "", false
	}
	return longFlagPrefix + flagName + flagAssignment + nextArgument, true
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	visit := func(flagSet *pflag.FlagSet) {
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag.Value != nil && flag.Value.Type() == booleanFlagTypeName {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}

// resolveBool returns the flag value when the user set it explicitly, then the configured
// value, then the flag default.
func resolveBool(command *cobra.Command, name string, flagValue bool, configured *bool) bool {
	if command.Flags().Changed(name) || configured == nil {
		return flagValue
	}
	return *configured
}

// resolveInt applies the same precedence as resolveBool to integer flags.
func resolveInt(command *cobra.Command, name string, flagValue int, configured *int) int {
	if command.Flags().Changed(name) || configured == nil {
		return flagValue
	}
	return *configured
}

// resolveString applies the same precedence as resolveBool; an empty configured value counts
// as unset.
func resolveString(command *cobra.Command, name string, flagValue string, configured string) string {
	if command.Flags().Changed(name) || configured == "" {
		return flagValue
	}
	return configured
}
