package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rios0rios0/headcms/internal/domain/commands"
	"github.com/rios0rios0/headcms/internal/domain/entities"
)

// EnvPrefix prefixes the environment variables backing the global flags.
const EnvPrefix = "HEADCMS"

const (
	flagConfig     = "config"
	flagLocal      = "local"
	flagToken      = "token"
	flagVerbose    = "verbose"
	flagCollection = "collection"
	flagSkipCI     = "skip-ci"
)

var errMissingArguments = errors.New("missing arguments")

// GlobalOptions are the root flags shared by every subcommand.
type GlobalOptions struct {
	ConfigPath string
	LocalDir   string
	Token      string
	Verbose    bool
}

// AddGlobalFlags registers the persistent flags on the root command.
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(flagConfig, "c", "",
		"Path to the site config file (default: auto-detect)")
	cmd.PersistentFlags().String(flagLocal, "",
		"Work on a local directory instead of the configured remote backend")
	cmd.PersistentFlags().String(flagToken, "",
		"Access token for the backend (overrides the stored session)")
	cmd.PersistentFlags().BoolP(flagVerbose, "v", false,
		"Enable verbose output")
}

// ReadGlobalOptions reads the root flags, falling back to HEADCMS_* variables
// for flags that were not given on the command line.
func ReadGlobalOptions(cmd *cobra.Command) GlobalOptions {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{flagConfig, flagLocal, flagToken, flagVerbose} {
		if flag := lookupFlag(cmd, name); flag != nil {
			_ = v.BindPFlag(name, flag)
		}
	}

	return GlobalOptions{
		ConfigPath: v.GetString(flagConfig),
		LocalDir:   v.GetString(flagLocal),
		Token:      v.GetString(flagToken),
		Verbose:    v.GetBool(flagVerbose),
	}
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag
	}
	return cmd.InheritedFlags().Lookup(name)
}

// BackendOptions converts the global options for the domain commands.
func (o GlobalOptions) BackendOptions() commands.BackendOptions {
	return commands.BackendOptions{LocalDir: o.LocalDir, Token: o.Token}
}

// loadSettings reads the global options and the site configuration they point to.
func loadSettings(cmd *cobra.Command) (*entities.Settings, GlobalOptions, error) {
	opts := ReadGlobalOptions(cmd)
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		found, err := entities.FindConfigFile()
		if err != nil {
			return nil, opts, err
		}
		configPath = found
	}
	logger.Debugf("Using config file: %s", configPath)

	settings, err := entities.NewSettings(configPath)
	if err != nil {
		return nil, opts, fmt.Errorf("failed to load config: %w", err)
	}
	return settings, opts, nil
}

// skipCIFlag returns nil unless --skip-ci was given, so the site
// configuration decides by default.
func skipCIFlag(cmd *cobra.Command) *bool {
	if !cmd.Flags().Changed(flagSkipCI) {
		return nil
	}
	value, _ := cmd.Flags().GetBool(flagSkipCI)
	return &value
}

func addSkipCIFlag(cmd *cobra.Command) {
	cmd.Flags().Bool(flagSkipCI, false, "Add or drop the [skip ci] prefix regardless of the config")
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func logCommit(result *commands.CommitResult) {
	if result.Commit == nil || result.Commit.SHA == "" {
		logger.Infof("Nothing to commit")
		return
	}
	logger.Infof("Committed %d change(s) as %s: %s",
		len(result.Changes), shortSHA(result.Commit.SHA), firstLine(result.Message))
}

func shortSHA(sha string) string {
	const length = 8
	if len(sha) > length {
		return sha[:length]
	}
	return sha
}

func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return message[:idx]
	}
	return message
}
