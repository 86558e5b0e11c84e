// Package cli implements the gh-metahistory command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/spf13/cobra"

	"github.com/kyleking/gh-metahistory/internal/app"
	"github.com/kyleking/gh-metahistory/internal/browser"
	"github.com/kyleking/gh-metahistory/internal/config"
	"github.com/kyleking/gh-metahistory/internal/exec"
	"github.com/kyleking/gh-metahistory/internal/kv"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

// Env holds the process-level collaborators of every command.
type Env struct {
	Getenv   func(string) string
	Stdout   io.Writer
	Stderr   io.Writer
	Executor exec.CommandExecutor

	OpenStore func(ctx context.Context, cfg config.Config, getenv func(string) string) (kv.Store, io.Closer, error)
	Copy      func(text string) error
	Browse    func(url string) error

	ColorEnabled bool
	// LoadDotEnv loads .env before reading configuration.
	LoadDotEnv bool
}

// DefaultEnv returns an Env backed by the real process.
func DefaultEnv() *Env {
	t := term.FromEnv()
	return &Env{
		Getenv:       os.Getenv,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Executor:     exec.NewRealExecutor(),
		OpenStore:    app.OpenStore,
		Copy:         clipboard.WriteAll,
		Browse:       browser.Open,
		ColorEnabled: t.IsColorEnabled(),
		LoadDotEnv:   true,
	}
}

type globalOptions struct {
	configPath string
	backend    string
	verbose    bool
}

// NewRootCmd constructs the root command over the real process.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithEnv(DefaultEnv())
}

// NewRootCmdWithEnv constructs the root command over env.
func NewRootCmdWithEnv(env *Env) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "gh-metahistory",
		Short:         "Record and inspect CI metadata history per commit and pull request",
		Long:          "gh-metahistory stores test, coverage, quality and documentation metadata for each commit and pull request, and reports how it changed.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !env.LoadDotEnv {
				return nil
			}
			if err := config.LoadDotEnv(); err != nil {
				return WrapExit(ExitUsage, "invalid .env", err)
			}
			return nil
		},
	}
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExit(ExitUsage, "", err)
	})

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default .github/metahistory.yml)")
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Storage backend: gist, s3, postgres, disk or memory")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug output")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "gh-metahistory version %s\n", Version)
		},
	})
	cmd.AddCommand(newRecordCmd(env, opts))
	cmd.AddCommand(newShowCmd(env, opts))
	cmd.AddCommand(newDeleteCmd(env, opts))

	return cmd
}

// getenv layers the global flags over the environment.
func (o *globalOptions) getenv(env *Env) func(string) string {
	return overlay(env.Getenv, map[string]string{
		"METAHISTORY_CONFIG":  o.configPath,
		"INPUT_BACKEND":       o.backend,
		"METAHISTORY_BACKEND": o.backend,
	})
}

func (o *globalOptions) loadConfig(env *Env) (config.Config, error) {
	cfg, err := config.Load(o.getenv(env))
	if err != nil {
		return config.Config{}, WrapExit(ExitUsage, "invalid configuration", err)
	}
	return cfg, nil
}

// openStore loads the configuration and opens its backend.
func (o *globalOptions) openStore(ctx context.Context, env *Env) (kv.Store, io.Closer, error) {
	cfg, err := o.loadConfig(env)
	if err != nil {
		return nil, nil, err
	}
	store, closer, err := env.OpenStore(ctx, cfg, o.getenv(env))
	if err != nil {
		return nil, nil, WrapExit(ExitFailure, "", err)
	}
	return store, closer, nil
}

// overlay returns a getenv that prefers non-empty values of vars.
func overlay(getenv func(string) string, vars map[string]string) func(string) string {
	return func(key string) string {
		if v, ok := vars[key]; ok && v != "" {
			return v
		}
		return getenv(key)
	}
}

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return WrapExit(ExitUsage, "", err)
		}
		return nil
	}
}
