// root.go: pluginscan cobra commands
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	pluginloader "github.com/agilira/go-plugin-loader"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configFile  string
	debug       bool
	installRoot string
	packages    []string
	pluginPaths []string
	distPaths   []string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "pluginscan",
		Short: "Discover and load plugin units",
		Long: `pluginscan runs plugin discovery the way a host does at startup:
in-tree packages first, then provider entries declared by installed
distributions, then ad hoc plugin paths.

Configuration comes from --config, then PLUGIN_LOADER_* environment
variables, then the flags below.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "loader config file (yaml, json or toml)")
	flags.BoolVar(&opts.debug, "debug", false, "log load failures with full detail")
	flags.StringVar(&opts.installRoot, "install-root", "", "directory holding the in-tree packages")
	flags.StringArrayVar(&opts.packages, "package", nil, "in-tree package to import (repeatable)")
	flags.StringArrayVar(&opts.pluginPaths, "plugin-paths", nil, "ad hoc plugin file or directory (repeatable)")
	flags.StringArrayVar(&opts.distPaths, "dist-path", nil, "directory holding installed distributions (repeatable)")

	root.AddCommand(newLoadCmd(opts))
	root.AddCommand(newImplementationsCmd(opts))
	root.AddCommand(newWatchCmd(opts))
	return root
}

func newLoadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Run discovery and print what was loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader, err := opts.newLoader(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			report, err := loader.LoadAll(cmd.Context())
			if report != nil {
				printReport(cmd.OutOrStdout(), loader, report)
			}
			return err
		},
	}
}

func newImplementationsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "implementations <base>",
		Short: "Run discovery and list the implementations of a capability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := opts.newLoader(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if _, err := loader.LoadAll(cmd.Context()); err != nil {
				return err
			}
			impls, err := loader.Registry().Implementations(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for impl := range impls {
				if impl.Module != "" {
					fmt.Fprintf(out, "%s\t%s\n", impl.Name, impl.Module)
				} else {
					fmt.Fprintln(out, impl.Name)
				}
			}
			return nil
		},
	}
}

func newWatchCmd(opts *options) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run discovery, then rescan whenever the config file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.configFile == "" {
				return errors.New("watch requires --config")
			}
			loader, err := opts.newLoader(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			report, err := loader.LoadAll(cmd.Context())
			if report != nil {
				printReport(cmd.OutOrStdout(), loader, report)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			watcher := pluginloader.NewConfigWatcher(loader, opts.configFile, pluginloader.WatcherOptions{
				PollInterval: interval,
				EnvPrefix:    pluginloader.DefaultEnvPrefix,
				OnReload: func(report *pluginloader.DiscoveryReport, _ error) {
					if report != nil {
						printReport(out, loader, report)
					}
				},
			})
			if err := watcher.Start(); err != nil {
				return err
			}
			defer func() { _ = watcher.Stop() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "how often the config file is checked")
	return cmd
}

// config merges the config file, the environment and the flags, in that order.
func (o *options) config() (pluginloader.Config, error) {
	var cfg pluginloader.Config
	if o.configFile != "" {
		loaded, err := pluginloader.LoadConfigFromFile(o.configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnvOverrides(pluginloader.DefaultEnvPrefix); err != nil {
		return cfg, err
	}

	if o.installRoot != "" {
		cfg.InstallRoot = o.installRoot
	}
	cfg.Packages = append(cfg.Packages, o.packages...)
	cfg.PluginPaths = append(cfg.PluginPaths, o.pluginPaths...)
	cfg.DistributionPaths = append(cfg.DistributionPaths, o.distPaths...)
	if o.debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func (o *options) newLoader(logOut io.Writer) (*pluginloader.Loader, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	return pluginloader.NewLoader(cfg, pluginloader.WithLogger(newCharmLogger(logOut, cfg.Debug)))
}

func printReport(w io.Writer, loader *pluginloader.Loader, report *pluginloader.DiscoveryReport) {
	fmt.Fprintf(w, "run %s: %d loaded, %d failed in %s\n",
		report.ID, len(report.Loaded), len(report.Failures), report.Duration())
	for _, rec := range loader.ImportTable().Records() {
		fmt.Fprintf(w, "  %-8s %s\t%s\n", rec.Source, rec.ID, rec.Path)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  failed   %s\n", f.Error())
	}
}
