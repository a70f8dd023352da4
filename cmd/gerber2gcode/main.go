// Copyright 2018 Vasily Turchenko <turchenkov@gmail.com>. All rights reserved.
// Use of this source code is free

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/VasiliyTurchenko/gerber2gcode/configurator"
	"github.com/VasiliyTurchenko/gerber2gcode/gerber2gcode"
	"github.com/VasiliyTurchenko/gerber2gcode/steps"
)

const version = "0.2.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newCLI().root().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cli struct {
	logger  *log.Logger
	v       *viper.Viper
	cfgFile string
	verbose bool
}

func newCLI() *cli {
	return &cli{
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           log.InfoLevel,
		}),
		v: viper.New(),
	}
}

func (c *cli) root() *cobra.Command {
	root := &cobra.Command{
		Use:               "gerber2gcode",
		Short:             "PCB isolation routing G-code generator",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default ./config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.configCommand())
	return root
}

func (c *cli) loadConfig(cmd *cobra.Command, _ []string) error {
	configurator.SetDefaults(c.v)
	if err := configurator.ProcessConfigFile(c.v, c.cfgFile); err != nil {
		if c.cfgFile != "" || !configurator.NotFound(err) {
			return err
		}
		c.logger.Debug("no config file, using built-in defaults")
	}
	level, err := log.ParseLevel(c.v.GetString(configurator.CfgCommonLogLevel))
	if err != nil {
		return fmt.Errorf("%w: %w", configurator.ErrBadConfig, err)
	}
	if c.verbose {
		level = log.DebugLevel
	}
	c.logger.SetLevel(level)
	return nil
}

func (c *cli) convertCommand() *cobra.Command {
	var (
		out  string
		png  bool
		jobs int
	)
	cmd := &cobra.Command{
		Use:   "convert script.yaml...",
		Short: "Convert draw scripts into G-code, one file per layer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("png") {
				c.v.Set(configurator.CfgRenderGeneratePNG, png)
			}
			if cmd.Flags().Changed("out") {
				c.v.Set(configurator.CfgOutputDirectory, out)
			}
			if !cmd.Flags().Changed("jobs") {
				jobs = c.v.GetInt(configurator.CfgCommonJobs)
			}

			scripts := make([]*steps.Script, 0, len(args))
			for _, name := range args {
				s, err := steps.Load(name)
				if err != nil {
					return err
				}
				scripts = append(scripts, s)
			}

			conv := gerber2gcode.New(c.v, c.logger)
			conv.OutDir = c.v.GetString(configurator.CfgOutputDirectory)
			results, err := conv.RunAll(cmd.Context(), scripts, jobs)
			if c.v.GetBool(configurator.CfgCommonPrintStatistic) {
				gerber2gcode.PrintStatistic(cmd.OutOrStdout(), results)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&png, "png", false, "write a PNG preview next to every program")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "layers converted in parallel")
	return cmd
}

func (c *cli) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a config file holding every default",
		Args:  cobra.MaximumNArgs(1),
		// the file being written must not be required
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "config.toml"
			if len(args) == 1 {
				name = args[0]
			}
			flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
			if force {
				flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			}
			f, err := os.OpenFile(name, flags, 0o644)
			if err != nil {
				return err
			}
			if err := configurator.WriteDefaults(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			c.logger.Info("config written", "file", name)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			configurator.DiagnosticAllCfgPrint(c.v, cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
