package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ponytojas/go-tempcheck/config"
	"github.com/ponytojas/go-tempcheck/internal/format"
	"github.com/ponytojas/go-tempcheck/internal/logging"
	"github.com/ponytojas/go-tempcheck/internal/sensor"
	"github.com/ponytojas/go-tempcheck/internal/sink"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd(os.Stdout, sensor.ExecRunner{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command. Output goes to out and the sensor tool is
// run through runner, so tests can substitute both.
func newRootCmd(out io.Writer, runner sensor.Runner) *cobra.Command {
	selected := format.Plain

	rootCmd := &cobra.Command{
		Use:           "tempcheck",
		Short:         "Report the current CPU temperature",
		Long:          "tempcheck queries the CPU temperature from iStats and prints it as plain text, a sentence or JSON.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, out, runner)
		},
	}
	rootCmd.SetOut(out)

	defaults := config.GetDefaultConfig()
	flags := rootCmd.Flags()
	flags.VarP(&selected, "format", "f", "Output format: plain, verbose, or json")
	flags.BoolP("log", "l", false, "Enable detailed logging in the log file")
	flags.StringP("config", "c", "", "Configuration file path")
	flags.String("log-file", defaults.LogFile, "Log file path")

	return rootCmd
}

func run(cmd *cobra.Command, out io.Writer, runner sensor.Runner) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, closer := logging.New(cfg.LogFile, cfg.Log)
	defer closer.Close()

	log.WithFields(logrus.Fields{
		"format":   cfg.Format,
		"log":      cfg.Log,
		"config":   configFile,
		"log_file": cfg.LogFile,
		"version":  version,
	}).Debug("tempcheck started")

	if !sensor.CheckInstalled(cfg.Sensor.Command, cfg.Sensor.InstallHint, out) {
		log.WithField("command", cfg.Sensor.Command).Warn("Sensor command not found on PATH")
		return nil
	}

	ctx := cmd.Context()
	reader := &sensor.Reader{
		Command: cfg.Sensor.Command,
		Args:    cfg.Sensor.Args,
		Label:   cfg.Sensor.Label,
		Timeout: cfg.Sensor.Timeout,
		Runner:  runner,
		Log:     log,
	}
	result := reader.Read(ctx)

	// Already validated by LoadConfig.
	selected, _ := format.Parse(cfg.Format)
	fmt.Fprintln(out, format.Render(result.Value, result.Found, selected))

	if result.Found && cfg.AnySinkEnabled() {
		dispatcher := sink.Build(ctx, cfg, log)
		defer dispatcher.Close()
		dispatcher.Dispatch(ctx, result.Value)
	}
	return nil
}
