package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eskila/jdoc/internal/collect"
	"github.com/eskila/jdoc/internal/config"
	"github.com/eskila/jdoc/internal/logging"
	"github.com/eskila/jdoc/internal/sensor"
	"github.com/eskila/jdoc/internal/sink"
)

func newCollectCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "collect [CONFIG]",
		Short: "Read every configured sensor once and append the readings",
		Long: `collect reads the moisture sensors listed in the config file, scales each raw
reading to a 0-100 percentage using the dry/wet calibration and appends one row
to the configured sink. Sensors that cannot be read are recorded as -1.`,
		Example: `  # Append a CSV row using config.json
  moisture collect config.json

  # Write to SQLite instead, overriding the config file
  moisture collect --config config.json --sink sqlite --sqlite-path readings.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if configPath != "" && configPath != args[0] {
					return fmt.Errorf("config given both as argument (%s) and --config (%s)", args[0], configPath)
				}
				configPath = args[0]
			}
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return runCollect(cmd, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the JSON config file")
	config.BindFlags(cmd.Flags())
	return cmd
}

func runCollect(cmd *cobra.Command, cfg *config.Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	out, err := sink.Open(cfg.Sink, cfg.SinkPath())
	if err != nil {
		return err
	}

	reader := sensor.New(cfg.ESPAddr, sensor.Options{
		Timeout: cfg.Timeout,
		Retries: cfg.Retries,
		Logger:  logger.Named("sensor"),
	})
	collector := collect.New(reader, cfg.Pins, cfg.Calibration(), collect.WithLogger(logger.Named("collect")))

	logger.Debug("collecting",
		zap.String("esp", cfg.ESPAddr),
		zap.Int("pins", len(cfg.Pins)),
		zap.String("sink", cfg.Sink))
	if _, err := collector.Run(cmd.Context(), out); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s sink: %w", cfg.Sink, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Data successfully written to %s.\n", cfg.SinkPath())
	return nil
}
