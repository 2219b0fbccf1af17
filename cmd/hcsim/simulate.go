package main

import (
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	hypercube "github.com/jacobson15p/Hypercube"
)

func newSimulateCmd(c *cli) *cobra.Command {
	var configFile string
	xd := hypercube.CreateExperimentDesc("hcsim", 5, 1.0, "")

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a set of flows sharing the links of a hypercube.",
		Long: `simulate loads flow records (src dst size start per line, or a yaml/json ` +
			`flow list), runs them to completion, and writes one line per flow with ` +
			`its completion tick appended.  An experiment file given with --config ` +
			`supplies defaults that the other flags override.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := xd
			if configFile != "" {
				loaded, err := hypercube.LoadExperimentDesc(configFile)
				if err != nil {
					return err
				}
				overrideFromFlags(cmd, loaded, xd)
				desc = loaded
			}

			logger := c.logger
			if desc.LogLevel != "" && !cmd.Flags().Changed("log-level") {
				level, err := zerolog.ParseLevel(desc.LogLevel)
				if err != nil {
					return err
				}
				logger = logger.Level(level)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			atexit.Register(stop)
			defer stop()

			var sinks []hypercube.ResultSink
			if desc.ResultsFile == "" {
				sinks = append(sinks, hypercube.NewTextResultSink(cmd.OutOrStdout()))
			}

			outcome, err := hypercube.RunExperiment(ctx, desc, logger, sinks...)
			if err != nil {
				return err
			}
			logger.Info().Str("run", outcome.RunID).Int("makespan", outcome.Makespan).
				Bool("trace", outcome.TraceWritten).Msg("done")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "experiment description (.yaml, .yml or .json)")
	flags.StringVar(&xd.Name, "name", xd.Name, "experiment name")
	flags.IntVarP(&xd.Dimension, "dim", "d", xd.Dimension, "degree of the hypercube")
	flags.Float64Var(&xd.LinkBandwidth, "bw", xd.LinkBandwidth, "bandwidth of every link, in size units per tick")
	flags.StringVarP(&xd.FlowFile, "flows", "f", "", "flow list to simulate")
	flags.StringVarP(&xd.ResultsFile, "out", "o", "", "file for the results (default stdout)")
	flags.StringVar(&xd.ResultsDB, "db", "", "SQLite database to add the results to")
	flags.StringVar(&xd.TraceFile, "trace", "", "file for the run trace (.yaml, .yml or .json)")
	flags.IntVar(&xd.MaxTicks, "max-ticks", 0, "abort the run at this tick (0 means no limit)")
	return cmd
}

// overrideFromFlags copies into loaded the values of the flags set on the command line
func overrideFromFlags(cmd *cobra.Command, loaded, flagged *hypercube.ExperimentDesc) {
	flags := cmd.Flags()
	if flags.Changed("name") {
		loaded.Name = flagged.Name
	}
	if flags.Changed("dim") {
		loaded.Dimension = flagged.Dimension
	}
	if flags.Changed("bw") {
		loaded.LinkBandwidth = flagged.LinkBandwidth
	}
	if flags.Changed("flows") {
		loaded.FlowFile = flagged.FlowFile
	}
	if flags.Changed("out") {
		loaded.ResultsFile = flagged.ResultsFile
	}
	if flags.Changed("db") {
		loaded.ResultsDB = flagged.ResultsDB
	}
	if flags.Changed("trace") {
		loaded.TraceFile = flagged.TraceFile
	}
	if flags.Changed("max-ticks") {
		loaded.MaxTicks = flagged.MaxTicks
	}
	if loaded.Name == "" {
		loaded.Name = cmd.Root().Name()
	}
}
