package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	hypercube "github.com/jacobson15p/Hypercube"
)

// cli carries the state shared by the subcommands of one invocation
type cli struct {
	logLevel string
	logger   zerolog.Logger
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{Out: w}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	return zerolog.New(consoleWriter).Level(level).With().Timestamp().Logger()
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "hcsim",
		Short: "Route and simulate flows on a hypercube interconnect.",
		Long: `hcsim computes dimension-order and all minimal routes on a hypercube, ` +
			`estimates link-contention throughput, and simulates sets of flows ` +
			`sharing link bandwidth until they complete.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(c.logLevel)
			if err != nil {
				return fmt.Errorf("log level %q: %w", c.logLevel, err)
			}
			c.logger = newLogger(cmd.ErrOrStderr(), level)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "info",
		"log level (trace, debug, info, warn, error, disabled)")

	rootCmd.AddCommand(
		newRouteCmd(c),
		newPathsCmd(c),
		newEdgesCmd(c),
		newRatesCmd(c),
		newPermCmd(c),
		newGenerateCmd(c),
		newSimulateCmd(c),
	)
	return rootCmd
}

// parseNodes converts command line arguments into node ids of cube
func parseNodes(cube *hypercube.Hypercube, args []string) ([]hypercube.Node, error) {
	nodes := make([]hypercube.Node, 0, len(args))
	for _, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("node %q is not an integer", arg)
		}
		n := hypercube.Node(v)
		if !cube.ValidNode(n) {
			return nil, fmt.Errorf("%w: %d not in [0,%d)", hypercube.ErrInvalidNode, n, cube.NodeCount())
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}
