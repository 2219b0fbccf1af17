package main

import (
	"fmt"

	"github.com/spf13/cobra"

	hypercube "github.com/jacobson15p/Hypercube"
)

func newRouteCmd(c *cli) *cobra.Command {
	var dim int

	cmd := &cobra.Command{
		Use:   "route SRC DST",
		Short: "Print the dimension-order route between two nodes.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cube, err := hypercube.NewHypercube(dim)
			if err != nil {
				return err
			}
			nodes, err := parseNodes(cube, args)
			if err != nil {
				return err
			}

			route, err := hypercube.NewRouter(cube).ShortestPath(nodes[0], nodes[1])
			if err != nil {
				return err
			}
			c.logger.Debug().Int("hops", route.Hops()).Msg("dimension-order route")
			fmt.Fprintln(cmd.OutOrStdout(), route)
			return nil
		},
	}
	cmd.Flags().IntVarP(&dim, "dim", "d", 5, "degree of the hypercube")
	return cmd
}

func newPathsCmd(c *cli) *cobra.Command {
	var dim int

	cmd := &cobra.Command{
		Use:   "paths SRC DST",
		Short: "Print every minimal route between two nodes.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cube, err := hypercube.NewHypercube(dim)
			if err != nil {
				return err
			}
			nodes, err := parseNodes(cube, args)
			if err != nil {
				return err
			}

			paths, err := hypercube.NewRouter(cube).AllShortestPaths(nodes[0], nodes[1])
			if err != nil {
				return err
			}
			c.logger.Debug().Int("count", len(paths)).Msg("minimal routes")
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&dim, "dim", "d", 5, "degree of the hypercube")
	return cmd
}

func newEdgesCmd(c *cli) *cobra.Command {
	var dim int
	var directed bool

	cmd := &cobra.Command{
		Use:   "edges",
		Short: "List the edges of the hypercube.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cube, err := hypercube.NewHypercube(dim)
			if err != nil {
				return err
			}
			edges := cube.Edges()
			c.logger.Debug().Int("nodes", cube.NodeCount()).Int("edges", len(edges)).Msg("hypercube")
			out := cmd.OutOrStdout()
			for _, e := range edges {
				fmt.Fprintln(out, e)
				if directed {
					fmt.Fprintln(out, hypercube.Edge{A: e.B, B: e.A})
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&dim, "dim", "d", 3, "degree of the hypercube")
	cmd.Flags().BoolVar(&directed, "directed", false, "list each edge in both directions")
	return cmd
}

func newRatesCmd(c *cli) *cobra.Command {
	var dim int
	var bw float64

	cmd := &cobra.Command{
		Use:   "rates SRC DST [SRC DST ...]",
		Short: "Estimate the throughput of concurrent dimension-order routes.",
		Long: `rates routes every SRC DST pair along its dimension-order path, prints each ` +
			`path with the rate it gets when all of them share the links, and then the ` +
			`bottleneck throughput of a single flow spread over all of the paths.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("want pairs of nodes, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cube, err := hypercube.NewHypercube(dim)
			if err != nil {
				return err
			}
			nodes, err := parseNodes(cube, args)
			if err != nil {
				return err
			}

			rtr := hypercube.NewRouter(cube)
			paths := make([]hypercube.Path, 0, len(nodes)/2)
			for i := 0; i < len(nodes); i += 2 {
				p, err := rtr.ShortestPath(nodes[i], nodes[i+1])
				if err != nil {
					return err
				}
				paths = append(paths, p)
			}

			rates, err := hypercube.EstimateRates(paths, bw)
			if err != nil {
				return err
			}
			total, err := hypercube.BottleneckEstimate(paths, bw)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, p := range paths {
				fmt.Fprintf(out, "%s %g\n", p, rates[i])
			}
			fmt.Fprintf(out, "bottleneck %g\n", total)
			c.logger.Debug().Int("paths", len(paths)).Float64("bandwidth", bw).Msg("rates estimated")
			return nil
		},
	}
	cmd.Flags().IntVarP(&dim, "dim", "d", 5, "degree of the hypercube")
	cmd.Flags().Float64Var(&bw, "bw", 1e9, "bandwidth of every link")
	return cmd
}
