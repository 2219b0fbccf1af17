package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	hypercube "github.com/jacobson15p/Hypercube"
)

func newPermCmd(c *cli) *cobra.Command {
	var stream string
	var skip int

	cmd := &cobra.Command{
		Use:   "perm ITEM...",
		Short: "Print a random permutation of the given items.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rng := hypercube.NewRandomSource(stream, skip)
			shuffled := hypercube.RandPerm(args, rng)
			c.logger.Debug().Str("stream", stream).Int("skip", skip).Msg("permuted")
			fmt.Fprintf(cmd.OutOrStdout(), "(%s)\n", strings.Join(shuffled, ","))
			return nil
		},
	}
	cmd.Flags().StringVar(&stream, "stream", "perm", "name of the random number stream")
	cmd.Flags().IntVar(&skip, "skip", 0, "number of samples to discard from the stream first")
	return cmd
}

func newGenerateCmd(c *cli) *cobra.Command {
	var dim, size, start, skip int
	var stream, out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a random permutation traffic pattern as a flow list.",
		Long: `generate draws a random permutation of the nodes and writes one flow per ` +
			`node, from the node to its image.  The output is text unless --out names a ` +
			`.yaml, .yml or .json file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cube, err := hypercube.NewHypercube(dim)
			if err != nil {
				return err
			}
			flows := hypercube.PermutationTraffic(cube, hypercube.NewRandomSource(stream, skip), size, start)
			if err := hypercube.ValidateFlows(cube, flows); err != nil {
				return err
			}
			c.logger.Info().Int("flows", len(flows)).Str("stream", stream).Msg("generated permutation traffic")

			if out == "" {
				return hypercube.WriteFlows(cmd.OutOrStdout(), flows)
			}
			fl := hypercube.CreateFlowList("permutation-" + strconv.Itoa(dim))
			fl.Flows = flows
			if err := fl.WriteToFile(out); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d flows to %s\n", len(flows), out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&dim, "dim", "d", 5, "degree of the hypercube")
	cmd.Flags().IntVar(&size, "size", 1000, "size of every flow")
	cmd.Flags().IntVar(&start, "start", 0, "start tick of every flow")
	cmd.Flags().StringVar(&stream, "stream", "traffic", "name of the random number stream")
	cmd.Flags().IntVar(&skip, "skip", 0, "number of samples to discard from the stream first")
	cmd.Flags().StringVarP(&out, "out", "o", "", "file to write the flow list to (default stdout)")
	return cmd
}
