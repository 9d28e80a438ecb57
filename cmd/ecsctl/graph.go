package main

import (
	"github.com/spf13/cobra"

	"ecs-microservices/internal/synth"
)

func newGraphCmd() *cobra.Command {
	var (
		flags      stackFlags
		format     string
		components bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw the resource dependency graph",
		Long: `Generate a DOT or Mermaid graph of the resources the program declares.

Examples:
    ecsctl graph | dot -Tpng -o deps.png
    ecsctl graph -f mermaid
    ecsctl graph --components      # include component resources`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := runSynth(flags)
			if err != nil {
				return err
			}
			return plan.WriteGraph(cmd.OutOrStdout(), synth.GraphOptions{
				Format:     synth.GraphFormat(format),
				Components: components,
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVar(&components, "components", false, "Include component resources and parent edges")
	return cmd
}
