package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ecs-microservices/internal/infra"
	"ecs-microservices/internal/synth"
)

func newSynthCmd() *cobra.Command {
	var (
		flags  stackFlags
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Print every resource the program declares",
		Long: `Run the program against an in-memory engine and print the resources it
declares, keyed by type and logical name, with their inputs, dependencies,
data source calls and stack outputs. No credentials are needed and the
output is identical across runs.

Examples:
    ecsctl synth
    ecsctl synth -f yaml -o plan.yaml
    ecsctl synth -c vpcCidr=10.0.0.0/16 -c databasePrivateIp=10.0.48.10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := runSynth(flags)
			if err != nil {
				return err
			}
			b, err := plan.Marshal(format)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return err
			}
			zap.S().Infof("Wrote %d resources to %s", len(plan.Order), out)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func runSynth(flags stackFlags) (*synth.Plan, error) {
	cfg, err := flags.configMap()
	if err != nil {
		return nil, err
	}
	zap.S().Debugf("Synthesizing stack %s", flags.stack)
	return synth.Synth(infra.Build, synth.Options{
		Project: infra.ProjectName,
		Stack:   flags.stack,
		Config:  cfg,
	})
}
