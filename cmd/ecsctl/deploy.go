package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pulumi/pulumi/sdk/v3/go/auto"
	"github.com/pulumi/pulumi/sdk/v3/go/common/apitype"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ecs-microservices/internal/deploy"
	"ecs-microservices/internal/infra"
)

func newDeployer(flags stackFlags) (*deploy.Deployer, error) {
	cfg, err := flags.configMap()
	if err != nil {
		return nil, err
	}
	// aws:region is set through the reference
	delete(cfg, "aws:region")
	return &deploy.Deployer{
		Ref:     deploy.ReferenceFromEnv(infra.ProjectName, flags.stack, flags.region),
		Program: infra.Program,
		Config:  cfg,
		Logger:  zap.L(),
	}, nil
}

func newPreviewCmd() *cobra.Command {
	var flags stackFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview the changes an update would make",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeployer(flags)
			if err != nil {
				return err
			}
			res, err := d.Preview(cmd.Context())
			if err != nil {
				return err
			}
			ops := make([]string, 0, len(res.ChangeSummary))
			for op := range res.ChangeSummary {
				ops = append(ops, string(op))
			}
			sort.Strings(ops)
			for _, op := range ops {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", op, res.ChangeSummary[apitype.OpType(op)])
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newUpCmd() *cobra.Command {
	var flags stackFlags
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Create or update the stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeployer(flags)
			if err != nil {
				return err
			}
			outputs, err := d.Up(cmd.Context())
			if err != nil {
				return err
			}
			return printOutputs(cmd, outputs)
		},
	}
	flags.register(cmd)
	return cmd
}

func newDestroyCmd() *cobra.Command {
	var flags stackFlags
	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete every resource of the stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeployer(flags)
			if err != nil {
				return err
			}
			return d.Destroy(cmd.Context())
		},
	}
	flags.register(cmd)
	return cmd
}

func newOutputsCmd() *cobra.Command {
	var flags stackFlags
	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "Print the stack outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeployer(flags)
			if err != nil {
				return err
			}
			outputs, err := d.Outputs(cmd.Context())
			if err != nil {
				return err
			}
			return printOutputs(cmd, outputs)
		},
	}
	flags.register(cmd)
	return cmd
}

func printOutputs(cmd *cobra.Command, outputs auto.OutputMap) error {
	values := make(map[string]interface{}, len(outputs))
	for k, v := range outputs {
		if v.Secret {
			values[k] = "[secret]"
			continue
		}
		values[k] = v.Value
	}
	b, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
