package infra

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecs"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

type EcsCluster struct {
	pulumi.ResourceState

	cluster *ecs.Cluster
}

func NewEcsCluster(ctx *pulumi.Context, name string, vars Vars, opts ...pulumi.ResourceOption) (*EcsCluster, error) {
	c := &EcsCluster{}
	err := ctx.RegisterComponentResource(componentType("ecs", "EcsCluster"), name, c, opts...)
	if err != nil {
		return nil, err
	}
	opts = append(opts, pulumi.Parent(c))

	c.cluster, err = ecs.NewCluster(ctx, childName(name, "cluster"), &ecs.ClusterArgs{
		Name: pulumi.String(vars.NameTagPrefix() + "-cluster"),
		Settings: ecs.ClusterSettingArray{
			ecs.ClusterSettingArgs{
				Name:  pulumi.String("containerInsights"),
				Value: pulumi.String("enabled"),
			},
		},
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating cluster: %w", err)
	}

	if err := ctx.RegisterResourceOutputs(c, pulumi.Map{"clusterArn": c.cluster.Arn}); err != nil {
		return nil, err
	}
	return c, nil
}
