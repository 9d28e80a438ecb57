package infra

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecs"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// ClientEcsServiceArgs are passed through to the service untransformed.
type ClientEcsServiceArgs struct {
	EcsClusterArn           pulumi.StringInput
	ClientAlbTargetGroupArn pulumi.StringInput
	ProjectTag              string
	ClientSecurityGroupId   pulumi.StringInput
	SubnetIds               pulumi.StringArrayInput
	ClientTaskDefinitionArn pulumi.StringInput
}

func (a ClientEcsServiceArgs) validate() error {
	switch {
	case a.EcsClusterArn == nil:
		return fmt.Errorf("ecsClusterArn is required")
	case a.ClientAlbTargetGroupArn == nil:
		return fmt.Errorf("clientAlbTargetGroupArn is required")
	case a.ProjectTag == "":
		return fmt.Errorf("projectTag is required")
	case a.ClientSecurityGroupId == nil:
		return fmt.Errorf("clientSecurityGroupId is required")
	case a.SubnetIds == nil:
		return fmt.Errorf("subnetIds is required")
	case a.ClientTaskDefinitionArn == nil:
		return fmt.Errorf("clientTaskDefinitionArn is required")
	}
	return nil
}

type EcsService struct {
	pulumi.ResourceState

	service *ecs.Service
}

// NewClientEcsService runs the client container behind the client load
// balancer's target group.
func NewClientEcsService(ctx *pulumi.Context, name string, args ClientEcsServiceArgs, opts ...pulumi.ResourceOption) (*EcsService, error) {
	if err := args.validate(); err != nil {
		return nil, fmt.Errorf("Error creating client service: %w", err)
	}
	return newEcsService(ctx, "ClientEcsService", name, serviceBinding{
		serviceName:       args.ProjectTag + "-client",
		containerName:     "client",
		clusterArn:        args.EcsClusterArn,
		taskDefinitionArn: args.ClientTaskDefinitionArn,
		targetGroupArn:    args.ClientAlbTargetGroupArn,
		subnetIds:         args.SubnetIds,
		securityGroupId:   args.ClientSecurityGroupId,
	}, opts...)
}

type EcsServiceUpstreamArgs struct {
	Vars            Vars
	ClusterArn      pulumi.StringInput
	TaskDefinition  *EcsTaskDefinition
	TargetGroupArn  pulumi.StringInput
	SubnetIds       pulumi.StringArrayInput
	SecurityGroupId pulumi.StringInput
}

// NewEcsServiceUpstream runs an upstream service. The service and its load
// balancer container binding are both named after the task's container.
func NewEcsServiceUpstream(ctx *pulumi.Context, name string, args EcsServiceUpstreamArgs, opts ...pulumi.ResourceOption) (*EcsService, error) {
	if args.TaskDefinition == nil {
		return nil, fmt.Errorf("Error creating %s service: task definition is required", name)
	}
	container := args.TaskDefinition.ContainerName()
	return newEcsService(ctx, "EcsServiceUpstream", name, serviceBinding{
		serviceName:       fmt.Sprintf("%s-%s", args.Vars.NameTagPrefix(), container),
		containerName:     container,
		clusterArn:        args.ClusterArn,
		taskDefinitionArn: args.TaskDefinition.Arn(),
		targetGroupArn:    args.TargetGroupArn,
		subnetIds:         args.SubnetIds,
		securityGroupId:   args.SecurityGroupId,
	}, opts...)
}

type serviceBinding struct {
	serviceName       string
	containerName     string
	clusterArn        pulumi.StringInput
	taskDefinitionArn pulumi.StringInput
	targetGroupArn    pulumi.StringInput
	subnetIds         pulumi.StringArrayInput
	securityGroupId   pulumi.StringInput
}

func newEcsService(ctx *pulumi.Context, typ, name string, b serviceBinding, opts ...pulumi.ResourceOption) (*EcsService, error) {
	svc := &EcsService{}
	err := ctx.RegisterComponentResource(componentType("ecs", typ), name, svc, opts...)
	if err != nil {
		return nil, err
	}
	opts = append(opts, pulumi.Parent(svc))

	svc.service, err = ecs.NewService(ctx, childName(name, "service"), &ecs.ServiceArgs{
		Name:           pulumi.String(b.serviceName),
		Cluster:        b.clusterArn.ToStringOutput(),
		TaskDefinition: b.taskDefinitionArn.ToStringOutput(),
		DesiredCount:   pulumi.IntPtr(1),
		LaunchType:     pulumi.String("FARGATE"),
		LoadBalancers: ecs.ServiceLoadBalancerArray{
			ecs.ServiceLoadBalancerArgs{
				TargetGroupArn: b.targetGroupArn.ToStringOutput(),
				ContainerName:  pulumi.String(b.containerName),
				ContainerPort:  pulumi.Int(servicePort),
			},
		},
		NetworkConfiguration: &ecs.ServiceNetworkConfigurationArgs{
			Subnets:        b.subnetIds,
			AssignPublicIp: pulumi.BoolPtr(false),
			SecurityGroups: pulumi.StringArray{b.securityGroupId},
		},
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating %s service: %w", b.serviceName, err)
	}

	if err := ctx.RegisterResourceOutputs(svc, pulumi.Map{
		"name": svc.service.Name,
	}); err != nil {
		return nil, err
	}
	return svc, nil
}
