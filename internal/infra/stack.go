package infra

import (
	"fmt"
	"sort"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// ClientServiceEndpointOutput is the only stack output.
const ClientServiceEndpointOutput = "client_service_endpoint"

// MyStack is the client service and its two upstreams (gold and silver)
// with everything they run on.
type MyStack struct {
	Vars Vars

	provider       *aws.Provider
	network        *Network
	securityGroups *SecurityGroups
	monitoringRole *EcsMonitoringIamTaskExecRole
	cluster        *EcsCluster

	clientAlb *Alb
	goldAlb   *Alb
	silverAlb *Alb

	database *Database

	clientTaskDefinition *EcsTaskDefinition
	goldTaskDefinition   *EcsTaskDefinition
	silverTaskDefinition *EcsTaskDefinition

	clientService *EcsService
	goldService   *EcsService
	silverService *EcsService
}

// Program is the Pulumi program: it reads the stack configuration, builds
// the stack and exports its outputs.
func Program(ctx *pulumi.Context) error {
	outputs, err := Build(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ctx.Export(k, outputs[k])
	}
	return nil
}

// Build creates the stack from the stack configuration and returns its
// outputs without exporting them.
func Build(ctx *pulumi.Context) (pulumi.Map, error) {
	vars, err := LoadVars(ctx)
	if err != nil {
		return nil, fmt.Errorf("Error loading configuration: %w", err)
	}
	stack, err := NewMyStack(ctx, vars)
	if err != nil {
		return nil, err
	}
	return stack.Outputs(), nil
}

func NewMyStack(ctx *pulumi.Context, vars Vars) (*MyStack, error) {
	var err error
	stack := &MyStack{Vars: vars}

	stack.provider, err = aws.NewProvider(ctx, "aws", &aws.ProviderArgs{
		Region: pulumi.String(vars.Region),
		DefaultTags: &aws.ProviderDefaultTagsArgs{
			Tags: pulumi.ToStringMap(vars.DefaultTags),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating aws provider: %w", err)
	}
	providers := pulumi.Providers(stack.provider)

	stack.network, err = NewNetwork(ctx, "network", vars, providers)
	if err != nil {
		return nil, err
	}
	privateSubnetIds := subnetIds(stack.network.privateSubnets)

	stack.securityGroups, err = NewSecurityGroups(ctx, "security", vars, stack.network.vpc.ID(), providers)
	if err != nil {
		return nil, err
	}

	stack.monitoringRole, err = NewEcsMonitoringIamTaskExecRole(ctx, "task-monitoring-role", EcsMonitoringIamTaskExecRoleArgs{
		Vars:     vars,
		Provider: stack.provider,
	}, providers)
	if err != nil {
		return nil, err
	}
	executionRoleArn := stack.monitoringRole.role.Arn

	stack.cluster, err = NewEcsCluster(ctx, "cluster", vars, providers)
	if err != nil {
		return nil, err
	}

	image, err := ServiceImage(ctx, vars)
	if err != nil {
		return nil, err
	}

	// Load balancers come first, the client task definition needs the
	// upstream DNS names.
	stack.clientAlb, err = NewClientAlb(ctx, "client-alb", AlbArgs{
		Vars:            vars,
		SubnetIds:       subnetIds(stack.network.publicSubnets),
		SecurityGroupId: stack.securityGroups.clientAlb.ID(),
		VpcId:           stack.network.vpc.ID(),
	}, providers)
	if err != nil {
		return nil, err
	}
	upstreamAlbArgs := AlbArgs{
		Vars:            vars,
		SubnetIds:       privateSubnetIds,
		SecurityGroupId: stack.securityGroups.upstreamServiceAlb.ID(),
		VpcId:           stack.network.vpc.ID(),
	}
	stack.goldAlb, err = NewUpstreamServiceAlb(ctx, "gold-alb", "gold", upstreamAlbArgs, providers)
	if err != nil {
		return nil, err
	}
	stack.silverAlb, err = NewUpstreamServiceAlb(ctx, "silver-alb", "silver", upstreamAlbArgs, providers)
	if err != nil {
		return nil, err
	}

	stack.database, err = NewDatabase(ctx, "database", DatabaseArgs{
		Vars:            vars,
		SubnetId:        stack.network.privateSubnets[0].ID(),
		SecurityGroupId: stack.securityGroups.database.ID(),
		NatGateway:      stack.network.natGateway,
		Provider:        stack.provider,
	}, providers)
	if err != nil {
		return nil, err
	}

	taskDefinitionArgs := TaskDefinitionArgs{
		Vars:             vars,
		Image:            image,
		ExecutionRoleArn: executionRoleArn,
	}

	// Client
	stack.clientTaskDefinition, err = NewEcsTaskDefinitionClient(ctx, "client-task-definition", taskDefinitionArgs,
		upstreamUris(stack.goldAlb.DnsName(), stack.silverAlb.DnsName()), providers)
	if err != nil {
		return nil, err
	}

	stack.clientService, err = NewClientEcsService(ctx, "client", ClientEcsServiceArgs{
		EcsClusterArn:           stack.cluster.cluster.Arn,
		ClientAlbTargetGroupArn: stack.clientAlb.TargetGroupArn(),
		ProjectTag:              "client",
		ClientSecurityGroupId:   stack.securityGroups.clientService.ID(),
		SubnetIds:               privateSubnetIds,
		ClientTaskDefinitionArn: stack.clientTaskDefinition.Arn(),
	}, providers)
	if err != nil {
		return nil, err
	}

	// Gold
	stack.goldTaskDefinition, err = NewEcsTaskDefinitionGold(ctx, "gold-task-definition", taskDefinitionArgs, providers)
	if err != nil {
		return nil, err
	}
	stack.goldService, err = NewEcsServiceUpstream(ctx, "gold", stack.upstreamServiceArgs(stack.goldTaskDefinition, stack.goldAlb), providers)
	if err != nil {
		return nil, err
	}

	// Silver
	stack.silverTaskDefinition, err = NewEcsTaskDefinitionSilver(ctx, "silver-task-definition", taskDefinitionArgs, providers)
	if err != nil {
		return nil, err
	}
	stack.silverService, err = NewEcsServiceUpstream(ctx, "silver", stack.upstreamServiceArgs(stack.silverTaskDefinition, stack.silverAlb), providers)
	if err != nil {
		return nil, err
	}

	if vars.SmokeTest {
		_, err = newSmokeTest(ctx, "client-smoke-test", stack.clientAlb.DnsName(),
			pulumi.DependsOn([]pulumi.Resource{stack.clientService}))
		if err != nil {
			return nil, err
		}
	}

	return stack, nil
}

func (s *MyStack) upstreamServiceArgs(taskDefinition *EcsTaskDefinition, alb *Alb) EcsServiceUpstreamArgs {
	return EcsServiceUpstreamArgs{
		Vars:            s.Vars,
		ClusterArn:      s.cluster.cluster.Arn,
		TaskDefinition:  taskDefinition,
		TargetGroupArn:  alb.TargetGroupArn(),
		SubnetIds:       subnetIds(s.network.privateSubnets),
		SecurityGroupId: s.securityGroups.upstreamService.ID(),
	}
}

// Outputs are the values published for consumers of the deployment.
func (s *MyStack) Outputs() pulumi.Map {
	return pulumi.Map{
		ClientServiceEndpointOutput: s.clientAlb.DnsName(),
	}
}
