package infra

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	httpPort     = 80
	servicePort  = 9090
	databasePort = 27017
)

type SecurityGroups struct {
	pulumi.ResourceState

	clientAlb          *ec2.SecurityGroup
	clientService      *ec2.SecurityGroup
	upstreamServiceAlb *ec2.SecurityGroup
	upstreamService    *ec2.SecurityGroup
	database           *ec2.SecurityGroup
}

// NewSecurityGroups creates one security group per tier, all scoped to vpcId.
// Groups never reference each other; ingress is expressed as CIDR ranges.
func NewSecurityGroups(ctx *pulumi.Context, name string, vars Vars, vpcId pulumi.StringInput, opts ...pulumi.ResourceOption) (*SecurityGroups, error) {
	groups := &SecurityGroups{}
	err := ctx.RegisterComponentResource(componentType("security", "SecurityGroups"), name, groups, opts...)
	if err != nil {
		return nil, err
	}
	opts = append(opts, pulumi.Parent(groups))

	newGroup := func(child, description string, ingress ec2.SecurityGroupIngressArray) (*ec2.SecurityGroup, error) {
		sg, err := ec2.NewSecurityGroup(ctx, childName(name, child), &ec2.SecurityGroupArgs{
			Description:         pulumi.String(description),
			VpcId:               vpcId.ToStringOutput(),
			Ingress:             ingress,
			Egress:              egressAll(),
			RevokeRulesOnDelete: pulumi.Bool(true),
			Tags:                vars.tags(child + "-sg"),
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("Error creating %s security group: %w", child, err)
		}
		return sg, nil
	}

	groups.clientAlb, err = newGroup("client-alb", "Client load balancer",
		ingressFromAnywhere(httpPort))
	if err != nil {
		return nil, err
	}
	groups.clientService, err = newGroup("client-service", "Client service tasks",
		ingressFromCidrs(servicePort, vars.VpcCidr))
	if err != nil {
		return nil, err
	}
	groups.upstreamServiceAlb, err = newGroup("upstream-service-alb", "Internal upstream load balancers",
		ingressFromCidrs(httpPort, vars.VpcCidr))
	if err != nil {
		return nil, err
	}
	groups.upstreamService, err = newGroup("upstream-service", "Upstream service tasks",
		ingressFromCidrs(servicePort, vars.VpcCidr))
	if err != nil {
		return nil, err
	}
	groups.database, err = newGroup("database", "Database instance",
		ingressFromCidrs(databasePort, vars.VpcCidr))
	if err != nil {
		return nil, err
	}

	if err := ctx.RegisterResourceOutputs(groups, pulumi.Map{}); err != nil {
		return nil, err
	}
	return groups, nil
}

func egressAll() ec2.SecurityGroupEgressArray {
	return ec2.SecurityGroupEgressArray{
		ec2.SecurityGroupEgressArgs{
			CidrBlocks:     pulumi.ToStringArray([]string{"0.0.0.0/0"}),
			Ipv6CidrBlocks: pulumi.ToStringArray([]string{"::/0"}),
			Description:    pulumi.String("Egress all"),
			Protocol:       pulumi.String("-1"),
			FromPort:       pulumi.Int(0),
			ToPort:         pulumi.Int(0),
		},
	}
}

func ingressFromCidrs(port int, cidrs ...string) ec2.SecurityGroupIngressArray {
	return ec2.SecurityGroupIngressArray{
		ec2.SecurityGroupIngressArgs{
			FromPort:   pulumi.Int(port),
			ToPort:     pulumi.Int(port),
			Protocol:   pulumi.String("tcp"),
			CidrBlocks: pulumi.ToStringArray(cidrs),
		},
	}
}

func ingressFromAnywhere(port int) ec2.SecurityGroupIngressArray {
	return ec2.SecurityGroupIngressArray{
		ec2.SecurityGroupIngressArgs{
			FromPort:       pulumi.Int(port),
			ToPort:         pulumi.Int(port),
			Protocol:       pulumi.String("tcp"),
			CidrBlocks:     pulumi.ToStringArray([]string{"0.0.0.0/0"}),
			Ipv6CidrBlocks: pulumi.ToStringArray([]string{"::/0"}),
		},
	}
}
