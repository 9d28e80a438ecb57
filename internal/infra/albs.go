package infra

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lb"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// AlbArgs are the inputs shared by every load balancer triple.
type AlbArgs struct {
	Vars            Vars
	SubnetIds       pulumi.StringArrayInput
	SecurityGroupId pulumi.StringInput
	VpcId           pulumi.StringInput
}

// Alb is a load balancer, its single target group and the HTTP listener
// forwarding to it.
type Alb struct {
	pulumi.ResourceState

	lb          *lb.LoadBalancer
	targetGroup *lb.TargetGroup
	listener    *lb.Listener
}

// DnsName is the load balancer's DNS name.
func (a *Alb) DnsName() pulumi.StringOutput {
	return a.lb.DnsName
}

// TargetGroupArn is the ARN services register their tasks with.
func (a *Alb) TargetGroupArn() pulumi.StringOutput {
	return a.targetGroup.Arn
}

type albShape struct {
	namePrefix    string
	tagName       string
	internal      bool
	ipAddressType string
}

// NewClientAlb creates the internet-facing, dual-stack load balancer in front
// of the client service.
func NewClientAlb(ctx *pulumi.Context, name string, args AlbArgs, opts ...pulumi.ResourceOption) (*Alb, error) {
	return newAlb(ctx, "ClientAlb", name, args, albShape{
		namePrefix:    "cl-",
		tagName:       "client",
		ipAddressType: "dualstack",
	}, opts...)
}

// NewUpstreamServiceAlb creates an internal load balancer for an upstream
// service. The tag carries the component name, e.g. "gold" for "gold-alb".
func NewUpstreamServiceAlb(ctx *pulumi.Context, name string, service string, args AlbArgs, opts ...pulumi.ResourceOption) (*Alb, error) {
	return newAlb(ctx, "UpstreamServiceAlb", name, args, albShape{
		namePrefix: "s-",
		tagName:    service,
		internal:   true,
	}, opts...)
}

func newAlb(ctx *pulumi.Context, typ, name string, args AlbArgs, shape albShape, opts ...pulumi.ResourceOption) (*Alb, error) {
	alb := &Alb{}
	err := ctx.RegisterComponentResource(componentType("lb", typ), name, alb, opts...)
	if err != nil {
		return nil, err
	}
	opts = append(opts, pulumi.Parent(alb))

	lbArgs := &lb.LoadBalancerArgs{
		NamePrefix:       pulumi.String(shape.namePrefix),
		LoadBalancerType: pulumi.String("application"),
		Internal:         pulumi.Bool(shape.internal),
		SecurityGroups:   pulumi.StringArray{args.SecurityGroupId},
		Subnets:          args.SubnetIds,
		IdleTimeout:      pulumi.Int(60),
		Tags:             args.Vars.tags(shape.tagName + "-alb"),
	}
	if shape.ipAddressType != "" {
		lbArgs.IpAddressType = pulumi.String(shape.ipAddressType)
	}
	alb.lb, err = lb.NewLoadBalancer(ctx, childName(name, "lb"), lbArgs, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating load balancer: %w", err)
	}

	alb.targetGroup, err = lb.NewTargetGroup(ctx, childName(name, "targets"), &lb.TargetGroupArgs{
		NamePrefix:          pulumi.String(shape.namePrefix),
		Port:                pulumi.Int(servicePort),
		Protocol:            pulumi.String("HTTP"),
		VpcId:               args.VpcId.ToStringOutput(),
		DeregistrationDelay: pulumi.Int(30),
		TargetType:          pulumi.String("ip"),
		HealthCheck: &lb.TargetGroupHealthCheckArgs{
			Enabled:            pulumi.Bool(true),
			Path:               pulumi.String("/"),
			HealthyThreshold:   pulumi.Int(3),
			UnhealthyThreshold: pulumi.Int(3),
			Timeout:            pulumi.Int(30),
			Interval:           pulumi.Int(60),
			Protocol:           pulumi.String("HTTP"),
		},
		Tags: args.Vars.tags(shape.tagName + "-tg"),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating target group: %w", err)
	}

	alb.listener, err = lb.NewListener(ctx, childName(name, "http-80"), &lb.ListenerArgs{
		LoadBalancerArn: alb.lb.Arn,
		Port:            pulumi.Int(httpPort),
		Protocol:        pulumi.String("HTTP"),
		DefaultActions: lb.ListenerDefaultActionArray{
			lb.ListenerDefaultActionArgs{
				Type:           pulumi.String("forward"),
				TargetGroupArn: alb.targetGroup.Arn,
			},
		},
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating listener: %w", err)
	}

	if err := ctx.RegisterResourceOutputs(alb, pulumi.Map{
		"dnsName":        alb.lb.DnsName,
		"targetGroupArn": alb.targetGroup.Arn,
	}); err != nil {
		return nil, err
	}
	return alb, nil
}
