package infra

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

type Network struct {
	pulumi.ResourceState

	vpc            *ec2.Vpc
	igw            *ec2.InternetGateway
	eigw           *ec2.EgressOnlyInternetGateway
	azs            []string
	publicSubnets  []*ec2.Subnet
	privateSubnets []*ec2.Subnet
	natEip         *ec2.Eip
	natGateway     *ec2.NatGateway

	publicRouteTable               *ec2.RouteTable
	publicInternetAccessRoute      *ec2.Route
	publicRouteTableAssociations   []*ec2.RouteTableAssociation
	privateRouteTable              *ec2.RouteTable
	privateInternetAccessRoute     *ec2.Route
	privateInternetAccessIpv6Route *ec2.Route
	privateRouteTableAssociations  []*ec2.RouteTableAssociation
}

// NewNetwork creates the VPC with one public and one private subnet per
// availability zone, and the gateways and route tables that connect them.
func NewNetwork(ctx *pulumi.Context, name string, vars Vars, opts ...pulumi.ResourceOption) (*Network, error) {
	network := &Network{}
	err := ctx.RegisterComponentResource(componentType("network", "Network"), name, network, opts...)
	if err != nil {
		return nil, err
	}
	opts = append(opts, pulumi.Parent(network))

	network.azs = availabilityZones(vars.Region)
	publicCidrs, privateCidrs, err := subnetCidrs(vars.VpcCidr, len(network.azs))
	if err != nil {
		return nil, fmt.Errorf("Error computing subnets: %w", err)
	}

	network.vpc, err = ec2.NewVpc(ctx, childName(name, "main"), &ec2.VpcArgs{
		AssignGeneratedIpv6CidrBlock: pulumi.Bool(true),
		CidrBlock:                    pulumi.String(vars.VpcCidr),
		EnableDnsHostnames:           pulumi.Bool(true),
		EnableDnsSupport:             pulumi.Bool(true),
		InstanceTenancy:              pulumi.String("default"),
		Tags:                         vars.tags("vpc"),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating vpc: %w", err)
	}

	for i, az := range network.azs {
		index := i
		ipv6Cidr := network.vpc.Ipv6CidrBlock.ApplyT(func(block string) (string, error) {
			return subnetCidr(block, ipv6SubnetNewBits, index)
		}).(pulumi.StringOutput)

		subnet, err := ec2.NewSubnet(ctx, childName(name, "public-subnet-"+az), &ec2.SubnetArgs{
			AssignIpv6AddressOnCreation: pulumi.Bool(true),
			AvailabilityZone:            pulumi.String(az),
			CidrBlock:                   pulumi.String(publicCidrs[i]),
			Ipv6CidrBlock:               ipv6Cidr,
			MapPublicIpOnLaunch:         pulumi.Bool(true),
			Tags:                        vars.tags("public-" + az),
			VpcId:                       network.vpc.ID(),
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("Error creating public subnet %s: %w", az, err)
		}
		network.publicSubnets = append(network.publicSubnets, subnet)
	}

	for i, az := range network.azs {
		subnet, err := ec2.NewSubnet(ctx, childName(name, "private-subnet-"+az), &ec2.SubnetArgs{
			AvailabilityZone: pulumi.String(az),
			CidrBlock:        pulumi.String(privateCidrs[i]),
			Tags:             vars.tags("private-" + az),
			VpcId:            network.vpc.ID(),
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("Error creating private subnet %s: %w", az, err)
		}
		network.privateSubnets = append(network.privateSubnets, subnet)
	}

	// Public routing
	network.igw, err = ec2.NewInternetGateway(ctx, childName(name, "igw"), &ec2.InternetGatewayArgs{
		VpcId: network.vpc.ID(),
		Tags:  vars.tags("igw"),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating internet gateway: %w", err)
	}

	network.publicRouteTable, err = ec2.NewRouteTable(ctx, childName(name, "public"), &ec2.RouteTableArgs{
		VpcId: network.vpc.ID(),
		Tags:  vars.tags("public-rtb"),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating public route table: %w", err)
	}

	network.publicInternetAccessRoute, err = ec2.NewRoute(ctx, childName(name, "public-internet-access"), &ec2.RouteArgs{
		DestinationCidrBlock: pulumi.String("0.0.0.0/0"),
		GatewayId:            network.igw.ID(),
		RouteTableId:         network.publicRouteTable.ID(),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating public route: %w", err)
	}

	network.publicRouteTableAssociations, err = associate(ctx, childName(name, "public-route-table-association"),
		network.azs, network.publicSubnets, network.publicRouteTable, opts...)
	if err != nil {
		return nil, err
	}

	// Private routing
	network.eigw, err = ec2.NewEgressOnlyInternetGateway(ctx, childName(name, "eigw"), &ec2.EgressOnlyInternetGatewayArgs{
		VpcId: network.vpc.ID(),
		Tags:  vars.tags("eigw"),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating egress-only gateway: %w", err)
	}

	network.natEip, err = ec2.NewEip(ctx, childName(name, "nat-eip"), &ec2.EipArgs{
		Domain: pulumi.String("vpc"),
		Tags:   vars.tags("nat-eip"),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating nat eip: %w", err)
	}

	network.natGateway, err = ec2.NewNatGateway(ctx, childName(name, "nat"), &ec2.NatGatewayArgs{
		AllocationId: network.natEip.ID(),
		SubnetId:     network.publicSubnets[0].ID(),
		Tags:         vars.tags("nat"),
	}, append(opts, pulumi.DependsOn([]pulumi.Resource{network.natEip, network.igw}))...)
	if err != nil {
		return nil, fmt.Errorf("Error creating nat gateway: %w", err)
	}

	network.privateRouteTable, err = ec2.NewRouteTable(ctx, childName(name, "private"), &ec2.RouteTableArgs{
		VpcId: network.vpc.ID(),
		Tags:  vars.tags("private-rtb"),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating private route table: %w", err)
	}

	network.privateInternetAccessRoute, err = ec2.NewRoute(ctx, childName(name, "private-internet-access"), &ec2.RouteArgs{
		DestinationCidrBlock: pulumi.String("0.0.0.0/0"),
		NatGatewayId:         network.natGateway.ID(),
		RouteTableId:         network.privateRouteTable.ID(),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating private route: %w", err)
	}

	network.privateInternetAccessIpv6Route, err = ec2.NewRoute(ctx, childName(name, "private-internet-access-ipv6"), &ec2.RouteArgs{
		DestinationIpv6CidrBlock: pulumi.String("::/0"),
		EgressOnlyGatewayId:      network.eigw.ID(),
		RouteTableId:             network.privateRouteTable.ID(),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating private ipv6 route: %w", err)
	}

	network.privateRouteTableAssociations, err = associate(ctx, childName(name, "private-route-table-association"),
		network.azs, network.privateSubnets, network.privateRouteTable, opts...)
	if err != nil {
		return nil, err
	}

	if err := ctx.RegisterResourceOutputs(network, pulumi.Map{
		"vpcId":            network.vpc.ID(),
		"publicSubnetIds":  subnetIds(network.publicSubnets),
		"privateSubnetIds": subnetIds(network.privateSubnets),
	}); err != nil {
		return nil, err
	}

	return network, nil
}

// associate binds each subnet to the route table, one association per zone.
func associate(ctx *pulumi.Context, prefix string, azs []string, subnets []*ec2.Subnet, table *ec2.RouteTable, opts ...pulumi.ResourceOption) ([]*ec2.RouteTableAssociation, error) {
	associations := make([]*ec2.RouteTableAssociation, 0, len(subnets))
	for i, subnet := range subnets {
		association, err := ec2.NewRouteTableAssociation(ctx, prefix+"-"+azs[i], &ec2.RouteTableAssociationArgs{
			SubnetId:     subnet.ID(),
			RouteTableId: table.ID(),
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("Error creating route table association %s: %w", azs[i], err)
		}
		associations = append(associations, association)
	}
	return associations, nil
}

func subnetIds(subnets []*ec2.Subnet) pulumi.StringArray {
	ids := make(pulumi.StringArray, 0, len(subnets))
	for _, subnet := range subnets {
		ids = append(ids, subnet.ID())
	}
	return ids
}
