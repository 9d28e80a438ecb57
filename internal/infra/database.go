package infra

import (
	"embed"
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ssm"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	ubuntuAmiParameter   = "/aws/service/canonical/ubuntu/server/18.04/stable/current/amd64/hvm/ebs-gp2/ami-id"
	databaseInstanceType = "t2.micro"
	databaseUserData     = "scripts/database.sh"
)

//go:embed scripts
var scripts embed.FS

type DatabaseArgs struct {
	Vars            Vars
	SubnetId        pulumi.StringInput
	SecurityGroupId pulumi.StringInput
	// NatGateway must exist before the instance boots, its user data
	// installs packages from the internet.
	NatGateway pulumi.Resource
	Provider   pulumi.ProviderResource
}

type Database struct {
	pulumi.ResourceState

	instance *ec2.Instance
}

func NewDatabase(ctx *pulumi.Context, name string, args DatabaseArgs, opts ...pulumi.ResourceOption) (*Database, error) {
	db := &Database{}
	err := ctx.RegisterComponentResource(componentType("ec2", "Database"), name, db, opts...)
	if err != nil {
		return nil, err
	}
	opts = append(opts, pulumi.Parent(db))

	ami, err := ssm.LookupParameter(ctx, &ssm.LookupParameterArgs{
		Name: ubuntuAmiParameter,
	}, invokeOptions(args.Provider)...)
	if err != nil {
		return nil, fmt.Errorf("Error looking up ubuntu ami: %w", err)
	}

	userData, err := scripts.ReadFile(databaseUserData)
	if err != nil {
		return nil, fmt.Errorf("Error reading user data: %w", err)
	}
	userDataHash, err := hashFile(scripts, databaseUserData)
	if err != nil {
		return nil, fmt.Errorf("Error hashing user data: %w", err)
	}

	tags := args.Vars.tags("database")
	tags["user-data-sha256"] = pulumi.String(userDataHash)

	if args.NatGateway != nil {
		opts = append(opts, pulumi.DependsOn([]pulumi.Resource{args.NatGateway}))
	}
	db.instance, err = ec2.NewInstance(ctx, childName(name, "instance"), &ec2.InstanceArgs{
		Ami:                 pulumi.String(ami.Value),
		InstanceType:        pulumi.String(databaseInstanceType),
		VpcSecurityGroupIds: pulumi.StringArray{args.SecurityGroupId},
		SubnetId:            args.SubnetId.ToStringOutput(),
		PrivateIp:           pulumi.String(args.Vars.DatabasePrivateIp),
		UserData:            pulumi.String(string(userData)),
		Tags:                tags,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating database instance: %w", err)
	}

	if err := ctx.RegisterResourceOutputs(db, pulumi.Map{
		"privateIp": db.instance.PrivateIp,
	}); err != nil {
		return nil, err
	}
	return db, nil
}
