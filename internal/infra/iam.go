package infra

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const policyVersion = "2012-10-17"

// monitoringActions is the complete set of permissions granted to the
// monitoring task execution role. Adding or removing one changes the role's
// contract.
var monitoringActions = []string{
	"ecs:ListClusters",
	"ecs:ListContainerInstances",
	"ecs:DescribeContainerInstances",
	"logs:DescribeLogStreams",
}

type EcsMonitoringIamTaskExecRoleArgs struct {
	Vars     Vars
	Provider pulumi.ProviderResource
}

type EcsMonitoringIamTaskExecRole struct {
	pulumi.ResourceState

	role       *iam.Role
	policy     *iam.Policy
	attachment *iam.RolePolicyAttachment
}

func NewEcsMonitoringIamTaskExecRole(ctx *pulumi.Context, name string, args EcsMonitoringIamTaskExecRoleArgs, opts ...pulumi.ResourceOption) (*EcsMonitoringIamTaskExecRole, error) {
	execRole := &EcsMonitoringIamTaskExecRole{}
	err := ctx.RegisterComponentResource(componentType("iam", "EcsMonitoringIamTaskExecRole"), name, execRole, opts...)
	if err != nil {
		return nil, err
	}
	opts = append(opts, pulumi.Parent(execRole))
	prefix := args.Vars.NameTagPrefix()

	assumeRolePolicy, err := iam.GetPolicyDocument(ctx, &iam.GetPolicyDocumentArgs{
		Version: pulumi.StringRef(policyVersion),
		Statements: []iam.GetPolicyDocumentStatement{
			{
				Effect:  pulumi.StringRef("Allow"),
				Actions: []string{"sts:AssumeRole"},
				Principals: []iam.GetPolicyDocumentStatementPrincipal{
					{Type: "Service", Identifiers: []string{"ecs-tasks.amazonaws.com"}},
				},
			},
		},
	}, invokeOptions(args.Provider)...)
	if err != nil {
		return nil, fmt.Errorf("Error creating assumeRolePolicy: %w", err)
	}

	permissions, err := iam.GetPolicyDocument(ctx, &iam.GetPolicyDocumentArgs{
		Version: pulumi.StringRef(policyVersion),
		Statements: []iam.GetPolicyDocumentStatement{
			{
				Effect:    pulumi.StringRef("Allow"),
				Actions:   monitoringActions,
				Resources: []string{"*"},
			},
		},
	}, invokeOptions(args.Provider)...)
	if err != nil {
		return nil, fmt.Errorf("Error creating monitoring permissions: %w", err)
	}

	execRole.role, err = iam.NewRole(ctx, childName(name, "monitoring-task-exec-role"), &iam.RoleArgs{
		NamePrefix:       pulumi.String(prefix + "-te-role"),
		Description:      pulumi.String("Task execution role for monitoring with ECS Task definitions"),
		AssumeRolePolicy: pulumi.String(assumeRolePolicy.Json),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating execution role: %w", err)
	}

	execRole.policy, err = iam.NewPolicy(ctx, childName(name, "monitoring-permissions-attachment"), &iam.PolicyArgs{
		Name:   pulumi.String(prefix + "-monitoring-policy"),
		Policy: pulumi.String(permissions.Json),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating monitoring policy: %w", err)
	}

	if args.Vars.AttachMonitoringPolicy {
		execRole.attachment, err = iam.NewRolePolicyAttachment(ctx, childName(name, "monitoring-policy-attachment"), &iam.RolePolicyAttachmentArgs{
			Role:      execRole.role.Name,
			PolicyArn: execRole.policy.Arn,
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("Error attaching monitoring policy: %w", err)
		}
	} else {
		_ = ctx.Log.Warn("monitoring policy is not attached to the task execution role", &pulumi.LogArgs{Resource: execRole})
	}

	if err := ctx.RegisterResourceOutputs(execRole, pulumi.Map{
		"roleArn": execRole.role.Arn,
	}); err != nil {
		return nil, err
	}
	return execRole, nil
}
