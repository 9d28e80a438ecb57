package infra

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecs"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

var errMissingExecutionRole = errors.New("executionRoleArn is required")

type TaskDefinitionArgs struct {
	Vars             Vars
	Image            string
	ExecutionRoleArn pulumi.StringInput
}

type EcsTaskDefinition struct {
	pulumi.ResourceState

	def           *ecs.TaskDefinition
	containerName string
}

func (t *EcsTaskDefinition) Arn() pulumi.StringOutput {
	return t.def.Arn
}

// ContainerName is the name of the task's only container. Services bind
// their load balancer to it.
func (t *EcsTaskDefinition) ContainerName() string {
	return t.containerName
}

// NewEcsTaskDefinitionClient creates the client task. upstreamUris is the
// comma separated list of upstream URLs the client fans out to.
func NewEcsTaskDefinitionClient(ctx *pulumi.Context, name string, args TaskDefinitionArgs, upstreamUris pulumi.StringInput, opts ...pulumi.ResourceOption) (*EcsTaskDefinition, error) {
	return newTaskDefinition(ctx, "EcsTaskDefinitionClient", name, args, container{
		name:         "client",
		message:      "Hello World from the client!",
		upstreamUris: upstreamUris,
	}, opts...)
}

func NewEcsTaskDefinitionGold(ctx *pulumi.Context, name string, args TaskDefinitionArgs, opts ...pulumi.ResourceOption) (*EcsTaskDefinition, error) {
	return newTaskDefinition(ctx, "EcsTaskDefinitionGold", name, args, container{
		name:         "gold",
		message:      "Hello World from the gold service!",
		upstreamUris: databaseUri(args.Vars),
	}, opts...)
}

func NewEcsTaskDefinitionSilver(ctx *pulumi.Context, name string, args TaskDefinitionArgs, opts ...pulumi.ResourceOption) (*EcsTaskDefinition, error) {
	return newTaskDefinition(ctx, "EcsTaskDefinitionSilver", name, args, container{
		name:         "silver",
		message:      "Hello World from the silver service!",
		upstreamUris: databaseUri(args.Vars),
	}, opts...)
}

type container struct {
	name         string
	message      string
	upstreamUris pulumi.StringInput
}

func databaseUri(vars Vars) pulumi.StringInput {
	return pulumi.String(fmt.Sprintf("http://%s:%d", vars.DatabasePrivateIp, databasePort))
}

// upstreamUris joins the load balancer DNS names into the client's
// UPSTREAM_URIS value.
func upstreamUris(dnsNames ...pulumi.StringOutput) pulumi.StringOutput {
	names := make([]interface{}, 0, len(dnsNames))
	for _, name := range dnsNames {
		names = append(names, name)
	}
	return pulumi.All(names...).ApplyT(func(resolved []interface{}) string {
		uris := make([]string, 0, len(resolved))
		for _, name := range resolved {
			uris = append(uris, "http://"+name.(string))
		}
		return strings.Join(uris, ",")
	}).(pulumi.StringOutput)
}

func newTaskDefinition(ctx *pulumi.Context, typ, name string, args TaskDefinitionArgs, c container, opts ...pulumi.ResourceOption) (*EcsTaskDefinition, error) {
	if args.ExecutionRoleArn == nil {
		return nil, fmt.Errorf("Error creating %s task definition: %w", c.name, errMissingExecutionRole)
	}

	taskDef := &EcsTaskDefinition{containerName: c.name}
	err := ctx.RegisterComponentResource(componentType("ecs", typ), name, taskDef, opts...)
	if err != nil {
		return nil, err
	}
	opts = append(opts, pulumi.Parent(taskDef))

	containerDefs := pulumi.JSONMarshal([]interface{}{
		map[string]interface{}{
			"name":      c.name,
			"image":     args.Image,
			"cpu":       0,
			"essential": true,
			"portMappings": []map[string]interface{}{
				{
					"containerPort": servicePort,
					"hostPort":      servicePort,
					"protocol":      "tcp",
				},
			},
			"environment": []map[string]interface{}{
				{"name": "NAME", "value": c.name},
				{"name": "MESSAGE", "value": c.message},
				{"name": "UPSTREAM_URIS", "value": c.upstreamUris},
			},
		},
	})

	executionRoleArn := args.ExecutionRoleArn.ToStringOutput().ApplyT(func(arn string) (string, error) {
		if arn == "" {
			return "", errMissingExecutionRole
		}
		return arn, nil
	}).(pulumi.StringOutput)

	taskDef.def, err = ecs.NewTaskDefinition(ctx, childName(name, "def"), &ecs.TaskDefinitionArgs{
		ContainerDefinitions:    containerDefs,
		Family:                  pulumi.String(fmt.Sprintf("%s-%s", args.Vars.NameTagPrefix(), c.name)),
		Cpu:                     pulumi.String("256"),
		Memory:                  pulumi.String("512"),
		NetworkMode:             pulumi.String("awsvpc"),
		RequiresCompatibilities: pulumi.ToStringArray([]string{"FARGATE"}),
		ExecutionRoleArn:        executionRoleArn,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating %s task definition: %w", c.name, err)
	}

	if err := ctx.RegisterResourceOutputs(taskDef, pulumi.Map{
		"arn": taskDef.def.Arn,
	}); err != nil {
		return nil, err
	}
	return taskDef, nil
}
