package infra

import (
	"fmt"

	"github.com/pulumi/pulumi-command/sdk/go/command/local"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// newSmokeTest curls the client endpoint from the machine running the
// deployment. The load balancer only answers once a task is healthy, so the
// request retries for a few minutes.
func newSmokeTest(ctx *pulumi.Context, name string, endpoint pulumi.StringOutput, opts ...pulumi.ResourceOption) (*local.Command, error) {
	create := endpoint.ApplyT(func(host string) string {
		return fmt.Sprintf("curl --fail --silent --show-error --retry 20 --retry-delay 15 --retry-all-errors http://%s/", host)
	}).(pulumi.StringOutput)

	cmd, err := local.NewCommand(ctx, name, &local.CommandArgs{
		Create:   create,
		Triggers: pulumi.Array{endpoint},
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating smoke test: %w", err)
	}
	return cmd, nil
}
