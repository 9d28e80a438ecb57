package deploy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferenceFromEnv(t *testing.T) {
	t.Setenv(OrganizationEnvVar, "acme")

	ref := ReferenceFromEnv("ecs-microservices", "prod", "us-west-2")
	assert.Equal(t, Reference{
		Organization: "acme",
		Project:      "ecs-microservices",
		Stack:        "prod",
		Region:       "us-west-2",
	}, ref)
	assert.Equal(t, "acme/ecs-microservices/prod", ref.FullyQualifiedName())
}

func TestFullyQualifiedNameWithoutOrganization(t *testing.T) {
	t.Setenv(OrganizationEnvVar, "")

	ref := ReferenceFromEnv("ecs-microservices", "dev", "")
	assert.Equal(t, "dev", ref.FullyQualifiedName())
}

func TestDeployerRequiresStack(t *testing.T) {
	d := &Deployer{Ref: Reference{Project: "ecs-microservices"}}

	_, err := d.Up(context.Background())
	assert.EqualError(t, err, "stack name is required")
	_, err = d.Preview(context.Background())
	assert.EqualError(t, err, "stack name is required")
	assert.EqualError(t, d.Destroy(context.Background()), "stack name is required")
	_, err = d.Outputs(context.Background())
	assert.EqualError(t, err, "stack name is required")
}
