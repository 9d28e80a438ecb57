package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planOf(resources ...*Resource) *Plan {
	plan := &Plan{Resources: map[string]map[string]*Resource{}}
	for _, r := range resources {
		if plan.Resources[r.Type] == nil {
			plan.Resources[r.Type] = map[string]*Resource{}
		}
		plan.Resources[r.Type][r.Name] = r
	}
	return plan
}

func TestTopologicalOrderBreaksTiesByKey(t *testing.T) {
	plan := planOf(
		&Resource{Type: "t:m:C", Name: "c", DependsOn: []string{"t:m:A::a"}},
		&Resource{Type: "t:m:B", Name: "b"},
		&Resource{Type: "t:m:A", Name: "a"},
		&Resource{Type: "t:m:D", Name: "d", Parent: "t:m:B::b"},
	)

	order, err := topologicalOrder(plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"t:m:A::a", "t:m:B::b", "t:m:C::c", "t:m:D::d"}, order)
}

func TestTopologicalOrderRejectsCycles(t *testing.T) {
	plan := planOf(
		&Resource{Type: "t:m:A", Name: "a", DependsOn: []string{"t:m:B::b"}},
		&Resource{Type: "t:m:B", Name: "b", DependsOn: []string{"t:m:A::a"}},
	)

	_, err := topologicalOrder(plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle")
}

func TestUrnKey(t *testing.T) {
	tests := []struct {
		urn  string
		want string
	}{
		{"urn:pulumi:dev::proj::aws:ec2/vpc:Vpc::vpc", "aws:ec2/vpc:Vpc::vpc"},
		{"urn:pulumi:dev::proj::proj:network:Network$aws:ec2/subnet:Subnet::network-a", "aws:ec2/subnet:Subnet::network-a"},
		{"urn:pulumi:dev::proj::pulumi:pulumi:Stack::proj-dev", "pulumi:pulumi:Stack::proj-dev"},
		{"", ""},
		{"not-a-urn", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, urnKey(tt.urn), tt.urn)
	}
}

func TestProviderKey(t *testing.T) {
	assert.Equal(t, "pulumi:providers:aws::aws",
		providerKey("urn:pulumi:dev::proj::pulumi:providers:aws::aws::aws_id"))
	assert.Equal(t, "", providerKey(""))
}

func TestPath(t *testing.T) {
	resources := map[string]*recordedResource{
		"c:m:Outer::outer": {typ: "c:m:Outer", name: "outer"},
		"c:m:Inner::inner": {typ: "c:m:Inner", name: "inner", parent: "c:m:Outer::outer"},
		"t:m:Leaf::leaf":   {typ: "t:m:Leaf", name: "leaf", parent: "c:m:Inner::inner"},
	}
	assert.Equal(t, "outer/inner/leaf", path(resources, resources["t:m:Leaf::leaf"]))
	assert.Equal(t, "outer", path(resources, resources["c:m:Outer::outer"]))
}

func TestPolicyDocumentCollapsesSingleValues(t *testing.T) {
	doc, err := policyDocument(map[string]interface{}{
		"statements": []interface{}{
			map[string]interface{}{
				"actions": []interface{}{"sts:AssumeRole"},
				"principals": []interface{}{
					map[string]interface{}{"type": "Service", "identifiers": []interface{}{"ecs-tasks.amazonaws.com"}},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2008-10-17",
		"Statement": [{"Effect": "Allow", "Action": "sts:AssumeRole", "Principal": {"Service": "ecs-tasks.amazonaws.com"}}]
	}`, doc)
}
