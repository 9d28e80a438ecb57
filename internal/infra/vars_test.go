package infra

import (
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultVars(t *testing.T) {
	vars := DefaultVars()

	assert.Equal(t, "us-east-1", vars.Region)
	assert.Equal(t, "10.255.0.0/16", vars.VpcCidr)
	assert.Equal(t, "10.255.48.10", vars.DatabasePrivateIp)
	assert.Equal(t, "ecs-microservices", vars.NameTagPrefix())
	assert.False(t, vars.AttachMonitoringPolicy)
	assert.NoError(t, vars.Validate())
}

func TestNameTagPrefixWithoutProjectTag(t *testing.T) {
	vars := DefaultVars()
	vars.DefaultTags = map[string]string{"environment": "dev"}
	assert.Equal(t, "", vars.NameTagPrefix())

	vars.DefaultTags = nil
	assert.Equal(t, "", vars.NameTagPrefix())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Vars)
		errors []string
	}{
		{
			name:   "custom vpc",
			modify: func(v *Vars) { v.VpcCidr = "10.0.0.0/16"; v.DatabasePrivateIp = "10.0.48.10" },
		},
		{
			name:   "empty region",
			modify: func(v *Vars) { v.Region = "" },
			errors: []string{"region must not be empty"},
		},
		{
			name:   "unparsable cidr",
			modify: func(v *Vars) { v.VpcCidr = "10.255.0.0" },
			errors: []string{`vpc cidr "10.255.0.0"`},
		},
		{
			name:   "ipv6 cidr",
			modify: func(v *Vars) { v.VpcCidr = "2600:1f18::/56" },
			errors: []string{"is not an IPv4 block"},
		},
		{
			name:   "cidr too small",
			modify: func(v *Vars) { v.VpcCidr = "10.255.0.0/26"; v.DatabasePrivateIp = "10.255.0.49" },
			errors: []string{"too small"},
		},
		{
			name:   "cidr too small skips database check",
			modify: func(v *Vars) { v.VpcCidr = "10.255.0.0/26" },
			errors: []string{"is too small to split into /30 subnets"},
		},
		{
			name:   "unparsable cidr skips database check",
			modify: func(v *Vars) { v.VpcCidr = "not-a-cidr" },
			errors: []string{`vpc cidr "not-a-cidr"`},
		},
		{
			name:   "database outside private subnet",
			modify: func(v *Vars) { v.DatabasePrivateIp = "10.255.0.10" },
			errors: []string{"outside the first private subnet 10.255.48.0/20"},
		},
		{
			name: "every problem at once",
			modify: func(v *Vars) {
				v.Region = ""
				v.Image = ""
				v.DatabasePrivateIp = "database"
			},
			errors: []string{"region must not be empty", "image must not be empty", "is not an IP address"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := DefaultVars()
			tt.modify(&vars)

			err := vars.Validate()
			if len(tt.errors) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var merr *multierror.Error
			require.ErrorAs(t, err, &merr)
			assert.Len(t, merr.Errors, len(tt.errors))
			for _, e := range merr.Errors {
				assert.True(t, strings.HasPrefix(e.Error(), "Error validating config: "), e.Error())
			}
			for _, msg := range tt.errors {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}
